package network

import "github.com/inference-sim/cloudsim/sim"

func init() {
	sim.NewLinkTopologyFunc = func() sim.LinkTopology {
		return NewTopology()
	}
}
