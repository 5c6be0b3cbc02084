// register.go wires the Simulator into the sim package's registration
// variable (NewEngineFunc). This init() runs when any package imports
// sim/engine, breaking the import cycle between sim/ (interface owner) and
// sim/engine/ (implementation).

package engine

import "github.com/inference-sim/cloudsim/sim"

func init() {
	sim.NewEngineFunc = func(cfg sim.EngineConfig) (sim.Engine, error) {
		return New(cfg), nil
	}
}
