package sim

import "errors"

var (
	// ErrNoEngine means no engine implementation has been registered.
	ErrNoEngine = errors.New("no simulation engine registered (import sim/engine)")
	// ErrNoLinkTopology means no link topology implementation has been registered.
	ErrNoLinkTopology = errors.New("no link topology registered (import sim/network)")
)

// Engine advances simulated time and executes submitted workload. It runs
// the broker protocol: VMs are placed through each datacenter's
// AllocationPolicy, cloudlets are bound to the created VMs and run, and the
// VMs are released once every cloudlet has returned.
type Engine interface {
	// RegisterDatacenter makes a datacenter available for VM placement.
	RegisterDatacenter(dc *Datacenter) error
	// Submit queues VMs and cloudlets owned by brokerID for the next Start.
	Submit(brokerID int, vms []*Vm, cloudlets []*Cloudlet)
	// Start runs the simulation until no events remain. It blocks.
	Start() error
	// Stop ends a running simulation at the next event boundary.
	Stop()
	// Pause stops simulated time at the next event boundary. It returns
	// false when there is nothing to pause.
	Pause() bool
	// Resume continues a paused simulation. It returns false when the
	// simulation is not paused.
	Resume() bool
	// Completed returns every cloudlet the broker received back, in order.
	Completed() []*Cloudlet
}

// LinkTopology stores links between entities and derives message delays.
type LinkTopology interface {
	// Register makes id a valid link endpoint.
	Register(id int)
	// AddLink connects a and b. It fails for unknown or invalid endpoints.
	AddLink(a, b int, bandwidth, latency float64) error
	// Delay is the latency of a message from a to b, 0 if unconnected.
	Delay(a, b int) float64
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	Links LinkTopology // optional; nil means no message delays
}

// NewEngineFunc is the factory for Engine, set by sim/engine's init().
var NewEngineFunc func(cfg EngineConfig) (Engine, error)

// NewLinkTopologyFunc is the factory for LinkTopology, set by sim/network's init().
var NewLinkTopologyFunc func() LinkTopology

// NewEngine creates an Engine through the registered factory.
func NewEngine(cfg EngineConfig) (Engine, error) {
	if NewEngineFunc == nil {
		return nil, ErrNoEngine
	}
	return NewEngineFunc(cfg)
}

// NewLinkTopology creates a LinkTopology through the registered factory.
func NewLinkTopology() (LinkTopology, error) {
	if NewLinkTopologyFunc == nil {
		return nil, ErrNoLinkTopology
	}
	return NewLinkTopologyFunc(), nil
}
