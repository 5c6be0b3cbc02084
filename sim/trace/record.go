// Package trace provides decision-trace recording for VM placement analysis.
// This package has no dependencies on sim/ or sim/cluster/. It stores pure data types.
package trace

// PlacementRecord captures a single allocation policy decision.
type PlacementRecord struct {
	VmID         int
	DatacenterID int
	Policy       string
	HostID       int  // -1 when no host accepted the VM
	Placed       bool
	Forced       bool // host chosen by the caller, not by the policy
	RamRequested int
	FreeRamAfter int // available RAM on the chosen host after placement
}

// ReleaseRecord captures a VM leaving its host.
type ReleaseRecord struct {
	VmID         int
	DatacenterID int
	HostID       int
}
