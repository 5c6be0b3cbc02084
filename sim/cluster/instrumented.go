package cluster

import (
	"sync"

	"github.com/inference-sim/cloudsim/sim"
	"github.com/inference-sim/cloudsim/sim/trace"
)

// instrumentedPolicy records every decision of the wrapped policy in the
// placement metrics and, when enabled, the decision trace.
type instrumentedPolicy struct {
	sim.AllocationPolicy

	datacenterID int
	metrics      *PlacementMetrics

	traceMu sync.Mutex
	trace   *trace.SimulationTrace // nil when tracing is off
}

func instrument(p sim.AllocationPolicy, dcID int, metrics *PlacementMetrics, st *trace.SimulationTrace) *instrumentedPolicy {
	if ip, ok := p.(*instrumentedPolicy); ok {
		p = ip.AllocationPolicy
	}
	return &instrumentedPolicy{AllocationPolicy: p, datacenterID: dcID, metrics: metrics, trace: st}
}

func (p *instrumentedPolicy) Allocate(vm *sim.Vm) bool {
	ok := p.AllocationPolicy.Allocate(vm)
	p.record(vm, ok, false)
	return ok
}

func (p *instrumentedPolicy) AllocateOn(vm *sim.Vm, host *sim.Host) bool {
	ok := p.AllocationPolicy.AllocateOn(vm, host)
	p.record(vm, ok, true)
	return ok
}

func (p *instrumentedPolicy) Deallocate(vm *sim.Vm) {
	host := p.AllocationPolicy.HostOf(vm)
	p.AllocationPolicy.Deallocate(vm)
	if host == nil {
		return
	}
	p.metrics.Releases.Inc()
	if p.trace != nil {
		p.traceMu.Lock()
		p.trace.RecordRelease(trace.ReleaseRecord{VmID: vm.ID, DatacenterID: p.datacenterID, HostID: host.ID})
		p.traceMu.Unlock()
	}
}

func (p *instrumentedPolicy) record(vm *sim.Vm, placed, forced bool) {
	outcome := OutcomeRejected
	switch {
	case placed && forced:
		outcome = OutcomeForced
	case placed:
		outcome = OutcomePlaced
	}
	p.metrics.observe(p.Name(), outcome)

	if p.trace == nil {
		return
	}
	rec := trace.PlacementRecord{
		VmID:         vm.ID,
		DatacenterID: p.datacenterID,
		Policy:       string(p.Name()),
		HostID:       -1,
		Placed:       placed,
		Forced:       forced,
		RamRequested: vm.Ram,
	}
	if host := p.AllocationPolicy.HostOf(vm); placed && host != nil {
		rec.HostID = host.ID
		rec.FreeRamAfter = host.AvailableRam()
	}
	p.traceMu.Lock()
	p.trace.RecordPlacement(rec)
	p.traceMu.Unlock()
}
