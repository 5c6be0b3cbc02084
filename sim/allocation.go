package sim

import (
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"
)

// AllocationKind names one of the VM placement strategies.
type AllocationKind string

const (
	// AllocationSimple places a VM on the host with the most free PEs that
	// accepts it.
	AllocationSimple AllocationKind = "simple"
	// AllocationBestFit places a VM on the suitable host with the least
	// available RAM that still covers the VM's RAM demand.
	AllocationBestFit AllocationKind = "best-fit"
)

// ValidAllocationPolicies is the set of recognized allocation policy names.
// Empty string means "not set" and resolves to simple.
var ValidAllocationPolicies = map[string]bool{"": true, "simple": true, "best-fit": true}

// IsValidAllocationPolicy returns true if name is a recognized policy name.
func IsValidAllocationPolicy(name string) bool {
	return ValidAllocationPolicies[name]
}

// ParseAllocationKind maps a policy name to its kind.
func ParseAllocationKind(name string) (AllocationKind, error) {
	if !IsValidAllocationPolicy(name) {
		return "", fmt.Errorf("unknown allocation policy %q", name)
	}
	if name == "" {
		return AllocationSimple, nil
	}
	return AllocationKind(name), nil
}

// HostSource supplies the ordered host list a policy scans. It is read on
// every decision so hosts added later are seen.
type HostSource interface {
	Hosts() []*Host
}

// AllocationPolicy decides which host runs a VM and keeps the VM-to-host
// mapping consistent with each host's live VM set.
type AllocationPolicy interface {
	// Allocate searches for a host and places vm on it.
	Allocate(vm *Vm) bool
	// AllocateOn places vm on host without searching.
	AllocateOn(vm *Vm, host *Host) bool
	// Deallocate releases vm from its host; no-op if vm is not placed.
	Deallocate(vm *Vm)
	// HostOf returns the host vm is placed on, or nil.
	HostOf(vm *Vm) *Host
	Name() AllocationKind
}

// NewAllocationPolicy creates a policy of the given kind over hosts.
// Empty kind defaults to simple. Panics on unrecognized kinds.
func NewAllocationPolicy(kind AllocationKind, hosts HostSource) AllocationPolicy {
	if !IsValidAllocationPolicy(string(kind)) {
		panic(fmt.Sprintf("unknown allocation policy %q", kind))
	}
	switch kind {
	case "", AllocationSimple:
		p := &SimpleAllocation{}
		p.init(hosts)
		return p
	case AllocationBestFit:
		p := &BestFitAllocation{}
		p.init(hosts)
		return p
	default:
		panic(fmt.Sprintf("unhandled allocation policy %q", kind))
	}
}

// vmTable is the VM-to-host mapping shared by both policies. Its mutex
// serializes every allocation and deallocation of one policy instance.
type vmTable struct {
	mu     sync.Mutex
	source HostSource
	hosts  map[string]*Host // vm UID -> host
}

func (t *vmTable) init(source HostSource) {
	t.source = source
	t.hosts = make(map[string]*Host)
}

// place materializes vm on host and records the mapping on success.
// Caller holds mu.
func (t *vmTable) place(vm *Vm, host *Host) bool {
	if !host.VmCreate(vm) {
		return false
	}
	t.hosts[vm.UID()] = host
	return true
}

// AllocateOn implements AllocationPolicy.
func (t *vmTable) AllocateOn(vm *Vm, host *Host) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, placed := t.hosts[vm.UID()]; placed {
		return false
	}
	return t.place(vm, host)
}

// Deallocate implements AllocationPolicy.
func (t *vmTable) Deallocate(vm *Vm) {
	t.mu.Lock()
	defer t.mu.Unlock()
	host, ok := t.hosts[vm.UID()]
	if !ok {
		return
	}
	delete(t.hosts, vm.UID())
	host.VmDestroy(vm)
}

// HostOf implements AllocationPolicy.
func (t *vmTable) HostOf(vm *Vm) *Host {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hosts[vm.UID()]
}

// SimpleAllocation tries hosts in decreasing order of free PEs and keeps the
// first one that accepts the VM. Ties are broken by host order.
type SimpleAllocation struct {
	vmTable
}

// Name implements AllocationPolicy.
func (s *SimpleAllocation) Name() AllocationKind { return AllocationSimple }

// Allocate implements AllocationPolicy for SimpleAllocation.
func (s *SimpleAllocation) Allocate(vm *Vm) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, placed := s.hosts[vm.UID()]; placed {
		return false
	}

	hosts := s.source.Hosts()
	tried := make([]bool, len(hosts))
	for attempt := 0; attempt < len(hosts); attempt++ {
		best := -1
		bestFree := math.MinInt
		for i, h := range hosts {
			if !tried[i] && h.FreePes() > bestFree {
				bestFree = h.FreePes()
				best = i
			}
		}
		if best == -1 {
			break
		}
		tried[best] = true
		if s.place(vm, hosts[best]) {
			logrus.Debugf("simple: vm %d -> host %d (free pes=%d)", vm.ID, hosts[best].ID, bestFree)
			return true
		}
	}
	logrus.Debugf("simple: no host accepted vm %d", vm.ID)
	return false
}

// BestFitAllocation places a VM on the tightest RAM fit. A host is a
// candidate if it reports itself suitable and its available RAM covers the
// VM's RAM; the candidate with the smallest available RAM wins, first seen on
// ties. Only RAM is ranked.
type BestFitAllocation struct {
	vmTable
}

// Name implements AllocationPolicy.
func (b *BestFitAllocation) Name() AllocationKind { return AllocationBestFit }

// Allocate implements AllocationPolicy for BestFitAllocation.
func (b *BestFitAllocation) Allocate(vm *Vm) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, placed := b.hosts[vm.UID()]; placed {
		return false
	}

	var best *Host
	bestFree := math.MaxInt
	for _, h := range b.source.Hosts() {
		free := h.AvailableRam()
		// strict < keeps the first host among equally tight candidates
		if h.IsSuitableForVm(vm) && free >= vm.Ram && free < bestFree {
			bestFree = free
			best = h
		}
	}
	if best == nil {
		logrus.Debugf("best-fit: no candidate host for vm %d (ram=%d)", vm.ID, vm.Ram)
		return false
	}
	if !b.place(vm, best) {
		logrus.Debugf("best-fit: host %d refused vm %d", best.ID, vm.ID)
		return false
	}
	logrus.Debugf("best-fit: vm %d -> host %d (free ram=%d)", vm.ID, best.ID, bestFree)
	return true
}
