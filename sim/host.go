package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DefaultPeMips is the throughput of every processing element.
const DefaultPeMips = 1000.0

// HostSpec is the capacity of a physical host.
type HostSpec struct {
	Ram         int   // MB
	Bandwidth   int64 // Mbit/s
	Storage     int64 // MB
	Pes         int
	VmScheduler SchedulingDiscipline
}

// Validate rejects capacities that cannot describe a real machine.
func (s HostSpec) Validate() error {
	switch {
	case s.Ram <= 0:
		return fmt.Errorf("%w: host ram must be positive, got %d", ErrInvalidSpec, s.Ram)
	case s.Pes <= 0:
		return fmt.Errorf("%w: host pes must be positive, got %d", ErrInvalidSpec, s.Pes)
	case s.Bandwidth < 0 || s.Storage < 0:
		return fmt.Errorf("%w: host bandwidth/storage must be non-negative", ErrInvalidSpec)
	case !ValidSchedulingDisciplines[string(s.VmScheduler)]:
		return fmt.Errorf("%w: unknown vm scheduler %q", ErrInvalidSpec, s.VmScheduler)
	}
	return nil
}

// Host is a physical machine. It reserves RAM, bandwidth, storage and
// processing capacity for the VMs it runs.
//
// Under TimeShared the VM scheduler reserves MIPS and a host may run VMs whose
// PE counts add up to more than its own; under SpaceShared every VM PE takes a
// whole host PE.
type Host struct {
	ID           int
	DatacenterID int // -1 while unattached

	totalRam     int
	totalBw      int64
	totalStorage int64
	pes          int
	peMips       float64
	vmScheduler  SchedulingDiscipline

	availableRam     int
	availableBw      int64
	availableStorage int64
	availableMips    float64
	usedPes          int

	vms []*Vm
}

// NewHost builds a host with spec.Pes processing elements of DefaultPeMips each.
func NewHost(id int, spec HostSpec) *Host {
	sched := spec.VmScheduler
	if sched == "" {
		sched = TimeShared
	}
	return &Host{
		ID:               id,
		DatacenterID:     -1,
		totalRam:         spec.Ram,
		totalBw:          spec.Bandwidth,
		totalStorage:     spec.Storage,
		pes:              spec.Pes,
		peMips:           DefaultPeMips,
		vmScheduler:      sched,
		availableRam:     spec.Ram,
		availableBw:      spec.Bandwidth,
		availableStorage: spec.Storage,
		availableMips:    DefaultPeMips * float64(spec.Pes),
		vms:              make([]*Vm, 0),
	}
}

func (h *Host) TotalRam() int                     { return h.totalRam }
func (h *Host) AvailableRam() int                 { return h.availableRam }
func (h *Host) TotalBandwidth() int64             { return h.totalBw }
func (h *Host) AvailableBandwidth() int64         { return h.availableBw }
func (h *Host) TotalStorage() int64               { return h.totalStorage }
func (h *Host) AvailableStorage() int64           { return h.availableStorage }
func (h *Host) Pes() int                          { return h.pes }
func (h *Host) PeMips() float64                   { return h.peMips }
func (h *Host) TotalMips() float64                { return h.peMips * float64(h.pes) }
func (h *Host) AvailableMips() float64            { return h.availableMips }
func (h *Host) VmScheduler() SchedulingDiscipline { return h.vmScheduler }

// FreePes is the number of PEs not reserved by any VM. It can be negative
// on a TimeShared host that runs more VM PEs than it has.
func (h *Host) FreePes() int {
	return h.pes - h.usedPes
}

// Vms returns the live set of VMs placed on this host.
func (h *Host) Vms() []*Vm {
	out := make([]*Vm, len(h.vms))
	copy(out, h.vms)
	return out
}

// HasVm reports whether vm is in the live set.
func (h *Host) HasVm(vm *Vm) bool {
	return h.indexOf(vm) >= 0
}

func (h *Host) indexOf(vm *Vm) int {
	for i, v := range h.vms {
		if v == vm {
			return i
		}
	}
	return -1
}

// IsSuitableForVm reports whether the host's PEs, VM scheduler, RAM and
// bandwidth can take the VM right now. Storage is checked by VmCreate.
func (h *Host) IsSuitableForVm(vm *Vm) bool {
	if vm.Pes > h.pes || vm.Mips > h.peMips {
		return false
	}
	switch h.vmScheduler {
	case SpaceShared:
		if h.FreePes() < vm.Pes {
			return false
		}
	default:
		if h.availableMips < vm.TotalMips() {
			return false
		}
	}
	return h.availableRam >= vm.Ram && h.availableBw >= vm.Bandwidth
}

// VmCreate reserves the VM's demand on this host and adds it to the live set.
// It returns false, leaving the host untouched, if any resource is short or
// the VM is already placed here.
func (h *Host) VmCreate(vm *Vm) bool {
	if h.HasVm(vm) {
		logrus.Debugf("host %d: vm %d already placed", h.ID, vm.ID)
		return false
	}
	if h.availableStorage < vm.Size {
		logrus.Debugf("host %d: not enough storage for vm %d (%d < %d)", h.ID, vm.ID, h.availableStorage, vm.Size)
		return false
	}
	if !h.IsSuitableForVm(vm) {
		logrus.Debugf("host %d: not suitable for vm %d", h.ID, vm.ID)
		return false
	}
	h.availableRam -= vm.Ram
	h.availableBw -= vm.Bandwidth
	h.availableStorage -= vm.Size
	h.availableMips -= vm.TotalMips()
	h.usedPes += vm.Pes
	h.vms = append(h.vms, vm)
	return true
}

// VmDestroy releases the VM's reservation. It is a no-op for a VM that is
// not on this host.
func (h *Host) VmDestroy(vm *Vm) {
	idx := h.indexOf(vm)
	if idx < 0 {
		return
	}
	h.vms = append(h.vms[:idx], h.vms[idx+1:]...)
	h.availableRam += vm.Ram
	h.availableBw += vm.Bandwidth
	h.availableStorage += vm.Size
	h.availableMips += vm.TotalMips()
	h.usedPes -= vm.Pes
}

func (h *Host) String() string {
	return fmt.Sprintf("Host: (ID: %d, Pes: %d, Ram: %d/%d, Scheduler: %s)",
		h.ID, h.pes, h.availableRam, h.totalRam, h.vmScheduler)
}
