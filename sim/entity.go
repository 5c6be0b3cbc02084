package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidSpec is returned when an entity is requested with impossible
// capacity or demand values. It is a fatal configuration error.
var ErrInvalidSpec = errors.New("invalid entity spec")

// SchedulingDiscipline governs how a Host shares its PEs among VMs, or how a
// Vm shares its PEs among cloudlets.
type SchedulingDiscipline string

const (
	TimeShared  SchedulingDiscipline = "TimeShared"
	SpaceShared SchedulingDiscipline = "SpaceShared"
)

// ValidSchedulingDisciplines is the set of recognized discipline names.
// Empty means "not set" and resolves to TimeShared.
var ValidSchedulingDisciplines = map[string]bool{"": true, "TimeShared": true, "SpaceShared": true}

// ParseSchedulingDiscipline maps a name to a discipline. Anything other than
// "SpaceShared" is TimeShared.
func ParseSchedulingDiscipline(name string) SchedulingDiscipline {
	if name == string(SpaceShared) {
		return SpaceShared
	}
	return TimeShared
}

// DatacenterCharacteristics describes the static properties of a datacenter.
type DatacenterCharacteristics struct {
	Architecture     string
	OS               string
	VMM              string
	TimeZone         float64
	CostPerSecond    float64
	CostPerMemory    float64
	CostPerStorage   float64
	CostPerBandwidth float64
}

// DefaultCharacteristics are applied to every datacenter.
var DefaultCharacteristics = DatacenterCharacteristics{
	Architecture:   "x86",
	OS:             "Linux",
	VMM:            "Xen",
	TimeZone:       10.0,
	CostPerSecond:  3.0,
	CostPerMemory:  0.05,
	CostPerStorage: 0.001,
}

// Datacenter owns an ordered list of hosts and the allocation policy that
// places VMs on them. It implements HostSource, so a policy bound to it sees
// hosts attached after the policy was created.
type Datacenter struct {
	ID              int
	Name            string
	Characteristics DatacenterCharacteristics

	hosts  []*Host
	policy AllocationPolicy
}

func newDatacenter(id int) *Datacenter {
	return &Datacenter{
		ID:              id,
		Name:            fmt.Sprintf("Datacenter-%d", id),
		Characteristics: DefaultCharacteristics,
		hosts:           make([]*Host, 0),
	}
}

// Hosts returns the attached hosts in attachment order.
func (dc *Datacenter) Hosts() []*Host {
	out := make([]*Host, len(dc.hosts))
	copy(out, dc.hosts)
	return out
}

// AddHost attaches a host to this datacenter.
func (dc *Datacenter) AddHost(h *Host) {
	h.DatacenterID = dc.ID
	dc.hosts = append(dc.hosts, h)
}

// AllocationPolicy returns the policy currently used for VM placement.
func (dc *Datacenter) AllocationPolicy() AllocationPolicy {
	return dc.policy
}

// SetAllocationPolicy swaps the placement policy.
func (dc *Datacenter) SetAllocationPolicy(p AllocationPolicy) {
	dc.policy = p
}

// VmSpec is the resource demand of a virtual machine.
type VmSpec struct {
	Mips              float64 // per PE
	Pes               int
	Ram               int   // MB
	Bandwidth         int64 // Mbit/s
	Size              int64 // MB of image storage
	CloudletScheduler SchedulingDiscipline
}

// Validate rejects demands no host could ever satisfy.
func (s VmSpec) Validate() error {
	switch {
	case s.Mips <= 0:
		return fmt.Errorf("%w: vm mips must be positive, got %v", ErrInvalidSpec, s.Mips)
	case s.Pes <= 0:
		return fmt.Errorf("%w: vm pes must be positive, got %d", ErrInvalidSpec, s.Pes)
	case s.Ram < 0 || s.Bandwidth < 0 || s.Size < 0:
		return fmt.Errorf("%w: vm ram/bandwidth/size must be non-negative", ErrInvalidSpec)
	case !ValidSchedulingDisciplines[string(s.CloudletScheduler)]:
		return fmt.Errorf("%w: unknown cloudlet scheduler %q", ErrInvalidSpec, s.CloudletScheduler)
	}
	return nil
}

// Vm is a virtual machine owned by a broker. It is placed on at most one
// Host at a time; the mapping is kept by the AllocationPolicy.
type Vm struct {
	ID                int
	BrokerID          int
	Mips              float64
	Pes               int
	Ram               int
	Bandwidth         int64
	Size              int64
	Vmm               string
	CloudletScheduler SchedulingDiscipline
}

// NewVm builds a Vm from a validated spec.
func NewVm(id, brokerID int, spec VmSpec) *Vm {
	sched := spec.CloudletScheduler
	if sched == "" {
		sched = TimeShared
	}
	return &Vm{
		ID:                id,
		BrokerID:          brokerID,
		Mips:              spec.Mips,
		Pes:               spec.Pes,
		Ram:               spec.Ram,
		Bandwidth:         spec.Bandwidth,
		Size:              spec.Size,
		Vmm:               "Xen",
		CloudletScheduler: sched,
	}
}

// UID identifies the VM within its owning broker.
func (vm *Vm) UID() string {
	return fmt.Sprintf("%d-%d", vm.ID, vm.BrokerID)
}

// TotalMips is the MIPS demand across all of the VM's PEs.
func (vm *Vm) TotalMips() float64 {
	return vm.Mips * float64(vm.Pes)
}

// CloudletStatus is the engine-owned lifecycle state of a cloudlet.
type CloudletStatus string

const (
	CloudletCreated  CloudletStatus = "CREATED"
	CloudletReady    CloudletStatus = "READY"
	CloudletQueued   CloudletStatus = "QUEUED"
	CloudletInExec   CloudletStatus = "INEXEC"
	CloudletSuccess  CloudletStatus = "SUCCESS"
	CloudletFailed   CloudletStatus = "FAILED"
	CloudletCanceled CloudletStatus = "CANCELED"
	CloudletPaused   CloudletStatus = "PAUSED"
)

// CloudletSpec is the size of a unit of work.
type CloudletSpec struct {
	Length     int64 // instructions (MI) per PE
	Pes        int
	FileSize   int64
	OutputSize int64
}

// Validate rejects empty or negative workloads.
func (s CloudletSpec) Validate() error {
	switch {
	case s.Length <= 0:
		return fmt.Errorf("%w: cloudlet length must be positive, got %d", ErrInvalidSpec, s.Length)
	case s.Pes <= 0:
		return fmt.Errorf("%w: cloudlet pes must be positive, got %d", ErrInvalidSpec, s.Pes)
	case s.FileSize < 0 || s.OutputSize < 0:
		return fmt.Errorf("%w: cloudlet file/output size must be non-negative", ErrInvalidSpec)
	}
	return nil
}

// Cloudlet is a unit of workload executed by a Vm. Execution fields are
// written by the engine; this package only creates and submits cloudlets.
type Cloudlet struct {
	ID         int
	BrokerID   int
	Length     int64
	Pes        int
	FileSize   int64
	OutputSize int64

	VmID          int // -1 until the broker binds the cloudlet
	DatacenterID  int // -1 until submitted to a datacenter
	ExecStartTime float64
	FinishTime    float64
	Status        CloudletStatus
}

// NewCloudlet builds an unbound cloudlet from a validated spec.
func NewCloudlet(id, brokerID int, spec CloudletSpec) *Cloudlet {
	return &Cloudlet{
		ID:           id,
		BrokerID:     brokerID,
		Length:       spec.Length,
		Pes:          spec.Pes,
		FileSize:     spec.FileSize,
		OutputSize:   spec.OutputSize,
		VmID:         -1,
		DatacenterID: -1,
		Status:       CloudletCreated,
	}
}

// TotalLength is the work across all of the cloudlet's PEs.
func (c *Cloudlet) TotalLength() float64 {
	return float64(c.Length) * float64(c.Pes)
}

func (c *Cloudlet) String() string {
	return fmt.Sprintf("Cloudlet: (ID: %d, Vm: %d, Status: %s, Start: %.2f, Finish: %.2f)",
		c.ID, c.VmID, c.Status, c.ExecStartTime, c.FinishTime)
}
