package sim

// DefaultIDBase is the offset the first issued identifier is counted from.
const DefaultIDBase = 1000

// Registry issues identifiers and holds the canonical entity collections.
// One counter is shared by every entity kind, so an ID never collides with
// another entity's ID and does not reveal its kind.
type Registry struct {
	lastID int

	datacenters []*Datacenter
	hosts       []*Host
	vms         []*Vm
	cloudlets   []*Cloudlet

	hostByID     map[int]*Host
	vmByID       map[int]*Vm
	cloudletByID map[int]*Cloudlet
}

// NewRegistry creates a registry counting from DefaultIDBase.
func NewRegistry() *Registry {
	return NewRegistryFrom(DefaultIDBase)
}

// NewRegistryFrom creates a registry whose first ID is base+1.
func NewRegistryFrom(base int) *Registry {
	return &Registry{
		lastID:       base,
		hostByID:     make(map[int]*Host),
		vmByID:       make(map[int]*Vm),
		cloudletByID: make(map[int]*Cloudlet),
	}
}

// NextID returns an identifier strictly greater than every one issued before.
func (r *Registry) NextID() int {
	r.lastID++
	return r.lastID
}

// LastID returns the most recently issued identifier.
func (r *Registry) LastID() int {
	return r.lastID
}

func (r *Registry) AddDatacenter(dc *Datacenter) {
	r.datacenters = append(r.datacenters, dc)
}

func (r *Registry) AddHost(h *Host) {
	r.hosts = append(r.hosts, h)
	r.hostByID[h.ID] = h
}

// CreateVm validates the spec, issues an ID and stores the VM.
func (r *Registry) CreateVm(brokerID int, spec VmSpec) (*Vm, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	vm := NewVm(r.NextID(), brokerID, spec)
	r.vms = append(r.vms, vm)
	r.vmByID[vm.ID] = vm
	return vm, nil
}

// CreateCloudlet validates the spec, issues an ID and stores the cloudlet.
func (r *Registry) CreateCloudlet(brokerID int, spec CloudletSpec) (*Cloudlet, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	cl := NewCloudlet(r.NextID(), brokerID, spec)
	r.cloudlets = append(r.cloudlets, cl)
	r.cloudletByID[cl.ID] = cl
	return cl, nil
}

// Datacenters returns every datacenter in creation order.
func (r *Registry) Datacenters() []*Datacenter {
	return append([]*Datacenter(nil), r.datacenters...)
}

// Hosts returns every host in creation order, attached or not.
func (r *Registry) Hosts() []*Host {
	return append([]*Host(nil), r.hosts...)
}

// Vms returns the held VM list in creation order.
func (r *Registry) Vms() []*Vm {
	return append([]*Vm(nil), r.vms...)
}

// Cloudlets returns the held cloudlet list in creation order.
func (r *Registry) Cloudlets() []*Cloudlet {
	return append([]*Cloudlet(nil), r.cloudlets...)
}

func (r *Registry) Host(id int) (*Host, bool) {
	h, ok := r.hostByID[id]
	return h, ok
}

func (r *Registry) Vm(id int) (*Vm, bool) {
	vm, ok := r.vmByID[id]
	return vm, ok
}

func (r *Registry) Cloudlet(id int) (*Cloudlet, bool) {
	cl, ok := r.cloudletByID[id]
	return cl, ok
}

// Datacenter looks a datacenter up by ID.
func (r *Registry) Datacenter(id int) (*Datacenter, bool) {
	for _, dc := range r.datacenters {
		if dc.ID == id {
			return dc, true
		}
	}
	return nil, false
}

// ClearWorkload drops the held VM and cloudlet lists. IDs are not reused.
func (r *Registry) ClearWorkload() {
	r.vms = nil
	r.cloudlets = nil
	r.vmByID = make(map[int]*Vm)
	r.cloudletByID = make(map[int]*Cloudlet)
}
