package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Topology builds datacenters and hosts and tracks the current datacenter,
// the one hosts attach to when no datacenter is named explicitly.
type Topology struct {
	registry *Registry
	current  *Datacenter
	orphans  []*Host
}

// NewTopology creates an empty topology backed by registry.
func NewTopology(registry *Registry) *Topology {
	return &Topology{registry: registry}
}

// Current returns the datacenter created last, or nil before the first one.
func (t *Topology) Current() *Datacenter {
	return t.current
}

// Orphans returns hosts created while no datacenter existed. They are never
// attached retroactively.
func (t *Topology) Orphans() []*Host {
	return append([]*Host(nil), t.orphans...)
}

// CreateDatacenter builds a datacenter with an empty host list and the
// simple allocation policy. register, if non-nil, is called before the
// datacenter is committed; its error aborts the creation.
func (t *Topology) CreateDatacenter(register func(*Datacenter) error) (*Datacenter, error) {
	dc := newDatacenter(t.registry.NextID())
	dc.SetAllocationPolicy(NewAllocationPolicy(AllocationSimple, dc))
	if register != nil {
		if err := register(dc); err != nil {
			return nil, fmt.Errorf("registering datacenter %d: %w", dc.ID, err)
		}
	}
	t.registry.AddDatacenter(dc)
	t.current = dc
	logrus.Debugf("created %s", dc.Name)
	return dc, nil
}

// CreateHost creates a host and attaches it to the current datacenter, if
// any. A host created before the first datacenter stays unattached.
func (t *Topology) CreateHost(spec HostSpec) (*Host, error) {
	return t.CreateHostIn(t.current, spec)
}

// CreateHostIn creates a host and attaches it to dc. A nil dc leaves the host
// unattached.
func (t *Topology) CreateHostIn(dc *Datacenter, spec HostSpec) (*Host, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	h := NewHost(t.registry.NextID(), spec)
	t.registry.AddHost(h)
	if dc == nil {
		t.orphans = append(t.orphans, h)
		logrus.Warnf("host %d created with no datacenter; it will not be used for placement", h.ID)
		return h, nil
	}
	dc.AddHost(h)
	logrus.Debugf("created host %d in %s", h.ID, dc.Name)
	return h, nil
}
