package cluster

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/cloudsim/sim"
)

// LoadScenario builds the topology, workload and links of sc. Orphan hosts
// are created first, then the datacenters, hosts, VMs, cloudlets and links in
// file order. The scenario is validated before anything is created.
func (o *Orchestrator) LoadScenario(sc *sim.Scenario) error {
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("invalid scenario: %w", err)
	}

	for _, h := range sc.OrphanHosts {
		for i := 0; i < sim.Replicas(h.Count); i++ {
			if _, err := o.topology.CreateHostIn(nil, h.Spec()); err != nil {
				return err
			}
		}
	}

	dcIDs := make([]int, 0, sc.Datacenters)
	for i := 0; i < sc.Datacenters; i++ {
		id, err := o.CreateDatacenter()
		if err != nil {
			return err
		}
		dcIDs = append(dcIDs, id)
	}

	for _, h := range sc.Hosts {
		for i := 0; i < sim.Replicas(h.Count); i++ {
			if err := o.createScenarioHost(h, dcIDs); err != nil {
				return err
			}
		}
	}

	for _, v := range sc.Vms {
		spec := v.Spec()
		for i := 0; i < sim.Replicas(v.Count); i++ {
			if _, err := o.CreateVm(spec.Mips, spec.Pes, spec.Ram, spec.Bandwidth, spec.Size, spec.CloudletScheduler); err != nil {
				return err
			}
		}
	}

	for _, c := range sc.Cloudlets {
		for i := 0; i < sim.Replicas(c.Count); i++ {
			if _, err := o.CreateCloudlet(c.Length, c.Pes, c.FileSize, c.OutputSize); err != nil {
				return err
			}
		}
	}

	for i, l := range sc.Links {
		from, err := o.resolveEndpoint(l.From, dcIDs)
		if err != nil {
			return fmt.Errorf("links[%d]: %w", i, err)
		}
		to, err := o.resolveEndpoint(l.To, dcIDs)
		if err != nil {
			return fmt.Errorf("links[%d]: %w", i, err)
		}
		if !o.AddLink(from, to, l.Bandwidth, l.Latency) {
			return fmt.Errorf("links[%d]: link %d <-> %d rejected", i, from, to)
		}
	}

	logrus.Infof("orchestrator: scenario loaded (%d datacenter(s), %d host(s), %d vm(s), %d cloudlet(s))",
		len(o.registry.Datacenters()), len(o.registry.Hosts()), len(o.registry.Vms()), len(o.registry.Cloudlets()))
	return nil
}

func (o *Orchestrator) createScenarioHost(h sim.HostConfig, dcIDs []int) error {
	spec := h.Spec()
	if h.Datacenter == nil {
		_, err := o.CreateHost(spec.Ram, spec.Bandwidth, spec.Storage, spec.Pes, spec.VmScheduler)
		return err
	}
	_, err := o.CreateHostIn(dcIDs[*h.Datacenter], spec.Ram, spec.Bandwidth, spec.Storage, spec.Pes, spec.VmScheduler)
	return err
}

func (o *Orchestrator) resolveEndpoint(s string, dcIDs []int) (int, error) {
	ep, err := sim.ParseEndpoint(s)
	if err != nil {
		return 0, err
	}
	switch ep.Kind {
	case sim.EndpointBroker:
		return o.brokerID, nil
	case sim.EndpointDatacenter:
		if ep.Value >= len(dcIDs) {
			return 0, fmt.Errorf("datacenter index %d out of range", ep.Value)
		}
		return dcIDs[ep.Value], nil
	default:
		return ep.Value, nil
	}
}
