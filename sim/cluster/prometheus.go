package cluster

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inference-sim/cloudsim/sim"
)

const metricsNamespace = "cloudsim"

const (
	descHostRamCapacity = iota
	descHostRamAvailable
	descHostVms
)

var hostDescriptors = []*prometheus.Desc{
	descHostRamCapacity: prometheus.NewDesc(
		metricsNamespace+"_host_ram_capacity_mb",
		"Total RAM of a host.",
		[]string{"datacenter", "host"},
		nil,
	),
	descHostRamAvailable: prometheus.NewDesc(
		metricsNamespace+"_host_ram_available_mb",
		"RAM of a host not reserved by any VM.",
		[]string{"datacenter", "host"},
		nil,
	),
	descHostVms: prometheus.NewDesc(
		metricsNamespace+"_host_vms",
		"Number of VMs placed on a host.",
		[]string{"datacenter", "host"},
		nil,
	),
}

// hostCollector exports the live capacity of every registered host. It reads
// hosts without locking, so gather between runs.
type hostCollector struct {
	registry *sim.Registry
}

func (c *hostCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range hostDescriptors {
		ch <- d
	}
}

func (c *hostCollector) Collect(ch chan<- prometheus.Metric) {
	for _, h := range c.registry.Hosts() {
		dc := strconv.Itoa(h.DatacenterID)
		id := strconv.Itoa(h.ID)
		ch <- prometheus.MustNewConstMetric(hostDescriptors[descHostRamCapacity], prometheus.GaugeValue, float64(h.TotalRam()), dc, id)
		ch <- prometheus.MustNewConstMetric(hostDescriptors[descHostRamAvailable], prometheus.GaugeValue, float64(h.AvailableRam()), dc, id)
		ch <- prometheus.MustNewConstMetric(hostDescriptors[descHostVms], prometheus.GaugeValue, float64(len(h.Vms())), dc, id)
	}
}

// Placement outcomes used as the "outcome" label.
const (
	OutcomePlaced   = "placed"
	OutcomeRejected = "rejected"
	OutcomeForced   = "forced"
)

// PlacementMetrics counts allocation policy decisions.
type PlacementMetrics struct {
	Decisions *prometheus.CounterVec // labels: policy, outcome
	Releases  prometheus.Counter
	Runs      prometheus.Counter

	registry *prometheus.Registry
}

func newPlacementMetrics(hosts *sim.Registry) *PlacementMetrics {
	m := &PlacementMetrics{
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "placement_decisions_total",
			Help:      "VM placement decisions by policy and outcome.",
		}, []string{"policy", "outcome"}),
		Releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "vm_releases_total",
			Help:      "VMs released from their host.",
		}),
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Simulation runs started.",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.Decisions, m.Releases, m.Runs, &hostCollector{registry: hosts})
	return m
}

func (m *PlacementMetrics) observe(policy sim.AllocationKind, outcome string) {
	m.Decisions.WithLabelValues(string(policy), outcome).Inc()
}

// DecisionCounts reads the placement decision counters, keyed by outcome and
// summed across policies.
func (m *PlacementMetrics) DecisionCounts() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != metricsNamespace+"_placement_decisions_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "outcome" {
					counts[lp.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	return counts, nil
}
