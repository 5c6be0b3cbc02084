package cluster

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/inference-sim/cloudsim/sim"
	"github.com/inference-sim/cloudsim/sim/trace"
)

// DefaultExportPath is where ExportResults writes unless configured.
const DefaultExportPath = "results.csv"

// State is the orchestration lifecycle stage.
type State string

const (
	StateEmpty             State = "Empty"
	StateTopologyBuilt     State = "TopologyBuilt"
	StateWorkloadSubmitted State = "WorkloadSubmitted"
	StateRunning           State = "Running"
	StatePaused            State = "Paused"
	StateFinished          State = "Finished"
)

// Option configures an Orchestrator.
type Option func(*config)

type config struct {
	fs         afero.Fs
	exportPath string
	engine     sim.Engine
	links      sim.LinkTopology
	traceLevel trace.TraceLevel
}

// WithFs sets the filesystem used for export. Defaults to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(c *config) { c.fs = fs }
}

// WithExportPath sets the CSV export path.
func WithExportPath(path string) Option {
	return func(c *config) { c.exportPath = path }
}

// WithEngine uses e instead of the registered engine factory.
func WithEngine(e sim.Engine) Option {
	return func(c *config) { c.engine = e }
}

// WithLinkTopology uses l instead of the registered link topology factory.
func WithLinkTopology(l sim.LinkTopology) Option {
	return func(c *config) { c.links = l }
}

// WithTraceLevel enables the placement decision trace.
func WithTraceLevel(level trace.TraceLevel) Option {
	return func(c *config) { c.traceLevel = level }
}

// Orchestrator ties topology construction, workload submission, policy
// selection, engine control, aggregation and export into one sequence.
// Construction methods and Run are meant for a single goroutine; Pause,
// Resume and State may be called from any goroutine.
type Orchestrator struct {
	registry *sim.Registry
	topology *sim.Topology
	engine   sim.Engine
	links    sim.LinkTopology
	brokerID int

	fs         afero.Fs
	exportPath string

	metrics *PlacementMetrics
	trace   *trace.SimulationTrace

	mu       sync.Mutex
	running  bool
	paused   bool
	finished bool
	results  *sim.ResultSet
}

// New creates an orchestrator with a fresh registry. The broker is the first
// registered entity. It fails when no engine or link topology is available.
func New(opts ...Option) (*Orchestrator, error) {
	cfg := config{exportPath: DefaultExportPath}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !trace.IsValidTraceLevel(string(cfg.traceLevel)) {
		return nil, fmt.Errorf("unknown trace level %q", cfg.traceLevel)
	}
	if cfg.fs == nil {
		cfg.fs = afero.NewOsFs()
	}
	if cfg.links == nil {
		links, err := sim.NewLinkTopology()
		if err != nil {
			return nil, err
		}
		cfg.links = links
	}
	if cfg.engine == nil {
		engine, err := sim.NewEngine(sim.EngineConfig{Links: cfg.links})
		if err != nil {
			return nil, err
		}
		cfg.engine = engine
	}

	registry := sim.NewRegistry()
	o := &Orchestrator{
		registry:   registry,
		topology:   sim.NewTopology(registry),
		engine:     cfg.engine,
		links:      cfg.links,
		brokerID:   registry.NextID(),
		fs:         cfg.fs,
		exportPath: cfg.exportPath,
		metrics:    newPlacementMetrics(registry),
	}
	if tc := (trace.TraceConfig{Level: cfg.traceLevel}); tc.Enabled() {
		o.trace = trace.NewSimulationTrace(tc)
	}
	o.links.Register(o.brokerID)
	logrus.Debugf("orchestrator: broker %d", o.brokerID)
	return o, nil
}

// BrokerID is the ID of the broker owning every VM and cloudlet.
func (o *Orchestrator) BrokerID() int { return o.brokerID }

// FirstDatacenterID is the ID of the first datacenter, or -1 if none exists.
func (o *Orchestrator) FirstDatacenterID() int {
	dcs := o.registry.Datacenters()
	if len(dcs) == 0 {
		return -1
	}
	return dcs[0].ID
}

// Registry exposes the entity collections.
func (o *Orchestrator) Registry() *sim.Registry { return o.registry }

// Topology exposes the datacenter/host structure.
func (o *Orchestrator) Topology() *sim.Topology { return o.topology }

// Metrics is the prometheus registry holding placement and host metrics.
func (o *Orchestrator) Metrics() *prometheus.Registry { return o.metrics.registry }

// PlacementMetrics exposes the placement counters.
func (o *Orchestrator) PlacementMetrics() *PlacementMetrics { return o.metrics }

// Trace returns the placement decision trace, or nil when tracing is off.
func (o *Orchestrator) Trace() *trace.SimulationTrace { return o.trace }

// Results returns the result set of the last run, or nil before any run.
func (o *Orchestrator) Results() *sim.ResultSet {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.results
}

// State reports the lifecycle stage.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case o.running && o.paused:
		return StatePaused
	case o.running:
		return StateRunning
	case o.finished:
		return StateFinished
	}
	hasTopology := len(o.registry.Datacenters()) > 0 || len(o.registry.Hosts()) > 0
	hasWorkload := len(o.registry.Vms()) > 0 || len(o.registry.Cloudlets()) > 0
	switch {
	case hasWorkload:
		return StateWorkloadSubmitted
	case hasTopology:
		return StateTopologyBuilt
	}
	return StateEmpty
}

// CreateDatacenter creates a datacenter, registers it with the engine and
// makes it current. A registration failure is fatal.
func (o *Orchestrator) CreateDatacenter() (int, error) {
	dc, err := o.topology.CreateDatacenter(o.engine.RegisterDatacenter)
	if err != nil {
		return 0, err
	}
	o.links.Register(dc.ID)
	logrus.Infof("orchestrator: created %s", dc.Name)
	return dc.ID, nil
}

// CreateHost creates a host attached to the current datacenter. A host
// created before any datacenter is never used for placement. An unrecognised
// scheduler name falls back to TimeShared.
func (o *Orchestrator) CreateHost(ram int, bandwidth, storage int64, pes int, scheduler sim.SchedulingDiscipline) (int, error) {
	h, err := o.topology.CreateHost(hostSpec(ram, bandwidth, storage, pes, scheduler))
	if err != nil {
		return 0, err
	}
	return h.ID, nil
}

// CreateHostIn creates a host attached to the datacenter with the given ID.
func (o *Orchestrator) CreateHostIn(datacenterID int, ram int, bandwidth, storage int64, pes int, scheduler sim.SchedulingDiscipline) (int, error) {
	dc, ok := o.registry.Datacenter(datacenterID)
	if !ok {
		return 0, fmt.Errorf("unknown datacenter %d", datacenterID)
	}
	h, err := o.topology.CreateHostIn(dc, hostSpec(ram, bandwidth, storage, pes, scheduler))
	if err != nil {
		return 0, err
	}
	return h.ID, nil
}

func hostSpec(ram int, bandwidth, storage int64, pes int, scheduler sim.SchedulingDiscipline) sim.HostSpec {
	return sim.HostSpec{Ram: ram, Bandwidth: bandwidth, Storage: storage, Pes: pes, VmScheduler: normalizeScheduler(scheduler)}
}

// normalizeScheduler maps any name other than SpaceShared to TimeShared.
func normalizeScheduler(scheduler sim.SchedulingDiscipline) sim.SchedulingDiscipline {
	return sim.ParseSchedulingDiscipline(string(scheduler))
}

// CreateVm creates a VM owned by the broker. An unrecognised scheduler name
// falls back to TimeShared.
func (o *Orchestrator) CreateVm(mips float64, pes, ram int, bandwidth, size int64, scheduler sim.SchedulingDiscipline) (int, error) {
	vm, err := o.registry.CreateVm(o.brokerID, sim.VmSpec{
		Mips:              mips,
		Pes:               pes,
		Ram:               ram,
		Bandwidth:         bandwidth,
		Size:              size,
		CloudletScheduler: normalizeScheduler(scheduler),
	})
	if err != nil {
		return 0, err
	}
	return vm.ID, nil
}

// CreateCloudlet creates a cloudlet owned by the broker.
func (o *Orchestrator) CreateCloudlet(length int64, pes int, fileSize, outputSize int64) (int, error) {
	c, err := o.registry.CreateCloudlet(o.brokerID, sim.CloudletSpec{
		Length:     length,
		Pes:        pes,
		FileSize:   fileSize,
		OutputSize: outputSize,
	})
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}

// AddLink connects two entities. It returns false when the link topology
// rejects the link.
func (o *Orchestrator) AddLink(a, b int, bandwidth, latency float64) bool {
	if err := o.links.AddLink(a, b, bandwidth, latency); err != nil {
		logrus.Warnf("orchestrator: link %d <-> %d rejected: %v", a, b, err)
		return false
	}
	return true
}

// Run places and executes the held workload and aggregates the results.
//
// A datacenter is created if none exists. The current datacenter gets the
// policy of the requested kind; other datacenters keep theirs. Every held VM
// and cloudlet is submitted, so calling Run again resubmits the same
// workload and the engine reports the cloudlets once per run.
func (o *Orchestrator) Run(kind sim.AllocationKind) (*sim.ResultSet, error) {
	if !sim.IsValidAllocationPolicy(string(kind)) {
		return nil, fmt.Errorf("unknown allocation policy %q", kind)
	}
	if kind == "" {
		kind = sim.AllocationSimple
	}
	if o.topology.Current() == nil {
		logrus.Infof("orchestrator: no datacenter, creating one")
		if _, err := o.CreateDatacenter(); err != nil {
			return nil, err
		}
	}

	current := o.topology.Current()
	for _, dc := range o.registry.Datacenters() {
		policy := dc.AllocationPolicy()
		if dc == current {
			policy = sim.NewAllocationPolicy(kind, dc)
		}
		dc.SetAllocationPolicy(instrument(policy, dc.ID, o.metrics, o.trace))
	}
	logrus.Infof("orchestrator: %s uses %s allocation", current.Name, kind)

	vms, cloudlets := o.registry.Vms(), o.registry.Cloudlets()
	o.engine.Submit(o.brokerID, vms, cloudlets)
	logrus.Infof("orchestrator: submitted %d vm(s) and %d cloudlet(s)", len(vms), len(cloudlets))

	o.setRunning(true)
	o.metrics.Runs.Inc()
	err := o.engine.Start()
	o.engine.Stop()
	o.setRunning(false)
	if err != nil {
		return nil, fmt.Errorf("starting simulation: %w", err)
	}

	results := sim.Aggregate(o.engine.Completed())
	o.mu.Lock()
	o.results = results
	o.finished = true
	o.mu.Unlock()
	logrus.Infof("orchestrator: %s", results.Summary)
	return results, nil
}

func (o *Orchestrator) setRunning(running bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = running
	o.paused = false
}

// Pause asks the engine to stop advancing simulated time. A request the
// engine cannot honor is logged and ignored.
func (o *Orchestrator) Pause() {
	if !o.engine.Pause() {
		logrus.Warnf("orchestrator: pause ignored, simulation not running")
		return
	}
	o.mu.Lock()
	o.paused = true
	o.mu.Unlock()
}

// Resume continues a paused simulation. A request the engine cannot honor is
// logged and ignored.
func (o *Orchestrator) Resume() {
	if !o.engine.Resume() {
		logrus.Warnf("orchestrator: resume ignored, simulation not paused")
		return
	}
	o.mu.Lock()
	o.paused = false
	o.mu.Unlock()
}

// ExportResults writes the last results as CSV and returns the file path, or
// "Error: <reason>" when the file cannot be written.
func (o *Orchestrator) ExportResults() string {
	var rows []sim.ResultRow
	if rs := o.Results(); rs != nil {
		rows = rs.Rows
	}
	if err := sim.ExportCSV(o.fs, o.exportPath, rows); err != nil {
		logrus.Errorf("orchestrator: export failed: %v", err)
		return "Error: " + err.Error()
	}
	logrus.Infof("orchestrator: exported %d row(s) to %s", len(rows), o.exportPath)
	return o.exportPath
}
