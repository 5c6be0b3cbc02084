// Package engine is the discrete-event engine behind sim.Engine. It runs the
// broker protocol (VM placement datacenter by datacenter, round-robin
// cloudlet binding, VM release after the last cloudlet returns) and executes
// cloudlets with time-shared or space-shared schedulers inside each VM.
package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/cloudsim/sim"
)

// RunState is the lifecycle state of a Simulator.
type RunState string

const (
	StateIdle     RunState = "idle"
	StateRunning  RunState = "running"
	StatePaused   RunState = "paused"
	StateFinished RunState = "finished"
)

var (
	// ErrAlreadyRunning is returned by Start while a run is in progress.
	ErrAlreadyRunning = errors.New("simulation already running")
	// ErrNoDatacenters is returned by Start when nothing can host a VM.
	ErrNoDatacenters = errors.New("no datacenters registered")
)

// datacenterState is the engine-side view of a registered datacenter.
type datacenterState struct {
	dc         *sim.Datacenter
	schedulers map[int]cloudletScheduler // vm id -> scheduler
	vmOrder    []int
	version    uint64
}

func (d *datacenterState) addVm(vm *sim.Vm) {
	if _, ok := d.schedulers[vm.ID]; !ok {
		d.vmOrder = append(d.vmOrder, vm.ID)
	}
	d.schedulers[vm.ID] = newCloudletScheduler(vm)
}

func (d *datacenterState) removeVm(vm *sim.Vm) {
	delete(d.schedulers, vm.ID)
	for i, id := range d.vmOrder {
		if id == vm.ID {
			d.vmOrder = append(d.vmOrder[:i], d.vmOrder[i+1:]...)
			break
		}
	}
}

// batch is the workload one broker submitted between two Starts.
type batch struct {
	brokerID  int
	vms       []*sim.Vm
	cloudlets []*sim.Cloudlet
}

// brokerState tracks the broker protocol for the batch being run.
type brokerState struct {
	batch

	dcIndex     int // datacenter currently asked to place VMs
	outstanding int // VM create requests without an ack
	failed      []*sim.Vm
	created     []*sim.Vm // acknowledged, in creation order
	placed      []placement
	vmLocation  map[int]*datacenterState
	submitted   int
	returned    int
}

// placement is a VM a datacenter has reserved capacity for, whether or not
// the broker has seen the acknowledgement yet.
type placement struct {
	vm *sim.Vm
	dc *datacenterState
}

// Simulator is the discrete-event implementation of sim.Engine.
type Simulator struct {
	mu   sync.Mutex
	cond *sync.Cond

	links       sim.LinkTopology
	datacenters []*datacenterState
	byID        map[int]*datacenterState

	pending []batch
	broker  *brokerState

	events      *EventHeap
	nextEventID uint64
	clock       float64
	state       RunState
	stopped     bool
	pauseAt     float64 // < 0 when unset

	received []*sim.Cloudlet
}

// New creates an idle Simulator.
func New(cfg sim.EngineConfig) *Simulator {
	s := &Simulator{
		links:   cfg.Links,
		byID:    make(map[int]*datacenterState),
		events:  NewEventHeap(),
		state:   StateIdle,
		pauseAt: -1,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// RegisterDatacenter implements sim.Engine.
func (s *Simulator) RegisterDatacenter(dc *sim.Datacenter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dc == nil {
		return errors.New("nil datacenter")
	}
	if dc.AllocationPolicy() == nil {
		return fmt.Errorf("datacenter %d has no allocation policy", dc.ID)
	}
	if _, dup := s.byID[dc.ID]; dup {
		return fmt.Errorf("datacenter %d already registered", dc.ID)
	}
	state := &datacenterState{dc: dc, schedulers: make(map[int]cloudletScheduler)}
	s.datacenters = append(s.datacenters, state)
	s.byID[dc.ID] = state
	return nil
}

// Submit implements sim.Engine. The slices are copied.
func (s *Simulator) Submit(brokerID int, vms []*sim.Vm, cloudlets []*sim.Cloudlet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, batch{
		brokerID:  brokerID,
		vms:       append([]*sim.Vm(nil), vms...),
		cloudlets: append([]*sim.Cloudlet(nil), cloudlets...),
	})
}

// Start implements sim.Engine. It runs everything submitted since the
// previous Start with the clock reset to 0, and blocks until no events remain
// or Stop is called. Cloudlets returned by earlier runs stay in Completed.
// Datacenters must not be registered while a run is in progress.
func (s *Simulator) Start() error {
	s.mu.Lock()
	if s.state == StateRunning || s.state == StatePaused {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	if len(s.datacenters) == 0 {
		s.mu.Unlock()
		return ErrNoDatacenters
	}
	s.events = NewEventHeap()
	s.clock = 0
	s.stopped = false
	s.state = StateRunning
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	logrus.Infof("engine: starting with %d datacenter(s)", len(s.datacenters))
	for _, b := range pending {
		if !s.runBatch(b) {
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateFinished
	s.pauseAt = -1
	s.cond.Broadcast()
	logrus.Infof("engine: finished at %.2f, %d cloudlet(s) received", s.clock, len(s.received))
	return nil
}

// runBatch drives one broker's workload to completion. It returns false if
// the run was stopped. VMs still placed when the batch ends are released.
func (s *Simulator) runBatch(b batch) bool {
	s.broker = &brokerState{batch: b, vmLocation: make(map[int]*datacenterState)}
	for _, c := range b.cloudlets {
		c.Status = sim.CloudletCreated
		c.VmID = -1
		c.DatacenterID = -1
	}
	s.requestVms(s.Clock(), s.datacenters[0], b.vms)
	completed := s.loop()
	if len(s.broker.placed) > 0 {
		s.destroyVms()
	}
	s.broker = nil
	return completed
}

// loop executes events until the heap drains (true) or Stop is called
// (false). Control state is read under mu between events; events execute
// without it.
func (s *Simulator) loop() bool {
	for {
		s.mu.Lock()
		for s.state == StatePaused && !s.stopped {
			s.cond.Wait()
		}
		if s.stopped {
			logrus.Infof("engine: stopped at %.2f with %d pending event(s)", s.clock, s.events.Len())
			s.mu.Unlock()
			return false
		}
		next, ok := s.events.NextTime()
		if !ok {
			s.mu.Unlock()
			return true
		}
		if s.pauseAt >= 0 && next > s.pauseAt {
			logrus.Infof("engine: paused at %.2f", s.clock)
			s.pauseAt = -1
			s.state = StatePaused
			s.cond.Broadcast()
			s.mu.Unlock()
			continue
		}
		ev := s.events.PopNext()
		s.clock = ev.Timestamp()
		s.mu.Unlock()

		ev.Execute(s)
	}
}

// Stop implements sim.Engine.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning && s.state != StatePaused {
		return
	}
	s.stopped = true
	s.cond.Broadcast()
}

// Pause implements sim.Engine.
func (s *Simulator) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return false
	}
	s.state = StatePaused
	s.cond.Broadcast()
	return true
}

// PauseAt requests a pause before the first event later than t. It applies
// to the current run, or to the next one when idle.
func (s *Simulator) PauseAt(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseAt = t
}

// Resume implements sim.Engine.
func (s *Simulator) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return false
	}
	s.state = StateRunning
	s.cond.Broadcast()
	return true
}

// State returns the current lifecycle state.
func (s *Simulator) State() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Clock returns the current simulated time.
func (s *Simulator) Clock() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// Completed implements sim.Engine.
func (s *Simulator) Completed() []*sim.Cloudlet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*sim.Cloudlet(nil), s.received...)
}

func (s *Simulator) schedule(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.Schedule(ev)
}

func (s *Simulator) base(t float64, typ EventType) BaseEvent {
	s.nextEventID++
	return BaseEvent{timestamp: t, eventID: s.nextEventID, eventType: typ}
}

func (s *Simulator) delay(from, to int) float64 {
	if s.links == nil {
		return 0
	}
	return s.links.Delay(from, to)
}

// requestVms sends create requests for vms to dc.
func (s *Simulator) requestVms(now float64, dc *datacenterState, vms []*sim.Vm) {
	b := s.broker
	b.failed = nil
	b.outstanding = len(vms)
	if len(vms) == 0 {
		s.submitCloudlets(now)
		return
	}
	at := now + s.delay(b.brokerID, dc.dc.ID)
	for _, vm := range vms {
		s.schedule(&VmCreateEvent{BaseEvent: s.base(at, EventTypeVmCreate), Datacenter: dc, Vm: vm})
	}
}

func (s *Simulator) handleVmCreate(e *VmCreateEvent) {
	created := e.Datacenter.dc.AllocationPolicy().Allocate(e.Vm)
	logrus.Debugf("<< VmCreate: vm %d in %s at %.2f: created=%v", e.Vm.ID, e.Datacenter.dc.Name, e.timestamp, created)
	if created {
		e.Datacenter.addVm(e.Vm)
		s.broker.placed = append(s.broker.placed, placement{vm: e.Vm, dc: e.Datacenter})
	}
	at := e.timestamp + s.delay(e.Datacenter.dc.ID, e.Vm.BrokerID)
	s.schedule(&VmCreateAckEvent{
		BaseEvent:  s.base(at, EventTypeVmCreateAck),
		Datacenter: e.Datacenter,
		Vm:         e.Vm,
		Created:    created,
	})
}

func (s *Simulator) handleVmCreateAck(e *VmCreateAckEvent) {
	b := s.broker
	b.outstanding--
	if e.Created {
		b.created = append(b.created, e.Vm)
		b.vmLocation[e.Vm.ID] = e.Datacenter
		logrus.Infof("<< VmCreateAck: vm %d created in %s at %.2f", e.Vm.ID, e.Datacenter.dc.Name, e.timestamp)
	} else {
		b.failed = append(b.failed, e.Vm)
		logrus.Infof("<< VmCreateAck: creation of vm %d failed in %s at %.2f", e.Vm.ID, e.Datacenter.dc.Name, e.timestamp)
	}
	if b.outstanding > 0 {
		return
	}
	if len(b.failed) > 0 && b.dcIndex+1 < len(s.datacenters) {
		b.dcIndex++
		s.requestVms(e.timestamp, s.datacenters[b.dcIndex], b.failed)
		return
	}
	s.submitCloudlets(e.timestamp)
}

// submitCloudlets binds cloudlets round-robin to the created VMs and sends
// each to the datacenter hosting its VM.
func (s *Simulator) submitCloudlets(now float64) {
	b := s.broker
	if len(b.created) == 0 {
		if len(b.cloudlets) > 0 {
			logrus.Warnf("engine: no VM could be created; %d cloudlet(s) not run", len(b.cloudlets))
		}
		return
	}
	if len(b.cloudlets) == 0 {
		s.destroyVms()
		return
	}
	for i, c := range b.cloudlets {
		vm := b.created[i%len(b.created)]
		dc := b.vmLocation[vm.ID]
		c.VmID = vm.ID
		c.Status = sim.CloudletReady
		at := now + s.delay(b.brokerID, dc.dc.ID)
		s.schedule(&CloudletSubmitEvent{BaseEvent: s.base(at, EventTypeCloudletSubmit), Datacenter: dc, Cloudlet: c})
		b.submitted++
	}
}

func (s *Simulator) handleCloudletSubmit(e *CloudletSubmitEvent) {
	c := e.Cloudlet
	c.DatacenterID = e.Datacenter.dc.ID
	sched, ok := e.Datacenter.schedulers[c.VmID]
	vm := s.findVm(c.VmID)
	if !ok || vm == nil || c.Pes > vm.Pes {
		logrus.Warnf("<< CloudletSubmit: cloudlet %d cannot run on vm %d at %.2f", c.ID, c.VmID, e.timestamp)
		c.Status = sim.CloudletFailed
		c.ExecStartTime = e.timestamp
		c.FinishTime = e.timestamp
		s.returnCloudlets(e.Datacenter, e.timestamp, []*sim.Cloudlet{c})
		return
	}
	logrus.Debugf("<< CloudletSubmit: cloudlet %d on vm %d at %.2f", c.ID, c.VmID, e.timestamp)
	s.advanceDatacenter(e.Datacenter, e.timestamp)
	sched.submit(c, e.timestamp)
	s.rescheduleDatacenter(e.Datacenter, e.timestamp)
}

func (s *Simulator) handleVmUpdate(e *VmUpdateEvent) {
	if e.Version != e.Datacenter.version {
		return
	}
	logrus.Debugf("<< VmUpdate: %s at %.2f", e.Datacenter.dc.Name, e.timestamp)
	s.advanceDatacenter(e.Datacenter, e.timestamp)
	s.rescheduleDatacenter(e.Datacenter, e.timestamp)
}

func (s *Simulator) handleCloudletReturn(e *CloudletReturnEvent) {
	b := s.broker
	s.mu.Lock()
	s.received = append(s.received, e.Cloudlet)
	s.mu.Unlock()
	b.returned++
	logrus.Infof("<< CloudletReturn: cloudlet %d (%s) at %.2f", e.Cloudlet.ID, e.Cloudlet.Status, e.timestamp)
	if b.returned == b.submitted {
		s.destroyVms()
	}
}

// advanceDatacenter applies execution progress in every VM of dc up to now
// and sends finished cloudlets back to the broker.
func (s *Simulator) advanceDatacenter(dc *datacenterState, now float64) {
	var finished []*sim.Cloudlet
	for _, id := range dc.vmOrder {
		finished = append(finished, dc.schedulers[id].advance(now)...)
	}
	if len(finished) > 0 {
		s.returnCloudlets(dc, now, finished)
	}
}

// rescheduleDatacenter supersedes any pending update for dc with one at the
// next cloudlet completion.
func (s *Simulator) rescheduleDatacenter(dc *datacenterState, now float64) {
	dc.version++
	s.events.Remove(func(ev Event) bool {
		u, ok := ev.(*VmUpdateEvent)
		return ok && u.Datacenter == dc
	})
	next, found := 0.0, false
	for _, id := range dc.vmOrder {
		if t, ok := dc.schedulers[id].nextCompletion(now); ok && (!found || t < next) {
			next, found = t, true
		}
	}
	if found {
		s.schedule(&VmUpdateEvent{BaseEvent: s.base(next, EventTypeVmUpdate), Datacenter: dc, Version: dc.version})
	}
}

func (s *Simulator) returnCloudlets(dc *datacenterState, now float64, cloudlets []*sim.Cloudlet) {
	at := now + s.delay(dc.dc.ID, s.broker.brokerID)
	for _, c := range cloudlets {
		s.schedule(&CloudletReturnEvent{BaseEvent: s.base(at, EventTypeCloudletReturn), Cloudlet: c})
	}
}

// destroyVms releases every VM placed for the broker through the allocation
// policy of the datacenter hosting it, including VMs whose acknowledgement
// is still in flight.
func (s *Simulator) destroyVms() {
	b := s.broker
	for _, p := range b.placed {
		p.dc.dc.AllocationPolicy().Deallocate(p.vm)
		p.dc.removeVm(p.vm)
		logrus.Debugf("engine: destroyed vm %d in %s", p.vm.ID, p.dc.dc.Name)
	}
	b.placed = nil
	b.created = nil
}

func (s *Simulator) findVm(id int) *sim.Vm {
	for _, vm := range s.broker.created {
		if vm.ID == id {
			return vm
		}
	}
	return nil
}
