package engine

import "github.com/inference-sim/cloudsim/sim"

// EventType identifies a kind of simulation event.
type EventType string

const (
	EventTypeVmCreate       EventType = "VmCreate"
	EventTypeVmCreateAck    EventType = "VmCreateAck"
	EventTypeCloudletSubmit EventType = "CloudletSubmit"
	EventTypeVmUpdate       EventType = "VmUpdate"
	EventTypeCloudletReturn EventType = "CloudletReturn"
)

// EventTypePriority defines ordering for simultaneous events
// (lower value = processed first).
var EventTypePriority = map[EventType]int{
	EventTypeVmCreate:       1,
	EventTypeVmCreateAck:    2,
	EventTypeCloudletSubmit: 3,
	EventTypeVmUpdate:       4,
	EventTypeCloudletReturn: 5,
}

// Event is a simulation event. Timestamps are in simulated seconds.
type Event interface {
	Timestamp() float64
	EventID() uint64
	Type() EventType
	Execute(s *Simulator)
}

// BaseEvent provides common event fields
type BaseEvent struct {
	timestamp float64
	eventID   uint64
	eventType EventType
}

func (e *BaseEvent) Timestamp() float64 { return e.timestamp }
func (e *BaseEvent) EventID() uint64    { return e.eventID }
func (e *BaseEvent) Type() EventType    { return e.eventType }

// VmCreateEvent asks a datacenter to place a VM.
type VmCreateEvent struct {
	BaseEvent
	Datacenter *datacenterState
	Vm         *sim.Vm
}

func (e *VmCreateEvent) Execute(s *Simulator) { s.handleVmCreate(e) }

// VmCreateAckEvent reports a placement outcome back to the broker.
type VmCreateAckEvent struct {
	BaseEvent
	Datacenter *datacenterState
	Vm         *sim.Vm
	Created    bool
}

func (e *VmCreateAckEvent) Execute(s *Simulator) { s.handleVmCreateAck(e) }

// CloudletSubmitEvent delivers a bound cloudlet to the datacenter running its VM.
type CloudletSubmitEvent struct {
	BaseEvent
	Datacenter *datacenterState
	Cloudlet   *sim.Cloudlet
}

func (e *CloudletSubmitEvent) Execute(s *Simulator) { s.handleCloudletSubmit(e) }

// VmUpdateEvent advances cloudlet execution in a datacenter. Only the event
// carrying the datacenter's latest version is acted on.
type VmUpdateEvent struct {
	BaseEvent
	Datacenter *datacenterState
	Version    uint64
}

func (e *VmUpdateEvent) Execute(s *Simulator) { s.handleVmUpdate(e) }

// CloudletReturnEvent delivers a finished cloudlet back to the broker.
type CloudletReturnEvent struct {
	BaseEvent
	Cloudlet *sim.Cloudlet
}

func (e *CloudletReturnEvent) Execute(s *Simulator) { s.handleCloudletReturn(e) }
