package engine

import (
	"math"

	"github.com/inference-sim/cloudsim/sim"
)

// completionEpsilon is the remaining work (MI) below which a cloudlet counts
// as finished.
const completionEpsilon = 1e-6

// execution tracks one cloudlet inside a VM.
type execution struct {
	cloudlet  *sim.Cloudlet
	remaining float64 // MI across all of the cloudlet's PEs
}

// cloudletScheduler shares a VM's processing capacity among its cloudlets.
type cloudletScheduler interface {
	// submit adds a cloudlet at time now. Call advance(now) first.
	submit(c *sim.Cloudlet, now float64)
	// advance applies progress up to now and returns cloudlets that finished.
	advance(now float64) []*sim.Cloudlet
	// nextCompletion is the earliest time a running cloudlet finishes.
	nextCompletion(now float64) (float64, bool)
	// empty reports whether no cloudlet is running or waiting.
	empty() bool
}

func newCloudletScheduler(vm *sim.Vm) cloudletScheduler {
	if vm.CloudletScheduler == sim.SpaceShared {
		return &spaceShared{mips: vm.Mips, pes: vm.Pes, freePes: vm.Pes}
	}
	return &timeShared{mips: vm.Mips, pes: vm.Pes}
}

func startExecution(c *sim.Cloudlet, now float64) *execution {
	c.Status = sim.CloudletInExec
	c.ExecStartTime = now
	return &execution{cloudlet: c, remaining: c.TotalLength()}
}

func finishExecution(c *sim.Cloudlet, now float64) {
	c.Status = sim.CloudletSuccess
	c.FinishTime = now
}

// timeShared runs every cloudlet at once. When the cloudlets ask for more
// PEs than the VM has, each PE's MIPS are split evenly among the requests.
type timeShared struct {
	mips       float64
	pes        int
	running    []*execution
	lastUpdate float64
}

// capacityPerPe is the MIPS each requested cloudlet PE receives.
func (t *timeShared) capacityPerPe() float64 {
	requested := 0
	for _, e := range t.running {
		requested += e.cloudlet.Pes
	}
	return t.mips * float64(t.pes) / float64(max(t.pes, requested))
}

func (t *timeShared) submit(c *sim.Cloudlet, now float64) {
	t.running = append(t.running, startExecution(c, now))
	t.lastUpdate = now
}

func (t *timeShared) advance(now float64) []*sim.Cloudlet {
	dt := now - t.lastUpdate
	t.lastUpdate = now
	if dt <= 0 || len(t.running) == 0 {
		return nil
	}
	capacity := t.capacityPerPe()
	var finished []*sim.Cloudlet
	kept := t.running[:0]
	for _, e := range t.running {
		e.remaining -= capacity * float64(e.cloudlet.Pes) * dt
		if e.remaining <= completionEpsilon {
			finishExecution(e.cloudlet, now)
			finished = append(finished, e.cloudlet)
			continue
		}
		kept = append(kept, e)
	}
	t.running = kept
	return finished
}

func (t *timeShared) nextCompletion(now float64) (float64, bool) {
	if len(t.running) == 0 {
		return 0, false
	}
	capacity := t.capacityPerPe()
	next := math.Inf(1)
	for _, e := range t.running {
		next = math.Min(next, now+e.remaining/(capacity*float64(e.cloudlet.Pes)))
	}
	return next, true
}

func (t *timeShared) empty() bool { return len(t.running) == 0 }

// spaceShared gives each running cloudlet dedicated PEs. Cloudlets that do
// not fit wait in submission order; any waiting cloudlet that fits is started
// when PEs are released.
type spaceShared struct {
	mips       float64
	pes        int
	freePes    int
	running    []*execution
	waiting    []*sim.Cloudlet
	lastUpdate float64
}

func (s *spaceShared) submit(c *sim.Cloudlet, now float64) {
	s.lastUpdate = now
	if c.Pes <= s.freePes {
		s.freePes -= c.Pes
		s.running = append(s.running, startExecution(c, now))
		return
	}
	c.Status = sim.CloudletQueued
	s.waiting = append(s.waiting, c)
}

func (s *spaceShared) advance(now float64) []*sim.Cloudlet {
	dt := now - s.lastUpdate
	s.lastUpdate = now
	if dt <= 0 || len(s.running) == 0 {
		return nil
	}
	var finished []*sim.Cloudlet
	kept := s.running[:0]
	for _, e := range s.running {
		e.remaining -= s.mips * float64(e.cloudlet.Pes) * dt
		if e.remaining <= completionEpsilon {
			finishExecution(e.cloudlet, now)
			s.freePes += e.cloudlet.Pes
			finished = append(finished, e.cloudlet)
			continue
		}
		kept = append(kept, e)
	}
	s.running = kept

	if len(finished) > 0 {
		waiting := s.waiting[:0]
		for _, c := range s.waiting {
			if c.Pes <= s.freePes {
				s.freePes -= c.Pes
				s.running = append(s.running, startExecution(c, now))
				continue
			}
			waiting = append(waiting, c)
		}
		s.waiting = waiting
	}
	return finished
}

func (s *spaceShared) nextCompletion(now float64) (float64, bool) {
	if len(s.running) == 0 {
		return 0, false
	}
	next := math.Inf(1)
	for _, e := range s.running {
		next = math.Min(next, now+e.remaining/(s.mips*float64(e.cloudlet.Pes)))
	}
	return next, true
}

func (s *spaceShared) empty() bool { return len(s.running) == 0 && len(s.waiting) == 0 }
