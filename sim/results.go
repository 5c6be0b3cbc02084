package sim

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// ResultRow is the read-only view of one completed cloudlet.
type ResultRow struct {
	CloudletID   int     `json:"cloudlet_id"`
	VmID         int     `json:"vm_id"`
	DatacenterID int     `json:"datacenter_id"`
	StartTime    float64 `json:"start_time"`
	FinishTime   float64 `json:"finish_time"`
	Status       string  `json:"status"`
	Length       int64   `json:"length"`
}

// Summary holds run-wide statistics over the result rows.
type Summary struct {
	Count        int     `json:"count"`
	Makespan     float64 `json:"makespan"`       // latest finish time, 0 with no rows
	MeanExecTime float64 `json:"mean_exec_time"` // mean of finish - start, 0 with no rows
}

// String renders the one-line report shown after a run.
func (s Summary) String() string {
	return fmt.Sprintf("Cloudlets finished: %d | Makespan: %.2f", s.Count, s.Makespan)
}

// ResultSet is the display- and export-ready outcome of a run.
type ResultSet struct {
	Rows    []ResultRow `json:"rows"`
	Summary Summary     `json:"summary"`
}

// Aggregate converts the engine's completed cloudlets into rows, keeping the
// order in which completions were reported, and computes the summary.
func Aggregate(completed []*Cloudlet) *ResultSet {
	rows := make([]ResultRow, 0, len(completed))
	execTimes := make([]float64, 0, len(completed))
	makespan := 0.0

	for _, c := range completed {
		rows = append(rows, ResultRow{
			CloudletID:   c.ID,
			VmID:         c.VmID,
			DatacenterID: c.DatacenterID,
			StartTime:    c.ExecStartTime,
			FinishTime:   c.FinishTime,
			Status:       string(c.Status),
			Length:       c.Length,
		})
		execTimes = append(execTimes, c.FinishTime-c.ExecStartTime)
		if c.FinishTime > makespan {
			makespan = c.FinishTime
		}
	}

	summary := Summary{Count: len(rows), Makespan: makespan}
	if len(execTimes) > 0 {
		summary.MeanExecTime = stat.Mean(execTimes, nil)
	}
	return &ResultSet{Rows: rows, Summary: summary}
}
