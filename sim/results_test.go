package sim

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func completedCloudlet(id int, start, finish float64) *Cloudlet {
	c := NewCloudlet(id, 1, CloudletSpec{Length: 1000, Pes: 1})
	c.VmID = 50
	c.DatacenterID = 10
	c.ExecStartTime = start
	c.FinishTime = finish
	c.Status = CloudletSuccess
	return c
}

func TestAggregate_MakespanIsLatestFinish(t *testing.T) {
	// GIVEN two completed cloudlets finishing at 12.5 and 30.0
	completed := []*Cloudlet{completedCloudlet(1, 0.5, 30.0), completedCloudlet(2, 0.5, 12.5)}

	// WHEN aggregated
	rs := Aggregate(completed)

	// THEN count is 2 and the makespan is 30.00
	assert.Equal(t, 2, rs.Summary.Count)
	assert.Equal(t, 30.0, rs.Summary.Makespan)
	assert.Equal(t, "Cloudlets finished: 2 | Makespan: 30.00", rs.Summary.String())
	assert.InDelta(t, (29.5+12.0)/2, rs.Summary.MeanExecTime, 1e-9)
}

func TestAggregate_KeepsEngineOrder(t *testing.T) {
	completed := []*Cloudlet{completedCloudlet(3, 0, 4), completedCloudlet(1, 0, 8)}

	rs := Aggregate(completed)

	want := []ResultRow{
		{CloudletID: 3, VmID: 50, DatacenterID: 10, StartTime: 0, FinishTime: 4, Status: "SUCCESS", Length: 1000},
		{CloudletID: 1, VmID: 50, DatacenterID: 10, StartTime: 0, FinishTime: 8, Status: "SUCCESS", Length: 1000},
	}
	if diff := cmp.Diff(want, rs.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_Empty(t *testing.T) {
	rs := Aggregate(nil)

	assert.Empty(t, rs.Rows)
	assert.Equal(t, Summary{}, rs.Summary)
	assert.Equal(t, "Cloudlets finished: 0 | Makespan: 0.00", rs.Summary.String())
}

func TestAggregate_DuplicateCompletionsCounted(t *testing.T) {
	// GIVEN the same cloudlet reported by two runs
	c := completedCloudlet(1, 0, 10)

	rs := Aggregate([]*Cloudlet{c, c})

	assert.Equal(t, 2, rs.Summary.Count)
	assert.Len(t, rs.Rows, 2)
}
