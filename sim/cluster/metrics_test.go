package cluster

import (
	"math"
	"testing"

	"github.com/inference-sim/cloudsim/sim"
)

func TestDistribution_FromValues_ComputesCorrectStats(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		wantCount int
		wantMin   float64
		wantMax   float64
		wantMean  float64
		wantP50   float64
	}{
		{
			name:      "single value",
			values:    []float64{100.0},
			wantCount: 1,
			wantMin:   100.0,
			wantMax:   100.0,
			wantMean:  100.0,
			wantP50:   100.0,
		},
		{
			name:      "unsorted values",
			values:    []float64{50.0, 10.0, 40.0, 20.0, 30.0},
			wantCount: 5,
			wantMin:   10.0,
			wantMax:   50.0,
			wantMean:  30.0,
			wantP50:   30.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDistribution(tt.values)
			if d.Count != tt.wantCount {
				t.Errorf("Count: got %d, want %d", d.Count, tt.wantCount)
			}
			if d.Min != tt.wantMin {
				t.Errorf("Min: got %f, want %f", d.Min, tt.wantMin)
			}
			if d.Max != tt.wantMax {
				t.Errorf("Max: got %f, want %f", d.Max, tt.wantMax)
			}
			if d.Mean != tt.wantMean {
				t.Errorf("Mean: got %f, want %f", d.Mean, tt.wantMean)
			}
			if d.P50 != tt.wantP50 {
				t.Errorf("P50: got %f, want %f", d.P50, tt.wantP50)
			}
		})
	}
}

func TestDistribution_EmptyValues_ReturnsZero(t *testing.T) {
	d := NewDistribution([]float64{})
	if d.Count != 0 {
		t.Errorf("Count: got %d, want 0", d.Count)
	}
	if d.Mean != 0 {
		t.Errorf("Mean: got %f, want 0", d.Mean)
	}
}

func TestPercentile_Interpolates(t *testing.T) {
	sorted := []float64{0, 10}
	if got := percentile(sorted, 95); math.Abs(got-9.5) > 1e-9 {
		t.Errorf("P95: got %f, want 9.5", got)
	}
}

func TestCollectRunMetrics_BasicAggregation(t *testing.T) {
	rs := &sim.ResultSet{
		Rows: []sim.ResultRow{
			{CloudletID: 1, StartTime: 0, FinishTime: 10, Status: string(sim.CloudletSuccess), Length: 10000},
			{CloudletID: 2, StartTime: 10, FinishTime: 20, Status: string(sim.CloudletSuccess), Length: 10000},
			{CloudletID: 3, StartTime: 5, FinishTime: 5, Status: string(sim.CloudletFailed), Length: 4000},
		},
		Summary: sim.Summary{Count: 3, Makespan: 20},
	}

	m := CollectRunMetrics(rs)

	if m.Succeeded != 2 || m.Failed != 1 {
		t.Errorf("outcomes: got %d succeeded, %d failed, want 2 and 1", m.Succeeded, m.Failed)
	}
	if m.ExecTime.Count != 3 || m.ExecTime.Max != 10 {
		t.Errorf("ExecTime: got count %d max %f", m.ExecTime.Count, m.ExecTime.Max)
	}
	if m.StartTime.Min != 0 || m.StartTime.Max != 10 {
		t.Errorf("StartTime: got [%f, %f], want [0, 10]", m.StartTime.Min, m.StartTime.Max)
	}
	if math.Abs(m.CloudletsPerSec-0.1) > 1e-9 {
		t.Errorf("CloudletsPerSec: got %f, want 0.1", m.CloudletsPerSec)
	}
	if math.Abs(m.MIPerSec-1000) > 1e-9 {
		t.Errorf("MIPerSec: got %f, want 1000 (failed work excluded)", m.MIPerSec)
	}
}

func TestCollectRunMetrics_NoResults_ReturnsEmpty(t *testing.T) {
	for _, rs := range []*sim.ResultSet{nil, sim.Aggregate(nil)} {
		m := CollectRunMetrics(rs)
		if m.ExecTime.Count != 0 || m.CloudletsPerSec != 0 || m.Succeeded != 0 {
			t.Errorf("expected empty metrics, got %+v", m)
		}
	}
}
