package cluster

import (
	"math"
	"sort"

	"github.com/inference-sim/cloudsim/sim"
)

// Distribution captures statistical summary of a metric.
type Distribution struct {
	Mean  float64
	P50   float64
	P95   float64
	P99   float64
	Min   float64
	Max   float64
	Count int
}

// NewDistribution computes a Distribution from raw values.
// Returns zero-value Distribution for empty input.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	return Distribution{
		Mean:  sum / float64(len(sorted)),
		P50:   percentile(sorted, 50),
		P95:   percentile(sorted, 95),
		P99:   percentile(sorted, 99),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Count: len(sorted),
	}
}

// percentile computes the p-th percentile using linear interpolation.
// Input must be sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// RunMetrics holds run-level statistics derived from a ResultSet.
type RunMetrics struct {
	// Time distributions (simulated seconds)
	ExecTime  Distribution // finish - start
	StartTime Distribution

	// Throughput over the makespan
	CloudletsPerSec float64
	MIPerSec        float64

	// Outcome counters
	Succeeded int
	Failed    int
}

// CollectRunMetrics builds RunMetrics from the rows of a run.
func CollectRunMetrics(rs *sim.ResultSet) *RunMetrics {
	raw := &RunMetrics{}
	if rs == nil {
		return raw
	}

	execTimes := make([]float64, 0, len(rs.Rows))
	startTimes := make([]float64, 0, len(rs.Rows))
	totalMI := 0.0
	for _, r := range rs.Rows {
		switch sim.CloudletStatus(r.Status) {
		case sim.CloudletSuccess:
			raw.Succeeded++
			totalMI += float64(r.Length)
		case sim.CloudletFailed:
			raw.Failed++
		}
		execTimes = append(execTimes, r.FinishTime-r.StartTime)
		startTimes = append(startTimes, r.StartTime)
	}
	raw.ExecTime = NewDistribution(execTimes)
	raw.StartTime = NewDistribution(startTimes)

	if rs.Summary.Makespan > 0 {
		raw.CloudletsPerSec = float64(raw.Succeeded) / rs.Summary.Makespan
		raw.MIPerSec = totalMI / rs.Summary.Makespan
	}
	return raw
}
