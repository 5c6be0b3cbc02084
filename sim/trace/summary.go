package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions   int
	PlacedCount      int
	RejectedCount    int
	ForcedCount      int
	ReleaseCount     int
	UniqueHosts      int
	HostDistribution map[int]int // host ID → count of VMs placed there
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		HostDistribution: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Placements)
	for _, p := range st.Placements {
		if !p.Placed {
			summary.RejectedCount++
			continue
		}
		summary.PlacedCount++
		if p.Forced {
			summary.ForcedCount++
		}
		summary.HostDistribution[p.HostID]++
	}
	summary.ReleaseCount = len(st.Releases)
	summary.UniqueHosts = len(summary.HostDistribution)

	return summary
}
