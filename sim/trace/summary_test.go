package trace

import "testing"

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalDecisions != 0 || summary.UniqueHosts != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
	if summary.HostDistribution == nil {
		t.Error("expected non-nil host distribution")
	}
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalDecisions != 0 {
		t.Errorf("expected 0 total decisions, got %d", summary.TotalDecisions)
	}
	if summary.PlacedCount != 0 || summary.RejectedCount != 0 {
		t.Error("expected 0 placed and rejected")
	}
	if summary.UniqueHosts != 0 {
		t.Errorf("expected 0 unique hosts, got %d", summary.UniqueHosts)
	}
	if len(summary.HostDistribution) != 0 {
		t.Error("expected empty host distribution")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with placed, rejected and forced decisions
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordPlacement(PlacementRecord{VmID: 1, HostID: 10, Placed: true})
	st.RecordPlacement(PlacementRecord{VmID: 2, HostID: -1, Placed: false})
	st.RecordPlacement(PlacementRecord{VmID: 3, HostID: 10, Placed: true})
	st.RecordPlacement(PlacementRecord{VmID: 4, HostID: 11, Placed: true, Forced: true})
	st.RecordRelease(ReleaseRecord{VmID: 1, HostID: 10})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalDecisions != 4 {
		t.Errorf("expected 4 total decisions, got %d", summary.TotalDecisions)
	}
	if summary.PlacedCount != 3 {
		t.Errorf("expected 3 placed, got %d", summary.PlacedCount)
	}
	if summary.RejectedCount != 1 {
		t.Errorf("expected 1 rejected, got %d", summary.RejectedCount)
	}
	if summary.ForcedCount != 1 {
		t.Errorf("expected 1 forced, got %d", summary.ForcedCount)
	}
	if summary.ReleaseCount != 1 {
		t.Errorf("expected 1 release, got %d", summary.ReleaseCount)
	}
	if summary.UniqueHosts != 2 {
		t.Errorf("expected 2 unique hosts, got %d", summary.UniqueHosts)
	}
}

func TestSummarize_HostDistribution_CountsPerHost(t *testing.T) {
	// GIVEN placements to the same host multiple times
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordPlacement(PlacementRecord{VmID: 1, HostID: 10, Placed: true})
	st.RecordPlacement(PlacementRecord{VmID: 2, HostID: 10, Placed: true})
	st.RecordPlacement(PlacementRecord{VmID: 3, HostID: 12, Placed: true})

	// WHEN summarized
	summary := Summarize(st)

	// THEN the distribution counts per host and ignores rejections
	if summary.HostDistribution[10] != 2 {
		t.Errorf("expected 2 VMs on host 10, got %d", summary.HostDistribution[10])
	}
	if summary.HostDistribution[12] != 1 {
		t.Errorf("expected 1 VM on host 12, got %d", summary.HostDistribution[12])
	}
	if _, ok := summary.HostDistribution[-1]; ok {
		t.Error("rejected placements must not appear in the distribution")
	}
}
