package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	Served             int
	Rejected           int
	Evicted            int // rejections that pushed a buffered request out
	RefusedOnArrival   int // rejections of the incoming request itself
	MeanWait           float64
	MaxWait            int64
	DeviceDistribution map[int]int // device ID → services started
	SourceRejections   map[int]int // source ID → rejections
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		DeviceDistribution: make(map[int]int),
		SourceRejections:   make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.Served = len(st.Services)
	totalWait := int64(0)
	for _, s := range st.Services {
		summary.DeviceDistribution[s.DeviceID]++
		totalWait += s.Wait
		if s.Wait > summary.MaxWait {
			summary.MaxWait = s.Wait
		}
	}
	if summary.Served > 0 {
		summary.MeanWait = float64(totalWait) / float64(summary.Served)
	}

	summary.Rejected = len(st.Rejections)
	for _, r := range st.Rejections {
		summary.SourceRejections[r.SourceID]++
		if r.Evicted {
			summary.Evicted++
		} else {
			summary.RefusedOnArrival++
		}
	}

	return summary
}
