// Package stats computes aggregate summaries over expense records.
//
// Compute is a pure single pass. Engine runs that pass on a bounded pool of
// worker goroutines so a large statistics request does not hold the caller's
// goroutine, and so the caller can walk away through its context.
package stats

import (
	"time"

	"spendlog/internal/core"
)

// Epsilon is the tolerance of the threshold comparison:
// a cost counts as below threshold when cost-threshold <= Epsilon.
const Epsilon = 1e-9

// DefaultThreshold is the filter value used when none is configured.
const DefaultThreshold = 20000.0

// Compute summarizes records in one pass.
func Compute(records []core.Expense, threshold float64) core.Statistics {
	st := core.Statistics{Threshold: threshold}
	if len(records) == 0 {
		st.Top = []core.Expense{}
		return st
	}

	var total, below core.CostSum
	top := newTopK(core.TopCapacity)
	var from, to time.Time

	for i, r := range records {
		total.Add(r.Cost)
		if r.Cost-threshold <= Epsilon {
			below.Add(r.Cost)
		}
		if i == 0 || r.Date.Before(from) {
			from = r.Date
		}
		if i == 0 || r.Date.After(to) {
			to = r.Date
		}
		top.Offer(r)
	}

	st.Count = len(records)
	st.Total = total.Float64()
	st.TotalBelowThreshold = below.Float64()
	st.From = from
	st.To = to
	st.Top = top.Drain()
	return st
}
