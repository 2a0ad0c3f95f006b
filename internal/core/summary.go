package core

import "time"

// TopCapacity is the number of largest expenses kept in a Statistics summary.
const TopCapacity = 10

// Statistics is the aggregate summary of a record set.
//
// On an empty input From and To are the zero time and Top is empty; callers
// must check HasRange before displaying the span.
type Statistics struct {
	From                time.Time
	To                  time.Time
	Count               int
	Total               float64
	TotalBelowThreshold float64
	Threshold           float64
	Top                 []Expense // descending by cost
}

// HasRange reports whether From and To carry real dates.
func (s Statistics) HasRange() bool {
	return s.Count > 0
}

// IsEmpty returns true when no record contributed to the summary.
func (s Statistics) IsEmpty() bool {
	return s.Count == 0
}
