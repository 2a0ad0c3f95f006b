package stats

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"
	"time"

	"spendlog/internal/core"
)

func day(d int) time.Time {
	return time.Date(2024, 5, d, 12, 0, 0, 0, time.UTC)
}

func TestComputeEmpty(t *testing.T) {
	st := Compute(nil, DefaultThreshold)
	if st.Total != 0 || st.TotalBelowThreshold != 0 || st.Count != 0 {
		t.Fatalf("expected zero totals, got %+v", st)
	}
	if st.HasRange() || !st.From.IsZero() || !st.To.IsZero() {
		t.Fatalf("expected undefined range, got %v..%v", st.From, st.To)
	}
	if st.Top == nil || len(st.Top) != 0 {
		t.Fatalf("expected empty non-nil top, got %v", st.Top)
	}
}

func TestComputeCoffeeDinner(t *testing.T) {
	records := []core.Expense{
		{ID: 1, Date: day(1), Name: "coffee", Cost: 150},
		{ID: 2, Date: day(2), Name: "dinner", Cost: 900},
	}
	st := Compute(records, 500)
	if st.Total != 1050 {
		t.Fatalf("total = %v, want 1050", st.Total)
	}
	if st.TotalBelowThreshold != 150 {
		t.Fatalf("below = %v, want 150", st.TotalBelowThreshold)
	}
	if len(st.Top) != 2 || st.Top[0].Name != "dinner" || st.Top[1].Name != "coffee" {
		t.Fatalf("unexpected top %+v", st.Top)
	}
	if !st.From.Equal(day(1)) || !st.To.Equal(day(2)) {
		t.Fatalf("range = %v..%v", st.From, st.To)
	}
}

func TestComputeThresholdBoundary(t *testing.T) {
	records := []core.Expense{
		{Date: day(1), Cost: 500},
		{Date: day(1), Cost: 500 + 1e-12},
		{Date: day(1), Cost: 500.01},
	}
	st := Compute(records, 500)
	want := 500 + 500 + 1e-12
	if st.TotalBelowThreshold < want-1e-6 || st.TotalBelowThreshold > want+1e-6 {
		t.Fatalf("below = %v, want ~%v", st.TotalBelowThreshold, want)
	}
}

func TestComputeTopKProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{1, 5, 10, 11, 50, 500} {
		records := make([]core.Expense, n)
		costs := make([]float64, n)
		for i := range records {
			c := float64(rng.Intn(100000)) / 100
			records[i] = core.Expense{ID: int64(i + 1), Date: day(1 + i%28), Cost: c}
			costs[i] = c
		}
		st := Compute(records, DefaultThreshold)

		wantLen := n
		if wantLen > core.TopCapacity {
			wantLen = core.TopCapacity
		}
		if len(st.Top) != wantLen {
			t.Fatalf("n=%d: top len %d, want %d", n, len(st.Top), wantLen)
		}
		for i := 1; i < len(st.Top); i++ {
			if st.Top[i-1].Cost < st.Top[i].Cost {
				t.Fatalf("n=%d: top not descending at %d", n, i)
			}
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(costs)))
		for i := range st.Top {
			if st.Top[i].Cost != costs[i] {
				t.Fatalf("n=%d: top[%d] = %v, want %v", n, i, st.Top[i].Cost, costs[i])
			}
		}
		if st.TotalBelowThreshold > st.Total+Epsilon {
			t.Fatalf("n=%d: below %v exceeds total %v", n, st.TotalBelowThreshold, st.Total)
		}
		if st.From.After(st.To) {
			t.Fatalf("n=%d: from after to", n)
		}
	}
}

func TestComputeExactTotal(t *testing.T) {
	records := make([]core.Expense, 0, 10)
	for i := 0; i < 10; i++ {
		records = append(records, core.Expense{Date: day(1), Cost: 0.1})
	}
	if got := Compute(records, 1).Total; got != 1 {
		t.Fatalf("total = %v, want 1", got)
	}
}

func TestComputeNonFiniteCosts(t *testing.T) {
	records := []core.Expense{
		{ID: 1, Date: day(1), Name: "coffee", Cost: 150},
		{ID: 2, Date: day(2), Name: "broken", Cost: math.Inf(1)},
		{ID: 3, Date: day(3), Name: "worse", Cost: math.NaN()},
		{ID: 4, Date: day(4), Name: "refund", Cost: math.Inf(-1)},
	}
	st := Compute(records, 500)
	if st.Count != 4 || len(st.Top) != 4 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if !math.IsNaN(st.Total) {
		t.Fatalf("total = %v, want NaN", st.Total)
	}
	if !st.From.Equal(day(1)) || !st.To.Equal(day(4)) {
		t.Fatalf("range = %v..%v", st.From, st.To)
	}

	st = Compute(records[:2], 500)
	if !math.IsInf(st.Total, 1) || st.TotalBelowThreshold != 150 {
		t.Fatalf("unexpected totals %+v", st)
	}
}

func TestEngineComputeNonFinite(t *testing.T) {
	e := NewEngine(1)
	records := []core.Expense{{Date: day(1), Cost: math.Inf(1)}, {Date: day(2), Cost: 1e308}, {Date: day(2), Cost: 1e308}}
	st, err := e.Compute(context.Background(), records, 1)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !math.IsInf(st.Total, 1) {
		t.Fatalf("total = %v, want +Inf", st.Total)
	}
}

func TestEngineCompute(t *testing.T) {
	e := NewEngine(2)
	if e.Workers() != 2 {
		t.Fatalf("workers = %d", e.Workers())
	}
	records := []core.Expense{{Date: day(3), Cost: 10}, {Date: day(4), Cost: 20}}
	st, err := e.Compute(context.Background(), records, 15)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if st.Total != 30 || st.TotalBelowThreshold != 10 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestEngineComputeCanceled(t *testing.T) {
	e := NewEngine(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Compute(ctx, []core.Expense{{Cost: 1}}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEngineDefaultsWorkers(t *testing.T) {
	if NewEngine(0).Workers() < 1 {
		t.Fatalf("expected at least one worker")
	}
}
