package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/registry"
	"spendlog/internal/services"
	"spendlog/internal/stats"
	"spendlog/internal/storage"
	"spendlog/internal/storage/memory"
)

func TestEvalExpression(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"400*4", "1600"},
		{"12,5", "12.5"},
		{"1+2*3", "7"},
		{"(1+2)*3", "9"},
		{"10/4", "2.5"},
		{"-5+2", "-3"},
		{" 0.1 + 0.2 ", "0.3"},
	}
	for _, tc := range cases {
		got, err := EvalExpression(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("%q = %s, want %s", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "1+", "(1", "abc", "2/0", "1 2"} {
		if _, err := EvalExpression(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
	if _, err := EvalExpression("3/(1-1)"); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestParseExpense(t *testing.T) {
	name, cost, err := ParseExpense("craft beer 400*4")
	if err != nil || name != "craft beer" || cost != 1600 {
		t.Fatalf("got %q %v %v", name, cost, err)
	}
	if _, _, err := ParseExpense("nocost"); !errors.Is(err, ErrMalformedExpense) {
		t.Fatalf("expected ErrMalformedExpense, got %v", err)
	}
	if _, _, err := ParseExpense("beer lots"); err == nil {
		t.Fatalf("expected expression error")
	}
	huge := "9" + strings.Repeat("9", 399)
	for _, in := range []string{"yacht " + huge, "yacht " + huge + "*" + huge, "yacht -" + huge} {
		if _, _, err := ParseExpense(in); !errors.Is(err, core.ErrInvalidAmount) {
			t.Fatalf("%.20q: expected ErrInvalidAmount, got %v", in, err)
		}
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("06.05.2023", time.UTC)
	if err != nil || !got.Equal(time.Date(2023, 5, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("got %v %v", got, err)
	}
	if _, err := ParseDate("2023-05-06", time.UTC); err == nil {
		t.Fatalf("expected error for ISO date")
	}
}

func TestSplitCommand(t *testing.T) {
	cmd, rest := splitCommand("  /Add@spendbot  beer 4 ")
	if cmd != "/add" || rest != "beer 4" {
		t.Fatalf("got %q %q", cmd, rest)
	}
}

func TestFormatStatistics(t *testing.T) {
	if got := FormatStatistics(core.Statistics{}); !strings.Contains(got, "Nothing spent") {
		t.Fatalf("empty statistics: %q", got)
	}
	st := stats.Compute([]core.Expense{
		{Date: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), Name: "coffee", Cost: 150},
		{Date: time.Date(2024, 5, 2, 20, 0, 0, 0, time.UTC), Name: "dinner", Cost: 900},
	}, 500)
	got := FormatStatistics(st)
	for _, want := range []string{"1050.00", "150.00", "500.00", "dinner", "Top 2"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Index(got, "dinner") > strings.Index(got, "coffee") {
		t.Fatalf("top list not descending:\n%s", got)
	}
}

func TestFormatTableTruncatesLongNames(t *testing.T) {
	out := FormatTable([]core.Expense{{Date: time.Now(), Name: strings.Repeat("x", 40), Cost: 1}})
	if strings.Contains(out, strings.Repeat("x", 19)) {
		t.Fatalf("name not truncated:\n%s", out)
	}
}

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	reg := registry.New(func(context.Context, int64) (storage.ExpenseStore, error) {
		return memory.New(time.UTC), nil
	}, nil)
	svc := services.NewLedgerService(reg, stats.NewEngine(1), nil, 500)
	t.Cleanup(func() { svc.Close() })
	return NewDispatcher(svc, time.UTC, nil)
}

func TestDispatcherConversation(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()
	when := time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)
	say := func(text string) string {
		return d.Handle(ctx, Request{TenantID: 42, When: when, Text: text})
	}

	if got := say("/start"); !strings.Contains(got, "/statsfor") {
		t.Fatalf("help missing commands: %q", got)
	}
	if got := say("/add coffee 150"); !strings.Contains(got, "150.00") {
		t.Fatalf("add reply: %q", got)
	}
	if got := say("/addon 14.05.2024 nice dinner 450*2"); !strings.Contains(got, "900.00") {
		t.Fatalf("addon reply: %q", got)
	}

	got := say("/list")
	if !strings.Contains(got, "coffee") || !strings.Contains(got, "nice dinner") {
		t.Fatalf("list reply: %q", got)
	}
	if got := say("/list 14.05.2024"); strings.Contains(got, "coffee") || !strings.Contains(got, "nice dinner") {
		t.Fatalf("list day reply: %q", got)
	}

	got = say("/statsfor 14.05.2024 15.05.2024")
	if !strings.Contains(got, "1050.00") || !strings.Contains(got, "150.00") {
		t.Fatalf("statsfor reply: %q", got)
	}
	if got := say("/statsfor 15.05.2024 14.05.2024"); !strings.Contains(got, "later than") {
		t.Fatalf("reversed range reply: %q", got)
	}

	if got := say("/today"); !strings.Contains(got, "150.00") {
		t.Fatalf("today reply: %q", got)
	}
	if got := say("/yesterday"); !strings.Contains(got, "900.00") {
		t.Fatalf("yesterday reply: %q", got)
	}
	if got := say("/week"); !strings.Contains(got, "1050.00") {
		t.Fatalf("week reply: %q", got)
	}
	if got := say("/search dinner"); !strings.Contains(got, "nice dinner") {
		t.Fatalf("search reply: %q", got)
	}

	// /addon was inserted last, so /pop removes it
	if got := say("/pop"); !strings.Contains(got, "nice dinner") {
		t.Fatalf("pop reply: %q", got)
	}
	say("/pop")
	if got := say("/pop"); got != "No records." {
		t.Fatalf("pop on empty: %q", got)
	}
}

func TestDispatcherRejectsBadInput(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()
	cases := map[string]string{
		"/nope":            "Unknown command",
		"/add coffee":      "expected",
		"/addon 2024 x 1":  "invalid date",
		"/list yesterday":  "invalid date",
		"/statsfor 1.1.24": "expected",
		"/search":          "expected",
		"":                 "Empty message",
	}
	for text, want := range cases {
		got := d.Handle(ctx, Request{TenantID: 1, Text: text})
		if !strings.Contains(got, want) {
			t.Fatalf("%q: reply %q does not contain %q", text, got, want)
		}
	}
}

func TestDispatcherRejectsHugeCost(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()
	huge := "1" + strings.Repeat("0", 400)

	for _, text := range []string{"/add yacht " + huge, "/addon 14.05.2024 yacht " + huge} {
		got := d.Handle(ctx, Request{TenantID: 9, Text: text})
		if !strings.Contains(got, core.ErrInvalidAmount.Error()) {
			t.Fatalf("%.20q: reply %q", text, got)
		}
	}
	if got := d.Handle(ctx, Request{TenantID: 9, Text: "/list"}); strings.Contains(got, "yacht") {
		t.Fatalf("rejected expense was stored: %q", got)
	}
	if got := d.Handle(ctx, Request{TenantID: 9, Text: "/statsfor 01.01.2024 31.12.2024"}); strings.Contains(got, "Inf") {
		t.Fatalf("statsfor reply: %q", got)
	}
}

type failingLedger struct{ Ledger }

func (failingLedger) DeleteLast(context.Context, int64) (core.Expense, bool, error) {
	return core.Expense{}, false, errors.Join(core.ErrStorage, errors.New("locked"))
}

func TestDispatcherStorageFailure(t *testing.T) {
	d := NewDispatcher(failingLedger{}, time.UTC, nil)
	got := d.Handle(context.Background(), Request{TenantID: 1, Text: "/pop"})
	if !strings.Contains(got, "Storage is unavailable") {
		t.Fatalf("reply: %q", got)
	}
}
