// Package chat turns text commands into ledger operations and formats the replies.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/services"
)

// Ledger is the part of the ledger service the dispatcher drives.
type Ledger interface {
	AddExpense(ctx context.Context, tenantID int64, date time.Time, name string, cost float64) error
	ListExpenses(ctx context.Context, tenantID int64, date *time.Time) ([]core.Expense, error)
	Statistics(ctx context.Context, tenantID int64, from, to time.Time) (core.Statistics, []core.Expense, error)
	StatisticsForPeriod(ctx context.Context, tenantID int64, period services.Period, now time.Time) (core.Statistics, []core.Expense, error)
	DeleteLast(ctx context.Context, tenantID int64) (core.Expense, bool, error)
	Search(ctx context.Context, tenantID int64, text string, from, to *time.Time) ([]core.Expense, error)
}

// Request is one incoming chat message.
type Request struct {
	TenantID int64
	When     time.Time
	Text     string
}

type handlerFunc func(ctx context.Context, req Request, args string) (string, error)

type command struct {
	name    string
	usage   string
	handler handlerFunc
}

type Dispatcher struct {
	ledger   Ledger
	loc      *time.Location
	logger   *slog.Logger
	commands map[string]command
}

// NewDispatcher builds a dispatcher. Dates typed by users are read in loc.
func NewDispatcher(ledger Ledger, loc *time.Location, logger *slog.Logger) *Dispatcher {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{ledger: ledger, loc: loc, logger: logger}
	d.commands = map[string]command{}
	for _, c := range []command{
		{"/start", "show this help", d.handleStart},
		{"/add", "add an expense now: /add beer 400*4", d.handleAdd},
		{"/addon", "add an expense on a day: /addon 06.05.2023 beer 400*4", d.handleAddOn},
		{"/list", "list expenses of a day, or all: /list 06.05.2023", d.handleList},
		{"/statsfor", "statistics between two days: /statsfor 05.05.2023 07.07.2023", d.handleStatsFor},
		{"/pop", "delete the last added expense", d.handleDeleteLast},
		{"/today", "statistics for today", d.periodHandler(services.Today)},
		{"/yesterday", "statistics for yesterday", d.periodHandler(services.Yesterday)},
		{"/week", "statistics for this week", d.periodHandler(services.ThisWeek)},
		{"/month", "statistics for this month", d.periodHandler(services.ThisMonth)},
		{"/search", "find expenses by name: /search coffee", d.handleSearch},
	} {
		d.commands[c.name] = c
	}
	return d
}

// Handle executes one message and returns the reply text.
func (d *Dispatcher) Handle(ctx context.Context, req Request) string {
	if req.When.IsZero() {
		req.When = time.Now()
	}
	req.When = req.When.In(d.loc)

	name, args := splitCommand(req.Text)
	if name == "" {
		return "Empty message."
	}
	cmd, ok := d.commands[name]
	if !ok {
		return fmt.Sprintf("Unknown command %q. Send /start for help.", name)
	}

	reply, err := cmd.handler(ctx, req, args)
	if err != nil {
		return d.errorReply(ctx, req, name, err)
	}
	return reply
}

// Usage lists the supported commands in name order.
func (d *Dispatcher) Usage() string {
	names := make([]string, 0, len(d.commands))
	for n := range d.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, n := range names {
		fmt.Fprintf(&b, "%s - %s\n", n, d.commands[n].usage)
	}
	return b.String()
}

func (d *Dispatcher) errorReply(ctx context.Context, req Request, cmd string, err error) string {
	switch {
	case errors.Is(err, core.ErrStorage):
		d.logger.ErrorContext(ctx, "Chat command failed", "command", cmd, "tenant_id", req.TenantID, "error", err)
		return "Storage is unavailable, try again later."
	case errors.Is(err, core.ErrNotInserted):
		return "Could not save the expense."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Request cancelled."
	default:
		return err.Error()
	}
}

func (d *Dispatcher) handleStart(_ context.Context, _ Request, _ string) (string, error) {
	return d.Usage(), nil
}

func (d *Dispatcher) handleAdd(ctx context.Context, req Request, args string) (string, error) {
	name, cost, err := ParseExpense(args)
	if err != nil {
		return "", err
	}
	return d.add(ctx, req.TenantID, req.When, name, cost)
}

func (d *Dispatcher) handleAddOn(ctx context.Context, req Request, args string) (string, error) {
	day, rest, ok := strings.Cut(args, " ")
	if !ok {
		return "", errors.New("expected '/addon DD.MM.YYYY <name> <cost>'")
	}
	date, err := ParseDate(day, d.loc)
	if err != nil {
		return "", err
	}
	name, cost, err := ParseExpense(rest)
	if err != nil {
		return "", err
	}
	return d.add(ctx, req.TenantID, date, name, cost)
}

func (d *Dispatcher) add(ctx context.Context, tenantID int64, date time.Time, name string, cost float64) (string, error) {
	if err := d.ledger.AddExpense(ctx, tenantID, date, name, cost); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %s for '%s' on %s.", core.FormatCost(cost), name, date.Format(DateLayout)), nil
}

func (d *Dispatcher) handleList(ctx context.Context, req Request, args string) (string, error) {
	var date *time.Time
	if args != "" {
		t, err := ParseDate(args, d.loc)
		if err != nil {
			return "", err
		}
		date = &t
	}
	items, err := d.ledger.ListExpenses(ctx, req.TenantID, date)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "Nothing spent in this period.", nil
	}
	return FormatExpenses(items), nil
}

func (d *Dispatcher) handleStatsFor(ctx context.Context, req Request, args string) (string, error) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "", errors.New("expected '/statsfor DD.MM.YYYY DD.MM.YYYY'")
	}
	from, err := ParseDate(parts[0], d.loc)
	if err != nil {
		return "", err
	}
	to, err := ParseDate(parts[1], d.loc)
	if err != nil {
		return "", err
	}
	if from.After(to) {
		return "", fmt.Errorf("%s is later than %s", parts[0], parts[1])
	}
	st, _, err := d.ledger.Statistics(ctx, req.TenantID, from, to)
	if err != nil {
		return "", err
	}
	return FormatStatistics(st), nil
}

func (d *Dispatcher) periodHandler(p services.Period) handlerFunc {
	return func(ctx context.Context, req Request, _ string) (string, error) {
		st, _, err := d.ledger.StatisticsForPeriod(ctx, req.TenantID, p, req.When)
		if err != nil {
			return "", err
		}
		return FormatStatistics(st), nil
	}
}

func (d *Dispatcher) handleDeleteLast(ctx context.Context, req Request, _ string) (string, error) {
	e, ok, err := d.ledger.DeleteLast(ctx, req.TenantID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "No records.", nil
	}
	return fmt.Sprintf("Deleted %s %s %s.", e.Date.In(d.loc).Format("02.01.2006 15:04"), e.Name, core.FormatCost(e.Cost)), nil
}

func (d *Dispatcher) handleSearch(ctx context.Context, req Request, args string) (string, error) {
	if args == "" {
		return "", errors.New("expected '/search <text>'")
	}
	items, err := d.ledger.Search(ctx, req.TenantID, args, nil, nil)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return fmt.Sprintf("Nothing matches %q.", args), nil
	}
	return FormatExpenses(items), nil
}
