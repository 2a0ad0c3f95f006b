package chat

import (
	"fmt"
	"strings"

	"spendlog/internal/core"
)

// FormatExpenses groups records by calendar day:
//
//	May 6
//	09:15 coffee 3.50
func FormatExpenses(expenses []core.Expense) string {
	if len(expenses) == 0 {
		return ""
	}
	var b strings.Builder
	var current string
	for _, e := range expenses {
		day := e.Date.Format("January 2")
		if day != current {
			if current != "" {
				b.WriteString("\n")
			}
			b.WriteString(day)
			b.WriteString("\n")
			current = day
		}
		fmt.Fprintf(&b, "%s %s %s\n", e.Date.Format("15:04"), e.Name, core.FormatCost(e.Cost))
	}
	return b.String()
}

const (
	colDate = 6
	colName = 18
	colCost = 10
)

// FormatTable renders records as a fixed-width table.
func FormatTable(expenses []core.Expense) string {
	if len(expenses) == 0 {
		return ""
	}
	var b strings.Builder
	header := fmt.Sprintf("|%s|%s|%s|", pad("Date", colDate), pad("Name", colName), pad("Cost", colCost))
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", len(header)))
	b.WriteString("\n")
	for _, e := range expenses {
		fmt.Fprintf(&b, "|%s|%s|%s|\n",
			pad(e.Date.Format("02 Jan"), colDate),
			pad(e.Name, colName),
			pad(core.FormatCost(e.Cost), colCost))
	}
	return b.String()
}

// FormatStatistics renders a summary with its top records.
func FormatStatistics(st core.Statistics) string {
	if st.IsEmpty() {
		return "Nothing spent in this period."
	}
	const layout = "02 January 15:04"
	return fmt.Sprintf("Spent %s from %s to %s.\nExcluding items above %s: %s.\n\nTop %d:\n%s",
		core.FormatCost(st.Total),
		st.From.Format(layout),
		st.To.Format(layout),
		core.FormatCost(st.Threshold),
		core.FormatCost(st.TotalBelowThreshold),
		len(st.Top),
		FormatTable(st.Top))
}

// pad right-pads s to width runes and truncates longer values.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
