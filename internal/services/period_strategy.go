package services

import (
	"fmt"
	"time"

	"spendlog/internal/core"
)

// Period names a reporting window relative to "now".
type Period string

const (
	Today     Period = "today"
	Yesterday Period = "yesterday"
	ThisWeek  Period = "week"
	ThisMonth Period = "month"
)

// PeriodResolver turns a reference time into an inclusive date range.
type PeriodResolver interface {
	Range(now time.Time) (from, to time.Time)
}

type TodayResolver struct{}

func (TodayResolver) Range(now time.Time) (time.Time, time.Time) {
	return core.DayRange(now, now)
}

type YesterdayResolver struct{}

func (YesterdayResolver) Range(now time.Time) (time.Time, time.Time) {
	y := now.AddDate(0, 0, -1)
	return core.DayRange(y, y)
}

// WeekResolver covers Monday through Sunday.
type WeekResolver struct{}

func (WeekResolver) Range(now time.Time) (time.Time, time.Time) {
	return core.WeekRange(now)
}

type MonthResolver struct{}

func (MonthResolver) Range(now time.Time) (time.Time, time.Time) {
	return core.MonthRange(now)
}

var periodResolvers = map[Period]PeriodResolver{
	Today:     TodayResolver{},
	Yesterday: YesterdayResolver{},
	ThisWeek:  WeekResolver{},
	ThisMonth: MonthResolver{},
}

// ResolverFor returns the resolver registered for period.
func ResolverFor(period Period) (PeriodResolver, error) {
	r, ok := periodResolvers[period]
	if !ok {
		return nil, fmt.Errorf("unknown period: %s", period)
	}
	return r, nil
}
