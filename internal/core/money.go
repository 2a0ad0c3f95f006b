// Package core provides the ledger domain types plus money and period helpers.
//
// Costs are stored as float64 to match the persisted REAL column; any arithmetic
// that must be exact (parsing, summing, formatting) goes through decimal.Decimal.
package core

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// MaxAbsCost bounds the costs adapters accept. Sums over a full query page
// of such costs stay finite.
const MaxAbsCost = 1e15

// ParseAmount converts a decimal string to a decimal value.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Thousands separators are not supported.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-3")    -> -3, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseCost is ParseAmount returning the float64 stored by the ledger.
// Values that do not fit CheckCost are rejected.
func ParseCost(s string) (float64, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return 0, err
	}
	v := d.InexactFloat64()
	if err := CheckCost(v); err != nil {
		return 0, err
	}
	return v, nil
}

// CheckCost rejects NaN, infinities and magnitudes above MaxAbsCost.
func CheckCost(cost float64) error {
	if !isFinite(cost) || math.Abs(cost) > MaxAbsCost {
		return ErrInvalidAmount
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FormatCost renders a cost with two fractional digits, half-up rounded.
func FormatCost(cost float64) string {
	if !isFinite(cost) {
		return strconv.FormatFloat(cost, 'f', 2, 64)
	}
	return decimal.NewFromFloat(cost).StringFixed(2)
}

// CostSum adds costs without binary rounding drift. Non-finite costs
// cannot be represented as decimals and are carried in float64 instead.
// The zero value is an empty sum.
type CostSum struct {
	exact   decimal.Decimal
	inexact float64
}

func (s *CostSum) Add(cost float64) {
	if isFinite(cost) {
		s.exact = s.exact.Add(decimal.NewFromFloat(cost))
		return
	}
	s.inexact += cost
}

func (s CostSum) Float64() float64 {
	return s.exact.InexactFloat64() + s.inexact
}

// SumCosts adds the costs of the given expenses.
func SumCosts(expenses []Expense) float64 {
	var total CostSum
	for _, e := range expenses {
		total.Add(e.Cost)
	}
	return total.Float64()
}
