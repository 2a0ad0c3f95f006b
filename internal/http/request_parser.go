package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spendlog/internal/core"
)

const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("bad request")

// timestamp layouts accepted in query strings, most specific first
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// parseTenantID reads the {tenantID} path value. Negative ids are valid.
func parseTenantID(r *http.Request) (int64, error) {
	raw := r.PathValue("tenantID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidTenant, raw)
	}
	return id, nil
}

// parseTimestamp accepts RFC 3339 or a zone-less timestamp read in loc.
func parseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, raw)
		} else {
			t, err = time.ParseInLocation(layout, raw, loc)
		}
		if err == nil {
			if !core.InDateRange(t) {
				return time.Time{}, badRequest("timestamp %q out of range", raw)
			}
			return t, nil
		}
	}
	return time.Time{}, badRequest("invalid timestamp %q", raw)
}

// optionalTimestamp returns nil when key is absent or empty.
func optionalTimestamp(q url.Values, key string, loc *time.Location) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := parseTimestamp(raw, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// requiredRange reads two mandatory bounds.
func requiredRange(q url.Values, fromKey, toKey string, loc *time.Location) (time.Time, time.Time, error) {
	from, err := optionalTimestamp(q, fromKey, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := optionalTimestamp(q, toKey, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from == nil || to == nil {
		return time.Time{}, time.Time{}, badRequest("%s and %s are required", fromKey, toKey)
	}
	return *from, *to, nil
}

// optionalFloat returns def when key is absent.
func optionalFloat(q url.Values, key string, def float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, badRequest("invalid %s %q", key, raw)
	}
	return v, nil
}

// decodeJSON reads one JSON object from the body, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("empty body")
		}
		return badRequest("invalid JSON: %v", err)
	}
	return nil
}

// addExpenseRequest is the body of the add endpoint. Cost may be a number
// or a string such as "12,50".
type addExpenseRequest struct {
	Date string          `json:"date"`
	Name string          `json:"name"`
	Cost json.RawMessage `json:"cost"`
}

func (req addExpenseRequest) toExpense(now time.Time, loc *time.Location) (core.Expense, error) {
	e := core.Expense{Date: now, Name: sanitizeInput(req.Name)}
	if strings.TrimSpace(req.Date) != "" {
		d, err := parseTimestamp(req.Date, loc)
		if err != nil {
			return core.Expense{}, err
		}
		e.Date = d
	}

	cost, err := parseCostField(req.Cost)
	if err != nil {
		return core.Expense{}, err
	}
	e.Cost = cost

	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return e, nil
}

func parseCostField(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, badRequest("cost is required")
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if core.CheckCost(n) != nil {
			return 0, badRequest("cost %s out of range", raw)
		}
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, badRequest("cost must be a number or a string")
	}
	v, err := core.ParseCost(s)
	if err != nil {
		return 0, badRequest("invalid cost %q", s)
	}
	return v, nil
}

type chatRequest struct {
	Text string    `json:"text"`
	When time.Time `json:"when"`
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 {
			return -1
		}
		return r
	}, s)
}
