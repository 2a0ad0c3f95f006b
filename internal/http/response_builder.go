package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body. A nil body writes no content.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		slog.Error("Failed to encode response", applog.FieldError, err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(payload, '\n'))
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard {"error": message} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// errorFor maps a ledger error onto a response. Storage failures are logged
// with the request logger; their details stay out of the response.
func errorFor(ctx context.Context, err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, core.ErrNotInserted):
		return BadRequestError(core.ErrNotInserted.Error())
	case errors.Is(err, core.ErrInvalidRange),
		errors.Is(err, core.ErrInvalidTenant),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, errBadRequest):
		return BadRequestError(err.Error())
	case errors.Is(err, core.ErrStorage):
		applog.FromContext(ctx).ErrorContext(ctx, "Storage failure", applog.FieldError, err)
		return ErrorResponse(http.StatusServiceUnavailable, "storage unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorResponse(http.StatusServiceUnavailable, "request cancelled")
	default:
		applog.FromContext(ctx).ErrorContext(ctx, "Unhandled error", applog.FieldError, err)
		return InternalServerError("internal error")
	}
}

// expenseJSON is the wire form of core.Expense.
type expenseJSON struct {
	ID   int64     `json:"id,omitempty"`
	Date time.Time `json:"date"`
	Name string    `json:"name"`
	Cost float64   `json:"cost"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{ID: e.ID, Date: e.Date, Name: e.Name, Cost: e.Cost}
}

func toExpenseList(records []core.Expense) []expenseJSON {
	out := make([]expenseJSON, 0, len(records))
	for _, e := range records {
		out = append(out, toExpenseJSON(e))
	}
	return out
}

// statisticsJSON omits the span when no record contributed.
type statisticsJSON struct {
	From                *time.Time    `json:"from,omitempty"`
	To                  *time.Time    `json:"to,omitempty"`
	Count               int           `json:"count"`
	Total               float64       `json:"total"`
	TotalBelowThreshold float64       `json:"totalBelowThreshold"`
	Threshold           float64       `json:"threshold"`
	Top                 []expenseJSON `json:"top"`
}

func toStatisticsJSON(st core.Statistics) statisticsJSON {
	out := statisticsJSON{
		Count:               st.Count,
		Total:               st.Total,
		TotalBelowThreshold: st.TotalBelowThreshold,
		Threshold:           st.Threshold,
		Top:                 toExpenseList(st.Top),
	}
	if st.HasRange() {
		from, to := st.From, st.To
		out.From, out.To = &from, &to
	}
	return out
}
