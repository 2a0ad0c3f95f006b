package http

import (
	"net/http"
	"strings"

	"spendlog/internal/chat"
	applog "spendlog/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request, tenantID int64) {
	var req addExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}
	e, err := req.toExpense(s.now(), s.loc)
	if err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}
	if err := s.ledger.AddExpense(r.Context(), tenantID, e.Date, e.Name, e.Cost); err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense added",
		applog.NewFields().WithTenant(tenantID).WithExpense(e.Name, e.Cost).ToSlice()...)
	NewJSONResponse().Status(http.StatusCreated).Body(toExpenseJSON(e)).Write(w)
}

// handleAll lists every record, or one calendar day when ?date= is set.
func (s *Server) handleAll(w http.ResponseWriter, r *http.Request, tenantID int64) {
	date, err := optionalTimestamp(r.URL.Query(), "date", s.loc)
	if err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}
	if date != nil {
		d := date.In(s.loc)
		date = &d
	}
	records, err := s.ledger.ListExpenses(r.Context(), tenantID, date)
	if err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}
	NewJSONResponse().Body(toExpenseList(records)).Write(w)
}

func (s *Server) handleExpensesForDates(w http.ResponseWriter, r *http.Request, tenantID int64) {
	from, to, err := requiredRange(r.URL.Query(), "start", "end", s.loc)
	if err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}
	records, err := s.ledger.ExpensesInRange(r.Context(), tenantID, from, to)
	if err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}
	NewJSONResponse().Body(toExpenseList(records)).Write(w)
}

// handleStatistics summarizes whole days from..to.
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request, tenantID int64) {
	q := r.URL.Query()
	from, to, err := requiredRange(q, "from", "to", s.loc)
	if err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}
	threshold, err := optionalFloat(q, "threshold", s.ledger.Threshold())
	if err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}
	st, _, err := s.ledger.StatisticsWithThreshold(r.Context(), tenantID, from.In(s.loc), to.In(s.loc), threshold)
	if err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}
	NewJSONResponse().Body(toStatisticsJSON(st)).Write(w)
}

func (s *Server) handlePop(w http.ResponseWriter, r *http.Request, tenantID int64) {
	e, ok, err := s.ledger.DeleteLast(r.Context(), tenantID)
	if err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}
	if !ok {
		NotFoundError("no expenses").Write(w)
		return
	}
	NewJSONResponse().Body(toExpenseJSON(e)).Write(w)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, tenantID int64) {
	q := r.URL.Query()
	from, err := optionalTimestamp(q, "start", s.loc)
	if err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}
	to, err := optionalTimestamp(q, "end", s.loc)
	if err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}
	records, err := s.ledger.Search(r.Context(), tenantID, q.Get("text"), from, to)
	if err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}
	NewJSONResponse().Body(toExpenseList(records)).Write(w)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request, tenantID int64) {
	token, err := s.sessions.CreateSession(tenantID)
	if err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(map[string]string{"token": token}).Write(w)
}

func (s *Server) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Revoke(r.PathValue("token"))
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleChat runs one chat command; the reply is always 200 because
// command errors are part of the conversation.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, tenantID int64) {
	if s.chat == nil {
		NotFoundError("chat is disabled").Write(w)
		return
	}
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorFor(r.Context(), err).Write(w)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		BadRequestError("text is required").Write(w)
		return
	}
	reply := s.chat.Handle(r.Context(), chat.Request{TenantID: tenantID, When: req.When, Text: req.Text})
	NewJSONResponse().Body(map[string]string{"reply": reply}).Write(w)
}
