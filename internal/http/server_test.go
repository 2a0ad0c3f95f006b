package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spendlog/internal/backend"
	"spendlog/internal/chat"
	"spendlog/internal/core"
	"spendlog/internal/sessions"
)

func newTestServer(t *testing.T, limit int) *Server {
	t.Helper()
	res, err := backend.NewFactory(nil).CreateBackend(context.Background(), backend.Config{
		Type:           backend.MemoryBackend,
		Location:       time.UTC,
		StatsThreshold: 100,
		StatsWorkers:   1,
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	srv := NewServer(":0", Options{
		Ledger:             res.Ledger,
		Sessions:           sessions.NewDirectory(time.Hour, 10),
		Chat:               chat.NewDispatcher(res.Ledger, time.UTC, nil),
		Location:           time.UTC,
		RateLimitPerMinute: limit,
	})
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
		_ = res.Cleanup()
	})
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, 100)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s: missing request id header", path)
		}
	}

	srv.ready = func(context.Context) error { return fmt.Errorf("broker down") }
	if rr := do(t, srv, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing check: %d", rr.Code)
	}
}

func TestLedgerEndpoints(t *testing.T) {
	srv := newTestServer(t, 100)

	for _, body := range []string{
		`{"date":"2024-03-05T10:00:00","name":"bread","cost":2.5}`,
		`{"date":"2024-03-05T12:00:00Z","name":"laptop","cost":"150,00"}`,
		`{"date":"2024-03-07","name":"coffee","cost":3}`,
	} {
		if rr := do(t, srv, http.MethodPut, "/api/tenants/-100/add", body); rr.Code != http.StatusCreated {
			t.Fatalf("add %s: %d %s", body, rr.Code, rr.Body.String())
		}
	}

	all := decode[[]expenseJSON](t, do(t, srv, http.MethodGet, "/api/tenants/-100/all", ""))
	if len(all) != 3 {
		t.Fatalf("all = %d records", len(all))
	}
	day := decode[[]expenseJSON](t, do(t, srv, http.MethodGet, "/api/tenants/-100/all?date=2024-03-05", ""))
	if len(day) != 2 {
		t.Fatalf("all?date = %d records", len(day))
	}
	if other := decode[[]expenseJSON](t, do(t, srv, http.MethodGet, "/api/tenants/7/all", "")); len(other) != 0 {
		t.Fatalf("tenant 7 sees %d records", len(other))
	}

	rng := decode[[]expenseJSON](t, do(t, srv, http.MethodGet,
		"/api/tenants/-100/expenses-for-dates?start=2024-03-05T11:00:00&end=2024-03-07T23:59:59", ""))
	if len(rng) != 2 {
		t.Fatalf("range = %d records", len(rng))
	}

	st := decode[statisticsJSON](t, do(t, srv, http.MethodGet, "/api/tenants/-100/statistics?from=2024-03-01&to=2024-03-31", ""))
	if st.Count != 3 || st.Total != 155.5 || st.TotalBelowThreshold != 5.5 || st.Threshold != 100 {
		t.Fatalf("statistics = %+v", st)
	}
	if len(st.Top) != 3 || st.Top[0].Name != "laptop" || st.From == nil {
		t.Fatalf("top = %+v", st.Top)
	}
	st = decode[statisticsJSON](t, do(t, srv, http.MethodGet, "/api/tenants/-100/statistics?from=2024-03-01&to=2024-03-31&threshold=1000", ""))
	if st.TotalBelowThreshold != 155.5 {
		t.Fatalf("threshold override: %+v", st)
	}
	empty := decode[statisticsJSON](t, do(t, srv, http.MethodGet, "/api/tenants/-100/statistics?from=2023-01-01&to=2023-01-02", ""))
	if empty.Count != 0 || empty.From != nil || empty.Top == nil {
		t.Fatalf("empty statistics = %+v", empty)
	}

	found := decode[[]expenseJSON](t, do(t, srv, http.MethodGet, "/api/tenants/-100/search?text=ea", ""))
	if len(found) != 1 || found[0].Name != "bread" {
		t.Fatalf("search = %+v", found)
	}

	popped := decode[expenseJSON](t, do(t, srv, http.MethodPost, "/api/tenants/-100/pop", ""))
	if popped.Name != "coffee" {
		t.Fatalf("pop = %+v", popped)
	}
	do(t, srv, http.MethodPost, "/api/tenants/-100/pop", "")
	do(t, srv, http.MethodPost, "/api/tenants/-100/pop", "")
	if rr := do(t, srv, http.MethodPost, "/api/tenants/-100/pop", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("pop on empty ledger: %d", rr.Code)
	}
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t, 100)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"non-numeric tenant", http.MethodGet, "/api/tenants/abc/all", ""},
		{"malformed json", http.MethodPut, "/api/tenants/1/add", `{"name":`},
		{"unknown field", http.MethodPut, "/api/tenants/1/add", `{"name":"x","cost":1,"color":"red"}`},
		{"empty name", http.MethodPut, "/api/tenants/1/add", `{"name":"  ","cost":1}`},
		{"bad cost", http.MethodPut, "/api/tenants/1/add", `{"name":"x","cost":"lots"}`},
		{"missing range", http.MethodGet, "/api/tenants/1/expenses-for-dates?start=2024-01-01", ""},
		{"bad timestamp", http.MethodGet, "/api/tenants/1/statistics?from=yesterday&to=2024-01-01", ""},
		{"bad threshold", http.MethodGet, "/api/tenants/1/statistics?from=2024-01-01&to=2024-01-01&threshold=big", ""},
		{"single search bound", http.MethodGet, "/api/tenants/1/search?text=a&start=2024-01-01", ""},
		{"overflowing cost string", http.MethodPut, "/api/tenants/1/add", `{"name":"x","cost":"1e400"}`},
		{"overflowing cost number", http.MethodPut, "/api/tenants/1/add", `{"name":"x","cost":1e400}`},
		{"cost above limit", http.MethodPut, "/api/tenants/1/add", `{"name":"x","cost":1e300}`},
		{"five digit year", http.MethodPut, "/api/tenants/1/add", `{"date":"9999-12-31T23:00:00-05:00","name":"x","cost":1}`},
		{"NaN threshold", http.MethodGet, "/api/tenants/1/statistics?from=2024-01-01&to=2024-01-01&threshold=NaN", ""},
		{"Inf threshold", http.MethodGet, "/api/tenants/1/statistics?from=2024-01-01&to=2024-01-01&threshold=Inf", ""},
		{"negative Inf threshold", http.MethodGet, "/api/tenants/1/statistics?from=2024-01-01&to=2024-01-01&threshold=-Inf", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.path, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
			}
			if decode[errorBody](t, rr).Error == "" {
				t.Fatalf("missing error message")
			}
		})
	}
}

func TestRejectedCostsLeaveLedgerUsable(t *testing.T) {
	srv := newTestServer(t, 100)
	for _, body := range []string{
		`{"date":"2023-05-06T10:00:00Z","name":"yacht","cost":"1e400"}`,
		`{"date":"2023-05-06T10:00:00Z","name":"yacht","cost":"-1e400"}`,
		`{"date":"2023-05-06T10:00:00Z","name":"yacht","cost":"1` + strings.Repeat("0", 400) + `"}`,
	} {
		if rr := do(t, srv, http.MethodPut, "/api/tenants/5/add", body); rr.Code != http.StatusBadRequest {
			t.Fatalf("add %.40s: status = %d body=%s", body, rr.Code, rr.Body.String())
		}
	}
	if rr := do(t, srv, http.MethodPut, "/api/tenants/5/add", `{"date":"2023-05-06T11:00:00Z","name":"coffee","cost":"2,50"}`); rr.Code != http.StatusCreated {
		t.Fatalf("add coffee: status = %d body=%s", rr.Code, rr.Body.String())
	}

	rr := do(t, srv, http.MethodGet, "/api/tenants/5/statistics?from=2023-05-06&to=2023-05-06", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("statistics: status = %d body=%s", rr.Code, rr.Body.String())
	}
	st := decode[statisticsJSON](t, rr)
	if st.Count != 1 || st.Total != 2.5 {
		t.Fatalf("unexpected statistics %+v", st)
	}
}

func TestSessions(t *testing.T) {
	srv := newTestServer(t, 100)
	do(t, srv, http.MethodPut, "/api/tenants/5/add", `{"date":"2024-03-05","name":"tea","cost":1}`)

	rr := do(t, srv, http.MethodPost, "/api/tenants/5/sessions", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("create session: %d", rr.Code)
	}
	token := decode[map[string]string](t, rr)["token"]

	got := decode[[]expenseJSON](t, do(t, srv, http.MethodGet, "/api/sessions/"+token+"/all", ""))
	if len(got) != 1 || got[0].Name != "tea" {
		t.Fatalf("session all = %+v", got)
	}
	if rr := do(t, srv, http.MethodGet, "/api/sessions/"+token+"/statistics?from=2024-03-05&to=2024-03-05", ""); rr.Code != http.StatusOK {
		t.Fatalf("session statistics: %d", rr.Code)
	}

	if rr := do(t, srv, http.MethodGet, "/api/sessions/not-a-token/all", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown token: %d", rr.Code)
	}

	if rr := do(t, srv, http.MethodDelete, "/api/sessions/"+token, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("revoke: %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/sessions/"+token+"/all", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("revoked token: %d", rr.Code)
	}
}

func TestChatEndpoint(t *testing.T) {
	srv := newTestServer(t, 100)
	rr := do(t, srv, http.MethodPost, "/api/tenants/9/chat", `{"text":"/addon 05.03.2024 beer 4*2.5","when":"2024-03-06T10:00:00Z"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("chat: %d %s", rr.Code, rr.Body.String())
	}
	if reply := decode[map[string]string](t, rr)["reply"]; !strings.Contains(reply, "10.00") {
		t.Fatalf("reply = %q", reply)
	}
	all := decode[[]expenseJSON](t, do(t, srv, http.MethodGet, "/api/tenants/9/all", ""))
	if len(all) != 1 || all[0].Cost != 10 {
		t.Fatalf("chat add not stored: %+v", all)
	}

	if rr := do(t, srv, http.MethodPost, "/api/tenants/9/chat", `{"text":""}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty chat text: %d", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, 1)
	if rr := do(t, srv, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Fatalf("first: %d", rr.Code)
	}
	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("second: %d", rr.Code)
	}
	if srv.Stats().RateLimited != 1 || srv.Stats().Requests != 2 {
		t.Fatalf("stats = %+v", srv.Stats())
	}
}

type failingLedger struct{ Ledger }

func (failingLedger) ListExpenses(context.Context, int64, *time.Time) ([]core.Expense, error) {
	return nil, fmt.Errorf("select: %w: disk I/O error", core.ErrStorage)
}

func (failingLedger) AddExpense(context.Context, int64, time.Time, string, float64) error {
	return core.ErrNotInserted
}

func TestErrorMapping(t *testing.T) {
	srv := NewServer(":0", Options{Ledger: failingLedger{}, Location: time.UTC, RateLimitPerMinute: 100})
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, "/api/tenants/1/all", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("storage failure: %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "disk") {
		t.Fatalf("storage details leaked: %s", rr.Body.String())
	}

	rr = do(t, srv, http.MethodPut, "/api/tenants/1/add", `{"name":"x","cost":1}`)
	if rr.Code != http.StatusBadRequest || decode[errorBody](t, rr).Error != "could not insert" {
		t.Fatalf("not inserted: %d %s", rr.Code, rr.Body.String())
	}

	if rr := do(t, srv, http.MethodPost, "/api/tenants/1/chat", `{"text":"/start"}`); rr.Code != http.StatusNotFound {
		t.Fatalf("chat without dispatcher: %d", rr.Code)
	}
}

func TestSecurityHeadersAndProbes(t *testing.T) {
	srv := newTestServer(t, 100)
	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing security headers: %v", rr.Header())
	}
	if rr := do(t, srv, http.MethodGet, "/.git/config", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("probe: %d", rr.Code)
	}
}
