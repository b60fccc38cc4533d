package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskpilot/taskpilot/config"
	"github.com/taskpilot/taskpilot/internal/agent"
	"github.com/taskpilot/taskpilot/internal/memory"
	"github.com/taskpilot/taskpilot/internal/runtime"
)

func testServer(t *testing.T, jwtSecret string) (*echo.Echo, *memory.History) {
	t.Helper()
	cfg := &config.Config{
		Tools:  config.ToolsConfig{Profile: config.ToolsProfileBasic},
		Search: config.SearchConfig{MaxResults: 5},
		Server: config.ServerConfig{JWTSecret: jwtSecret},
	}
	controllers, err := buildControllers(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	history, err := memory.NewHistory(memory.NewInMemoryStore(0))
	if err != nil {
		t.Fatal(err)
	}
	logger := log.New(io.Discard, "", 0)
	runner := &Runner{
		planner:        agent.RulePlanner{},
		controllers:    controllers,
		defaultProfile: config.ToolsProfileBasic,
		history:        history,
		logger:         logger,
	}
	s := &Server{cfg: cfg, runner: runner, logger: logger}
	return s.buildEcho(history), history
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRunEndpoint(t *testing.T) {
	e, _ := testServer(t, "")

	rec := postJSON(e, "/api/run", `{"command":"find cats"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp runResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID == "" {
		t.Error("response should carry a run id")
	}
	if len(resp.Plan.Steps) != 2 || resp.Plan.Steps[0].Tool != "search" || resp.Plan.Steps[1].Tool != "logger" {
		t.Fatalf("unexpected plan: %+v", resp.Plan)
	}
	joined := strings.Join(resp.Logs, "\n")
	if !strings.Contains(joined, "Starting step 1 -> search") {
		t.Errorf("missing controller log lines:\n%s", joined)
	}
	if !strings.Contains(joined, "LOG: Completed task: find cats") {
		t.Errorf("missing logger line:\n%s", joined)
	}
}

func TestRunEndpointValidation(t *testing.T) {
	e, _ := testServer(t, "")

	rec := postJSON(e, "/api/run", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty command: expected 400, got %d", rec.Code)
	}

	rec = postJSON(e, "/api/run", `{"command":"find cats","profile":"quantum"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown profile: expected 400, got %d", rec.Code)
	}
}

func TestPlanEndpointDoesNotExecute(t *testing.T) {
	e, history := testServer(t, "")

	rec := postJSON(e, "/api/plan", `{"command":"Summarize AI news and email me","email":"a@b.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"tool":"summarize"`) {
		t.Errorf("plan should include summarize step: %s", rec.Body.String())
	}

	recent, err := history.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 0 {
		t.Errorf("dry run must not record history, got %d records", len(recent))
	}
}

func TestHistoryEndpoints(t *testing.T) {
	e, _ := testServer(t, "")

	postJSON(e, "/api/run", `{"command":"find cats"}`)
	postJSON(e, "/api/run", `{"command":"find dogs"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/history?limit=10", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listing struct {
		Runs []memory.Record `json:"runs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatal(err)
	}
	if len(listing.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(listing.Runs))
	}
	if listing.Runs[0].Command != "find dogs" {
		t.Errorf("history should be newest first, got %q", listing.Runs[0].Command)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/history?q=dogs", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatal(err)
	}
	if len(listing.Runs) != 1 || listing.Runs[0].Command != "find dogs" {
		t.Errorf("search should find the dogs run, got %+v", listing.Runs)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/history/"+listing.Runs[0].ID, nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("get by id: expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/history/not-a-run", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing id: expected 404, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	e, _ := testServer(t, "")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("unexpected healthz response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestAPIRequiresAuthWhenConfigured(t *testing.T) {
	e, _ := testServer(t, "secret")

	rec := postJSON(e, "/api/run", `{"command":"find cats"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token, err := runtime.SignJWT("tester", []byte("secret"), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(`{"command":"find cats"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}
