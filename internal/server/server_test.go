package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/fibday/internal/counter"
	"github.com/lazypower/fibday/internal/engine"
	"github.com/lazypower/fibday/internal/store"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func testServer(t *testing.T) (*Server, *store.DB, *testClock) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clk := &testClock{t: time.Date(2026, time.October, 18, 10, 0, 0, 0, time.UTC)}
	eng := engine.New(db, counter.WithClock(clk.Now), counter.WithLocation(time.UTC))
	return New(eng, db, "test-version"), db, clk
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := testServer(t)

	w := do(t, srv, "GET", "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["store"] != true {
		t.Errorf("store = %v, want true", body["store"])
	}
}

type downPinger struct{}

func (downPinger) PingContext(context.Context) error { return errors.New("connection refused") }

func TestHealthReportsStoreDown(t *testing.T) {
	eng := engine.New(store.NewMemory())
	srv := New(eng, downPinger{}, "v")

	w := do(t, srv, "GET", "/api/health", "")
	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["store"] != false {
		t.Errorf("store = %v, want false", body["store"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := testServer(t)
	do(t, srv, "POST", "/api/activate", "")

	w := do(t, srv, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "fibday_reconciliations_total 1") {
		t.Errorf("metrics missing reconciliation count:\n%s", w.Body.String())
	}
}
