package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lib-uoguelph-ca/omeka-s/internal/config"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/db"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/metrics"
)

// testServer returns a Server over an in-memory store for HTTP handler tests.
func testServer(t *testing.T, store *memStore) *Server {
	t.Helper()
	cfg := &config.Config{HealthCheckTimeout: 5 * time.Second, Resources: []string{"items", "media"}}
	reg, err := BuildRegistry(cfg, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	return &Server{cfg: cfg, store: store, reg: reg, metrics: metrics.New()}
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth_Healthy(t *testing.T) {
	rec := get(t, testServer(t, newMemStore()), "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("%s - health got status %d, want 200", serverTestPrefix, rec.Code)
	}
	var out HealthOutput
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("%s - decode health: %v", serverTestPrefix, err)
	}
	if out.Status != "healthy" || !out.Checks.Database || !out.Checks.Comms {
		t.Errorf("%s - health = %+v", serverTestPrefix, out)
	}
	if len(out.Resources) != 2 || out.Resources[0] != "items" {
		t.Errorf("%s - resources = %v", serverTestPrefix, out.Resources)
	}
}

func TestHealth_Unhealthy(t *testing.T) {
	store := newMemStore()
	store.pingErr = errors.New("connection refused")
	rec := get(t, testServer(t, store), "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("%s - health got status %d, want 503", serverTestPrefix, rec.Code)
	}
	var out HealthOutput
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("%s - decode health: %v", serverTestPrefix, err)
	}
	if out.Status != "unhealthy" || out.Checks.Database {
		t.Errorf("%s - health = %+v", serverTestPrefix, out)
	}
}

func TestReady(t *testing.T) {
	rec := get(t, testServer(t, newMemStore()), "/ready")
	var out map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("%s - decode ready: %v", serverTestPrefix, err)
	}
	if rec.Code != http.StatusOK || out["status"] != "ready" {
		t.Errorf("%s - ready = %d %v", serverTestPrefix, rec.Code, out)
	}
}

func TestHome(t *testing.T) {
	store := newMemStore()
	store.themes = []db.Theme{{ID: "default", Name: "Default", Version: "1.2.0", State: "active"}}
	rec := get(t, testServer(t, store), "/")

	if rec.Code != http.StatusOK {
		t.Errorf("%s - home got status %d, want 200", serverTestPrefix, rec.Code)
	}
	if rec.Header().Get("Content-Type") != "text/html; charset=utf-8" {
		t.Errorf("%s - Content-Type = %q", serverTestPrefix, rec.Header().Get("Content-Type"))
	}
	body := rec.Body.String()
	for _, want := range []string{"healthy", "items", "media", "Default", "1.2.0"} {
		if !strings.Contains(body, want) {
			t.Errorf("%s - home body missing %q", serverTestPrefix, want)
		}
	}
}

func TestHome_ThemesError(t *testing.T) {
	store := newMemStore()
	store.pingErr = errors.New("db down")
	body := get(t, testServer(t, store), "/").Body.String()
	if !strings.Contains(body, "Could not load themes") {
		t.Errorf("%s - home should show the themes error", serverTestPrefix)
	}
}

func TestHome_OnlyRoot(t *testing.T) {
	rec := get(t, testServer(t, newMemStore()), "/other")
	if rec.Code != http.StatusNotFound {
		t.Errorf("%s - /other got status %d, want 404", serverTestPrefix, rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := testServer(t, newMemStore())
	s.metrics.ObserveDispatch("read", "items", "success", time.Millisecond)

	rec := get(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("%s - metrics got status %d", serverTestPrefix, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "omeka_api_dispatch_total") {
		t.Errorf("%s - metrics body missing dispatch counter", serverTestPrefix)
	}

	s.metrics = nil
	if rec := get(t, s, "/metrics"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("%s - nil metrics got status %d, want 503", serverTestPrefix, rec.Code)
	}
}

func TestHealth_NoRegistry(t *testing.T) {
	s := &Server{cfg: &config.Config{HealthCheckTimeout: time.Second}, store: newMemStore()}
	rec := httptest.NewRecorder()
	s.handleHealth()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("%s - health without registry got %d", serverTestPrefix, rec.Code)
	}
}
