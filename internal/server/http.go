package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/db"
)

// statusSource reports backing-store health and the theme inventory.
// *db.Repository satisfies it.
type statusSource interface {
	Ping(ctx context.Context) error
	ListThemes(ctx context.Context) ([]db.Theme, error)
}

// HealthChecks lists the individual dependency checks.
type HealthChecks struct {
	Database bool `json:"database"`
	Comms    bool `json:"comms"`
}

// HealthOutput is the /health body.
type HealthOutput struct {
	Status    string       `json:"status"`
	Checks    HealthChecks `json:"checks"`
	Resources []string     `json:"resources"`
	Timestamp string       `json:"timestamp"`
}

func (s *Server) health(ctx context.Context) *HealthOutput {
	h := &HealthOutput{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.reg != nil {
		h.Resources = s.reg.Names()
	}
	h.Checks.Database = s.store != nil && s.store.Ping(ctx) == nil
	h.Checks.Comms = s.nc == nil || s.nc.IsConnected()
	if !h.Checks.Database || !h.Checks.Comms {
		h.Status = "unhealthy"
	}
	return h
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()
		h := s.health(ctx)
		w.Header().Set("Content-Type", "application/json")
		if h.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(h)
	}
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// homePageTemplate renders health, served resources and the theme inventory.
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Omeka API</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    h1, h2 { color: #0066cc; }
    .status-healthy { color: #0066cc; font-weight: bold; }
    .status-unhealthy { color: #cc0000; font-weight: bold; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .error { color: #cc0000; }
    section { margin-bottom: 2rem; }
  </style>
</head>
<body>
  <h1>Omeka API</h1>

  <section>
    <h2>Health</h2>
    <p>Status: <span class="status-{{.Health.Status}}">{{.Health.Status}}</span></p>
    <p>Database: {{if .Health.Checks.Database}}OK{{else}}<span class="error">Failed</span>{{end}}</p>
    <p>Comms: {{if .Health.Checks.Comms}}OK{{else}}<span class="error">Disconnected</span>{{end}}</p>
    <p>Timestamp: {{.Health.Timestamp}}</p>
  </section>

  <section>
    <h2>Resources</h2>
    {{if not .Health.Resources}}
    <p>No resources registered.</p>
    {{else}}
    <ul>{{range .Health.Resources}}<li>{{.}}</li>{{end}}</ul>
    {{end}}
  </section>

  <section>
    <h2>Themes</h2>
    {{if .ThemesError}}
    <p class="error">Could not load themes: {{.ThemesError}}</p>
    {{else if not .Themes}}
    <p>No themes installed.</p>
    {{else}}
    <table>
      <thead><tr><th>Theme</th><th>Name</th><th>Version</th><th>State</th></tr></thead>
      <tbody>
        {{range .Themes}}
        <tr><td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Version}}</td><td>{{.State}}</td></tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>
</body>
</html>
`

type homeData struct {
	Health      *HealthOutput
	Themes      []db.Theme
	ThemesError string
}

func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()

		data := homeData{Health: s.health(ctx)}
		if s.store != nil {
			themes, err := s.store.ListThemes(ctx)
			if err != nil {
				data.ThemesError = err.Error()
			} else {
				data.Themes = themes
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", logPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// routes builds the HTTP mux: home page, health, readiness and metrics.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome())
	mux.HandleFunc("/health", s.handleHealth())
	mux.HandleFunc("/ready", handleReady)
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}
