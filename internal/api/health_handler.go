package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/lead-intake/internal/leadimport"
	"github.com/ignite/lead-intake/internal/pkg/httputil"
)

// HealthStatus represents the overall health of the service.
type HealthStatus struct {
	Status  string                    `json:"status"` // "healthy", "degraded"
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "disabled"
	Message string `json:"message,omitempty"`
}

// HealthChecker reports on the catalog and the configured remote sources.
type HealthChecker struct {
	catalog   *leadimport.Catalog
	sources   map[string]bool
	startTime time.Time
}

// NewHealthChecker creates a HealthChecker. sources names each remote
// source kind ("s3", "http") and whether it is enabled.
func NewHealthChecker(catalog *leadimport.Catalog, sources map[string]bool) *HealthChecker {
	return &HealthChecker{catalog: catalog, sources: sources, startTime: time.Now()}
}

const healthVersion = "1.0.0"

// HandleHealth returns the health of every component.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]ComponentCheck, len(hc.sources)+1)
	checks["catalog"] = hc.checkCatalog()
	for name, enabled := range hc.sources {
		if enabled {
			checks[name] = ComponentCheck{Status: "up", Message: "configured"}
		} else {
			checks[name] = ComponentCheck{Status: "disabled", Message: "not configured"}
		}
	}

	overall := "healthy"
	for _, c := range checks {
		if c.Status == "down" {
			overall = "degraded"
		}
	}

	httputil.OK(w, HealthStatus{
		Status:  overall,
		Version: healthVersion,
		Uptime:  formatUptime(time.Since(hc.startTime)),
		Checks:  checks,
	})
}

// HandleLiveness always returns 200 while the process runs.
//
//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status": "alive",
		"uptime": formatUptime(time.Since(hc.startTime)),
	})
}

func (hc *HealthChecker) checkCatalog() ComponentCheck {
	if hc.catalog == nil || hc.catalog.Dictionary().Len() == 0 {
		return ComponentCheck{Status: "down", Message: "no column dictionary loaded"}
	}
	return ComponentCheck{
		Status:  "up",
		Message: fmt.Sprintf("%d synonyms, %d profiles", hc.catalog.Dictionary().Len(), len(hc.catalog.Profiles())),
	}
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
