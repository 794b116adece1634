package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"sort"
	"sync"
	"time"
)

// Pinger is anything whose health can be probed
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger
type PingerFunc func(ctx context.Context) error

// HealthCheck calls f
func (f PingerFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

type dependency struct {
	name     string
	pinger   Pinger
	critical bool
}

// HealthChecker probes registered dependencies. A failing critical
// dependency makes the service unhealthy; a failing optional one degrades it.
type HealthChecker struct {
	mu      sync.RWMutex
	deps    []dependency
	version string
}

// NewHealthChecker creates a health checker with no dependencies
func NewHealthChecker() *HealthChecker {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}
	return &HealthChecker{version: version}
}

// AddCritical registers a dependency the service cannot run without
func (h *HealthChecker) AddCritical(name string, p Pinger) *HealthChecker {
	return h.add(dependency{name: name, pinger: p, critical: true})
}

// AddOptional registers a dependency whose loss only degrades the service
func (h *HealthChecker) AddOptional(name string, p Pinger) *HealthChecker {
	return h.add(dependency{name: name, pinger: p})
}

func (h *HealthChecker) add(d dependency) *HealthChecker {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deps = append(h.deps, d)
	return h
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus represents the health of a single dependency
type DependencyStatus struct {
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Latency   time.Duration `json:"latency_ms,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Liveness returns 200 while the process is serving
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    StatusHealthy,
		"timestamp": time.Now(),
	})
}

// Readiness checks every dependency and returns 503 when unhealthy
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if status.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(status)
}

// Check probes every registered dependency
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	h.mu.RLock()
	deps := make([]dependency, len(h.deps))
	copy(deps, h.deps)
	h.mu.RUnlock()

	sort.SliceStable(deps, func(i, j int) bool { return deps[i].name < deps[j].name })

	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Version:      h.version,
		Dependencies: make(map[string]DependencyStatus, len(deps)),
	}

	for _, d := range deps {
		ds := probe(ctx, d.pinger)
		status.Dependencies[d.name] = ds
		if ds.Status != StatusUnhealthy {
			continue
		}
		if d.critical {
			status.Status = StatusUnhealthy
		} else if status.Status != StatusUnhealthy {
			status.Status = StatusDegraded
		}
	}

	return status
}

func probe(ctx context.Context, p Pinger) DependencyStatus {
	start := time.Now()
	err := p.HealthCheck(ctx)

	status := DependencyStatus{
		Status:    StatusHealthy,
		Latency:   time.Since(start),
		Timestamp: time.Now(),
	}
	if err != nil {
		status.Status = StatusUnhealthy
		status.Message = err.Error()
	}
	return status
}

// RegisterHealthRoutes registers health check endpoints
func RegisterHealthRoutes(mux *http.ServeMux, checker *HealthChecker) {
	mux.HandleFunc("/health", checker.Readiness)
	mux.HandleFunc("/health/live", checker.Liveness)
	mux.HandleFunc("/health/ready", checker.Readiness)
}
