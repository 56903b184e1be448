// Package health runs named readiness checks and serves the result.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/joescharf/tracker/internal/logging"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// Status values used in a Report.
const (
	StatusOK   = "ok"
	StatusFail = "fail"
)

// Report is the outcome of one run over all checks.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool { return r.Status == StatusOK }

// Checker holds the registered checks.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]Check
	timeout time.Duration
}

// NewChecker returns a Checker that bounds each run by timeout.
func NewChecker(timeout time.Duration) *Checker {
	return &Checker{checks: make(map[string]Check), timeout: timeout}
}

// Add registers check under name, replacing any previous one.
func (c *Checker) Add(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Run executes all checks concurrently.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	entries := lo.Entries(c.checks)
	c.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	results := make([]error, len(entries))
	var wg sync.WaitGroup
	for i, e := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = e.Value(ctx)
		}()
	}
	wg.Wait()

	report := Report{Status: StatusOK, Checks: make(map[string]string, len(entries))}
	for i, e := range entries {
		if err := results[i]; err != nil {
			report.Status = StatusFail
			report.Checks[e.Key] = err.Error()
			continue
		}
		report.Checks[e.Key] = StatusOK
	}
	return report
}

// Handler serves the report as JSON: 200 when healthy, 503 otherwise.
func (c *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := c.Run(r.Context())
		status := http.StatusOK
		if !report.Healthy() {
			status = http.StatusServiceUnavailable
			logging.FromContext(r.Context()).Warn("health check failed", zap.Any("checks", report.Checks))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	})
}
