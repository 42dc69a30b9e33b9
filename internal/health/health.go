// Package health reports whether a running input method can serve keys.
//
// A Checker runs named checks concurrently, each under its own timeout.
// Critical checks that fail make the process unhealthy; other failures
// only degrade it.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// DefaultTimeout bounds a check registered without a timeout.
const DefaultTimeout = 2 * time.Second

// CheckFunc probes one component. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// Result is the outcome of the last run of a check.
type Result struct {
	Status      Status        `json:"status"`
	Error       string        `json:"error,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"duration_ns"`
}

type component struct {
	critical bool
	check    CheckFunc
	timeout  time.Duration
}

// Checker manages health checks.
type Checker struct {
	mu         sync.RWMutex
	components map[string]component
	results    map[string]Result
	start      time.Time
	ready      bool
}

// NewChecker creates a new Checker.
func NewChecker() *Checker {
	return &Checker{
		components: make(map[string]component),
		results:    make(map[string]Result),
		start:      time.Now(),
	}
}

// Register adds a check. Registering a name again replaces the check.
func (c *Checker) Register(name string, critical bool, timeout time.Duration, check CheckFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components[name] = component{critical: critical, check: check, timeout: timeout}
	c.results[name] = Result{Status: StatusUnknown}
}

// SetReady sets the readiness state.
func (c *Checker) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
}

// Ready returns the readiness state.
func (c *Checker) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Check runs every registered check and returns the results by name.
func (c *Checker) Check(ctx context.Context) map[string]Result {
	c.mu.RLock()
	components := make(map[string]component, len(c.components))
	for name, comp := range c.components {
		components[name] = comp
	}
	c.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]Result, len(components))
	)
	var g errgroup.Group
	for name, comp := range components {
		name, comp := name, comp
		g.Go(func() error {
			r := run(ctx, comp)
			mu.Lock()
			results[name] = r
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	c.mu.Lock()
	for name, r := range results {
		if _, ok := c.components[name]; ok {
			c.results[name] = r
		}
	}
	c.mu.Unlock()
	return results
}

func run(ctx context.Context, comp component) (r Result) {
	ctx, cancel := context.WithTimeout(ctx, comp.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r = Result{Status: StatusUnhealthy, Error: fmt.Sprintf("check panicked: %v", p)}
		}
		r.LastChecked = start
		r.Duration = time.Since(start)
	}()

	done := make(chan error, 1)
	go func() { done <- comp.check(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			return Result{Status: StatusUnhealthy, Error: err.Error()}
		}
		return Result{Status: StatusHealthy}
	case <-ctx.Done():
		return Result{Status: StatusUnhealthy, Error: ctx.Err().Error()}
	}
}

// Status aggregates the last results.
func (c *Checker) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := StatusHealthy
	for name, r := range c.results {
		critical := c.components[name].critical
		switch r.Status {
		case StatusUnhealthy:
			if critical {
				return StatusUnhealthy
			}
			status = StatusDegraded
		case StatusUnknown:
			if critical && status == StatusHealthy {
				status = StatusUnknown
			}
		}
	}
	return status
}

// Names returns the registered check names, sorted.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.components))
	for name := range c.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Response is the body served by Handler.
type Response struct {
	Status     Status            `json:"status"`
	Ready      bool              `json:"ready"`
	Uptime     string            `json:"uptime"`
	Components map[string]Result `json:"components"`
}

// Handler runs the checks on every request. It answers 503 until the
// checker is ready and whenever a critical check fails.
func (c *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results := c.Check(r.Context())
		resp := Response{
			Status:     c.Status(),
			Ready:      c.Ready(),
			Uptime:     time.Since(c.start).Round(time.Second).String(),
			Components: results,
		}

		w.Header().Set("Content-Type", "application/json")
		if !resp.Ready || resp.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	})
}
