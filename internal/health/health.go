// Package health runs named component checks for the selftest endpoint.
package health

import (
	"context"
	"time"
)

// Check probes one component.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// Result is the outcome of one check, with timing and error detail.
type Result struct {
	Name       string `json:"name"`
	Healthy    bool   `json:"healthy"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// RunAll executes every check sequentially and reports each outcome.
func RunAll(ctx context.Context, checks []Check) []Result {
	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		start := time.Now()
		err := c.Run(ctx)
		r := Result{
			Name:       c.Name,
			Healthy:    err == nil,
			DurationMS: time.Since(start).Milliseconds(),
		}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results
}

// Healthy reports whether every result passed.
func Healthy(results []Result) bool {
	for _, r := range results {
		if !r.Healthy {
			return false
		}
	}
	return true
}
