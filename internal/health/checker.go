// Package health provides automated health checks with auto-recovery.
// Architecture Part XVI: 3 checks run every 60 seconds.
package health

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/loopstate/core/internal/infra/sqlite"
)

// Check defines a single health check with optional recovery action.
type Check struct {
	Name    string
	CheckFn func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks with auto-recovery.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
}

// NewChecker creates a health checker with the standard checks: sqlite
// connectivity, a data directory check named disk_space (free space is not
// measured), and store integrity.
func NewChecker(db *sqlite.DB, dataDir string) *Checker {
	return &Checker{
		interval: 60 * time.Second,
		checks: []Check{
			{
				Name: "sqlite",
				CheckFn: func(ctx context.Context) error {
					return db.Ping()
				},
				RecoverFn: func(ctx context.Context) error {
					return nil // SQLite auto-recovers via WAL
				},
			},
			{
				Name: "disk_space",
				CheckFn: func(ctx context.Context) error {
					return checkDiskSpace(dataDir, 500*1024*1024) // minBytes is not enforced, see checkDiskSpace
				},
				RecoverFn: func(ctx context.Context) error {
					return nil // Phase 1: manual cleanup for now
				},
			},
			{
				Name: "store_integrity",
				CheckFn: func(ctx context.Context) error {
					return checkStoreDir(dataDir)
				},
				RecoverFn: func(ctx context.Context) error {
					return nil // Phase 1: log warning only
				},
			},
		},
	}
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	// Run immediately on start
	c.runAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runAll(ctx)
		}
	}
}

func (c *Checker) runAll(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now(),
		}
		if err := check.CheckFn(ctx); err != nil {
			s.Healthy = false
			s.Error = err.Error()
			// Attempt recovery
			if check.RecoverFn != nil {
				_ = check.RecoverFn(ctx)
			}
		} else {
			s.Healthy = true
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Implementations ──────────────────────────────────────────────────

func checkDiskSpace(dir string, minBytes int64) error {
	// Only checks via os.Stat that dir, if it exists, is a directory.
	// Free space is not measured and minBytes is not used.
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Dir doesn't exist yet, that's fine
		}
		return fmt.Errorf("check disk: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func checkStoreDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Store not yet initialized
		}
		return fmt.Errorf("check store dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store path %s is not a directory", dir)
	}
	state := dir + "/state.db"
	if _, err := os.Stat(state); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("check state.db: %w", err)
	}
	return nil
}
