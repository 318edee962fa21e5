package health

import (
	"sync"
	"time"

	"github.com/andreaspandu8619/mastercreator/pkg/logger"
)

// Status is the reported condition of one component.
type Status string

const (
	// StatusUp means the component is fully functional.
	StatusUp Status = "up"
	// StatusDown means the component is unavailable.
	StatusDown Status = "down"
	// StatusDegraded means the component works with reduced guarantees,
	// such as the in-memory store fallback.
	StatusDegraded Status = "degraded"
)

// Component is the last observed state of one checked subsystem.
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Check probes one subsystem and reports its condition.
type Check func() (Status, string, error)

// Checker runs registered checks on a schedule and keeps the latest
// result per component for the health endpoint.
type Checker struct {
	checks      map[string]Check
	components  map[string]*Component
	checkPeriod time.Duration
	mutex       sync.RWMutex
	log         *logger.Logger
}

// NewChecker creates a checker that re-probes every checkPeriod once
// Start is called.
func NewChecker(log *logger.Logger, checkPeriod time.Duration) *Checker {
	return &Checker{
		checks:      make(map[string]Check),
		components:  make(map[string]*Component),
		checkPeriod: checkPeriod,
		log:         log,
	}
}

// RegisterCheck adds a named check. The component reports down until
// the first run.
func (c *Checker) RegisterCheck(name string, check Check) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.checks[name] = check
	c.components[name] = &Component{
		Name:        name,
		Status:      StatusDown,
		Description: "Not checked yet",
	}
}

// RegisterDatabaseCheck wires a connection probe as the "database"
// component, the only component treated as critical.
func (c *Checker) RegisterDatabaseCheck(checkFunc func() error) {
	c.RegisterCheck("database", func() (Status, string, error) {
		if err := checkFunc(); err != nil {
			return StatusDown, "Database connection failed", err
		}
		return StatusUp, "Database connection is established", nil
	})
}

// RunChecks executes every registered check once and records the results.
func (c *Checker) RunChecks() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for name, check := range c.checks {
		status, description, err := check()

		component := c.components[name]
		component.Status = status
		component.Description = description
		component.LastChecked = time.Now()

		if err != nil {
			component.Error = err.Error()
			c.log.Error("Health check failed",
				"component", name,
				"status", string(status),
				"error", err.Error(),
			)
		} else {
			component.Error = ""
		}
	}
}

// Start runs the checks immediately and then on every tick of the
// check period.
func (c *Checker) Start() {
	go func() {
		c.RunChecks()

		ticker := time.NewTicker(c.checkPeriod)
		defer ticker.Stop()

		for range ticker.C {
			c.RunChecks()
		}
	}()
}

// GetStatus returns a snapshot of every component's latest result.
func (c *Checker) GetStatus() map[string]*Component {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make(map[string]*Component, len(c.components))
	for k, v := range c.components {
		componentCopy := *v
		result[k] = &componentCopy
	}
	return result
}

// IsSystemHealthy reports whether every critical component is up or
// degraded. Degraded components keep the endpoint serving 200 so a
// memory-mode instance stays reachable.
func (c *Checker) IsSystemHealthy() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for _, component := range c.components {
		if component.Status == StatusDown && criticalComponents[component.Name] {
			return false
		}
	}
	return true
}

var criticalComponents = map[string]bool{
	"database": true,
}
