package quality

import (
	"fmt"
	"sync"

	"github.com/lunaria-health/innerweather/internal/monitoring"
)

// Warning is a non-fatal data-quality finding. The run continues; warnings
// feed the run report and the downstream confidence computation.
type Warning struct {
	Stage   string `json:"stage"`
	Column  string `json:"column,omitempty"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	s := fmt.Sprintf("[%s]", w.Stage)
	if w.Column != "" {
		s += " column " + w.Column
	}
	if w.Key != "" {
		s += " row " + w.Key
	}
	return s + ": " + w.Message
}

// Collector accumulates warnings across pipeline stages.
type Collector struct {
	mu       sync.Mutex
	warnings []Warning
}

// NewCollector returns an empty warning collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records a warning and logs it.
func (c *Collector) Add(w Warning) {
	c.mu.Lock()
	c.warnings = append(c.warnings, w)
	c.mu.Unlock()
	monitoring.Logf("data-quality warning %s", w)
}

// Warnings returns the warnings collected so far, in arrival order.
func (c *Collector) Warnings() []Warning {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Warning(nil), c.warnings...)
}

// Len returns the number of collected warnings.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.warnings)
}
