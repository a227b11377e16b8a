/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interfaces.go
Description: Core types for the exploration engine. Defines the exploration request,
engine configuration, and the TargetPolicy seam that decides which candidate element
to interact with next. Policies are injectable so deterministic strategies can be
substituted in tests without touching the step loop.
*/

package explorer

import (
	"fmt"
	"time"

	"github.com/kleascm/appmapper/pkg/behavior"
)

// TargetPolicy chooses the next interaction target given the clickable
// candidates of the current screen and the actions performed so far.
// Returning nil means "nothing worth tapping", which routes the step into the
// fallback scroll branch.
type TargetPolicy interface {
	Choose(candidates []*behavior.UIElement, history []behavior.UserAction) *behavior.UIElement
	Name() string
}

// Request describes one exploration run
type Request struct {
	Package   string
	APKPath   string // optional: installed before launch when set
	Component string // optional: explicit activity to launch

	// Activities is the statically known entry-point list. Its length is the
	// upper bound for the coverage estimate and the degraded fallback builds
	// one screen per entry.
	Activities []string
}

// Config holds engine tuning. MaxSteps wins over TimeBudget when both are
// set; otherwise MaxSteps is derived as TimeBudget / StepEstimate.
type Config struct {
	MaxSteps     int           `json:"max_steps"`
	TimeBudget   time.Duration `json:"time_budget"`
	StepEstimate time.Duration `json:"step_estimate"`
	SettleDelay  time.Duration `json:"settle_delay"`

	// CaptureScreenshots persists one screenshot per newly discovered screen
	// through the artifact store. Collaborator data, not used by the loop.
	CaptureScreenshots bool `json:"capture_screenshots"`
}

// DefaultConfig returns the engine defaults
func DefaultConfig() *Config {
	return &Config{
		TimeBudget:   5 * time.Minute,
		StepEstimate: 5 * time.Second,
		SettleDelay:  time.Second,
	}
}

// Validate checks the engine config for invalid values
func (c *Config) Validate() error {
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative")
	}
	if c.MaxSteps == 0 && c.TimeBudget <= 0 {
		return fmt.Errorf("either max_steps or time_budget must be set")
	}
	if c.StepEstimate <= 0 {
		return fmt.Errorf("step_estimate must be positive")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle_delay must not be negative")
	}
	return nil
}

// StepBudget resolves the effective maximum step count
func (c *Config) StepBudget() int {
	if c.MaxSteps > 0 {
		return c.MaxSteps
	}
	steps := int(c.TimeBudget / c.StepEstimate)
	if steps < 1 {
		steps = 1
	}
	return steps
}
