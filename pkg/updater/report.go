package updater

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Step names one fault-isolated part of a cycle
type Step string

const (
	StepCommit     Step = "commit"
	StepPull       Step = "pull"
	StepStylesheet Step = "stylesheet"
	StepSidebar    Step = "sidebar"
)

// StepFault records the error a step ended with
type StepFault struct {
	Step Step
	Err  error
}

// Report describes one CheckAndSync pass
type Report struct {
	ID       string
	Started  time.Time
	Finished time.Time
	// Newest is the commit GitHub reported, empty when the query failed
	Newest           string
	Pulled           bool
	StylesheetPushed bool
	SidebarPushed    bool
	Faults           []StepFault
}

// Err combines every step fault, or returns nil for a clean cycle
func (r Report) Err() error {
	var err error
	for _, f := range r.Faults {
		err = multierr.Append(err, fmt.Errorf("%s: %w", f.Step, f.Err))
	}
	return err
}

// Failed reports whether step ended with a fault
func (r Report) Failed(step Step) bool {
	for _, f := range r.Faults {
		if f.Step == step {
			return true
		}
	}
	return false
}

// Duration is how long the cycle took
func (r Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

func (r *Report) addFault(step Step, err error) {
	r.Faults = append(r.Faults, StepFault{Step: step, Err: err})
}

func (r *Report) markPushed(step Step) {
	switch step {
	case StepStylesheet:
		r.StylesheetPushed = true
	case StepSidebar:
		r.SidebarPushed = true
	}
}
