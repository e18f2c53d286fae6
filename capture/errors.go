package capture

import (
	"fmt"
	"time"
)

// StepError wraps any unrecovered failure inside one workflow step. It is
// fatal to the whole run: there is no step-level retry or resume.
type StepError struct {
	Step  string
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("capture: step %q: %v", e.Step, e.Cause)
}

func (e *StepError) Unwrap() error { return e.Cause }

// CredentialFailure means the login sequence did not reach an authenticated
// URL within budget.
type CredentialFailure struct {
	URL    string
	Budget time.Duration
}

func (e *CredentialFailure) Error() string {
	return fmt.Sprintf("capture: login did not reach authenticated url within %s (at %s)", e.Budget, e.URL)
}

// NavigationTimeout means a URL-pattern or load-state wait exceeded budget.
// Treated identically to a resolution failure by the state machine.
type NavigationTimeout struct {
	Step     string
	Fragment string
	Budget   time.Duration
}

func (e *NavigationTimeout) Error() string {
	return fmt.Sprintf("capture: step %q: url wait for %q exceeded %s", e.Step, e.Fragment, e.Budget)
}
