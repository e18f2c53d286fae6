// Package resolve locates and activates UI elements despite unstable markup.
// An ordered list of locator strategies is tried strictly in declaration
// order, from stable semantic attributes down to a whole-tree script scan;
// the first strategy that yields a visible element wins.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Action is what to do with the element once located.
type Action int

const (
	ActionNone Action = iota
	ActionClick
	ActionFill
)

// Handle is the minimal actionable surface of a located element.
type Handle interface {
	Visible() (bool, error)
	Click() error
	Input(text string) error
}

// Match is a successful location. Handle is nil when the strategy already
// performed the action inside the page's script context.
type Match struct {
	Handle    Handle
	Performed bool
}

// Strategy is one method of locating an element. TryLocate returns nil when
// the strategy found nothing; errors other than not-found are reported the
// same way, since a failing strategy must not abort the chain.
type Strategy interface {
	Name() string
	TryLocate(ctx context.Context) (*Match, error)
}

// Failure is raised when every strategy has been exhausted. Fatal to the
// current workflow step.
type Failure struct {
	Intent    string
	Attempted int
}

func (f *Failure) Error() string {
	return fmt.Sprintf("resolve: %q: no strategy matched (%d attempted)", f.Intent, f.Attempted)
}

// Request names the semantic intent and the action to perform on success.
type Request struct {
	Intent  string
	Action  Action
	Value   string        // fill value, ActionFill only
	Timeout time.Duration // budget per strategy; 0 means 3s
}

// Resolution reports which strategy matched.
type Resolution struct {
	Intent    string `json:"intent"`
	Strategy  string `json:"strategy"`
	Index     int    `json:"index"`
	Performed bool   `json:"performed"`
}

// Resolver drives the strategy chain. DebugShot, when set, captures a
// diagnostic full-page screenshot on exhaustion; its error is ignored.
type Resolver struct {
	Logger    *slog.Logger
	DebugShot func(intent string) error
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Resolve tries the strategies in order. A strategy succeeds only if it
// locates an element that reports itself visible at the moment of the check;
// invisible matches are non-matches. On success the requested action runs
// immediately, with no re-verification of its effect.
func (r *Resolver) Resolve(ctx context.Context, req Request, strategies []Strategy) (*Resolution, error) {
	log := r.logger()
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	for i, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolve: %q: %w", req.Intent, err)
		}

		tryCtx, cancel := context.WithTimeout(ctx, timeout)
		match, err := s.TryLocate(tryCtx)
		cancel()
		if err != nil {
			log.Debug("resolve: strategy errored", "intent", req.Intent, "strategy", s.Name(), "error", err)
			continue
		}
		if match == nil {
			log.Debug("resolve: strategy missed", "intent", req.Intent, "strategy", s.Name())
			continue
		}

		if match.Performed {
			log.Info("resolve: matched", "intent", req.Intent, "strategy", s.Name(), "index", i, "performed", true)
			return &Resolution{Intent: req.Intent, Strategy: s.Name(), Index: i, Performed: true}, nil
		}

		visible, err := match.Handle.Visible()
		if err != nil || !visible {
			log.Debug("resolve: match not visible", "intent", req.Intent, "strategy", s.Name())
			continue
		}

		if err := r.act(match.Handle, req); err != nil {
			return nil, fmt.Errorf("resolve: %q: %s: %w", req.Intent, s.Name(), err)
		}
		log.Info("resolve: matched", "intent", req.Intent, "strategy", s.Name(), "index", i)
		return &Resolution{Intent: req.Intent, Strategy: s.Name(), Index: i}, nil
	}

	if r.DebugShot != nil {
		if err := r.DebugShot(req.Intent); err != nil {
			log.Warn("resolve: diagnostic screenshot failed", "intent", req.Intent, "error", err)
		}
	}
	return nil, &Failure{Intent: req.Intent, Attempted: len(strategies)}
}

func (r *Resolver) act(h Handle, req Request) error {
	switch req.Action {
	case ActionClick:
		return h.Click()
	case ActionFill:
		return h.Input(req.Value)
	case ActionNone:
		return nil
	default:
		return errors.New("unknown action")
	}
}
