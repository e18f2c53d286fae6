package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/mimic/kit"
	"github.com/hazyhaar/mimic/resolve"
)

// State is one position in the fixed workflow.
type State string

const (
	StateLoggedOut         State = "logged_out"
	StateHome              State = "home"
	StateCreateProjectMenu State = "create_project_menu"
	StateBlankProjectForm  State = "blank_project_form"
	StateProjectView       State = "project_view"
	StateMyTasks           State = "my_tasks"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// Trigger names a semantic intent and how to locate and activate it.
type Trigger struct {
	Intent    string
	Selectors []string
	Text      string
	Role      string
	Action    resolve.Action
	Value     string
}

// Step is one transition of the workflow. Name labels the arrival state's
// capture unit. Login steps run the credential sequence instead of Actions.
type Step struct {
	From        State
	To          State
	Name        string
	Login       bool
	Actions     []Trigger
	URLFragment string // arrival wait; empty means fixed settle delay only
}

// Transitions is the fixed, linear transition table. Step ordering is not
// configurable and a failed step aborts the run.
func Transitions(projectName string) []Step {
	return []Step{
		{
			From: StateLoggedOut, To: StateHome, Name: "home",
			Login: true,
		},
		{
			From: StateHome, To: StateCreateProjectMenu, Name: "create-project-menu",
			Actions: []Trigger{{
				Intent: "open create-project menu",
				Selectors: []string{
					`[data-testid="create-button"]`,
					`[aria-label="Create"]`,
					`button.create-button`,
				},
				Text:   "Create",
				Role:   "button",
				Action: resolve.ActionClick,
			}},
		},
		{
			From: StateCreateProjectMenu, To: StateBlankProjectForm, Name: "blank-project-form",
			Actions: []Trigger{{
				Intent: "select blank project",
				Selectors: []string{
					`[data-testid="blank-project"]`,
					`[aria-label="Blank project"]`,
				},
				Text:   "Blank project",
				Role:   "menuitem",
				Action: resolve.ActionClick,
			}},
		},
		{
			From: StateBlankProjectForm, To: StateProjectView, Name: "project-view",
			Actions: []Trigger{
				{
					Intent: "project name field",
					Selectors: []string{
						`[data-testid="project-name-input"]`,
						`input[name="name"]`,
						`input[placeholder*="name" i]`,
					},
					Action: resolve.ActionFill,
					Value:  projectName,
				},
				{
					Intent: "create project",
					Selectors: []string{
						`[data-testid="create-project-submit"]`,
						`button[type="submit"]`,
					},
					Text:   "Create project",
					Role:   "button",
					Action: resolve.ActionClick,
				},
			},
			URLFragment: "/project",
		},
		{
			From: StateProjectView, To: StateMyTasks, Name: "my-tasks",
			Actions: []Trigger{{
				Intent: "open my tasks",
				Selectors: []string{
					`[data-testid="my-tasks-link"]`,
					`a[href*="tasks"]`,
				},
				Text:   "My tasks",
				Role:   "link",
				Action: resolve.ActionClick,
			}},
			URLFragment: "tasks",
		},
	}
}

// Driver is the per-step execution surface the state machine drives. The
// production driver wires it to a live browser tab; tests substitute fakes.
type Driver interface {
	// Login performs the two-stage credential submission and the
	// authenticated-URL wait.
	Login(ctx context.Context) error
	// Activate resolves and activates one trigger.
	Activate(ctx context.Context, tr Trigger) (*resolve.Resolution, error)
	// AwaitURL waits until the page URL contains the fragment.
	AwaitURL(ctx context.Context, step, fragment string) error
	// Settle applies the fixed post-navigation delay.
	Settle(ctx context.Context)
	// DismissDialogs is idempotent and must swallow all failures.
	DismissDialogs(ctx context.Context)
	// Capture assembles the arrival state's PageCapture.
	Capture(ctx context.Context, stepName string, resolved *resolve.Resolution) (*PageCapture, error)
}

// Runner executes the workflow transition table against a Driver.
type Runner struct {
	driver Driver
	steps  []Step
	state  State
	doc    *SessionDocument
	logger *slog.Logger
}

// NewRunner creates a workflow runner for one session.
func NewRunner(driver Driver, targetRoot, projectName string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		driver: driver,
		steps:  Transitions(projectName),
		state:  StateLoggedOut,
		doc: &SessionDocument{
			Timestamp:  sessionTimestamp(),
			TargetRoot: targetRoot,
		},
		logger: logger,
	}
}

// sessionTimestamp is filename-safe so it can label artifact directories.
func sessionTimestamp() string {
	return time.Now().UTC().Format("2006-01-02T15-04-05")
}

// State reports the machine's current state.
func (r *Runner) State() State { return r.state }

// Document returns the session document, complete or partial.
func (r *Runner) Document() *SessionDocument { return r.doc }

// Run executes every step in order. Any step failure moves the machine to
// StateFailed and aborts the run; the document keeps the captures of the
// steps that completed.
func (r *Runner) Run(ctx context.Context) (*SessionDocument, error) {
	for _, step := range r.steps {
		if r.state != step.From {
			cause := fmt.Errorf("capture: machine in %s, step expects %s", r.state, step.From)
			r.state = StateFailed
			return r.doc, &StepError{Step: step.Name, Cause: cause}
		}

		r.logger.Info("capture: step starting", "step", step.Name, "from", step.From, "to", step.To)
		if err := r.runStep(ctx, step); err != nil {
			r.state = StateFailed
			r.logger.Error("capture: step failed", "step", step.Name, "error", err)
			return r.doc, &StepError{Step: step.Name, Cause: err}
		}
		r.state = step.To
		r.logger.Info("capture: step captured", "step", step.Name, "pages", len(r.doc.Pages))
	}

	r.state = StateDone
	return r.doc, nil
}

func (r *Runner) runStep(ctx context.Context, step Step) error {
	ctx = kit.WithStep(ctx, step.Name)
	var resolved *resolve.Resolution

	if step.Login {
		if err := r.driver.Login(ctx); err != nil {
			return err
		}
	} else {
		for _, tr := range step.Actions {
			res, err := r.driver.Activate(ctx, tr)
			if err != nil {
				return err
			}
			resolved = res
		}
	}

	if step.URLFragment != "" {
		if err := r.driver.AwaitURL(ctx, step.Name, step.URLFragment); err != nil {
			return err
		}
	} else {
		r.driver.Settle(ctx)
	}

	r.driver.DismissDialogs(ctx)

	page, err := r.driver.Capture(ctx, step.Name, resolved)
	if err != nil {
		return err
	}
	r.doc.Pages = append(r.doc.Pages, *page)
	return nil
}
