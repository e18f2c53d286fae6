package capture

import (
	"context"
	"errors"
	"testing"

	"github.com/hazyhaar/mimic/resolve"
)

// fakeDriver scripts per-step outcomes and records the call sequence.
type fakeDriver struct {
	loginErr    error
	failIntent  string
	failWith    error
	awaitErr    map[string]error
	activated   []string
	captured    []string
	awaited     []string
	settles     int
	dismissals  int
	captureFail string
}

func (f *fakeDriver) Login(ctx context.Context) error { return f.loginErr }

func (f *fakeDriver) Activate(ctx context.Context, tr Trigger) (*resolve.Resolution, error) {
	f.activated = append(f.activated, tr.Intent)
	if f.failIntent != "" && tr.Intent == f.failIntent {
		return nil, f.failWith
	}
	return &resolve.Resolution{Intent: tr.Intent, Strategy: "selector", Index: 0}, nil
}

func (f *fakeDriver) AwaitURL(ctx context.Context, step, fragment string) error {
	f.awaited = append(f.awaited, step)
	if f.awaitErr != nil {
		return f.awaitErr[step]
	}
	return nil
}

func (f *fakeDriver) Settle(ctx context.Context) { f.settles++ }

func (f *fakeDriver) DismissDialogs(ctx context.Context) { f.dismissals++ }

func (f *fakeDriver) Capture(ctx context.Context, stepName string, resolved *resolve.Resolution) (*PageCapture, error) {
	if f.captureFail == stepName {
		return nil, errors.New("snapshot eval failed")
	}
	f.captured = append(f.captured, stepName)
	return &PageCapture{Step: stepName, URL: "https://app.example.com/" + stepName, ResolvedBy: resolved}, nil
}

func TestRunCompletesAllSteps(t *testing.T) {
	d := &fakeDriver{}
	r := NewRunner(d, "https://app.example.com", "Blank Project", nil)

	doc, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.State() != StateDone {
		t.Errorf("state = %s, want %s", r.State(), StateDone)
	}
	if len(doc.Pages) != 5 {
		t.Fatalf("pages = %d, want 5", len(doc.Pages))
	}

	want := []string{"home", "create-project-menu", "blank-project-form", "project-view", "my-tasks"}
	for i, name := range want {
		if doc.Pages[i].Step != name {
			t.Errorf("pages[%d].Step = %q, want %q", i, doc.Pages[i].Step, name)
		}
	}

	// Steps with an arrival URL wait must not also consume a settle wait
	// through the runner.
	if len(d.awaited) != 2 {
		t.Errorf("awaited steps = %v, want project-view and my-tasks", d.awaited)
	}
	if d.dismissals != 5 {
		t.Errorf("dismissals = %d, want one per step", d.dismissals)
	}
}

func TestResolutionFailureAbortsWithPartialDocument(t *testing.T) {
	resErr := &resolve.Failure{Intent: "select blank project", Attempted: 4}
	d := &fakeDriver{failIntent: "select blank project", failWith: resErr}
	r := NewRunner(d, "https://app.example.com", "Blank Project", nil)

	doc, err := r.Run(context.Background())
	if err == nil {
		t.Fatal("Run succeeded, want failure at blank-project-form")
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error type = %T, want *StepError", err)
	}
	if stepErr.Step != "blank-project-form" {
		t.Errorf("failed step = %q, want blank-project-form", stepErr.Step)
	}
	var failure *resolve.Failure
	if !errors.As(err, &failure) {
		t.Fatal("StepError does not wrap the resolution failure")
	}

	if r.State() != StateFailed {
		t.Errorf("state = %s, want %s", r.State(), StateFailed)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("partial pages = %d, want 2 (home, create-project-menu)", len(doc.Pages))
	}
	if doc.Pages[0].Step != "home" || doc.Pages[1].Step != "create-project-menu" {
		t.Errorf("partial pages = %q, %q", doc.Pages[0].Step, doc.Pages[1].Step)
	}
	// No step after the failed one may run.
	for _, intent := range d.activated {
		if intent == "open my tasks" {
			t.Error("step after the failure was activated")
		}
	}
}

func TestLoginFailureLeavesEmptyDocument(t *testing.T) {
	d := &fakeDriver{loginErr: &CredentialFailure{URL: "https://app.example.com/login"}}
	r := NewRunner(d, "https://app.example.com", "Blank Project", nil)

	doc, err := r.Run(context.Background())
	var cred *CredentialFailure
	if !errors.As(err, &cred) {
		t.Fatalf("error = %v, want CredentialFailure", err)
	}
	if len(doc.Pages) != 0 {
		t.Errorf("pages = %d, want 0", len(doc.Pages))
	}
	if len(d.captured) != 0 {
		t.Errorf("captured = %v, want none", d.captured)
	}
}

func TestNavigationTimeoutAborts(t *testing.T) {
	d := &fakeDriver{awaitErr: map[string]error{
		"project-view": &NavigationTimeout{Step: "project-view", Fragment: "/project"},
	}}
	r := NewRunner(d, "https://app.example.com", "Blank Project", nil)

	doc, err := r.Run(context.Background())
	var nav *NavigationTimeout
	if !errors.As(err, &nav) {
		t.Fatalf("error = %v, want NavigationTimeout", err)
	}
	if len(doc.Pages) != 3 {
		t.Errorf("partial pages = %d, want 3", len(doc.Pages))
	}
}

func TestCaptureErrorIsFatal(t *testing.T) {
	d := &fakeDriver{captureFail: "create-project-menu"}
	r := NewRunner(d, "https://app.example.com", "Blank Project", nil)

	doc, err := r.Run(context.Background())
	if err == nil {
		t.Fatal("Run succeeded, want capture failure")
	}
	if len(doc.Pages) != 1 {
		t.Errorf("pages = %d, want 1", len(doc.Pages))
	}
	if r.State() != StateFailed {
		t.Errorf("state = %s, want %s", r.State(), StateFailed)
	}
}

func TestResolvedTriggerRecordedOnCapture(t *testing.T) {
	d := &fakeDriver{}
	r := NewRunner(d, "https://app.example.com", "My Project", nil)

	doc, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The login step has no trigger, the rest record their last resolution.
	if doc.Pages[0].ResolvedBy != nil {
		t.Error("login step recorded a resolution")
	}
	if got := doc.Pages[3].ResolvedBy; got == nil || got.Intent != "create project" {
		t.Errorf("project-view resolution = %+v, want create project intent", got)
	}
}
