package resolve

import (
	"context"
	"errors"
	"testing"
)

type fakeHandle struct {
	visible bool
	clicked bool
	typed   string
}

func (h *fakeHandle) Visible() (bool, error) { return h.visible, nil }
func (h *fakeHandle) Click() error           { h.clicked = true; return nil }
func (h *fakeHandle) Input(s string) error   { h.typed = s; return nil }

type fakeStrategy struct {
	name  string
	match *Match
	err   error
	tried bool
}

func (s *fakeStrategy) Name() string { return s.name }
func (s *fakeStrategy) TryLocate(ctx context.Context) (*Match, error) {
	s.tried = true
	return s.match, s.err
}

func TestFirstVisibleMatchWins(t *testing.T) {
	h := &fakeHandle{visible: true}
	first := &fakeStrategy{name: "attr", match: &Match{Handle: h}}
	second := &fakeStrategy{name: "text"}

	r := &Resolver{}
	res, err := r.Resolve(context.Background(), Request{Intent: "create project", Action: ActionClick}, []Strategy{first, second})
	if err != nil {
		t.Fatal(err)
	}
	if res.Strategy != "attr" || res.Index != 0 {
		t.Errorf("unexpected resolution: %+v", res)
	}
	if !h.clicked {
		t.Error("expected click performed on success")
	}
	if second.tried {
		t.Error("later strategies must not run after a match")
	}
}

func TestInvisibleMatchIsNonMatch(t *testing.T) {
	hidden := &fakeHandle{visible: false}
	shown := &fakeHandle{visible: true}
	strategies := []Strategy{
		&fakeStrategy{name: "attr", match: &Match{Handle: hidden}},
		&fakeStrategy{name: "text", match: &Match{Handle: shown}},
	}

	r := &Resolver{}
	res, err := r.Resolve(context.Background(), Request{Intent: "x", Action: ActionClick}, strategies)
	if err != nil {
		t.Fatal(err)
	}
	if res.Strategy != "text" || res.Index != 1 {
		t.Errorf("expected fallback past invisible match, got %+v", res)
	}
	if hidden.clicked {
		t.Error("invisible element must not be acted on")
	}
}

func TestStrategyErrorDoesNotAbortChain(t *testing.T) {
	h := &fakeHandle{visible: true}
	strategies := []Strategy{
		&fakeStrategy{name: "attr", err: errors.New("boom")},
		&fakeStrategy{name: "text", match: &Match{Handle: h}},
	}

	r := &Resolver{}
	res, err := r.Resolve(context.Background(), Request{Intent: "x", Action: ActionClick}, strategies)
	if err != nil {
		t.Fatal(err)
	}
	if res.Strategy != "text" {
		t.Errorf("expected chain to continue past error, got %+v", res)
	}
}

func TestScanFallbackRecordsPerformed(t *testing.T) {
	// A button matched only by the script-context scan: all prior strategies
	// miss, the scan reports it already clicked.
	strategies := []Strategy{
		&fakeStrategy{name: "selector:[data-testid=new-project]"},
		&fakeStrategy{name: "text:New project"},
		&fakeStrategy{name: "role:button"},
		&fakeStrategy{name: "scan:New project", match: &Match{Performed: true}},
	}

	r := &Resolver{}
	res, err := r.Resolve(context.Background(), Request{Intent: "new project", Action: ActionClick}, strategies)
	if err != nil {
		t.Fatal(err)
	}
	if res.Strategy != "scan:New project" || res.Index != 3 {
		t.Errorf("expected scan strategy recorded, got %+v", res)
	}
	if !res.Performed {
		t.Error("expected Performed flag set")
	}
}

func TestExhaustionRaisesFailureWithDiagnostic(t *testing.T) {
	strategies := []Strategy{
		&fakeStrategy{name: "a"},
		&fakeStrategy{name: "b"},
		&fakeStrategy{name: "c"},
	}

	shots := 0
	r := &Resolver{DebugShot: func(intent string) error {
		shots++
		if intent != "missing thing" {
			t.Errorf("unexpected intent in diagnostic: %q", intent)
		}
		return nil
	}}

	_, err := r.Resolve(context.Background(), Request{Intent: "missing thing", Action: ActionClick}, strategies)
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *Failure, got %v", err)
	}
	if failure.Attempted != 3 {
		t.Errorf("expected 3 attempted, got %d", failure.Attempted)
	}
	if shots != 1 {
		t.Errorf("expected exactly one diagnostic screenshot, got %d", shots)
	}
}

func TestFillAction(t *testing.T) {
	h := &fakeHandle{visible: true}
	r := &Resolver{}
	_, err := r.Resolve(context.Background(),
		Request{Intent: "project name", Action: ActionFill, Value: "Blank Project"},
		[]Strategy{&fakeStrategy{name: "attr", match: &Match{Handle: h}}})
	if err != nil {
		t.Fatal(err)
	}
	if h.typed != "Blank Project" {
		t.Errorf("expected fill value typed, got %q", h.typed)
	}
}
