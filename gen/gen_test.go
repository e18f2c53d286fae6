package gen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/mimic/capture"
	"github.com/hazyhaar/mimic/domsnap"
)

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	return NewGenerator(nil, t.TempDir(), nil)
}

func TestTitle(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"simple", `<html><head><title>Dashboard</title></head><body></body></html>`, "Dashboard"},
		{"whitespace", `<title>  My Tasks  </title>`, "My Tasks"},
		{"absent", `<html><body><h1>No title</h1></body></html>`, ""},
		{"unparseable fallback", ``, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Title(tc.src); got != tc.want {
				t.Errorf("Title = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCleanOutputStripsThinkBlocks(t *testing.T) {
	in := "<think>plan the layout first</think>\n<!DOCTYPE html><html></html>"
	if got := cleanOutput(in); got != "<!DOCTYPE html><html></html>" {
		t.Errorf("cleanOutput = %q", got)
	}
}

func TestCleanOutputStripsFences(t *testing.T) {
	in := "```html\n<!DOCTYPE html><html></html>\n```"
	if got := cleanOutput(in); got != "<!DOCTYPE html><html></html>" {
		t.Errorf("cleanOutput = %q", got)
	}
}

func TestCleanOutputKeepsPlainText(t *testing.T) {
	in := "<!DOCTYPE html><html></html>"
	if got := cleanOutput(in); got != in {
		t.Errorf("cleanOutput = %q", got)
	}
}

func TestPagesForTargets(t *testing.T) {
	doc := &capture.SessionDocument{Pages: []capture.PageCapture{
		{Step: "home"},
		{Step: "create-project-menu"},
		{Step: "blank-project-form"},
		{Step: "project-view"},
		{Step: "my-tasks"},
	}}

	cases := []struct {
		target Target
		want   []string
	}{
		{TargetHome, []string{"home"}},
		{TargetProjectFlow, []string{"create-project-menu", "blank-project-form", "project-view"}},
		{TargetTasks, []string{"my-tasks"}},
		{TargetAll, []string{"home", "create-project-menu", "blank-project-form", "project-view", "my-tasks"}},
	}
	for _, tc := range cases {
		got := pagesFor(doc, tc.target)
		if len(got) != len(tc.want) {
			t.Errorf("%s: %d pages, want %d", tc.target, len(got), len(tc.want))
			continue
		}
		for i, p := range got {
			if p.Step != tc.want[i] {
				t.Errorf("%s[%d] = %q, want %q", tc.target, i, p.Step, tc.want[i])
			}
		}
	}
}

func TestBuildPromptIncludesCapturedContext(t *testing.T) {
	g := testGenerator(t)

	htmlPath := filepath.Join(t.TempDir(), "home.html")
	src := `<html><head><title>Acme Home</title></head><body><main><h1>Projects</h1><p>Welcome back.</p></main></body></html>`
	if err := os.WriteFile(htmlPath, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	page := &capture.PageCapture{
		Step:     "home",
		URL:      "https://app.example.com/app/home",
		HTMLPath: htmlPath,
		Dom: &domsnap.Snapshot{
			RootSelector: "body",
			Root: &domsnap.Node{Tag: "main", Children: []*domsnap.Node{
				{Tag: "h1", Text: "Projects"},
			}},
		},
		Interactives: []domsnap.InteractiveElement{
			{Kind: "button", Label: "Create"},
		},
	}

	system, user, err := g.buildPrompt(page)
	if err != nil {
		t.Fatalf("buildPrompt: %v", err)
	}
	if !strings.Contains(system, "self-contained HTML") {
		t.Error("system prompt missing output contract")
	}
	for _, want := range []string{"Title: Acme Home", "Projects", "Welcome back", `"tag":"main"`, `"label":"Create"`} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
}

func TestPruneNodeDepthBound(t *testing.T) {
	// Chain deeper than the prompt budget.
	root := &domsnap.Node{Tag: "div"}
	cur := root
	for i := 0; i < 10; i++ {
		child := &domsnap.Node{Tag: "div"}
		cur.Children = []*domsnap.Node{child}
		cur = child
	}

	pruned := pruneNode(root, 0)
	depth := 0
	for n := pruned; len(n.Children) > 0; n = n.Children[0] {
		depth++
	}
	if depth != maxDOMDepth {
		t.Errorf("pruned depth = %d, want %d", depth, maxDOMDepth)
	}
}
