package domsnap

import "testing"

func textPtr(s string) *string { return &s }

func rawDiv(children ...*RawNode) *RawNode {
	return &RawNode{
		Tag:            "div",
		Box:            Box{Width: 100, Height: 50},
		ChildNodeCount: len(children),
		Children:       children,
	}
}

func TestDepthBound(t *testing.T) {
	// Chain of depth 25; built tree must stop at MaxDepth.
	leaf := rawDiv()
	node := leaf
	for i := 0; i < 25; i++ {
		node = rawDiv(node)
	}

	root := Build(node)
	if root == nil {
		t.Fatal("expected non-nil root")
	}
	if d := Depth(root); d > MaxDepth {
		t.Errorf("depth %d exceeds bound %d", d, MaxDepth)
	}
	if d := Depth(root); d != MaxDepth {
		t.Errorf("expected tree cut exactly at %d, got %d", MaxDepth, d)
	}
}

func TestTextOnlyForSingleTextChild(t *testing.T) {
	single := &RawNode{
		Tag:            "span",
		Box:            Box{Width: 10, Height: 10},
		ChildNodeCount: 1,
		SingleText:     textPtr("  hello  "),
	}
	n := Build(single)
	if n.Text != "hello" {
		t.Errorf("expected trimmed text, got %q", n.Text)
	}

	// Mixed content: two child nodes, no text capture even if the serializer
	// reported a text value.
	mixed := &RawNode{
		Tag:            "div",
		Box:            Box{Width: 10, Height: 10},
		ChildNodeCount: 2,
		SingleText:     textPtr("should not appear"),
	}
	if got := Build(mixed).Text; got != "" {
		t.Errorf("expected empty text for mixed content, got %q", got)
	}

	// Single child that is not a text node.
	elem := &RawNode{
		Tag:            "div",
		Box:            Box{Width: 10, Height: 10},
		ChildNodeCount: 1,
		Children:       []*RawNode{rawDiv()},
	}
	if got := Build(elem).Text; got != "" {
		t.Errorf("expected empty text for element child, got %q", got)
	}
}

func TestZeroBoxChildrenPruned(t *testing.T) {
	hidden := &RawNode{
		Tag:            "div",
		ID:             "hidden",
		Box:            Box{Width: 0, Height: 0},
		ChildNodeCount: 1,
		Children:       []*RawNode{rawDiv()},
	}
	visible := &RawNode{Tag: "p", ID: "visible", Box: Box{Width: 10, Height: 10}}
	root := rawDiv(hidden, visible)

	n := Build(root)
	if len(n.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(n.Children))
	}
	if n.Children[0].ID != "visible" {
		t.Errorf("expected visible child kept, got %q", n.Children[0].ID)
	}

	// The hidden subtree must be gone entirely.
	var walk func(*Node) bool
	walk = func(n *Node) bool {
		if n.ID == "hidden" {
			return true
		}
		for _, c := range n.Children {
			if walk(c) {
				return true
			}
		}
		return false
	}
	if walk(n) {
		t.Error("hidden subtree leaked into snapshot")
	}
}

func TestScriptAndStyleExcluded(t *testing.T) {
	script := &RawNode{Tag: "script", Box: Box{Width: 1, Height: 1}}
	style := &RawNode{Tag: "STYLE", Box: Box{Width: 1, Height: 1}}
	p := &RawNode{Tag: "p", Box: Box{Width: 10, Height: 10}}
	root := rawDiv(script, style, p)

	n := Build(root)
	if len(n.Children) != 1 || n.Children[0].Tag != "p" {
		t.Errorf("expected only <p> kept, got %+v", n.Children)
	}
}

func TestChildOrderPreserved(t *testing.T) {
	a := &RawNode{Tag: "header", Box: Box{Width: 1, Height: 1}}
	b := &RawNode{Tag: "main", Box: Box{Width: 1, Height: 1}}
	c := &RawNode{Tag: "footer", Box: Box{Width: 1, Height: 1}}
	n := Build(rawDiv(a, b, c))

	want := []string{"header", "main", "footer"}
	if len(n.Children) != len(want) {
		t.Fatalf("expected %d children, got %d", len(want), len(n.Children))
	}
	for i, tag := range want {
		if n.Children[i].Tag != tag {
			t.Errorf("child %d: expected %s, got %s", i, tag, n.Children[i].Tag)
		}
	}
}

func TestFilterInteractives(t *testing.T) {
	in := []InteractiveElement{
		{Kind: "button", Label: "Save", Box: Box{Width: 80, Height: 30}},
		{Kind: "link", Href: "/x", Box: Box{Width: 0, Height: 0}},
		{Kind: "input", Name: "q", Box: Box{Width: 200, Height: 28}},
	}
	out := filterInteractives(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 kept, got %d", len(out))
	}
	if out[0].Kind != "button" || out[1].Kind != "input" {
		t.Errorf("unexpected order: %+v", out)
	}
}
