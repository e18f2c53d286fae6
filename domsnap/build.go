package domsnap

import "strings"

// excludedTags are never included in a snapshot, children included.
var excludedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
}

// Build converts a raw in-page serialization into the final snapshot tree,
// enforcing the structural invariants: recursion stops past MaxDepth,
// zero-box children are pruned with their entire subtrees, script/style
// elements never appear, and text is only populated for nodes whose single
// child node is a text node.
func Build(raw *RawNode) *Node {
	return build(raw, 0)
}

func build(raw *RawNode, depth int) *Node {
	if raw == nil || depth > MaxDepth {
		return nil
	}
	tag := strings.ToLower(raw.Tag)
	if excludedTags[tag] {
		return nil
	}

	n := &Node{
		Tag:     tag,
		ID:      raw.ID,
		Classes: raw.Classes,
		Attrs:   raw.Attrs,
		Style:   raw.Style,
		Box:     raw.Box,
	}

	if raw.ChildNodeCount == 1 && raw.SingleText != nil {
		n.Text = strings.TrimSpace(*raw.SingleText)
	}

	for _, child := range raw.Children {
		if child == nil || !child.Box.Positive() {
			continue
		}
		if built := build(child, depth+1); built != nil {
			n.Children = append(n.Children, built)
		}
	}
	return n
}

// Depth returns the maximum depth of the tree, with the root at 0.
func Depth(n *Node) int {
	if n == nil {
		return -1
	}
	max := 0
	for _, c := range n.Children {
		if d := Depth(c) + 1; d > max {
			max = d
		}
	}
	return max
}

// filterInteractives drops inventory entries whose rendered box is not
// strictly positive, preserving order.
func filterInteractives(in []InteractiveElement) []InteractiveElement {
	out := in[:0]
	for _, el := range in {
		if el.Box.Positive() {
			out = append(out, el)
		}
	}
	return out
}
