package gen

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/mimic/capture"
	"github.com/hazyhaar/mimic/domsnap"
)

const (
	systemPrompt = `You are a front-end engineer reproducing a captured web application page.
Produce one complete, self-contained HTML document (inline CSS, no external
assets) that reproduces the captured page's layout, structure and visible
styling as closely as possible. Reply with the HTML document only.`

	// Prompt budget caps. Oversized context degrades generation quality
	// more than truncation does.
	maxMarkdownBytes = 12000
	maxDOMDepth      = 6
)

// buildPrompt assembles the system and user prompts for one captured page.
func (g *Generator) buildPrompt(page *capture.PageCapture) (string, string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Page: %s\nURL: %s\n", page.Step, page.URL)

	if page.HTMLPath != "" {
		if raw, err := os.ReadFile(page.HTMLPath); err == nil {
			src := string(raw)
			if title := Title(src); title != "" {
				fmt.Fprintf(&b, "Title: %s\n", title)
			}
			if md := g.markdownContext(src); md != "" {
				b.WriteString("\n## Visible content (markdown)\n")
				b.WriteString(md)
				b.WriteString("\n")
			}
		} else {
			g.logger.Warn("gen: captured html unreadable", "step", page.Step, "error", err)
		}
	}

	if page.Dom != nil {
		dom, err := json.Marshal(pruneNode(page.Dom.Root, 0))
		if err != nil {
			return "", "", fmt.Errorf("gen: marshal dom: %w", err)
		}
		b.WriteString("\n## Structural snapshot (JSON, depth-limited)\n")
		b.Write(dom)
		b.WriteString("\n")
	}

	if len(page.Interactives) > 0 {
		inv, err := json.Marshal(page.Interactives)
		if err != nil {
			return "", "", fmt.Errorf("gen: marshal interactives: %w", err)
		}
		b.WriteString("\n## Interactive elements (JSON)\n")
		b.Write(inv)
		b.WriteString("\n")
	}

	return systemPrompt, b.String(), nil
}

// markdownContext converts captured HTML to markdown, truncated to the
// prompt budget.
func (g *Generator) markdownContext(src string) string {
	md, err := g.conv.ConvertString(src)
	if err != nil {
		g.logger.Debug("gen: markdown conversion failed", "error", err)
		return ""
	}
	md = strings.TrimSpace(md)
	if len(md) > maxMarkdownBytes {
		md = md[:maxMarkdownBytes] + "\n... (truncated)"
	}
	return md
}

// pruneNode returns a copy of the snapshot tree cut to the prompt depth.
func pruneNode(n *domsnap.Node, depth int) *domsnap.Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Children = nil
	if depth >= maxDOMDepth {
		return &out
	}
	for _, c := range n.Children {
		if pruned := pruneNode(c, depth+1); pruned != nil {
			out.Children = append(out.Children, pruned)
		}
	}
	return &out
}

// Title extracts the document title from raw HTML. Empty when absent or
// unparseable.
func Title(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return ""
	}
	return findTitle(doc)
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
