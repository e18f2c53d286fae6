// Package gen turns captured pages into generation prompts and writes the
// produced scaffold files. It is glue around the generation client: prompt
// assembly in, files on disk out.
package gen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/hazyhaar/mimic/capture"
	"github.com/hazyhaar/mimic/genai"
)

// Target selects which captured pages feed a generation run.
type Target string

const (
	TargetHome        Target = "home"
	TargetProjectFlow Target = "project-flow"
	TargetTasks       Target = "tasks"
	TargetAll         Target = "all"
)

var thinkRe = regexp.MustCompile(`(?s)<think>.*?</think>\s*`)

// Generator assembles prompts from a session document and writes the
// generated pages to the scaffold directory.
type Generator struct {
	client      *genai.Client
	scaffoldDir string
	conv        *converter.Converter
	logger      *slog.Logger
}

// NewGenerator creates a generator writing under scaffoldDir.
func NewGenerator(client *genai.Client, scaffoldDir string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		client:      client,
		scaffoldDir: scaffoldDir,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		logger: logger,
	}
}

// pagesFor filters the session's pages for one target.
func pagesFor(doc *capture.SessionDocument, target Target) []capture.PageCapture {
	wanted := map[string]bool{}
	switch target {
	case TargetHome:
		wanted["home"] = true
	case TargetProjectFlow:
		wanted["create-project-menu"] = true
		wanted["blank-project-form"] = true
		wanted["project-view"] = true
	case TargetTasks:
		wanted["my-tasks"] = true
	case TargetAll:
		return doc.Pages
	}

	var pages []capture.PageCapture
	for _, p := range doc.Pages {
		if wanted[p.Step] {
			pages = append(pages, p)
		}
	}
	return pages
}

// Generate produces scaffold files for every page the target selects and
// returns the written paths. A failed page aborts the run.
func (g *Generator) Generate(ctx context.Context, doc *capture.SessionDocument, target Target) ([]string, error) {
	pages := pagesFor(doc, target)
	if len(pages) == 0 {
		return nil, fmt.Errorf("gen: no captured pages match target %q", target)
	}

	var written []string
	for _, page := range pages {
		path, err := g.GenerateOne(ctx, &page)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// GenerateOne generates and writes one page's scaffold file.
func (g *Generator) GenerateOne(ctx context.Context, page *capture.PageCapture) (string, error) {
	system, user, err := g.buildPrompt(page)
	if err != nil {
		return "", err
	}

	g.logger.Info("gen: generating page", "step", page.Step, "prompt_bytes", len(user))
	text, err := g.client.Generate(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("gen: %s: %w", page.Step, err)
	}

	content := cleanOutput(text)
	if content == "" {
		return "", fmt.Errorf("gen: %s: empty generation output", page.Step)
	}

	if err := os.MkdirAll(g.scaffoldDir, 0o755); err != nil {
		return "", fmt.Errorf("gen: scaffold dir: %w", err)
	}
	path := filepath.Join(g.scaffoldDir, page.Step+".html")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("gen: write %s: %w", path, err)
	}

	g.logger.Info("gen: page written", "step", page.Step, "path", path, "bytes", len(content))
	return path, nil
}

// cleanOutput strips reasoning blocks and markdown code fences from raw
// generation output, keeping the inner document.
func cleanOutput(text string) string {
	out := strings.TrimSpace(thinkRe.ReplaceAllString(text, ""))
	if out == "" {
		out = strings.TrimSpace(text)
	}

	if strings.HasPrefix(out, "```") {
		rest := out[3:]
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[i+1:]
		}
		if j := strings.LastIndex(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		out = strings.TrimSpace(rest)
	}
	return out
}
