package visdiff

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hazyhaar/mimic/browser"
)

// vectorJS extracts the fixed property vector for the first element matching
// each selector class, from live computed style.
const vectorJS = `(selectors, props) => {
	const out = {};
	for (const sel of selectors) {
		const el = document.querySelector(sel);
		if (!el) continue;
		const s = window.getComputedStyle(el);
		const vec = {};
		for (const p of props) vec[p] = s[p] || '';
		out[sel] = vec;
	}
	return out;
}`

// PagePair names one scored page identifier and its two URLs.
type PagePair struct {
	ID          string `yaml:"id" json:"id"`
	OriginalURL string `yaml:"original" json:"original"`
	CloneURL    string `yaml:"clone" json:"clone"`
}

// Engine drives visual comparisons through a shared browser session. Each
// comparison opens two independent fresh pages; batches run sequentially.
type Engine struct {
	mgr    *browser.Manager
	outDir string
	logger *slog.Logger
}

// NewEngine creates a comparison engine writing artifacts under outDir.
func NewEngine(mgr *browser.Manager, outDir string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{mgr: mgr, outDir: outDir, logger: logger}
}

// Compare loads the original and the reproduction, screenshots both, and
// scores the computed-style vectors. A load failure on either side aborts
// only this page's comparison, recorded in the Error field.
func (e *Engine) Compare(ctx context.Context, pair PagePair) *Result {
	orig, err := e.loadVector(ctx, pair.OriginalURL, pair.ID+"-original")
	if err != nil {
		e.logger.Warn("visdiff: original load failed", "page", pair.ID, "error", err)
		return &Result{Page: pair.ID, Error: fmt.Sprintf("original: %v", err)}
	}
	clone, err := e.loadVector(ctx, pair.CloneURL, pair.ID+"-clone")
	if err != nil {
		e.logger.Warn("visdiff: clone load failed", "page", pair.ID, "error", err)
		return &Result{Page: pair.ID, Error: fmt.Sprintf("clone: %v", err)}
	}

	res := CompareVectors(pair.ID, orig, clone)
	e.logger.Info("visdiff: compared", "page", pair.ID,
		"match", res.MatchPercentage, "passed", res.Passed,
		"mismatches", len(res.Mismatches))
	return res
}

func (e *Engine) loadVector(ctx context.Context, url, shotName string) (PropertyVector, error) {
	tab, err := browser.OpenTab(ctx, e.mgr, url)
	if err != nil {
		return nil, err
	}
	defer tab.Close()

	if e.outDir != "" {
		shot := filepath.Join(e.outDir, "screenshots", shotName+".png")
		if err := tab.Screenshot(shot); err != nil {
			e.logger.Warn("visdiff: screenshot failed", "url", url, "error", err)
		}
	}

	res, err := tab.Page.Context(ctx).Eval(vectorJS, selectorClasses, comparedProps)
	if err != nil {
		return nil, fmt.Errorf("visdiff: extract vector: %w", err)
	}

	var vec PropertyVector
	data, err := json.Marshal(res.Value.Val())
	if err != nil {
		return nil, fmt.Errorf("visdiff: remarshal: %w", err)
	}
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, fmt.Errorf("visdiff: decode vector: %w", err)
	}
	return vec, nil
}

// RunBatch compares the pairs one at a time and persists the summary once
// at batch end to <outDir>/comparison-results.json.
func (e *Engine) RunBatch(ctx context.Context, pairs []PagePair) (*Summary, error) {
	results := make([]Result, 0, len(pairs))
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, *e.Compare(ctx, pair))
	}

	summary := Summarize(results)
	if e.outDir != "" {
		if err := writeSummary(e.outDir, summary); err != nil {
			return summary, err
		}
	}
	e.logger.Info("visdiff: batch complete",
		"passed", summary.Passed, "failed", summary.Failed, "accuracy", summary.Accuracy)
	return summary, nil
}

func writeSummary(dir string, s *Summary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("visdiff: out dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("visdiff: marshal summary: %w", err)
	}
	path := filepath.Join(dir, "comparison-results.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("visdiff: write summary: %w", err)
	}
	return nil
}
