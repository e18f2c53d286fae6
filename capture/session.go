package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hazyhaar/mimic/browser"
	"github.com/hazyhaar/mimic/kit"
	"github.com/hazyhaar/mimic/netlog"
	"github.com/hazyhaar/mimic/store"
)

// Persist writes the session document to <dir>/session.json. It is written
// exactly once per run, complete or partial.
func (d *SessionDocument) Persist(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("capture: output dir: %w", err)
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("capture: marshal session: %w", err)
	}
	path := filepath.Join(dir, "session.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("capture: write session: %w", err)
	}
	return path, nil
}

// LoadSession reads a previously persisted session document.
func LoadSession(path string) (*SessionDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("capture: read session: %w", err)
	}
	var doc SessionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("capture: parse session: %w", err)
	}
	return &doc, nil
}

// RunSession performs one full capture run: browser launch, login, the fixed
// workflow, and session persistence. The document is persisted even when a
// step fails, holding the pages captured before the failure.
func RunSession(ctx context.Context, cfg *Config) (*SessionDocument, error) {
	cfg.applyDefaults()
	log := cfg.Logger

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		Headful:          cfg.Browser.Headful,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Logger:           log,
	})
	if _, err := mgr.Start(); err != nil {
		return nil, err
	}
	defer mgr.Close()

	tab, err := browser.OpenTab(ctx, mgr, "")
	if err != nil {
		return nil, err
	}
	defer tab.Close()

	correlator := netlog.NewCorrelator(log)
	correlator.Attach(ctx, tab.Page)
	defer correlator.Detach()

	var archive *store.Store
	if cfg.ArchiveDB != "" {
		archive, err = store.Open(cfg.ArchiveDB)
		if err != nil {
			log.Warn("capture: archive unavailable, continuing without", "error", err)
			archive = nil
		} else {
			defer archive.Close()
		}
	}

	ts := sessionTimestamp()
	ctx = kit.WithRunID(ctx, ts)
	runner := NewRunner(
		NewDriver(cfg, tab, correlator, archive, ts),
		cfg.TargetRoot, cfg.ProjectName, log,
	)
	runner.doc.Timestamp = ts

	doc, runErr := runner.Run(ctx)

	path, persistErr := doc.Persist(cfg.OutputDir)
	if persistErr != nil {
		log.Error("capture: session persist failed", "error", persistErr)
	} else {
		log.Info("capture: session persisted", "path", path, "pages", len(doc.Pages))
	}

	if runErr != nil {
		return doc, runErr
	}
	if persistErr != nil {
		return doc, persistErr
	}
	return doc, nil
}
