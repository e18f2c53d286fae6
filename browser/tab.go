package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Tab wraps a Rod page with capture-specific setup: stealth, optional
// resource blocking, navigation and screenshot helpers.
type Tab struct {
	Page    *rod.Page
	manager *Manager
}

// OpenTab creates a new stealth tab and navigates to the URL.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, mgr.cfg.ResourceBlocking); err != nil {
			mgr.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	t := &Tab{Page: page, manager: mgr}
	if pageURL != "" {
		if err := t.Navigate(ctx, pageURL); err != nil {
			page.Close()
			return nil, err
		}
	}
	return t, nil
}

// Navigate loads a URL with a 30s budget and waits for the load event
// best-effort.
func (t *Tab) Navigate(ctx context.Context, pageURL string) error {
	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := t.Page.Context(navCtx).Navigate(pageURL); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := t.Page.Context(navCtx).WaitLoad(); err != nil {
		t.manager.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}
	return nil
}

// CurrentURL reports the page's resolved URL.
func (t *Tab) CurrentURL() string {
	info, err := t.Page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// WaitURLContains polls until the page URL contains the fragment or the
// budget elapses.
func (t *Tab) WaitURLContains(ctx context.Context, fragment string, budget time.Duration) error {
	deadline := time.Now().Add(budget)
	for {
		if strings.Contains(t.CurrentURL(), fragment) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("browser: url did not contain %q within %s (current %s)", fragment, budget, t.CurrentURL())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// Screenshot captures a full-page PNG to the given path, creating parent
// directories as needed.
func (t *Tab) Screenshot(path string) error {
	data, err := t.Page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("browser: screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("browser: screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("browser: write screenshot: %w", err)
	}
	return nil
}

// ElementScreenshot captures the first element matching the selector to the
// given path. The caller decides whether a miss matters.
func (t *Tab) ElementScreenshot(ctx context.Context, selector, path string) error {
	el, err := t.Page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("browser: element %q: %w", selector, err)
	}
	data, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return fmt.Errorf("browser: element screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// PressEscape sends the platform-level cancel keystroke.
func (t *Tab) PressEscape() error {
	return t.Page.Keyboard.Press(input.Escape)
}

// OuterHTML serialises the complete document as outer HTML.
func (t *Tab) OuterHTML(ctx context.Context) (string, error) {
	res, err := t.Page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: outer html: %w", err)
	}
	return res.Value.Str(), nil
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
