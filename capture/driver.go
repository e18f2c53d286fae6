package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/mimic/browser"
	"github.com/hazyhaar/mimic/domsnap"
	"github.com/hazyhaar/mimic/kit"
	"github.com/hazyhaar/mimic/netlog"
	"github.com/hazyhaar/mimic/resolve"
	"github.com/hazyhaar/mimic/store"
)

// tabDriver executes workflow steps against a live browser tab.
type tabDriver struct {
	cfg        *Config
	tab        *browser.Tab
	resolver   *resolve.Resolver
	correlator *netlog.Correlator
	archive    *store.Store
	sessionTS  string
}

// NewDriver wires the production step driver. archive may be nil.
func NewDriver(cfg *Config, tab *browser.Tab, correlator *netlog.Correlator, archive *store.Store, sessionTS string) Driver {
	d := &tabDriver{
		cfg:        cfg,
		tab:        tab,
		correlator: correlator,
		archive:    archive,
		sessionTS:  sessionTS,
	}
	d.resolver = &resolve.Resolver{
		Logger: cfg.Logger,
		DebugShot: func(intent string) error {
			return tab.Screenshot(filepath.Join(cfg.OutputDir, "debug",
				"resolution-failure-"+slug(intent)+".png"))
		},
	}
	return d
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

// Login performs the two-stage credential submission: the identifier is
// submitted and acknowledged before the secret is typed, then the driver
// waits for an authenticated URL and clears any welcome dialogs.
func (d *tabDriver) Login(ctx context.Context) error {
	if err := d.tab.Navigate(ctx, d.cfg.TargetRoot); err != nil {
		return err
	}

	if err := d.fill(ctx, "login identifier field", []string{
		`input[type="email"]`,
		`input[name="email"]`,
		`input[name="username"]`,
		`input[autocomplete="username"]`,
	}, d.cfg.Identifier); err != nil {
		return err
	}
	if err := d.click(ctx, "submit identifier", []string{
		`button[type="submit"]`,
		`[data-testid="login-continue"]`,
	}, "Continue"); err != nil {
		return err
	}
	d.Settle(ctx)

	if err := d.fill(ctx, "login secret field", []string{
		`input[type="password"]`,
		`input[name="password"]`,
		`input[autocomplete="current-password"]`,
	}, d.cfg.Secret); err != nil {
		return err
	}
	if err := d.click(ctx, "submit secret", []string{
		`button[type="submit"]`,
		`[data-testid="login-submit"]`,
	}, "Log in"); err != nil {
		return err
	}

	if err := d.tab.WaitURLContains(ctx, d.cfg.AuthPath, d.cfg.LoginTimeout); err != nil {
		shot := filepath.Join(d.cfg.OutputDir, "debug", "login-failure.png")
		if shotErr := d.tab.Screenshot(shot); shotErr != nil {
			d.cfg.Logger.Warn("capture: login diagnostic screenshot failed", "error", shotErr)
		}
		return &CredentialFailure{URL: d.tab.CurrentURL(), Budget: d.cfg.LoginTimeout}
	}

	d.Settle(ctx)
	return nil
}

func (d *tabDriver) fill(ctx context.Context, intent string, selectors []string, value string) error {
	var strategies []resolve.Strategy
	for _, sel := range selectors {
		strategies = append(strategies, resolve.SelectorStrategy{Page: d.tab.Page, Selector: sel})
	}
	_, err := d.resolver.Resolve(ctx, resolve.Request{
		Intent:  intent,
		Action:  resolve.ActionFill,
		Value:   value,
		Timeout: d.cfg.StrategyTimeout,
	}, strategies)
	return err
}

func (d *tabDriver) click(ctx context.Context, intent string, selectors []string, text string) error {
	strategies := resolve.ClickChain(d.tab.Page, selectors, text, "button")
	_, err := d.resolver.Resolve(ctx, resolve.Request{
		Intent:  intent,
		Action:  resolve.ActionClick,
		Timeout: d.cfg.StrategyTimeout,
	}, strategies)
	return err
}

// Activate resolves and activates one trigger through the strategy chain.
func (d *tabDriver) Activate(ctx context.Context, tr Trigger) (*resolve.Resolution, error) {
	var strategies []resolve.Strategy
	if tr.Action == resolve.ActionFill {
		for _, sel := range tr.Selectors {
			strategies = append(strategies, resolve.SelectorStrategy{Page: d.tab.Page, Selector: sel})
		}
	} else {
		strategies = resolve.ClickChain(d.tab.Page, tr.Selectors, tr.Text, tr.Role)
	}

	return d.resolver.Resolve(ctx, resolve.Request{
		Intent:  tr.Intent,
		Action:  tr.Action,
		Value:   tr.Value,
		Timeout: d.cfg.StrategyTimeout,
	}, strategies)
}

// AwaitURL waits for the arrival URL, then settles.
func (d *tabDriver) AwaitURL(ctx context.Context, step, fragment string) error {
	if err := d.tab.WaitURLContains(ctx, fragment, d.cfg.NavTimeout); err != nil {
		shot := filepath.Join(d.cfg.OutputDir, "debug", slug(step)+"-navigation-timeout.png")
		if shotErr := d.tab.Screenshot(shot); shotErr != nil {
			d.cfg.Logger.Warn("capture: navigation diagnostic screenshot failed", "error", shotErr)
		}
		return &NavigationTimeout{Step: step, Fragment: fragment, Budget: d.cfg.NavTimeout}
	}
	d.Settle(ctx)
	return nil
}

// Settle applies the fixed post-navigation delay.
func (d *tabDriver) Settle(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(d.cfg.SettleDelay):
	}
}

// Capture assembles the arrival state's PageCapture: DOM snapshot,
// interactive inventory, API call flush and screenshots.
func (d *tabDriver) Capture(ctx context.Context, stepName string, resolved *resolve.Resolution) (*PageCapture, error) {
	log := d.cfg.Logger
	url := d.tab.CurrentURL()

	dom, err := domsnap.Extract(ctx, d.tab.Page)
	if err != nil {
		return nil, fmt.Errorf("capture: %s: %w", stepName, err)
	}

	interactives, err := domsnap.Interactives(ctx, d.tab.Page)
	if err != nil {
		log.Warn("capture: interactive inventory failed", "step", stepName, "error", err)
	}

	if err := d.correlator.Flush(d.cfg.OutputDir, stepName); err != nil {
		log.Warn("capture: api call flush failed", "step", stepName, "error", err)
	}
	calls := d.correlator.Calls()

	shots := ScreenshotSet{Main: filepath.Join(d.cfg.OutputDir, stepName+".png")}
	if err := d.tab.Screenshot(shots.Main); err != nil {
		log.Warn("capture: main screenshot failed", "step", stepName, "error", err)
		shots.Main = ""
	}
	for _, es := range d.cfg.ElementShots {
		path := filepath.Join(d.cfg.OutputDir, "screenshots",
			fmt.Sprintf("%s-%s.png", stepName, es.Name))
		shotCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := d.tab.ElementScreenshot(shotCtx, es.Selector, path)
		cancel()
		if err != nil {
			// Best-effort: a missing element is not an error.
			log.Debug("capture: element screenshot skipped",
				"step", stepName, "element", es.Name, "error", err)
			continue
		}
		shots.Elements = append(shots.Elements, ElementShot{
			Name: es.Name, Selector: es.Selector, Path: path,
		})
	}

	htmlPath := ""
	if html, err := d.tab.OuterHTML(ctx); err == nil {
		htmlPath = filepath.Join(d.cfg.OutputDir, "html", stepName+".html")
		if err := os.MkdirAll(filepath.Dir(htmlPath), 0o755); err == nil {
			if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
				log.Warn("capture: write html failed", "step", stepName, "error", err)
				htmlPath = ""
			}
		}
	}

	page := &PageCapture{
		Step:         stepName,
		URL:          url,
		Dom:          dom,
		Interactives: interactives,
		ApiCallCount: len(calls),
		Screenshots:  shots,
		HTMLPath:     htmlPath,
		ResolvedBy:   resolved,
	}

	log.Info("capture: page assembled",
		"run", kit.GetRunID(ctx), "step", stepName,
		"api_calls", len(calls), "interactives", len(interactives))

	if d.archive != nil {
		for _, call := range calls {
			d.archive.RecordAsync(&store.Entry{
				SessionTS: d.sessionTS, Step: stepName,
				Method: call.Method, URL: call.URL,
				Status: call.Response.Status, ContentType: call.Response.ContentType,
			})
		}
		d.archive.RecordAsync(&store.Entry{
			SessionTS: d.sessionTS, Step: stepName, URL: url,
			ElementCount: len(interactives), ApiCallCount: len(calls),
			IsPage: true,
		})
	}

	return page, nil
}
