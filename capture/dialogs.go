package capture

import (
	"context"
	"time"
)

// dismissJS clicks every visible close control of modal or popover overlays.
// Returns the number of controls clicked so the caller can log it.
const dismissJS = `() => {
	const selectors = [
		'[aria-label="Close"]',
		'[aria-label="close"]',
		'[data-testid="close-button"]',
		'.modal-close',
		'[role="dialog"] button[aria-label]',
	];
	let clicked = 0;
	for (const sel of selectors) {
		for (const el of document.querySelectorAll(sel)) {
			const r = el.getBoundingClientRect();
			if (r.width > 0 && r.height > 0) {
				el.click();
				clicked++;
			}
		}
	}
	return clicked;
}`

// DismissDialogs clears onboarding and welcome overlays. It is idempotent
// and swallows every failure: on a page with nothing to dismiss it is a
// no-op.
func (d *tabDriver) DismissDialogs(ctx context.Context) {
	evalCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := d.tab.Page.Context(evalCtx).Eval(dismissJS)
	if err != nil {
		d.cfg.Logger.Debug("capture: dialog scan failed", "error", err)
	} else if n := res.Value.Int(); n > 0 {
		d.cfg.Logger.Info("capture: dismissed dialogs", "count", n)
	}

	if err := d.tab.PressEscape(); err != nil {
		d.cfg.Logger.Debug("capture: escape press failed", "error", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(300 * time.Millisecond):
	}
}
