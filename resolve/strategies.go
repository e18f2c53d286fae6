package resolve

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// elementHandle adapts a rod element to the Handle surface.
type elementHandle struct {
	el *rod.Element
}

func (h elementHandle) Visible() (bool, error) {
	return h.el.Visible()
}

func (h elementHandle) Click() error {
	return h.el.Click(proto.InputMouseButtonLeft, 1)
}

func (h elementHandle) Input(text string) error {
	// Clear existing content before typing.
	if err := h.el.SelectAllText(); err == nil {
		_ = h.el.Input("")
	}
	return h.el.Input(text)
}

// SelectorStrategy locates by CSS/attribute selector.
type SelectorStrategy struct {
	Page     *rod.Page
	Selector string
}

func (s SelectorStrategy) Name() string { return "selector:" + s.Selector }

func (s SelectorStrategy) TryLocate(ctx context.Context) (*Match, error) {
	el, err := s.Page.Context(ctx).Element(s.Selector)
	if err != nil {
		return nil, nil // not found within budget
	}
	return &Match{Handle: elementHandle{el}}, nil
}

// TextStrategy locates an element of the given tags containing the text.
type TextStrategy struct {
	Page *rod.Page
	Tags string // selector scope, e.g. "button, a, [role=button]"
	Text string
}

func (s TextStrategy) Name() string { return "text:" + s.Text }

func (s TextStrategy) TryLocate(ctx context.Context) (*Match, error) {
	tags := s.Tags
	if tags == "" {
		tags = "button, a, [role=button], [role=menuitem]"
	}
	el, err := s.Page.Context(ctx).ElementR(tags, "/"+regexp.QuoteMeta(s.Text)+"/i")
	if err != nil {
		return nil, nil
	}
	return &Match{Handle: elementHandle{el}}, nil
}

// RoleStrategy locates by ARIA role, optionally narrowed by accessible name.
type RoleStrategy struct {
	Page  *rod.Page
	Role  string
	Label string
}

func (s RoleStrategy) Name() string { return "role:" + s.Role }

func (s RoleStrategy) TryLocate(ctx context.Context) (*Match, error) {
	sel := fmt.Sprintf("[role=%s]", s.Role)
	var el *rod.Element
	var err error
	if s.Label != "" {
		el, err = s.Page.Context(ctx).ElementR(sel, "/"+regexp.QuoteMeta(s.Label)+"/i")
	} else {
		el, err = s.Page.Context(ctx).Element(sel)
	}
	if err != nil {
		return nil, nil
	}
	return &Match{Handle: elementHandle{el}}, nil
}

// scanJS clicks the first visible element whose text contains the needle,
// entirely inside the page context, and reports whether it did.
const scanJS = `(needle) => {
	const lower = needle.toLowerCase();
	const all = document.querySelectorAll('button, a, [role=button], [role=menuitem], div, span');
	for (const el of all) {
		const text = (el.textContent || '').trim().toLowerCase();
		if (!text || !text.includes(lower)) continue;
		const box = el.getBoundingClientRect();
		if (box.width <= 0 || box.height <= 0) continue;
		el.click();
		return true;
	}
	return false;
}`

// ScanStrategy is the last resort: a whole-tree scan executed inside the
// page's own script context that performs the click itself and returns a
// boolean instead of a handle.
type ScanStrategy struct {
	Page *rod.Page
	Text string
}

func (s ScanStrategy) Name() string { return "scan:" + s.Text }

func (s ScanStrategy) TryLocate(ctx context.Context) (*Match, error) {
	res, err := s.Page.Context(ctx).Eval(scanJS, s.Text)
	if err != nil {
		return nil, fmt.Errorf("scan eval: %w", err)
	}
	if !res.Value.Bool() {
		return nil, nil
	}
	return &Match{Performed: true}, nil
}

// ClickChain is the conventional strategy ladder for a clickable intent:
// explicit selectors first, then text, then role, then the script scan.
func ClickChain(page *rod.Page, selectors []string, text, role string) []Strategy {
	var chain []Strategy
	for _, sel := range selectors {
		chain = append(chain, SelectorStrategy{Page: page, Selector: sel})
	}
	if text != "" {
		chain = append(chain, TextStrategy{Page: page, Text: text})
	}
	if role != "" {
		chain = append(chain, RoleStrategy{Page: page, Role: role, Label: text})
	}
	if text != "" {
		chain = append(chain, ScanStrategy{Page: page, Text: text})
	}
	return chain
}
