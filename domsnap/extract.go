package domsnap

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
)

// serializeJS walks the rendered tree inside the page's own script context.
// It detects the application root, captures the fixed computed-style record
// per element and stops at the given depth. Pruning decisions are repeated
// on the Go side; the script only reports what the browser rendered.
const serializeJS = `(maxDepth) => {
	const roots = [
		['[role=main]', document.querySelector('[role=main]')],
		['#root', document.getElementById('root')],
		['#app', document.getElementById('app')],
		['#main', document.getElementById('main')],
		['.application', document.querySelector('.application')],
		['body', document.body],
	];
	const [rootSelector, root] = roots.find(([, el]) => el);

	const styleOf = (el) => {
		const s = window.getComputedStyle(el);
		return {
			display: s.display,
			position: s.position,
			width: s.width,
			height: s.height,
			margin: s.margin,
			padding: s.padding,
			color: s.color,
			backgroundColor: s.backgroundColor,
			fontSize: s.fontSize,
			fontWeight: s.fontWeight,
			fontFamily: s.fontFamily,
			textAlign: s.textAlign,
			border: s.border,
			borderRadius: s.borderRadius,
			boxShadow: s.boxShadow,
			flexDirection: s.flexDirection,
			justifyContent: s.justifyContent,
			alignItems: s.alignItems,
			gap: s.gap,
			gridTemplateColumns: s.gridTemplateColumns,
			zIndex: s.zIndex,
			overflow: s.overflow,
			opacity: s.opacity,
		};
	};

	const serialize = (el, depth) => {
		if (!el || depth > maxDepth) return null;
		const rect = el.getBoundingClientRect();
		const attrs = {};
		for (const a of el.attributes) attrs[a.name] = a.value;

		const single = el.childNodes.length === 1 && el.childNodes[0].nodeType === Node.TEXT_NODE
			? el.childNodes[0].textContent
			: null;

		const children = [];
		for (const child of el.children) {
			const box = child.getBoundingClientRect();
			if (box.width <= 0 || box.height <= 0) continue;
			const c = serialize(child, depth + 1);
			if (c) children.push(c);
		}

		return {
			tag: el.tagName.toLowerCase(),
			id: el.id || '',
			classes: Array.from(el.classList),
			attrs,
			style: styleOf(el),
			box: { x: rect.x, y: rect.y, width: rect.width, height: rect.height },
			childNodeCount: el.childNodes.length,
			singleText: single,
			children,
		};
	};

	return { rootSelector, root: serialize(root, 0) };
}`

// interactivesJS inventories buttons, inputs and links in DOM order.
const interactivesJS = `() => {
	const out = [];
	const boxOf = (el) => {
		const r = el.getBoundingClientRect();
		return { x: r.x, y: r.y, width: r.width, height: r.height };
	};
	for (const el of document.querySelectorAll('button, [role=button], input, textarea, select, a')) {
		const tag = el.tagName.toLowerCase();
		const classes = Array.from(el.classList);
		if (tag === 'a') {
			out.push({ kind: 'link', href: el.href || '', label: (el.textContent || '').trim().slice(0, 120), classes, box: boxOf(el) });
		} else if (tag === 'input' || tag === 'textarea' || tag === 'select') {
			out.push({ kind: 'input', inputType: el.type || tag, placeholder: el.placeholder || '', name: el.name || '', classes, box: boxOf(el) });
		} else {
			out.push({ kind: 'button', label: (el.textContent || '').trim().slice(0, 120), ariaLabel: el.getAttribute('aria-label') || '', classes, box: boxOf(el) });
		}
	}
	return out;
}`

// Extract serializes the rendered tree rooted at the detected application
// container into a depth-bounded snapshot.
func Extract(ctx context.Context, page *rod.Page) (*Snapshot, error) {
	res, err := page.Context(ctx).Eval(serializeJS, MaxDepth)
	if err != nil {
		return nil, fmt.Errorf("domsnap: serialize: %w", err)
	}

	var payload struct {
		RootSelector string   `json:"rootSelector"`
		Root         *RawNode `json:"root"`
	}
	data, err := json.Marshal(res.Value.Val())
	if err != nil {
		return nil, fmt.Errorf("domsnap: remarshal: %w", err)
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("domsnap: decode: %w", err)
	}
	if payload.Root == nil {
		return nil, fmt.Errorf("domsnap: no root element detected")
	}

	return &Snapshot{
		RootSelector: payload.RootSelector,
		Root:         Build(payload.Root),
	}, nil
}

// Interactives inventories the page's interactive elements. Entries whose
// rendered box is not strictly positive are excluded.
func Interactives(ctx context.Context, page *rod.Page) ([]InteractiveElement, error) {
	res, err := page.Context(ctx).Eval(interactivesJS)
	if err != nil {
		return nil, fmt.Errorf("domsnap: interactives: %w", err)
	}

	var els []InteractiveElement
	data, err := json.Marshal(res.Value.Val())
	if err != nil {
		return nil, fmt.Errorf("domsnap: remarshal: %w", err)
	}
	if err := json.Unmarshal(data, &els); err != nil {
		return nil, fmt.Errorf("domsnap: decode: %w", err)
	}
	return filterInteractives(els), nil
}
