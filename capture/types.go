// Package capture sequences the fixed multi-step workflow on the target
// application and assembles one PageCapture per step: DOM snapshot,
// interactive inventory, correlated API traffic and screenshots. The
// session document is persisted once, at run end.
package capture

import (
	"github.com/hazyhaar/mimic/domsnap"
	"github.com/hazyhaar/mimic/resolve"
)

// ElementShot is one best-effort element screenshot.
type ElementShot struct {
	Name     string `json:"name"`
	Selector string `json:"selector"`
	Path     string `json:"path"`
}

// ScreenshotSet groups a step's screenshots. Element captures are
// best-effort: a missing element is not an error.
type ScreenshotSet struct {
	Main     string        `json:"main"`
	Elements []ElementShot `json:"elements,omitempty"`
}

// PageCapture is the persisted record of one workflow step. Immutable once
// appended to the session document.
type PageCapture struct {
	Step         string                       `json:"step"`
	URL          string                       `json:"url"`
	Dom          *domsnap.Snapshot            `json:"dom"`
	Interactives []domsnap.InteractiveElement `json:"interactiveElements"`
	ApiCallCount int                          `json:"apiCallCount"`
	Screenshots  ScreenshotSet                `json:"screenshots"`
	HTMLPath     string                       `json:"htmlPath,omitempty"`
	ResolvedBy   *resolve.Resolution          `json:"resolvedBy,omitempty"`
}

// SessionDocument is the session-level capture document. Pages are appended
// in step execution order and never reordered.
type SessionDocument struct {
	Timestamp  string        `json:"timestamp"`
	TargetRoot string        `json:"targetRoot"`
	Pages      []PageCapture `json:"pages"`
}
