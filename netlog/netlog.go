// Package netlog observes a page's request/response event stream, matches
// outgoing requests to their responses by request identity, classifies them
// as in-scope API traffic or noise, and accumulates the matched pairs.
//
// The correlator is the one genuinely concurrent piece of the capture
// pipeline: browser events arrive on the event loop independently of the
// foreground workflow sequence, so the pending map is mutex-guarded. One
// correlator serves exactly one page for that page's full lifetime.
package netlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ApiCall is one finalized request/response pair.
type ApiCall struct {
	ID             string            `json:"id"`
	URL            string            `json:"url"`
	Method         string            `json:"method"`
	RequestHeaders map[string]string `json:"requestHeaders,omitempty"`
	RequestBody    string            `json:"requestBody,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
	Response       ApiResponse       `json:"response"`
}

// ApiResponse carries the matched response. Body is the parsed JSON value
// when the content type declares JSON, the raw text otherwise, and nil when
// the body read failed.
type ApiResponse struct {
	Status      int               `json:"status"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        any               `json:"body"`
	ContentType string            `json:"contentType"`
}

// RequestEvent is the transport-neutral shape of a request observation.
type RequestEvent struct {
	ID      string
	URL     string
	Method  string
	Headers map[string]string
	Body    string
	At      time.Time
}

// ResponseEvent is the transport-neutral shape of a response observation.
type ResponseEvent struct {
	ID       string
	Status   int
	Headers  map[string]string
	MimeType string
}

// BodyFetcher retrieves a response body by request identity. It is called
// once per finalized call, after the browser reports the load finished.
type BodyFetcher func(id string) (string, error)

// Correlator pairs requests with responses for a single page.
type Correlator struct {
	mu        sync.Mutex
	pending   map[string]*ApiCall
	finalized []ApiCall
	fetchBody BodyFetcher
	logger    *slog.Logger
	detach    func()
}

// NewCorrelator creates an unattached correlator. Call Attach to wire it to
// a page, or feed HandleRequest/HandleResponse/HandleFinished directly.
func NewCorrelator(logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{
		pending: make(map[string]*ApiCall),
		logger:  logger,
	}
}

// SetBodyFetcher installs the response-body reader.
func (c *Correlator) SetBodyFetcher(f BodyFetcher) {
	c.mu.Lock()
	c.fetchBody = f
	c.mu.Unlock()
}

// HandleRequest records an in-scope request in the pending map. Out-of-scope
// traffic never enters the map.
func (c *Correlator) HandleRequest(ev RequestEvent) {
	if !InScope(ev.URL) {
		return
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	c.mu.Lock()
	c.pending[ev.ID] = &ApiCall{
		ID:             ev.ID,
		URL:            ev.URL,
		Method:         ev.Method,
		RequestHeaders: ev.Headers,
		RequestBody:    ev.Body,
		Timestamp:      at,
	}
	c.mu.Unlock()
}

// HandleResponse attaches response metadata to the pending entry. The call
// is finalized later, on HandleFinished, once the body is readable.
func (c *Correlator) HandleResponse(ev ResponseEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call, ok := c.pending[ev.ID]
	if !ok {
		return
	}
	call.Response = ApiResponse{
		Status:      ev.Status,
		Headers:     ev.Headers,
		ContentType: ev.MimeType,
	}
}

// HandleFinished promotes a pending entry to the finalized list and evicts
// it. A failed body read still finalizes the call, with a nil body.
func (c *Correlator) HandleFinished(id string) {
	c.mu.Lock()
	call, ok := c.pending[id]
	if !ok || call.Response.Status == 0 {
		c.mu.Unlock()
		return
	}
	delete(c.pending, id)
	fetch := c.fetchBody
	c.mu.Unlock()

	if fetch != nil {
		raw, err := fetch(id)
		if err != nil {
			c.logger.Debug("netlog: response body read failed", "id", id, "url", call.URL, "error", err)
			call.Response.Body = nil
		} else {
			call.Response.Body = parseBody(raw, call.Response.ContentType)
		}
	}

	c.mu.Lock()
	c.finalized = append(c.finalized, *call)
	c.mu.Unlock()
}

// Calls returns a copy of the finalized list so far, in completion order.
func (c *Correlator) Calls() []ApiCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ApiCall, len(c.finalized))
	copy(out, c.finalized)
	return out
}

// PendingCount reports in-flight requests that have not been finalized.
func (c *Correlator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Flush serializes the finalized calls so far to <dir>/<label>-api-calls.json.
// It does not detach the listener or reset any state.
func (c *Correlator) Flush(dir, label string) error {
	calls := c.Calls()
	data, err := json.MarshalIndent(calls, "", "  ")
	if err != nil {
		return fmt.Errorf("netlog: marshal %s: %w", label, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("netlog: out dir: %w", err)
	}
	path := filepath.Join(dir, label+"-api-calls.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("netlog: write %s: %w", path, err)
	}
	c.logger.Info("netlog: flushed api calls", "step", label, "count", len(calls))
	return nil
}

// Detach stops the event subscription, if one was started by Attach.
func (c *Correlator) Detach() {
	c.mu.Lock()
	detach := c.detach
	c.detach = nil
	c.mu.Unlock()
	if detach != nil {
		detach()
	}
}

// parseBody decodes the body as JSON when the content type declares a
// structured format, and returns the raw text otherwise. Malformed JSON
// under a JSON content type falls back to the raw text.
func parseBody(raw, contentType string) any {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "json") {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v
		}
	}
	return raw
}
