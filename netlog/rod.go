package netlog

import (
	"context"
	"encoding/base64"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Attach subscribes the correlator to a page's network event stream. The
// subscription lives until ctx is cancelled or Detach is called; Flush never
// detaches.
func (c *Correlator) Attach(ctx context.Context, page *rod.Page) {
	evCtx, cancel := context.WithCancel(ctx)
	p := page.Context(evCtx)

	c.mu.Lock()
	c.detach = cancel
	c.mu.Unlock()

	c.SetBodyFetcher(func(id string) (string, error) {
		res, err := proto.NetworkGetResponseBody{RequestID: proto.NetworkRequestID(id)}.Call(page)
		if err != nil {
			return "", err
		}
		if res.Base64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(res.Body)
			if err != nil {
				return "", err
			}
			return string(decoded), nil
		}
		return res.Body, nil
	})

	go p.EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			ev := RequestEvent{
				ID:      string(e.RequestID),
				URL:     e.Request.URL,
				Method:  e.Request.Method,
				Headers: flattenHeaders(e.Request.Headers),
			}
			if e.Request.HasPostData {
				if res, err := (proto.NetworkGetRequestPostData{RequestID: e.RequestID}).Call(page); err == nil {
					ev.Body = res.PostData
				}
			}
			c.HandleRequest(ev)
		},
		func(e *proto.NetworkResponseReceived) {
			c.HandleResponse(ResponseEvent{
				ID:       string(e.RequestID),
				Status:   e.Response.Status,
				Headers:  flattenHeaders(e.Response.Headers),
				MimeType: e.Response.MIMEType,
			})
		},
		func(e *proto.NetworkLoadingFinished) {
			c.HandleFinished(string(e.RequestID))
		},
	)()
}

func flattenHeaders(h proto.NetworkHeaders) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v.Str()
	}
	return out
}
