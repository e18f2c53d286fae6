package visdiff

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/mimic/kit"
)

// RegisterMCP registers the comparison tools on an MCP server.
func (e *Engine) RegisterMCP(srv *mcp.Server) {
	e.registerCompareTool(srv)
	e.registerBatchTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

type compareReq struct {
	ID       string `json:"id"`
	Original string `json:"original"`
	Clone    string `json:"clone"`
}

func (e *Engine) registerCompareTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "mimic_compare",
		Description: "Compare the CSS property vectors of an original page and its reproduction, scored against the pass threshold.",
		InputSchema: inputSchema(map[string]any{
			"id":       map[string]any{"type": "string", "description": "Page identifier for artifacts"},
			"original": map[string]any{"type": "string", "description": "Original page URL"},
			"clone":    map[string]any{"type": "string", "description": "Reproduction page URL"},
		}, []string{"id", "original", "clone"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*compareReq)
		return e.Compare(ctx, PagePair{ID: r.ID, OriginalURL: r.Original, CloneURL: r.Clone}), nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r compareReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

type batchReq struct {
	Pairs []PagePair `json:"pairs"`
}

func (e *Engine) registerBatchTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "mimic_compare_batch",
		Description: "Compare a batch of page pairs sequentially and persist the summary.",
		InputSchema: inputSchema(map[string]any{
			"pairs": map[string]any{
				"type":        "array",
				"description": "Page pairs to compare",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":       map[string]any{"type": "string"},
						"original": map[string]any{"type": "string"},
						"clone":    map[string]any{"type": "string"},
					},
					"required": []string{"id", "original", "clone"},
				},
			},
		}, []string{"pairs"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*batchReq)
		return e.RunBatch(ctx, r.Pairs)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r batchReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
