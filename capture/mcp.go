package capture

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/mimic/kit"
)

// RegisterMCP registers the capture tools on an MCP server. The config acts
// as the template for a run; tool arguments override its target fields.
func RegisterMCP(srv *mcp.Server, cfg *Config) {
	registerSessionTool(srv, cfg)
	registerLoadTool(srv, cfg)
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

type sessionReq struct {
	TargetRoot  string `json:"target_root,omitempty"`
	ProjectName string `json:"project_name,omitempty"`
	OutputDir   string `json:"output_dir,omitempty"`
}

func registerSessionTool(srv *mcp.Server, cfg *Config) {
	tool := &mcp.Tool{
		Name:        "mimic_session",
		Description: "Run the full capture workflow against the target application and persist the session document.",
		InputSchema: inputSchema(map[string]any{
			"target_root":  map[string]any{"type": "string", "description": "Application origin; defaults to the configured target"},
			"project_name": map[string]any{"type": "string", "description": "Name typed into the blank-project form"},
			"output_dir":   map[string]any{"type": "string", "description": "Artifact directory; defaults to the configured one"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*sessionReq)
		run := *cfg
		if r.TargetRoot != "" {
			run.TargetRoot = r.TargetRoot
		}
		if r.ProjectName != "" {
			run.ProjectName = r.ProjectName
		}
		if r.OutputDir != "" {
			run.OutputDir = r.OutputDir
		}

		doc, err := RunSession(ctx, &run)
		if err != nil {
			// A partial document is still useful to the caller.
			if doc != nil && len(doc.Pages) > 0 {
				return map[string]any{
					"status": "failed",
					"error":  err.Error(),
					"pages":  len(doc.Pages),
					"path":   filepath.Join(run.OutputDir, "session.json"),
				}, nil
			}
			return nil, err
		}
		return map[string]any{
			"status": "ok",
			"pages":  len(doc.Pages),
			"path":   filepath.Join(run.OutputDir, "session.json"),
		}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r sessionReq
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

type loadReq struct {
	Path string `json:"path,omitempty"`
}

func registerLoadTool(srv *mcp.Server, cfg *Config) {
	tool := &mcp.Tool{
		Name:        "mimic_load_session",
		Description: "Load a persisted session document and summarize its pages.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "Session file; defaults to <output_dir>/session.json"},
		}, nil),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*loadReq)
		path := r.Path
		if path == "" {
			path = filepath.Join(cfg.OutputDir, "session.json")
		}
		doc, err := LoadSession(path)
		if err != nil {
			return nil, err
		}

		pages := make([]map[string]any, 0, len(doc.Pages))
		for _, p := range doc.Pages {
			pages = append(pages, map[string]any{
				"step":     p.Step,
				"url":      p.URL,
				"apiCalls": p.ApiCallCount,
				"elements": len(p.Interactives),
				"mainShot": p.Screenshots.Main,
				"htmlPath": p.HTMLPath,
			})
		}
		return map[string]any{
			"timestamp":  doc.Timestamp,
			"targetRoot": doc.TargetRoot,
			"pages":      pages,
		}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r loadReq
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
