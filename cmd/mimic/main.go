// Command mimic captures a target web application through its fixed
// workflow, generates reproduction pages from the captures, and scores the
// reproductions against the originals.
//
// Usage:
//
//	mimic -mode capture -config mimic.yaml
//	mimic -mode generate -config mimic.yaml -target all
//	mimic -mode generate-one -config mimic.yaml -page home
//	mimic -mode compare -config mimic.yaml
//	mimic -mode pipeline -config mimic.yaml
//	mimic -mode serve -config mimic.yaml
//	mimic -mode mcp -config mimic.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/mimic/browser"
	"github.com/hazyhaar/mimic/capture"
	"github.com/hazyhaar/mimic/gen"
	"github.com/hazyhaar/mimic/genai"
	"github.com/hazyhaar/mimic/report"
	"github.com/hazyhaar/mimic/visdiff"
)

// fileConfig is the top-level YAML configuration.
type fileConfig struct {
	Capture     capture.Config `yaml:"capture"`
	Genai       genai.Config   `yaml:"genai"`
	ScaffoldDir string         `yaml:"scaffold_dir"`
	ServeAddr   string         `yaml:"serve_addr"`
	Compare     struct {
		Pairs []visdiff.PagePair `yaml:"pairs"`
	} `yaml:"compare"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ScaffoldDir == "" {
		cfg.ScaffoldDir = "scaffold"
	}
	if cfg.ServeAddr == "" {
		cfg.ServeAddr = ":8787"
	}
	return &cfg, nil
}

func main() {
	mode := flag.String("mode", "", "capture | generate | generate-one | compare | pipeline | serve | mcp")
	configPath := flag.String("config", "mimic.yaml", "path to mimic.yaml config file")
	page := flag.String("page", "", "step name for generate-one")
	target := flag.String("target", "all", "generation target: home, project-flow, tasks, all")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *mode, *configPath, *page, gen.Target(*target)); err != nil {
		logger.Error("mimic: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, mode, configPath, page string, target gen.Target) error {
	cfg, err := loadFileConfig(configPath)
	if err != nil {
		return err
	}
	cfg.Capture.Logger = logger
	cfg.Genai.Logger = logger

	switch mode {
	case "capture":
		return runCapture(ctx, cfg)
	case "generate":
		return runGenerate(ctx, logger, cfg, target, "")
	case "generate-one":
		if page == "" {
			return fmt.Errorf("generate-one requires -page")
		}
		return runGenerate(ctx, logger, cfg, "", page)
	case "compare":
		return runCompare(ctx, logger, cfg)
	case "pipeline":
		return runPipeline(ctx, logger, cfg, target)
	case "serve":
		return report.NewServer(cfg.Capture.OutputDir, logger).ListenAndServe(ctx, cfg.ServeAddr)
	case "mcp":
		return runMCP(ctx, logger, cfg)
	}

	fmt.Fprintln(os.Stderr, "usage: mimic -mode capture|generate|generate-one|compare|pipeline|serve|mcp -config <file>")
	os.Exit(1)
	return nil
}

func runCapture(ctx context.Context, cfg *fileConfig) error {
	doc, err := capture.RunSession(ctx, &cfg.Capture)
	if err != nil {
		// The partial document has already been persisted.
		return fmt.Errorf("capture: %d pages before failure: %w", len(doc.Pages), err)
	}
	return nil
}

func runGenerate(ctx context.Context, logger *slog.Logger, cfg *fileConfig, target gen.Target, page string) error {
	doc, err := capture.LoadSession(filepath.Join(cfg.Capture.OutputDir, "session.json"))
	if err != nil {
		return err
	}

	g := gen.NewGenerator(genai.NewClient(cfg.Genai), cfg.ScaffoldDir, logger)

	if page != "" {
		for i := range doc.Pages {
			if doc.Pages[i].Step == page {
				path, err := g.GenerateOne(ctx, &doc.Pages[i])
				if err != nil {
					return err
				}
				logger.Info("mimic: generated", "path", path)
				return nil
			}
		}
		return fmt.Errorf("no captured page named %q", page)
	}

	paths, err := g.Generate(ctx, doc, target)
	if err != nil {
		return err
	}
	logger.Info("mimic: generation complete", "files", len(paths))
	return nil
}

func runCompare(ctx context.Context, logger *slog.Logger, cfg *fileConfig) error {
	if len(cfg.Compare.Pairs) == 0 {
		return fmt.Errorf("no comparison pairs configured")
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL: cfg.Capture.Browser.Remote,
		Headful:   cfg.Capture.Browser.Headful,
		Logger:    logger,
	})
	if _, err := mgr.Start(); err != nil {
		return err
	}
	defer mgr.Close()

	engine := visdiff.NewEngine(mgr, cfg.Capture.OutputDir, logger)
	summary, err := engine.RunBatch(ctx, cfg.Compare.Pairs)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("comparison: %d of %d pages below threshold", summary.Failed, summary.Passed+summary.Failed)
	}
	return nil
}

// runPipeline chains capture, generation and comparison in one invocation.
func runPipeline(ctx context.Context, logger *slog.Logger, cfg *fileConfig, target gen.Target) error {
	if err := runCapture(ctx, cfg); err != nil {
		return err
	}
	if err := runGenerate(ctx, logger, cfg, target, ""); err != nil {
		return err
	}
	if len(cfg.Compare.Pairs) == 0 {
		logger.Info("mimic: no comparison pairs configured, pipeline done after generation")
		return nil
	}
	return runCompare(ctx, logger, cfg)
}

// runMCP exposes the capture and comparison tools over stdio.
func runMCP(ctx context.Context, logger *slog.Logger, cfg *fileConfig) error {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "mimic",
		Version: "1.0.0",
	}, nil)

	capture.RegisterMCP(srv, &cfg.Capture)

	mgr := browser.NewManager(browser.Config{
		RemoteURL: cfg.Capture.Browser.Remote,
		Headful:   cfg.Capture.Browser.Headful,
		Logger:    logger,
	})
	if _, err := mgr.Start(); err != nil {
		logger.Warn("mimic: browser unavailable, comparison tools degraded", "error", err)
	} else {
		defer mgr.Close()
	}
	visdiff.NewEngine(mgr, cfg.Capture.OutputDir, logger).RegisterMCP(srv)

	logger.Info("mimic: mcp server on stdio")
	return srv.Run(ctx, &mcp.StdioTransport{})
}
