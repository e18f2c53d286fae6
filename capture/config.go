package capture

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BrowserConfig controls the Chrome session for a run.
type BrowserConfig struct {
	Remote           string   `yaml:"remote"`
	Headful          bool     `yaml:"headful"`
	ResourceBlocking []string `yaml:"resource_blocking"`
}

// ElementShotConfig names a best-effort element screenshot taken per step.
type ElementShotConfig struct {
	Name     string `yaml:"name"`
	Selector string `yaml:"selector"`
}

// Config configures a capture run.
type Config struct {
	// TargetRoot is the application origin, e.g. https://app.example.com.
	TargetRoot string `yaml:"target_root"`

	// AuthPath is the path segment whose presence marks an authenticated URL.
	AuthPath string `yaml:"auth_path"`

	// Identifier and Secret are the two-stage login credentials.
	Identifier string `yaml:"identifier"`
	Secret     string `yaml:"secret"`

	// OutputDir receives the session document, API call logs and screenshots.
	OutputDir string `yaml:"output_dir"`

	// ArchiveDB is an optional SQLite path for the cross-run capture archive.
	ArchiveDB string `yaml:"archive_db"`

	// ProjectName is typed into the blank-project form.
	ProjectName string `yaml:"project_name"`

	SettleDelay     time.Duration `yaml:"settle_delay"`
	NavTimeout      time.Duration `yaml:"nav_timeout"`
	LoginTimeout    time.Duration `yaml:"login_timeout"`
	StrategyTimeout time.Duration `yaml:"strategy_timeout"`

	Browser      BrowserConfig       `yaml:"browser"`
	ElementShots []ElementShotConfig `yaml:"element_shots"`

	Logger *slog.Logger `yaml:"-"`
}

// LoadConfigFile reads a YAML capture configuration.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("capture: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("capture: parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AuthPath == "" {
		c.AuthPath = "/app"
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.ProjectName == "" {
		c.ProjectName = "Blank Project"
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 10 * time.Second
	}
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = 30 * time.Second
	}
	if c.StrategyTimeout <= 0 {
		c.StrategyTimeout = 3 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if len(c.ElementShots) == 0 {
		c.ElementShots = []ElementShotConfig{
			{Name: "sidebar", Selector: "nav, [role=navigation]"},
			{Name: "topbar", Selector: "header, [role=banner]"},
			{Name: "main", Selector: "[role=main], main"},
		}
	}
}
