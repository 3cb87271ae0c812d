package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"reverse_dcf/pkg/core/valuation"
)

// DefaultPath is read when RDCF_CONFIG is not set.
const DefaultPath = "config/rdcf.yaml"

type Config struct {
	Server   ServerConfig           `yaml:"server"`
	Database DatabaseConfig         `yaml:"database"`
	Solver   valuation.SolverConfig `yaml:"solver"`
	Ingest   IngestConfig           `yaml:"ingest"`
	Scan     ScanConfig             `yaml:"scan"`
	LLM      LLMConfig              `yaml:"llm"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type IngestConfig struct {
	BaseURL         string        `yaml:"base_url"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Timeout         time.Duration `yaml:"timeout"`
	Tickers         []string      `yaml:"tickers"`
}

type ScanConfig struct {
	Workers int `yaml:"workers"`
}

// LLMConfig selects the provider used for growth estimates and commentary.
type LLMConfig struct {
	ActiveProvider string `yaml:"active_provider"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{ListenAddr: ":8080"},
		Solver: valuation.DefaultSolverConfig(),
		Ingest: IngestConfig{
			BaseURL:         "https://www.screener.in",
			RefreshInterval: 6 * time.Hour,
			Timeout:         15 * time.Second,
		},
		Scan: ScanConfig{Workers: 8},
		LLM:  LLMConfig{ActiveProvider: "gemini", Model: "gemini-2.0-flash"},
	}
}

// Load reads .env, then the YAML file at path (or RDCF_CONFIG, or
// DefaultPath), then applies environment overrides. A missing file yields
// defaults.
func Load(path string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("RDCF_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		fmt.Printf("[CONFIG] %s not found, using defaults\n", path)
	default:
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
}

func (c *Config) normalize() {
	def := Default()
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = def.Server.ListenAddr
	}
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = def.Scan.Workers
	}
	if c.Ingest.BaseURL == "" {
		c.Ingest.BaseURL = def.Ingest.BaseURL
	}
	c.Ingest.BaseURL = strings.TrimRight(c.Ingest.BaseURL, "/")
	if c.Ingest.Timeout <= 0 {
		c.Ingest.Timeout = def.Ingest.Timeout
	}
	for i, t := range c.Ingest.Tickers {
		c.Ingest.Tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	if c.LLM.ActiveProvider == "" {
		c.LLM.ActiveProvider = def.LLM.ActiveProvider
	}
}
