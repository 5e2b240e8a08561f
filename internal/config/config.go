package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// DefaultPath is the config file looked up in the working directory first
const DefaultPath = "ytframes.yaml"

// EnvPrefix is prepended to every environment override
const EnvPrefix = "YTFRAMES_"

// Config holds all application configuration
type Config struct {
	OutputRoot string `yaml:"output_root" env:"OUTPUT_ROOT"`
	CacheDir   string `yaml:"cache_dir" env:"CACHE_DIR"`
	LogLevel   string `yaml:"log_level" env:"LOG_LEVEL"`

	// Extraction settings
	Strategy       string  `yaml:"strategy" env:"STRATEGY"`
	SceneThreshold float64 `yaml:"scene_threshold" env:"SCENE_THRESHOLD"`
	Interval       int     `yaml:"interval_seconds" env:"INTERVAL_SECONDS"`
	DedupThreshold int     `yaml:"dedup_threshold" env:"DEDUP_THRESHOLD"`
	Classifier     string  `yaml:"classifier" env:"CLASSIFIER"`
	MaxFrames      int     `yaml:"max_frames" env:"MAX_FRAMES"`
	KeepVideo      bool    `yaml:"keep_video" env:"KEEP_VIDEO"`
	MaxResolution  int     `yaml:"max_resolution" env:"MAX_RESOLUTION"`
	Chronological  bool    `yaml:"chronological" env:"CHRONOLOGICAL"`

	Tools     ToolsConfig     `yaml:"tools" envPrefix:"TOOLS_"`
	Ollama    OllamaConfig    `yaml:"ollama" envPrefix:"OLLAMA_"`
	OpenAI    OpenAIConfig    `yaml:"openai" envPrefix:"OPENAI_"`
	Anthropic AnthropicConfig `yaml:"anthropic" envPrefix:"ANTHROPIC_"`
}

// ToolsConfig names the external binaries
type ToolsConfig struct {
	FFmpeg    string `yaml:"ffmpeg" env:"FFMPEG"`
	YtDlp     string `yaml:"ytdlp" env:"YTDLP"`
	Tesseract string `yaml:"tesseract" env:"TESSERACT"`
	Chafa     string `yaml:"chafa" env:"CHAFA"`
}

type OllamaConfig struct {
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	Port    int    `yaml:"port" env:"PORT"`
	Model   string `yaml:"model" env:"MODEL"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" env:"API_KEY"`
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	Model   string `yaml:"model" env:"MODEL"`
}

type AnthropicConfig struct {
	APIKey  string `yaml:"api_key" env:"API_KEY"`
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	Model   string `yaml:"model" env:"MODEL"`
}

// Load applies defaults, then the YAML file, then environment overrides
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.SceneThreshold < 0 || c.SceneThreshold > 1 {
		errs = append(errs, fmt.Errorf("scene_threshold must be within [0,1], got %v", c.SceneThreshold))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval_seconds must be positive, got %d", c.Interval))
	}
	if c.DedupThreshold < 0 {
		errs = append(errs, fmt.Errorf("dedup_threshold must not be negative, got %d", c.DedupThreshold))
	}
	if c.MaxFrames <= 0 {
		errs = append(errs, fmt.Errorf("max_frames must be positive, got %d", c.MaxFrames))
	}
	if c.MaxResolution <= 0 {
		errs = append(errs, fmt.Errorf("max_resolution must be positive, got %d", c.MaxResolution))
	}
	if c.OutputRoot == "" {
		errs = append(errs, errors.New("output_root must be set"))
	}
	return errors.Join(errs...)
}

func defaultConfig() *Config {
	home, _ := os.UserHomeDir()
	cache, err := os.UserCacheDir()
	if err != nil {
		cache = filepath.Join(home, ".cache")
	}

	return &Config{
		OutputRoot:     filepath.Join(home, ".local", "share", "ytframes"),
		CacheDir:       filepath.Join(cache, "ytframes"),
		LogLevel:       "info",
		Strategy:       "hybrid",
		SceneThreshold: 0.3,
		Interval:       10,
		DedupThreshold: 10,
		Classifier:     "ocr",
		MaxFrames:      50,
		KeepVideo:      false,
		MaxResolution:  1080,
		Chronological:  true,
		Tools: ToolsConfig{
			FFmpeg:    "ffmpeg",
			YtDlp:     "yt-dlp",
			Tesseract: "tesseract",
			Chafa:     "chafa",
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost",
			Port:    11434,
			Model:   "llama3.2-vision:11b",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-20250514",
		},
	}
}

func findConfigFile() string {
	candidates := []string{DefaultPath, "ytframes.yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "ytframes", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context, falling back to defaults
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
