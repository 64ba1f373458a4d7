package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// FileEnv names the optional config file. Values in the file are defaults
// that environment variables override.
const FileEnv = "WHITEBOARD_CONFIG"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	LLM       LLMConfig       `yaml:"llm" toml:"llm"`
	Speech    SpeechConfig    `yaml:"speech" toml:"speech"`
	Playback  PlaybackConfig  `yaml:"playback" toml:"playback"`
	Surface   SurfaceConfig   `yaml:"surface" toml:"surface"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" yaml:"port" toml:"port"`
	Host string `envconfig:"HOST" yaml:"host" toml:"host"`

	AllowOrigins    []string `envconfig:"CORS_ORIGINS" yaml:"allow_origins" toml:"allow_origins"`
	ShutdownTimeout Duration `envconfig:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// LLMConfig selects and configures the language model provider.
type LLMConfig struct {
	Provider    string   `envconfig:"LLM_PROVIDER" yaml:"provider" toml:"provider"`
	OpenAIKey   string   `envconfig:"OPENAI_API_KEY" yaml:"openai_api_key" toml:"openai_api_key"`
	OpenAIModel string   `envconfig:"OPENAI_MODEL" yaml:"openai_model" toml:"openai_model"`
	OpenAIURL   string   `envconfig:"OPENAI_BASE_URL" yaml:"openai_base_url" toml:"openai_base_url"`
	GeminiKey   string   `envconfig:"GEMINI_API_KEY" yaml:"gemini_api_key" toml:"gemini_api_key"`
	GeminiModel string   `envconfig:"GEMINI_MODEL" yaml:"gemini_model" toml:"gemini_model"`
	Temperature float64  `envconfig:"LLM_TEMPERATURE" yaml:"temperature" toml:"temperature"`
	MaxTokens   int      `envconfig:"LLM_MAX_TOKENS" yaml:"max_tokens" toml:"max_tokens"`
	Timeout     Duration `envconfig:"LLM_TIMEOUT" yaml:"timeout" toml:"timeout"`
}

// SpeechConfig configures narration.
type SpeechConfig struct {
	Enabled bool     `envconfig:"SPEECH_ENABLED" yaml:"enabled" toml:"enabled"`
	APIKey  string   `envconfig:"ELEVENLABS_API_KEY" yaml:"elevenlabs_api_key" toml:"elevenlabs_api_key"`
	VoiceID string   `envconfig:"ELEVENLABS_VOICE_ID" yaml:"voice_id" toml:"voice_id"`
	ModelID string   `envconfig:"ELEVENLABS_MODEL_ID" yaml:"model_id" toml:"model_id"`
	BaseURL string   `envconfig:"ELEVENLABS_BASE_URL" yaml:"base_url" toml:"base_url"`
	Timeout Duration `envconfig:"SPEECH_TIMEOUT" yaml:"timeout" toml:"timeout"`
}

// PlaybackConfig configures lesson pacing.
type PlaybackConfig struct {
	TextDelay  Duration `envconfig:"PLAYBACK_TEXT_DELAY" yaml:"text_delay" toml:"text_delay"`
	ShapeDelay Duration `envconfig:"PLAYBACK_SHAPE_DELAY" yaml:"shape_delay" toml:"shape_delay"`
	LockTools  bool     `envconfig:"PLAYBACK_LOCK_TOOLS" yaml:"lock_tools" toml:"lock_tools"`
}

// SurfaceConfig configures the drawing surface.
type SurfaceConfig struct {
	Width  int    `envconfig:"SURFACE_WIDTH" yaml:"width" toml:"width"`
	Height int    `envconfig:"SURFACE_HEIGHT" yaml:"height" toml:"height"`
	Theme  string `envconfig:"SURFACE_THEME" yaml:"theme" toml:"theme"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"rps" toml:"rps"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled"`
	// Global caps the whole server regardless of client; zero disables it
	GlobalRequestsPerSecond int `envconfig:"RATE_LIMIT_GLOBAL_RPS" yaml:"global_rps" toml:"global_rps"`
	GlobalBurst             int `envconfig:"RATE_LIMIT_GLOBAL_BURST" yaml:"global_burst" toml:"global_burst"`
}

// Duration is a time.Duration written as "800ms" or "1m" in files and env.
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalText parses a Go duration string
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Load builds the configuration from defaults, the optional file named by
// WHITEBOARD_CONFIG, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",

			AllowOrigins:    []string{"*"},
			ShutdownTimeout: Duration(10 * time.Second),
		},
		LLM: LLMConfig{
			Provider:    "openai",
			OpenAIModel: "gpt-4o-mini",
			GeminiModel: "gemini-1.5-flash",
			Temperature: 0.7,
			MaxTokens:   1000,
			Timeout:     Duration(60 * time.Second),
		},
		Speech: SpeechConfig{
			Enabled: true,
			VoiceID: "EXAVITQu4vr4xnSDxMaL",
			ModelID: "eleven_multilingual_v2",
			Timeout: Duration(30 * time.Second),
		},
		Playback: PlaybackConfig{
			TextDelay:  Duration(time.Second),
			ShapeDelay: Duration(800 * time.Millisecond),
			LockTools:  true,
		},
		Surface: SurfaceConfig{
			Width:  800,
			Height: 600,
			Theme:  "default",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,

			GlobalRequestsPerSecond: 1000,
			GlobalBurst:             2000,
		},
	}
}

// Validate reports inconsistent values.
func (c *Config) Validate() error {
	var problems []string

	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		problems = append(problems, fmt.Sprintf("LLM_PROVIDER must be openai or gemini, got %q", c.LLM.Provider))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		problems = append(problems, fmt.Sprintf("LLM_TEMPERATURE must be within 0-2, got %g", c.LLM.Temperature))
	}
	if c.LLM.MaxTokens <= 0 {
		problems = append(problems, "LLM_MAX_TOKENS must be positive")
	}
	if c.LLM.Timeout <= 0 || c.Speech.Timeout <= 0 {
		problems = append(problems, "LLM_TIMEOUT and SPEECH_TIMEOUT must be positive")
	}
	if c.Playback.TextDelay < 0 || c.Playback.ShapeDelay < 0 {
		problems = append(problems, "playback delays must not be negative")
	}
	if c.Surface.Width <= 0 || c.Surface.Height <= 0 {
		problems = append(problems, "surface size must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		problems = append(problems, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}
	if c.RateLimit.GlobalRequestsPerSecond < 0 || (c.RateLimit.GlobalRequestsPerSecond > 0 && c.RateLimit.GlobalBurst <= 0) {
		problems = append(problems, "RATE_LIMIT_GLOBAL_RPS must not be negative and needs a positive RATE_LIMIT_GLOBAL_BURST")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// LLMKey returns the API key of the selected provider
func (c *Config) LLMKey() string {
	if c.LLM.Provider == "gemini" {
		return c.LLM.GeminiKey
	}
	return c.LLM.OpenAIKey
}

// Address returns the listen address
func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config file type %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}
