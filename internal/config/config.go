package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/forPelevin/clipcut/internal/logging"
	"github.com/forPelevin/clipcut/internal/ports/adapters/openrouter"
)

const (
	ProviderAssemblyAI = "assemblyai"
	ProviderLocal      = "local"
)

type Config struct {
	Provider             string `yaml:"provider" validate:"oneof=assemblyai local"`
	Variant              string `yaml:"variant" validate:"oneof=podcast tutorial"`
	Clips                int    `yaml:"clips" validate:"min=1,max=5"`
	ClipDuration         int    `yaml:"clip_duration" validate:"min=30,max=120"`
	MinSpacing           int    `yaml:"min_spacing" validate:"min=0"`
	DefaultMediaDuration int    `yaml:"default_media_duration" validate:"gt=0"`
	OutDir               string `yaml:"out_dir" validate:"required"`
	BurnCaptions         bool   `yaml:"burn_captions"`

	Tools      Tools          `yaml:"tools"`
	AssemblyAI AssemblyAI     `yaml:"assemblyai"`
	OpenRouter OpenRouter     `yaml:"openrouter"`
	Server     Server         `yaml:"server"`
	Log        logging.Config `yaml:"log"`
}

type Tools struct {
	FFmpeg       string `yaml:"ffmpeg" validate:"required"`
	FFprobe      string `yaml:"ffprobe" validate:"required"`
	WhisperBin   string `yaml:"whisper_bin"`
	WhisperModel string `yaml:"whisper_model"`
}

// API keys are read from the environment only.
type AssemblyAI struct {
	APIKey string `yaml:"-"`
	Model  string `yaml:"model"`
}

type OpenRouter struct {
	APIKey       string   `yaml:"-"`
	Model        string   `yaml:"model"`
	BaseURL      string   `yaml:"base_url"`
	AllowedHosts []string `yaml:"allowed_hosts"`
}

type Server struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

func Default() Config {
	return Config{
		Provider:             ProviderAssemblyAI,
		Variant:              "tutorial",
		Clips:                3,
		ClipDuration:         60,
		MinSpacing:           20,
		DefaultMediaDuration: 600,
		OutDir:               "out",
		Tools: Tools{
			FFmpeg:       "ffmpeg",
			FFprobe:      "ffprobe",
			WhisperBin:   ".cache/bin/whisper.cpp",
			WhisperModel: ".cache/models/ggml-base.bin",
		},
		OpenRouter: OpenRouter{
			Model:   openrouter.DefaultModel,
			BaseURL: openrouter.DefaultBaseURL,
		},
		Server: Server{Addr: "127.0.0.1:8080"},
		Log:    logging.Config{Level: "warn", Format: logging.FormatConsole},
	}
}

// Load layers defaults, the optional YAML file at path, a .env file in the
// working directory and the process environment, in that order. Flags are
// applied by the caller, which should call Validate afterwards.
func Load(path string) (Config, error) {
	_ = godotenv.Load() // best-effort: load .env if present
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("ASSEMBLYAI_API_KEY", &cfg.AssemblyAI.APIKey)
	str("OPENROUTER_API_KEY", &cfg.OpenRouter.APIKey)
	str("OPENROUTER_MODEL", &cfg.OpenRouter.Model)
	str("OPENROUTER_BASE_URL", &cfg.OpenRouter.BaseURL)
	str("CLIPCUT_PROVIDER", &cfg.Provider)
	str("CLIPCUT_LOG_LEVEL", &cfg.Log.Level)

	if v, ok := lookup("OPENROUTER_ALLOWED_HOSTS"); ok && strings.TrimSpace(v) != "" {
		cfg.OpenRouter.AllowedHosts = splitList(v)
	}
	if v, ok := lookup("CLIPCUT_CLIPS"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("CLIPCUT_CLIPS: %w", err)
		}
		cfg.Clips = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, e := range verrs {
			msgs = append(msgs, describe(e))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	if c.Provider == ProviderLocal {
		if c.Tools.WhisperModel == "" {
			return errors.New("tools.whisper_model is required for the local provider")
		}
		if err := openrouter.ValidateBaseURL(c.OpenRouter.BaseURL, c.OpenRouter.AllowedHosts); err != nil {
			return fmt.Errorf("openrouter.base_url: %w", err)
		}
	}
	return nil
}

func describe(e validator.FieldError) string {
	name := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required":
		return name + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", name, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", name, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s (got %v)", name, e.Param(), e.Value())
	default:
		return name + " is invalid"
	}
}

// CredentialHint is the remediation shown when a hosted service fails.
func (c Config) CredentialHint() string {
	if c.Provider == ProviderLocal {
		return "check OPENROUTER_API_KEY and OPENROUTER_MODEL, and that the whisper.cpp binary and model exist"
	}
	return "check ASSEMBLYAI_API_KEY and your AssemblyAI account status"
}
