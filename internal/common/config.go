package common

import (
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/joseph-ayodele/doc-assistant/constants"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	OCR        OCRConfig
	Chat       ChatConfig
	Speech     SpeechConfig
	Image      ImageConfig
	Capability CapabilityConfig
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr    string        `env:"HTTP_ADDR" envDefault:":8501"`
	GRPCAddr    string        `env:"GRPC_ADDR" envDefault:":8502"`
	Theme       string        `env:"THEME" envDefault:"dark"`
	MaxUploadMB int64         `env:"MAX_UPLOAD_MB" envDefault:"25"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	AudioDir    string        `env:"AUDIO_DIR"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract   string `env:"TESSERACT_BIN" envDefault:"tesseract"`
	Language    string `env:"OCR_LANG" envDefault:"eng"`
	TessdataDir string `env:"TESSDATA_PREFIX"`
	MedianSize  int    `env:"OCR_MEDIAN_SIZE" envDefault:"3"`
}

// ChatConfig holds the chat completion provider configuration
type ChatConfig struct {
	APIKey  string   `env:"GROQ_API_KEY"`
	BaseURL string   `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	Model   string   `env:"GROQ_MODEL" envDefault:"llama-3.1-8b-instant"`
	Models  []string `env:"GROQ_MODELS" envSeparator:","`
}

// SpeechConfig holds the speech synthesis provider configuration
type SpeechConfig struct {
	APIKey  string   `env:"DEEPGRAM_API_KEY"`
	BaseURL string   `env:"DEEPGRAM_BASE_URL" envDefault:"https://api.deepgram.com/v1"`
	Voice   string   `env:"DEEPGRAM_VOICE" envDefault:"aura-asteria-en"`
	Voices  []string `env:"DEEPGRAM_VOICES" envSeparator:","`
}

// ImageConfig holds the optional image synthesis provider configuration
type ImageConfig struct {
	APIKey  string `env:"HF_API_KEY"`
	BaseURL string `env:"HF_BASE_URL" envDefault:"https://api-inference.huggingface.co/models"`
	Model   string `env:"HF_IMAGE_MODEL" envDefault:"stabilityai/stable-diffusion-xl-base-1.0"`
}

// CapabilityConfig holds settings shared by every provider client
type CapabilityConfig struct {
	// Timeout of 0 leaves the HTTP client without a deadline.
	Timeout time.Duration `env:"CAPABILITY_TIMEOUT" envDefault:"0s"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, NewAppError("CONFIG_ERROR", "parse environment", err)
	}
	if len(cfg.Chat.Models) == 0 {
		cfg.Chat.Models = append([]string(nil), constants.ChatModels...)
	}
	if len(cfg.Speech.Voices) == 0 {
		cfg.Speech.Voices = append([]string(nil), constants.Voices...)
	}
	return &cfg, nil
}

// ImageEnabled reports whether the image generation tab is available.
func (c *Config) ImageEnabled() bool {
	return strings.TrimSpace(c.Image.APIKey) != ""
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Chat.APIKey) == "" || strings.TrimSpace(c.Speech.APIKey) == "" {
		return NewAppError("CONFIG_ERROR", "API keys missing: GROQ_API_KEY and DEEPGRAM_API_KEY are required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	switch c.Server.Theme {
	case "dark", "light":
	default:
		return NewAppError("CONFIG_ERROR", "THEME must be dark or light", ErrInvalidInput)
	}
	if c.Server.MaxUploadMB <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_MB must be positive", ErrInvalidInput)
	}
	if c.OCR.MedianSize < 1 || c.OCR.MedianSize%2 == 0 {
		return NewAppError("CONFIG_ERROR", "OCR_MEDIAN_SIZE must be a positive odd number", ErrInvalidInput)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
