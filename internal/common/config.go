package common

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAPIURL     = "https://api.openai.com/v1/chat/completions"
	DefaultModelLabel = "gpt-4-vision"
	TextModelLabel    = "gpt-4-1106"
	DefaultMaxTokens  = 1024
)

// Settings is the immutable environment snapshot taken once at startup.
type Settings struct {
	APIKey       string
	APIURL       string
	Models       map[string]string // label -> model id
	DefaultModel string            // label
	MaxTokens    int
	Temperature  float32
	Timeout      time.Duration // 0 keeps the http.Client default (no timeout)

	Server ServerConfig
	Prompt PromptConfig
}

// ServerConfig holds settings for the operator form.
type ServerConfig struct {
	Addr      string
	UploadDir string
}

// PromptConfig locates the prompt configuration file.
type PromptConfig struct {
	Path              string
	Strict            bool
	NormalizeMetadata bool
}

// LoadSettings reads the process environment. A missing OPENAI_API_KEY or a
// malformed numeric value is a configuration error.
func LoadSettings() (*Settings, error) {
	var errs []string
	s := &Settings{
		APIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		APIURL: getEnv("OPENAI_API_URL", DefaultAPIURL),
		Models: map[string]string{
			DefaultModelLabel: getEnv("MODEL", "gpt-4-vision-preview"),
			TextModelLabel:    getEnv("MODEL2", "gpt-4-1106-preview"),
		},
		DefaultModel: DefaultModelLabel,
		Server: ServerConfig{
			Addr:      getEnv("HTTP_ADDR", ":7860"),
			UploadDir: getEnv("UPLOAD_DIR", "./tmp/uploads"),
		},
		Prompt: PromptConfig{
			Path: getEnv("CONFIG_PATH", "config/config.json"),
		},
	}

	var err error
	if s.MaxTokens, err = getEnvAsInt("MAX_TOKENS", DefaultMaxTokens); err != nil {
		errs = append(errs, err.Error())
	}
	if s.Temperature, err = getEnvAsFloat32("TEMPERATURE", 0.0); err != nil {
		errs = append(errs, err.Error())
	}
	if s.Timeout, err = getEnvAsDuration("OPENAI_TIMEOUT", 0); err != nil {
		errs = append(errs, err.Error())
	}
	if s.Prompt.Strict, err = getEnvAsBool("CONFIG_STRICT", false); err != nil {
		errs = append(errs, err.Error())
	}
	if s.Prompt.NormalizeMetadata, err = getEnvAsBool("NORMALIZE_METADATA", false); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return nil, ConfigError(strings.Join(errs, "; "), nil)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate validates the loaded settings
func (s *Settings) Validate() error {
	if s.APIKey == "" {
		return ConfigError("Missing OPENAI_API_KEY environment variable", nil)
	}
	if s.APIURL == "" {
		return ConfigError("OPENAI_API_URL is empty", nil)
	}
	if s.MaxTokens <= 0 {
		return ConfigError(fmt.Sprintf("MAX_TOKENS must be positive, got %d", s.MaxTokens), nil)
	}
	if _, ok := s.Models[s.DefaultModel]; !ok {
		return ConfigError(fmt.Sprintf("default model %q has no model id", s.DefaultModel), nil)
	}
	return nil
}

// ModelID resolves a model label to the model identifier sent on the wire.
// An empty label selects the default model.
func (s *Settings) ModelID(label string) (string, error) {
	if strings.TrimSpace(label) == "" {
		label = s.DefaultModel
	}
	id, ok := s.Models[label]
	if !ok {
		return "", InvalidInputErrorf("unknown model %q (available: %s)", label, strings.Join(s.ModelLabels(), ", "))
	}
	return id, nil
}

// ModelLabels returns the selectable model labels, sorted.
func (s *Settings) ModelLabels() []string {
	labels := make([]string, 0, len(s.Models))
	for k := range s.Models {
		labels = append(labels, k)
	}
	slices.Sort(labels)
	return labels
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intVal, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return intVal, nil
}

func getEnvAsFloat32(key string, defaultValue float32) (float32, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatVal, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: invalid float %q", key, value)
	}
	return float32(floatVal), nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return defaultValue, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return duration, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue, fmt.Errorf("%s: invalid boolean %q", key, value)
	}
	return b, nil
}
