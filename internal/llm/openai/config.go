package openai

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/docs-analyzer/internal/common"
)

// Config for the OpenAI client.
type Config struct {
	APIKey  string
	URL     string        // full chat/completions endpoint
	Timeout time.Duration // 0 keeps the http.Client default
}

// ConfigFromSettings maps the environment snapshot onto a client config.
func ConfigFromSettings(s *common.Settings) Config {
	return Config{
		APIKey:  s.APIKey,
		URL:     s.APIURL,
		Timeout: s.Timeout,
	}
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = common.DefaultAPIURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}
