package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr           = ":8080"
	defaultMetricsAddr        = ":9090"
	defaultRefreshInterval    = 30 * time.Second
	defaultLogLimit           = 20
	defaultRecentTickets      = 5
	defaultToastDuration      = 4 * time.Second
	defaultPushReconnectDelay = 5 * time.Second

	pushPath = "/ws/live-feed"
)

type Config struct {
	APIBaseURL         string        `validate:"required,url"`
	PushURL            string        `validate:"omitempty,url"`
	PushDisabled       bool
	HTTPAddr           string        `validate:"required"`
	MetricsAddr        string
	RefreshInterval    time.Duration `validate:"gt=0"`
	LogLimit           int           `validate:"min=1,max=500"`
	RecentTickets      int           `validate:"min=1,max=100"`
	ToastDuration      time.Duration `validate:"gt=0"`
	APITimeout         time.Duration `validate:"gte=0"`
	PushReconnectDelay time.Duration `validate:"gt=0"`
}

type LoadOptions struct {
	RequireAPIBaseURL bool
}

func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireAPIBaseURL: true})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		APIBaseURL:         strings.TrimRight(strings.TrimSpace(os.Getenv("API_BASE_URL")), "/"),
		HTTPAddr:           getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:        getenvDefault("METRICS_ADDR", defaultMetricsAddr),
		RefreshInterval:    getenvDurationDefault("REFRESH_INTERVAL", defaultRefreshInterval),
		LogLimit:           getenvIntDefault("LOG_LIMIT", defaultLogLimit),
		RecentTickets:      getenvIntDefault("RECENT_TICKETS", defaultRecentTickets),
		ToastDuration:      getenvDurationDefault("TOAST_DURATION", defaultToastDuration),
		PushReconnectDelay: getenvDurationDefault("PUSH_RECONNECT_DELAY", defaultPushReconnectDelay),
	}

	if v := strings.TrimSpace(os.Getenv("API_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.APITimeout = d
		}
	}

	if cfg.APIBaseURL == "" {
		if opts.RequireAPIBaseURL {
			return cfg, errors.New("API_BASE_URL is required")
		}
		cfg.APIBaseURL = "http://localhost:8000"
	}

	push := strings.TrimSpace(os.Getenv("PUSH_URL"))
	switch strings.ToLower(push) {
	case "off", "disabled", "false":
		cfg.PushDisabled = true
	case "":
		derived, err := DerivePushURL(cfg.APIBaseURL)
		if err != nil {
			return cfg, err
		}
		cfg.PushURL = derived
	default:
		cfg.PushURL = push
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DerivePushURL maps the API base URL onto the backend's live-feed
// websocket endpoint (http -> ws, https -> wss).
func DerivePushURL(apiBase string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(apiBase))
	if err != nil {
		return "", fmt.Errorf("parse API_BASE_URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("API_BASE_URL has unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + pushPath
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func getenvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
