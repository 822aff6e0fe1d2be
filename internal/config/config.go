package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/hubdash/internal/maker"
)

// Config captures everything hubdash needs to reach a Maker API instance.
type Config struct {
	MakerAPIURL string
	// BaseURL, AppID and AccessToken are used when MakerAPIURL is unset.
	// Requests go to BaseURL + "/apps/" + AppID.
	BaseURL         string
	AppID           string
	AccessToken     string
	RefreshInterval time.Duration
	RequestTimeout  time.Duration
	LogFile         string
	MetricsAddr     string
	WellnessPrefix  string
}

const (
	// EnvMakerAPIURL overrides maker_api_url from the config file.
	EnvMakerAPIURL = "HUBDASH_MAKER_API_URL"

	defaultConfigPath = "~/.config/hubdash/config.toml"
	defaultLogFile    = "~/.local/state/hubdash/hubdash.log"

	defaultRefreshMS = 30000
	defaultTimeoutMS = 10000
)

// Load locates and parses the hubdash config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		MakerAPIURL:     maker.Placeholder,
		RefreshInterval: defaultRefreshMS * time.Millisecond,
		RequestTimeout:  defaultTimeoutMS * time.Millisecond,
		LogFile:         mustExpand(defaultLogFile),
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		MakerAPIURL       string `toml:"maker_api_url"`
		BaseURL           string `toml:"base_url"`
		AppID             string `toml:"app_id"`
		AccessToken       string `toml:"access_token"`
		RefreshIntervalMS int64  `toml:"refresh_interval_ms"`
		RequestTimeoutMS  int64  `toml:"request_timeout_ms"`
		LogFile           string `toml:"log_file"`
		MetricsAddr       string `toml:"metrics_addr"`
		WellnessPrefix    string `toml:"wellness_prefix"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if u := strings.TrimSpace(raw.MakerAPIURL); u != "" {
		cfg.MakerAPIURL = u
	}
	cfg.BaseURL = strings.TrimSpace(raw.BaseURL)
	cfg.AppID = strings.TrimSpace(raw.AppID)
	cfg.AccessToken = strings.TrimSpace(raw.AccessToken)
	if raw.RefreshIntervalMS > 0 {
		cfg.RefreshInterval = time.Duration(raw.RefreshIntervalMS) * time.Millisecond
	}
	if raw.RequestTimeoutMS > 0 {
		cfg.RequestTimeout = time.Duration(raw.RequestTimeoutMS) * time.Millisecond
	}
	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	cfg.WellnessPrefix = strings.TrimSpace(raw.WellnessPrefix)

	applyEnv(&cfg)
	return cfg, nil
}

// Connection parses MakerAPIURL with the configured tuning. When the URL is
// unset or still the placeholder and any of base_url, app_id or access_token
// is present, the parts are validated with maker.ParseManual instead.
func (c Config) Connection() maker.Connection {
	tuning := maker.Tuning{
		RefreshInterval: c.RefreshInterval,
		RequestTimeout:  c.RequestTimeout,
	}
	if c.usesManualParts() {
		return maker.ParseManual(c.BaseURL, c.AppID, c.AccessToken, tuning)
	}
	return maker.Parse(c.MakerAPIURL, tuning)
}

func (c Config) usesManualParts() bool {
	u := strings.TrimSpace(c.MakerAPIURL)
	if u != "" && u != maker.Placeholder {
		return false
	}
	return c.BaseURL != "" || c.AppID != "" || c.AccessToken != ""
}

func applyEnv(cfg *Config) {
	if u := strings.TrimSpace(os.Getenv(EnvMakerAPIURL)); u != "" {
		cfg.MakerAPIURL = u
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
