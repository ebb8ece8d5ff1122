package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/teemow/clickup-mcp/internal/logging"
)

const (
	// AppName is the directory name used under the config roots.
	AppName = "clickup-mcp"
	// FileName is the config file looked for in every location.
	FileName = "config.json"
	// EnvPrefix prefixes every environment override, e.g. CLICKUP_MCP_API_KEY.
	EnvPrefix = "CLICKUP_MCP"

	DefaultCacheTTL  = 300
	DefaultRateLimit = 100
	DefaultTimeout   = 30 * time.Second

	// MinAPIKeyLength is the shortest key accepted without asking ClickUp.
	MinAPIKeyLength = 10
)

// ErrMissingAPIKey is returned when neither a file nor the environment provides a key.
var ErrMissingAPIKey = errors.New("no API key found: set CLICKUP_MCP_API_KEY or run `clickup-mcp set-api-key`")

// ErrInvalidAPIKey is returned for keys too short to be a ClickUp token.
var ErrInvalidAPIKey = fmt.Errorf("invalid API key format: expected at least %d characters", MinAPIKeyLength)

// Config is the server configuration.
type Config struct {
	APIKey             string            `mapstructure:"api_key" json:"api_key" yaml:"api_key"`
	DefaultWorkspaceID string            `mapstructure:"default_workspace_id" json:"default_workspace_id,omitempty" yaml:"default_workspace_id,omitempty"`
	DefaultTeamID      string            `mapstructure:"default_team_id" json:"default_team_id,omitempty" yaml:"default_team_id,omitempty"`
	CacheTTL           int               `mapstructure:"cache_ttl" json:"cache_ttl" yaml:"cache_ttl"`
	IDPatterns         map[string]string `mapstructure:"id_patterns" json:"id_patterns" yaml:"id_patterns"`
	StrictSearchMatch  bool              `mapstructure:"strict_search_match" json:"strict_search_match" yaml:"strict_search_match"`
	RateLimit          int               `mapstructure:"rate_limit" json:"rate_limit" yaml:"rate_limit"`
	Timeout            time.Duration     `mapstructure:"timeout" json:"-" yaml:"timeout"`
	BaseURL            string            `mapstructure:"base_url" json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Source is the file the configuration was read from, empty when none was found.
	Source string `mapstructure:"-" json:"-" yaml:"-"`
}

// DefaultIDPatterns returns the custom ID patterns used when none are configured.
func DefaultIDPatterns() map[string]string {
	return map[string]string{"gh": "GitHub Issues"}
}

// envKeys are bound to CLICKUP_MCP_<KEY>. CLICKUP_MCP_ID_PATTERNS is read by
// LoadUnvalidated directly.
var envKeys = []string{
	"api_key",
	"default_workspace_id",
	"default_team_id",
	"cache_ttl",
	"strict_search_match",
	"rate_limit",
	"timeout",
	"base_url",
}

// SearchPaths returns the locations checked for a config file, in order.
func SearchPaths() []string {
	var paths []string
	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", AppName, FileName))
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, AppName, FileName))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, AppName, FileName))
	}
	if home != "" {
		paths = append(paths, filepath.Join(home, "."+AppName, FileName))
	}
	return dedupe(paths)
}

// DefaultPath is where Save and SetAPIKey write when no path is given.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return filepath.Join(dir, AppName, FileName), nil
}

// FindFile returns explicit if set, otherwise the first existing file in SearchPaths.
// It returns "" when nothing exists.
func FindFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, p := range SearchPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Load reads the configuration from path (or the first file found in SearchPaths when
// path is empty), applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := LoadUnvalidated(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUnvalidated is Load without Validate, for commands that inspect a partial config.
func LoadUnvalidated(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("cache_ttl", DefaultCacheTTL)
	v.SetDefault("strict_search_match", false)
	v.SetDefault("rate_limit", DefaultRateLimit)
	v.SetDefault("timeout", DefaultTimeout.String())

	source := FindFile(path)
	if source != "" {
		v.SetConfigFile(source)
		if ext := filepath.Ext(source); ext == "" {
			v.SetConfigType("json")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", source, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		if source != "" {
			return nil, fmt.Errorf("failed to load config from %s: %w", source, err)
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	// id_patterns bypasses viper: nested maps are merged key by key across layers, and a
	// configured table must replace the default one rather than extend it.
	if raw := os.Getenv(EnvPrefix + "_ID_PATTERNS"); strings.TrimSpace(raw) != "" {
		patterns, err := ParseIDPatterns(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s_ID_PATTERNS: %w", EnvPrefix, err)
		}
		cfg.IDPatterns = patterns
	}
	if cfg.IDPatterns == nil {
		cfg.IDPatterns = DefaultIDPatterns()
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Source = source
	return cfg, nil
}

// ParseIDPatterns accepts a JSON object ({"gh":"GitHub Issues"}) or comma separated
// prefix=label pairs (gh=GitHub Issues,cs=Support).
func ParseIDPatterns(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	patterns := make(map[string]string)

	if strings.HasPrefix(raw, "{") {
		if err := json.Unmarshal([]byte(raw), &patterns); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return patterns, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		prefix, label, ok := strings.Cut(pair, "=")
		prefix = strings.TrimSpace(prefix)
		if !ok || prefix == "" {
			return nil, fmt.Errorf("expected prefix=label, got %q", pair)
		}
		patterns[prefix] = strings.TrimSpace(label)
	}
	return patterns, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := validateAPIKey(c.APIKey); err != nil {
		return err
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative, got %d", c.CacheTTL)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %d", c.RateLimit)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

func validateAPIKey(key string) error {
	switch {
	case key == "":
		return ErrMissingAPIKey
	case len(key) < MinAPIKeyLength:
		return ErrInvalidAPIKey
	}
	return nil
}

// ScopeID is the team custom task IDs are looked up in.
func (c *Config) ScopeID() string {
	if c.DefaultTeamID != "" {
		return c.DefaultTeamID
	}
	return c.DefaultWorkspaceID
}

// CacheDuration returns CacheTTL as a duration.
func (c *Config) CacheDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if out.APIKey != "" {
		out.APIKey = logging.MaskAPIKey(out.APIKey)
	}
	out.IDPatterns = make(map[string]string, len(c.IDPatterns))
	for k, v := range c.IDPatterns {
		out.IDPatterns[k] = v
	}
	return &out
}

// Save writes the configuration as JSON to path, or DefaultPath when path is empty.
// Settings equal to their defaults are left out.
func (c *Config) Save(path string) error {
	data := map[string]any{"api_key": c.APIKey}
	if c.DefaultWorkspaceID != "" {
		data["default_workspace_id"] = c.DefaultWorkspaceID
	}
	if c.DefaultTeamID != "" {
		data["default_team_id"] = c.DefaultTeamID
	}
	if len(c.IDPatterns) > 0 {
		data["id_patterns"] = c.IDPatterns
	}
	if c.CacheTTL != DefaultCacheTTL {
		data["cache_ttl"] = c.CacheTTL
	}
	if c.StrictSearchMatch {
		data["strict_search_match"] = true
	}
	if c.RateLimit != DefaultRateLimit {
		data["rate_limit"] = c.RateLimit
	}
	if c.Timeout != 0 && c.Timeout != DefaultTimeout {
		data["timeout"] = c.Timeout.String()
	}
	if c.BaseURL != "" {
		data["base_url"] = c.BaseURL
	}
	return writeJSON(path, data)
}

// SetAPIKey stores key in the config file at path (DefaultPath when empty), keeping every
// other setting in that file.
func SetAPIKey(path, key string) (string, error) {
	key = strings.TrimSpace(key)
	if err := validateAPIKey(key); err != nil {
		return "", err
	}
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return "", err
		}
	}

	data := map[string]any{}
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(existing, &data); err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	data["api_key"] = key
	return path, writeJSON(path, data)
}

func writeJSON(path string, data map[string]any) error {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", path, err)
	}
	return nil
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
