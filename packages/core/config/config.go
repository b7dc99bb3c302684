package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/fetchwrap/packages/core/env"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. FETCHWRAP_BASE_URL.
const EnvPrefix = "FETCHWRAP"

const (
	TransportHTTP  = "http"
	TransportResty = "resty"

	OutputConsole = "console"
	OutputJSON    = "json"
)

// Config represents the fetchwrap configuration
type Config struct {
	BaseURL         string            `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Headers         map[string]string `mapstructure:"headers" yaml:"headers,omitempty"` // Default headers for all requests
	Timeout         string            `mapstructure:"timeout" yaml:"timeout,omitempty"` // Go duration, e.g. 30s
	MaxRedirects    int               `mapstructure:"max_redirects" yaml:"max_redirects,omitempty"`
	ValidateSSL     *bool             `mapstructure:"validate_ssl" yaml:"validate_ssl,omitempty"`
	Proxy           string            `mapstructure:"proxy" yaml:"proxy,omitempty"`
	Transport       string            `mapstructure:"transport" yaml:"transport,omitempty"` // http or resty
	Redirect        string            `mapstructure:"redirect" yaml:"redirect,omitempty"`   // follow, manual or error
	LogLevel        string            `mapstructure:"log_level" yaml:"log_level,omitempty"`
	Output          string            `mapstructure:"output" yaml:"output,omitempty"` // console or json
	HistoryPath     string            `mapstructure:"history_path" yaml:"history_path,omitempty"`
	RateLimit       float64           `mapstructure:"rate_limit" yaml:"rate_limit,omitempty"` // requests per second, 0 disables
	RateBurst       int               `mapstructure:"rate_burst" yaml:"rate_burst,omitempty"`
	RequestIDHeader string            `mapstructure:"request_id_header" yaml:"request_id_header,omitempty"`
	Verbose         *bool             `mapstructure:"verbose" yaml:"verbose,omitempty"`
	NoColor         *bool             `mapstructure:"no_color" yaml:"no_color,omitempty"`
	Fail            *bool             `mapstructure:"fail" yaml:"fail,omitempty"` // treat non-2xx as an error
	OAuth2          *OAuth2Config     `mapstructure:"oauth2" yaml:"oauth2,omitempty"`
	AWS             *AWSConfig        `mapstructure:"aws" yaml:"aws,omitempty"`
}

// AWSConfig enables AWS Signature Version 4 request signing.
type AWSConfig struct {
	AccessKey    string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey    string `mapstructure:"secret_key" yaml:"secret_key"`
	SessionToken string `mapstructure:"session_token" yaml:"session_token,omitempty"`
	Region       string `mapstructure:"region" yaml:"region"`
	Service      string `mapstructure:"service" yaml:"service"`
}

// OAuth2Config enables bearer tokens from an OAuth2 token endpoint.
type OAuth2Config struct {
	TokenURL     string   `mapstructure:"token_url" yaml:"token_url"`
	ClientID     string   `mapstructure:"client_id" yaml:"client_id,omitempty"`
	ClientSecret string   `mapstructure:"client_secret" yaml:"client_secret,omitempty"`
	Scopes       []string `mapstructure:"scopes" yaml:"scopes,omitempty"`
	GrantType    string   `mapstructure:"grant_type" yaml:"grant_type,omitempty"` // client_credentials or password
	Username     string   `mapstructure:"username" yaml:"username,omitempty"`
	Password     string   `mapstructure:"password" yaml:"password,omitempty"`
}

// envKeys are the settings that can be overridden from the environment.
var envKeys = []string{
	"base_url",
	"timeout",
	"max_redirects",
	"validate_ssl",
	"proxy",
	"transport",
	"redirect",
	"log_level",
	"output",
	"history_path",
	"rate_limit",
	"rate_burst",
	"request_id_header",
	"verbose",
	"no_color",
	"fail",
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetFail returns the fail setting, defaulting to false
func (c *Config) GetFail() bool {
	return getBool(c.Fail, false)
}

// TimeoutDuration parses Timeout. An empty value means no timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".fetchwrap.yaml",
	"fetchwrap.yaml",
	".fetchwrap.yml",
	".fetchwrap.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfig(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory. With
// no file it still applies environment overrides to the defaults.
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfig(configPath)
		}
	}

	return loadConfig("")
}

func loadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.BaseURL = env.ExpandEnv(cfg.BaseURL)
	cfg.Headers = env.ExpandMap(cfg.Headers)
	if o := cfg.OAuth2; o != nil {
		o.ClientID = env.ExpandEnv(o.ClientID)
		o.ClientSecret = env.ExpandEnv(o.ClientSecret)
		o.Username = env.ExpandEnv(o.Username)
		o.Password = env.ExpandEnv(o.Password)
	}
	if a := cfg.AWS; a != nil {
		a.AccessKey = env.ExpandEnv(a.AccessKey)
		a.SecretKey = env.ExpandEnv(a.SecretKey)
		a.SessionToken = env.ExpandEnv(a.SessionToken)
	}

	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Transport {
	case "", TransportHTTP, TransportResty:
	default:
		errs = append(errs, fmt.Errorf("transport must be %q or %q, got %q", TransportHTTP, TransportResty, c.Transport))
	}

	switch c.Redirect {
	case "", "follow", "manual", "error":
	default:
		errs = append(errs, fmt.Errorf("redirect must be follow, manual or error, got %q", c.Redirect))
	}

	switch c.Output {
	case "", OutputConsole, OutputJSON:
	default:
		errs = append(errs, fmt.Errorf("output must be %q or %q, got %q", OutputConsole, OutputJSON, c.Output))
	}

	if d, err := c.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	} else if d < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative"))
	}

	if c.MaxRedirects < 0 {
		errs = append(errs, fmt.Errorf("max_redirects must not be negative"))
	}

	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate_limit must not be negative"))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("rate_burst must be at least 1 when rate_limit is set"))
	}

	if c.OAuth2 != nil && c.OAuth2.TokenURL == "" {
		errs = append(errs, fmt.Errorf("oauth2.token_url is required when oauth2 is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.BaseURL != "" {
		result.BaseURL = other.BaseURL
	}
	if other.Timeout != "" {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.Transport != "" {
		result.Transport = other.Transport
	}
	if other.Redirect != "" {
		result.Redirect = other.Redirect
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.HistoryPath != "" {
		result.HistoryPath = other.HistoryPath
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.RateBurst > 0 {
		result.RateBurst = other.RateBurst
	}
	if other.RequestIDHeader != "" {
		result.RequestIDHeader = other.RequestIDHeader
	}

	// Boolean flags - only override if explicitly set in other config
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.Fail != nil {
		result.Fail = other.Fail
	}
	if other.OAuth2 != nil {
		result.OAuth2 = other.OAuth2
	}
	if other.AWS != nil {
		result.AWS = other.AWS
	}

	// Merge headers. Names are case-insensitive, so an override drops the
	// base entry under any casing.
	if len(other.Headers) > 0 {
		merged := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			merged[k] = v
		}
		for k, v := range other.Headers {
			for existing := range merged {
				if strings.EqualFold(existing, k) {
					delete(merged, existing)
				}
			}
			merged[k] = v
		}
		result.Headers = merged
	}

	return &result
}

// SaveConfig saves the configuration to a YAML file
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
