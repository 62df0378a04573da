// Package config loads and validates the mirror configuration. The configuration is a
// YAML file; missing values fall back to defaults.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/wingetmirror/pkg/auth"
	"github.com/glorpus-work/wingetmirror/pkg/catalog"
	"github.com/glorpus-work/wingetmirror/pkg/errors"
	"github.com/glorpus-work/wingetmirror/pkg/fsutil"
	"github.com/glorpus-work/wingetmirror/pkg/version"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Storage  StorageConfig  `yaml:"storage"`
	Source   SourceConfig   `yaml:"source"`
	Sync     SyncConfig     `yaml:"sync"`
	Settings Settings       `yaml:"settings"`
}

// ServerConfig configures the protocol server.
type ServerConfig struct {
	Listen string `yaml:"listen"`
	// PublicURL is the base of installer URLs handed to clients.
	PublicURL       string        `yaml:"public_url"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// UpstreamConfig configures access to the upstream CDN.
type UpstreamConfig struct {
	CDNBaseURL       string        `yaml:"cdn_base_url"`
	CatalogSources   []string      `yaml:"catalog_sources"`
	HTTPTimeout      time.Duration `yaml:"http_timeout"`
	DownloadTimeout  time.Duration `yaml:"download_timeout"`
	UserAgent        string        `yaml:"user_agent"`
	DownloadAttempts int           `yaml:"download_attempts"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
	// Auth is sent to the CDN host only, never to installer hosts.
	Auth auth.Config `yaml:"auth,omitempty"`
}

// StorageConfig locates the repository and catalog data.
type StorageConfig struct {
	DataDir    string `yaml:"data_dir,omitempty"`
	CatalogDir string `yaml:"catalog_dir,omitempty"`
}

// Agreement is one agreement shown to clients adding the source.
type Agreement struct {
	Label string `yaml:"label"`
	Text  string `yaml:"text"`
	URL   string `yaml:"url,omitempty"`
}

// AgreementsConfig groups the source agreements.
type AgreementsConfig struct {
	Identifier string      `yaml:"identifier"`
	Agreements []Agreement `yaml:"agreements"`
}

// SourceConfig is reported by the information endpoint.
type SourceConfig struct {
	Identifier                    string            `yaml:"identifier"`
	Agreements                    *AgreementsConfig `yaml:"agreements,omitempty"`
	ServerSupportedVersions       []string          `yaml:"server_supported_versions"`
	UnsupportedPackageMatchFields []string          `yaml:"unsupported_package_match_fields"`
	RequiredPackageMatchFields    []string          `yaml:"required_package_match_fields"`
	UnsupportedQueryParameters    []string          `yaml:"unsupported_query_parameters"`
	RequiredQueryParameters       []string          `yaml:"required_query_parameters"`
	AuthenticationType            string            `yaml:"authentication_type"`
}

// SyncConfig controls background updates and import hooks.
type SyncConfig struct {
	AutoUpdate      bool   `yaml:"auto_update"`
	DailyTime       string `yaml:"daily_time"`
	PreImportHook   string `yaml:"pre_import_hook,omitempty"`
	PostImportHook  string `yaml:"post_import_hook,omitempty"`
	WatchRepository bool   `yaml:"watch_repository"`
}

// Settings represents general application settings.
type Settings struct {
	LogLevel     string `yaml:"log_level"`     // debug, info, warn, error
	LogFormat    string `yaml:"log_format"`    // text, json
	OutputFormat string `yaml:"output_format"` // text, json
}

// Default configuration values.
const (
	DefaultListen           = ":8080"
	DefaultPublicURL        = "http://localhost:8080"
	DefaultHTTPTimeout      = 60 * time.Second
	DefaultDownloadTimeout  = 30 * time.Minute
	DefaultReadTimeout      = 30 * time.Second
	DefaultWriteTimeout     = 30 * time.Minute
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultDownloadAttempts = 3
	DefaultRetryBackoff     = time.Second
	DefaultDailyTime        = "06:00"
	DefaultSourceIdentifier = "wingetmirror"
	DefaultUserAgent        = "wingetmirror/1.0"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dataDir, err := fsutil.GetDataDir()
	if err != nil {
		dataDir = filepath.Join(os.TempDir(), fsutil.AppName)
	}

	return &Config{
		Server: ServerConfig{
			Listen:          DefaultListen,
			PublicURL:       DefaultPublicURL,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Upstream: UpstreamConfig{
			CDNBaseURL:       catalog.DefaultCDNBaseURL,
			CatalogSources:   append([]string(nil), catalog.DefaultSources...),
			HTTPTimeout:      DefaultHTTPTimeout,
			DownloadTimeout:  DefaultDownloadTimeout,
			UserAgent:        DefaultUserAgent,
			DownloadAttempts: DefaultDownloadAttempts,
			RetryBackoff:     DefaultRetryBackoff,
		},
		Storage: StorageConfig{
			DataDir:    filepath.Join(dataDir, "packages"),
			CatalogDir: filepath.Join(dataDir, "catalog"),
		},
		Source: SourceConfig{
			Identifier:                    DefaultSourceIdentifier,
			ServerSupportedVersions:       []string{"1.0.0", "1.1.0", "1.4.0", "1.5.0", "1.6.0", "1.7.0", "1.9.0", "1.10.0", "1.12.0"},
			UnsupportedPackageMatchFields: []string{"NormalizedPackageNameAndPublisher"},
			RequiredPackageMatchFields:    []string{},
			UnsupportedQueryParameters:    []string{"Market"},
			RequiredQueryParameters:       []string{},
			AuthenticationType:            "none",
		},
		Sync: SyncConfig{
			AutoUpdate:      true,
			DailyTime:       DefaultDailyTime,
			WatchRepository: true,
		},
		Settings: Settings{
			LogLevel:     "info",
			LogFormat:    "text",
			OutputFormat: "text",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	// Start from the defaults so that booleans left out of the file keep their default.
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig writes the configuration atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeSecure)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	for _, check := range []func() error{c.validateServer, c.validateUpstream, c.validateSync, c.validateSettings} {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", errors.ErrConfigValidation, err)
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	if err := validateURL("server.public_url", c.Server.PublicURL); err != nil {
		return err
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	return nil
}

func (c *Config) validateUpstream() error {
	if err := validateURL("upstream.cdn_base_url", c.Upstream.CDNBaseURL); err != nil {
		return err
	}
	if c.Upstream.HTTPTimeout < 0 || c.Upstream.DownloadTimeout < 0 {
		return fmt.Errorf("upstream timeouts must not be negative")
	}
	if c.Upstream.DownloadAttempts < 1 {
		return fmt.Errorf("upstream.download_attempts must be at least 1, got %d", c.Upstream.DownloadAttempts)
	}
	if c.Upstream.RetryBackoff < 0 {
		return fmt.Errorf("upstream.retry_backoff must not be negative")
	}
	if _, err := auth.New(c.Upstream.Auth); err != nil {
		return fmt.Errorf("upstream.auth: %w", err)
	}
	return nil
}

func (c *Config) validateSync() error {
	if _, err := time.Parse("15:04", c.Sync.DailyTime); err != nil {
		return fmt.Errorf("sync.daily_time %q is not HH:MM", c.Sync.DailyTime)
	}
	return nil
}

func (c *Config) validateSettings() error {
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Settings.OutputFormat)] {
		return fmt.Errorf("invalid output format %q, expected text or json", c.Settings.OutputFormat)
	}
	if !validFormats[strings.ToLower(c.Settings.LogFormat)] {
		return fmt.Errorf("invalid log format %q, expected text or json", c.Settings.LogFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Settings.LogLevel)] {
		return fmt.Errorf("invalid log level %q, expected debug, info, warn or error", c.Settings.LogLevel)
	}
	return nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s %q is not an http(s) URL", key, raw)
	}
	return nil
}

// ValidateCacheSettings checks the version filters of a package import.
func ValidateCacheSettings(glob, constraint string) error {
	if err := version.ValidGlob(glob); err != nil {
		return err
	}
	return version.ValidConstraint(constraint)
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, fsutil.AppName, "config.yaml"), nil
}

// HookScripts returns the configured hook script paths keyed by hook name.
func (c *Config) HookScripts() map[string]string {
	scripts := make(map[string]string)
	if c.Sync.PreImportHook != "" {
		scripts["pre-import"] = c.Sync.PreImportHook
	}
	if c.Sync.PostImportHook != "" {
		scripts["post-import"] = c.Sync.PostImportHook
	}
	return scripts
}

// applyDefaults fills in values cleared by the file.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Server.Listen == "" {
		c.Server.Listen = defaults.Server.Listen
	}
	if c.Server.PublicURL == "" {
		c.Server.PublicURL = defaults.Server.PublicURL
	}
	c.Server.PublicURL = strings.TrimRight(c.Server.PublicURL, "/")
	if c.Upstream.CDNBaseURL == "" {
		c.Upstream.CDNBaseURL = defaults.Upstream.CDNBaseURL
	}
	if len(c.Upstream.CatalogSources) == 0 {
		c.Upstream.CatalogSources = defaults.Upstream.CatalogSources
	}
	if c.Upstream.HTTPTimeout == 0 {
		c.Upstream.HTTPTimeout = defaults.Upstream.HTTPTimeout
	}
	if c.Upstream.DownloadTimeout == 0 {
		c.Upstream.DownloadTimeout = defaults.Upstream.DownloadTimeout
	}
	if c.Upstream.UserAgent == "" {
		c.Upstream.UserAgent = defaults.Upstream.UserAgent
	}
	if c.Upstream.DownloadAttempts == 0 {
		c.Upstream.DownloadAttempts = defaults.Upstream.DownloadAttempts
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = defaults.Storage.DataDir
	}
	if c.Storage.CatalogDir == "" {
		c.Storage.CatalogDir = defaults.Storage.CatalogDir
	}
	if c.Source.Identifier == "" {
		c.Source.Identifier = defaults.Source.Identifier
	}
	if c.Source.AuthenticationType == "" {
		c.Source.AuthenticationType = defaults.Source.AuthenticationType
	}
	if c.Sync.DailyTime == "" {
		c.Sync.DailyTime = defaults.Sync.DailyTime
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = defaults.Settings.LogFormat
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
}
