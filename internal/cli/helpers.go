package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	"github.com/glorpus-work/wingetmirror/pkg/auth"
	"github.com/glorpus-work/wingetmirror/pkg/catalog"
	"github.com/glorpus-work/wingetmirror/pkg/config"
	"github.com/glorpus-work/wingetmirror/pkg/download"
	"github.com/glorpus-work/wingetmirror/pkg/hooks"
	pkghttp "github.com/glorpus-work/wingetmirror/pkg/http"
	"github.com/glorpus-work/wingetmirror/pkg/manifest"
	"github.com/glorpus-work/wingetmirror/pkg/repository"
	pkgsync "github.com/glorpus-work/wingetmirror/pkg/sync"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	Verbose      *bool
	OutputFormat *string
)

// loadConfig loads the configuration, applies the global flags and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}

	logger.InitLogger(cfg.Settings.LogLevel, logger.ParseFormat(cfg.Settings.LogFormat))
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		// An empty path produces a descriptive error once the config is read.
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// downloadDir holds partial installer downloads. The store skips dot directories.
const downloadDir = ".downloads"

// app bundles the components built from the configuration.
type app struct {
	cfg          *config.Config
	store        *repository.Store
	refresher    *catalog.Refresher
	catalog      *catalog.Reader
	orchestrator *pkgsync.Orchestrator
	updater      *pkgsync.Updater
}

func newApp(cfg *config.Config) (*app, error) {
	store, err := repository.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	executor := hooks.NewTengoExecutor()
	scripts := make(map[hooks.HookType]string)
	for name, path := range cfg.HookScripts() {
		scripts[hooks.HookType(name)] = path
	}
	if err := hooks.LoadScripts(executor, scripts); err != nil {
		return nil, err
	}

	cdnTransport, err := upstreamTransport(cfg)
	if err != nil {
		return nil, err
	}

	ua := pkghttp.WithUserAgent(cfg.Upstream.UserAgent)
	cdnClient := pkghttp.NewClient(cfg.Upstream.HTTPTimeout, ua, pkghttp.WithTransport(cdnTransport))
	downloadClient := pkghttp.NewClient(cfg.Upstream.DownloadTimeout, ua)

	refresher := catalog.NewRefresher(cfg.Storage.CatalogDir,
		catalog.WithTransport(cdnTransport),
		catalog.WithBaseURL(cfg.Upstream.CDNBaseURL),
		catalog.WithSources(cfg.Upstream.CatalogSources...),
		catalog.WithRetry(cfg.Upstream.DownloadAttempts, cfg.Upstream.RetryBackoff),
		catalog.WithTimeout(cfg.Upstream.DownloadTimeout),
	)
	reader := catalog.NewReader(catalog.IndexPath(cfg.Storage.CatalogDir))

	orch := &pkgsync.Orchestrator{
		Catalog:    reader,
		Index:      catalog.NewCDN(cdnClient, cfg.Upstream.CDNBaseURL),
		Manifests:  manifest.NewFetcher(cdnClient, cfg.Upstream.CDNBaseURL),
		Downloader: download.NewManager(downloadClient),
		Repo:       store,
		Hooks:      executor,
		TempDir:    filepath.Join(cfg.Storage.DataDir, downloadDir),
		Attempts:   cfg.Upstream.DownloadAttempts,
		Backoff:    cfg.Upstream.RetryBackoff,
	}

	return &app{
		cfg:          cfg,
		store:        store,
		refresher:    refresher,
		catalog:      reader,
		orchestrator: orch,
		updater: &pkgsync.Updater{
			Refresher: refresher,
			Catalog:   reader,
			Repo:      store,
			Importer:  orch,
			DailyTime: cfg.Sync.DailyTime,
		},
	}, nil
}

// upstreamTransport returns a transport authenticating CDN requests, or nil when no
// upstream auth is configured.
func upstreamTransport(cfg *config.Config) (http.RoundTripper, error) {
	authenticator, err := auth.New(cfg.Upstream.Auth)
	if err != nil || authenticator == nil {
		return nil, err
	}
	u, err := url.Parse(cfg.Upstream.CDNBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid cdn url: %w", err)
	}
	return &auth.Transport{Auth: authenticator, Host: u.Host, Base: http.DefaultTransport}, nil
}

func loadApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cfg)
}

func isJSON(cfg *config.Config) bool {
	return strings.EqualFold(cfg.Settings.OutputFormat, "json")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
