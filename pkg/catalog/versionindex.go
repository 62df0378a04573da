package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	"github.com/glorpus-work/wingetmirror/pkg/errors"
	pkghttp "github.com/glorpus-work/wingetmirror/pkg/http"
	"github.com/glorpus-work/wingetmirror/pkg/mszip"
)

// DefaultCDNBaseURL is the upstream cache root.
const DefaultCDNBaseURL = "https://cdn.winget.microsoft.com/cache"

// VersionIndexEntry is one version listed in a package's version index.
type VersionIndexEntry struct {
	Version      string
	ManifestPath string
	ManifestHash string
}

type versionData struct {
	Entries []struct {
		Version      yaml.Node `yaml:"v"`
		RelativePath string    `yaml:"rP"`
		SHA256       string    `yaml:"s256H"`
	} `yaml:"vD"`
}

// CDN fetches documents from the upstream cache.
type CDN struct {
	client  *pkghttp.Client
	baseURL string
}

// NewCDN creates a CDN client rooted at baseURL.
func NewCDN(client *pkghttp.Client, baseURL string) *CDN {
	if baseURL == "" {
		baseURL = DefaultCDNBaseURL
	}
	return &CDN{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// BaseURL returns the cache root without a trailing slash.
func (c *CDN) BaseURL() string { return c.baseURL }

// VersionIndexURL returns the location of a package's compressed version index.
func (c *CDN) VersionIndexURL(id, hashPrefix string) string {
	return fmt.Sprintf("%s/packages/%s/%s/versionData.mszyml", c.baseURL, url.PathEscape(id), hashPrefix)
}

// FetchVersionIndex downloads, decompresses and parses a package's version index.
// Any failure wraps errors.ErrFetch and no partial list is returned.
func (c *CDN) FetchVersionIndex(ctx context.Context, id, hashPrefix string) ([]VersionIndexEntry, error) {
	u := c.VersionIndexURL(id, hashPrefix)
	logger.Debug("Downloading version index", logger.Fields{"package": id, "url": u})

	compressed, err := c.client.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	raw, err := mszip.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress version index for %s: %w: %w", id, errors.ErrFetch, err)
	}
	entries, err := ParseVersionIndex(raw)
	if err != nil {
		return nil, fmt.Errorf("parse version index for %s: %w: %w", id, errors.ErrFetch, err)
	}

	logger.Debug("Parsed version index", logger.Fields{
		"package":    id,
		"compressed": len(compressed),
		"size":       len(raw),
		"versions":   len(entries),
	})
	return entries, nil
}

// ParseVersionIndex decodes a decompressed version index document. Version scalars of
// any YAML type are kept as written; entries without a version are dropped.
func ParseVersionIndex(data []byte) ([]VersionIndexEntry, error) {
	var doc versionData
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	entries := make([]VersionIndexEntry, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		v := e.Version.Value
		if e.Version.Kind != yaml.ScalarNode || e.Version.Tag == "!!null" {
			v = ""
		}
		if v == "" {
			continue
		}
		entries = append(entries, VersionIndexEntry{
			Version:      v,
			ManifestPath: e.RelativePath,
			ManifestHash: e.SHA256,
		})
	}
	return entries, nil
}
