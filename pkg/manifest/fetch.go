package manifest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	"github.com/glorpus-work/wingetmirror/pkg/errors"
	pkghttp "github.com/glorpus-work/wingetmirror/pkg/http"
	"github.com/glorpus-work/wingetmirror/pkg/mszip"
)

// Fetched is a downloaded and verified manifest.
type Fetched struct {
	Path     string
	Document *Document
	// Text is the decoded YAML.
	Text []byte
	// SHA256 is the hash of the bytes as downloaded.
	SHA256 string
}

// Fetcher downloads manifests relative to the CDN root.
type Fetcher struct {
	client  *pkghttp.Client
	baseURL string
}

// NewFetcher creates a fetcher for manifests below baseURL.
func NewFetcher(client *pkghttp.Client, baseURL string) *Fetcher {
	return &Fetcher{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// URL returns the absolute location of a manifest.
func (f *Fetcher) URL(relativePath string) string {
	return f.baseURL + "/" + strings.TrimLeft(relativePath, "/")
}

// Fetch downloads the manifest at relativePath. When expectedHash is set the content
// hash is verified before anything is parsed. Compressed manifests are decoded.
func (f *Fetcher) Fetch(ctx context.Context, relativePath, expectedHash string) (*Fetched, error) {
	u := f.URL(relativePath)
	logger.Debug("Downloading manifest", logger.Fields{"url": u})

	data, err := f.client.Get(ctx, u)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	actual := hex.EncodeToString(sum[:])
	if expectedHash != "" && !strings.EqualFold(actual, expectedHash) {
		return nil, fmt.Errorf("manifest %s: expected %s, got %s: %w", relativePath, expectedHash, actual, errors.ErrHashMismatch)
	}

	text := data
	if bytes.HasPrefix(data, mszip.Magic) {
		if text, err = mszip.Decompress(data); err != nil {
			return nil, fmt.Errorf("decompress manifest %s: %w", relativePath, err)
		}
	}

	doc, err := Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w: %w", relativePath, errors.ErrFetch, err)
	}
	return &Fetched{Path: relativePath, Document: doc, Text: text, SHA256: actual}, nil
}
