package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/glorpus-work/wingetmirror/pkg/errors"
	pkghttp "github.com/glorpus-work/wingetmirror/pkg/http"
)

func hexSum(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestManager_Download(t *testing.T) {
	const content = "MZ fake installer bytes"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/setup.exe":
			_, _ = w.Write([]byte(content))
		case "/releases/latest":
			http.Redirect(w, r, "/setup.exe", http.StatusFound)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	m := NewManager(pkghttp.NewClient(5 * time.Second))

	tests := []struct {
		name     string
		path     string
		expected string
		wantErr  error
		wantFile bool
		wantHash string
	}{
		{
			name:     "no expected hash",
			path:     "/setup.exe",
			wantFile: true,
			wantHash: hexSum(content),
		},
		{
			name:     "expected hash compared ignoring case",
			path:     "/setup.exe",
			expected: strings.ToUpper(hexSum(content)),
			wantFile: true,
			wantHash: hexSum(content),
		},
		{
			name:     "follows redirects",
			path:     "/releases/latest",
			expected: hexSum(content),
			wantFile: true,
			wantHash: hexSum(content),
		},
		{
			name:     "hash mismatch removes the file",
			path:     "/setup.exe",
			expected: hexSum("something else"),
			wantErr:  pkgerrors.ErrHashMismatch,
		},
		{
			name:    "not found",
			path:    "/missing.exe",
			wantErr: pkgerrors.ErrFetch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			target := filepath.Join(dir, "nested", "setup.exe")

			got, err := m.Download(context.Background(), server.URL+tt.path, target, tt.expected)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.NoFileExists(t, target)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantHash, got)
			}

			if tt.wantFile {
				data, err := os.ReadFile(target)
				require.NoError(t, err)
				assert.Equal(t, content, string(data))
			}

			entries, err := os.ReadDir(filepath.Dir(target))
			require.NoError(t, err)
			for _, e := range entries {
				assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
			}
		})
	}
}

func TestManager_DownloadCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := filepath.Join(t.TempDir(), "a.exe")
	_, err := NewManager(pkghttp.NewClient(time.Second)).Download(ctx, server.URL, target, "")
	require.Error(t, err)
	assert.NoFileExists(t, target)
}
