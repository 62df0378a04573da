package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mholt/archives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeZip builds a zip with the given members at path. The .msix name is deliberate,
// the format is detected from the stream.
func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	src := t.TempDir()
	for name, content := range files {
		full := filepath.Join(src, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	ctx := context.Background()
	members, err := archives.FilesFromDisk(ctx, nil, map[string]string{src + string(os.PathSeparator): ""})
	require.NoError(t, err)

	out, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = out.Close() }()
	require.NoError(t, archives.Zip{}.Archive(ctx, out, members))
}

func TestManager_ExtractFile(t *testing.T) {
	dir := t.TempDir()
	pkg := filepath.Join(dir, "source2.msix")
	writeZip(t, pkg, map[string]string{
		"Public/index.db":       "sqlite bytes",
		"AppxManifest.xml":      "<Package/>",
		"Assets/Logo.scale.png": "png",
	})

	am := NewManager()
	dest := filepath.Join(dir, "catalog", "index.db")

	t.Run("extracts member", func(t *testing.T) {
		require.NoError(t, am.ExtractFile(context.Background(), pkg, "Public/index.db", dest))
		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "sqlite bytes", string(data))
	})

	t.Run("missing member keeps existing file", func(t *testing.T) {
		err := am.ExtractFile(context.Background(), pkg, "Public/missing.db", dest)
		require.Error(t, err)
		data, readErr := os.ReadFile(dest)
		require.NoError(t, readErr)
		assert.Equal(t, "sqlite bytes", string(data))
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Dir(dest))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "index.db", entries[0].Name())
	})
}

func TestManager_Contains(t *testing.T) {
	dir := t.TempDir()
	pkg := filepath.Join(dir, "source.msix")
	writeZip(t, pkg, map[string]string{"Public/index.db": "x"})

	am := NewManager()
	ok, err := am.Contains(context.Background(), pkg, "Public/index.db")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = am.Contains(context.Background(), pkg, "Public/other.db")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = am.Contains(context.Background(), filepath.Join(dir, "absent.msix"), "Public/index.db")
	assert.Error(t, err)
}
