package catalog

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/mholt/archives"
	"github.com/stretchr/testify/require"
)

// writeSnapshot creates a catalog database with the V2 tables the reader queries.
func writeSnapshot(t *testing.T, path string, withPublishers bool) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE packages (rowid INTEGER PRIMARY KEY, id TEXT, name TEXT, latest_version TEXT, hash BLOB)`,
		`INSERT INTO packages (rowid, id, name, latest_version, hash) VALUES
			(1, 'Git.Git', 'Git', '2.45.1', X'a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90'),
			(2, 'Mozilla.Firefox', 'Mozilla Firefox', '128.0', X'00112233'),
			(3, 'GitHub.cli', 'GitHub CLI', '2.50.0', X'ffeeddcc')`,
	}
	if withPublishers {
		stmts = append(stmts,
			`CREATE TABLE norm_publishers2 (norm_publisher TEXT, package INTEGER)`,
			`INSERT INTO norm_publishers2 (norm_publisher, package) VALUES ('the git development community', 1)`,
		)
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
}

// mszipContainer compresses payload into a single chunk container.
func mszipContainer(t *testing.T, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	out := make([]byte, 24)
	copy(out, []byte{0x0a, 0x51, 0xe5, 0xc0, 0x18, 0x00})
	binary.LittleEndian.PutUint64(out[8:], uint64(len(payload)))
	out = binary.LittleEndian.AppendUint32(out, uint32(buf.Len()+2))
	out = append(out, 'C', 'K')
	return append(out, buf.Bytes()...)
}

// msixWith builds a zip holding the given members and returns its bytes.
func msixWith(t *testing.T, files map[string]string) []byte {
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

	var out bytes.Buffer
	require.NoError(t, archives.Zip{}.Archive(ctx, &out, members))
	return out.Bytes()
}
