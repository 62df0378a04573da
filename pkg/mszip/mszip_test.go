package mszip

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/glorpus-work/wingetmirror/pkg/errors"
)

func container(size uint64, chunks ...[]byte) []byte {
	out := make([]byte, HeaderSize)
	copy(out, Magic)
	binary.LittleEndian.PutUint64(out[sizeOffset:], size)
	for _, c := range chunks {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(c)+len(chunkMarker)))
		out = append(out, chunkMarker...)
		out = append(out, c...)
	}
	return out
}

// continuousChunks compresses parts as one DEFLATE stream split on sync flushes.
func continuousChunks(t *testing.T, parts ...[]byte) [][]byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	require.NoError(t, err)

	var chunks [][]byte
	for i, p := range parts {
		_, err := w.Write(p)
		require.NoError(t, err)
		if i == len(parts)-1 {
			require.NoError(t, w.Close())
		} else {
			require.NoError(t, w.Flush())
		}
		chunks = append(chunks, bytes.Clone(buf.Bytes()))
		buf.Reset()
	}
	return chunks
}

// dictChunks compresses each part as a complete stream primed with the previous output.
func dictChunks(t *testing.T, parts ...[]byte) [][]byte {
	t.Helper()
	var history []byte
	var chunks [][]byte
	for _, p := range parts {
		var buf bytes.Buffer
		w, err := flate.NewWriterDict(&buf, flate.BestCompression, tail(history, windowSize))
		require.NoError(t, err)
		_, err = w.Write(p)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		chunks = append(chunks, buf.Bytes())
		history = append(history, p...)
	}
	return chunks
}

func versionDataParts() [][]byte {
	const entry = "- v: 2.%d.0\n  rP: manifests/g/Git/Git/2.%d.0/abcdef.mszyml\n  s256H: 0123456789abcdef\n"
	var a, b strings.Builder
	a.WriteString("sV: 1.0\nvD:\n")
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&a, entry, i, i)
	}
	for i := 200; i < 400; i++ {
		fmt.Fprintf(&b, entry, i%250, i%250)
	}
	return [][]byte{[]byte(a.String()), []byte(b.String())}
}

func TestDecompress_CarriesWindowAcrossChunks(t *testing.T) {
	parts := versionDataParts()
	want := bytes.Join(parts, nil)

	tests := []struct {
		name   string
		chunks [][]byte
	}{
		{name: "single stream with sync flushes", chunks: continuousChunks(t, parts...)},
		{name: "per chunk streams primed with previous output", chunks: dictChunks(t, parts...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Len(t, tt.chunks, 2)
			got, err := Decompress(container(uint64(len(want)), tt.chunks...))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

// testdata/versionData.mszyml uses the cabinet MSZIP framing: 32 KiB blocks, each a
// complete raw DEFLATE stream primed with the previous block.
func TestDecompress_VersionDataFixture(t *testing.T) {
	compressed, err := os.ReadFile(filepath.Join("testdata", "versionData.mszyml"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join("testdata", "versionData.yaml"))
	require.NoError(t, err)

	hdr, err := ParseHeader(compressed)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(want)), hdr.UncompressedSize)

	got, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecompress_SizeMismatch(t *testing.T) {
	payload := []byte("vD:\n- v: 1.0.0\n  rP: manifests/a/b/1.0.0/x.mszyml\n  s256H: ff\n")
	chunks := continuousChunks(t, payload)

	t.Run("declared larger returns what was decoded", func(t *testing.T) {
		got, err := Decompress(container(uint64(len(payload)+100), chunks...))
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("declared smaller trims", func(t *testing.T) {
		got, err := Decompress(container(10, chunks...))
		require.NoError(t, err)
		assert.Equal(t, payload[:10], got)
	})

	t.Run("zero declared size", func(t *testing.T) {
		got, err := Decompress(container(0, chunks...))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestDecompress_FormatErrors(t *testing.T) {
	payload := []byte("hello hello hello")
	good := container(uint64(len(payload)), continuousChunks(t, payload)...)

	badMagic := bytes.Clone(good)
	badMagic[0] = 0xff

	badMarker := bytes.Clone(good)
	badMarker[HeaderSize+4] = 'X'

	truncated := good[:len(good)-3]

	garbage := container(100, []byte{0xff, 0xff, 0xff, 0xff})

	oversized := container(1<<63+5, continuousChunks(t, payload)...)

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "empty input", input: nil},
		{name: "short header", input: good[:HeaderSize-1]},
		{name: "bad magic", input: badMagic},
		{name: "bad chunk marker", input: badMarker},
		{name: "truncated chunk", input: truncated},
		{name: "corrupt deflate data", input: garbage},
		{name: "declared size beyond int64", input: oversized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decompress(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, pkgerrors.ErrFormat)
		})
	}
}

func TestParseHeader(t *testing.T) {
	hdr, err := ParseHeader(container(4096))
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), hdr.UncompressedSize)
}
