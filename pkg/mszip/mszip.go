// Package mszip decodes the chunked raw-DEFLATE container used by the WinGet CDN
// for versionData.mszyml documents.
//
// Layout: a 24 byte header (6 byte magic, uncompressed size as little-endian uint64 at
// offset 8) followed by chunks of [uint32 length][ "CK" ][length-2 bytes of DEFLATE].
// The DEFLATE window is carried across chunk boundaries.
package mszip

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/flate"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	pkgerrors "github.com/glorpus-work/wingetmirror/pkg/errors"
)

const (
	// HeaderSize is the fixed size of the container header.
	HeaderSize = 24

	sizeOffset = 8
	windowSize = 32 * 1024
)

// Magic is the signature at the start of every container.
var Magic = []byte{0x0a, 0x51, 0xe5, 0xc0, 0x18, 0x00}

var chunkMarker = []byte("CK")

// Header is the decoded container header.
type Header struct {
	UncompressedSize uint64
}

// ParseHeader validates the magic and returns the declared size.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("container is %d bytes, header needs %d: %w", len(data), HeaderSize, pkgerrors.ErrFormat)
	}
	if !bytes.Equal(data[:len(Magic)], Magic) {
		return Header{}, fmt.Errorf("bad magic %x: %w", data[:len(Magic)], pkgerrors.ErrFormat)
	}
	size := binary.LittleEndian.Uint64(data[sizeOffset : sizeOffset+8])
	if size > math.MaxInt64 {
		return Header{}, fmt.Errorf("declared size %d out of range: %w", size, pkgerrors.ErrFormat)
	}
	return Header{UncompressedSize: size}, nil
}

// Decompress decodes a complete container.
//
// Output longer than the declared size is trimmed. Shorter output is returned as is
// and only logged, the upstream framing is occasionally imprecise.
func Decompress(data []byte) ([]byte, error) {
	hdr, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	want := int64(hdr.UncompressedSize)
	cr := &chunkReader{data: data[HeaderSize:]}
	out := &bytes.Buffer{}
	fr := flate.NewReader(cr)
	defer func() { _ = fr.Close() }()

	for int64(out.Len()) < want {
		_, err := io.CopyN(out, fr, want-int64(out.Len()))
		if err == nil {
			break
		}
		if errors.Is(err, pkgerrors.ErrFormat) {
			return nil, err
		}
		if err == io.EOF {
			// End of a final block. Later chunks continue from the same window.
			if !cr.skipToNextChunk() {
				break
			}
			if rerr := fr.(flate.Resetter).Reset(cr, tail(out.Bytes(), windowSize)); rerr != nil {
				return nil, fmt.Errorf("reset inflater: %w", rerr)
			}
			continue
		}
		if errors.Is(err, io.ErrUnexpectedEOF) && cr.exhausted() {
			// Stream ended on a sync flush without a final block.
			break
		}
		return nil, fmt.Errorf("inflate chunk %d: %v: %w", cr.chunks, err, pkgerrors.ErrFormat)
	}

	result := out.Bytes()
	if int64(len(result)) > want {
		result = result[:want]
	}
	if int64(len(result)) != want {
		logger.Warn("Decompressed size mismatch", logger.Fields{
			"expected": want,
			"actual":   len(result),
			"chunks":   cr.chunks,
		})
	}
	return result, nil
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}

// chunkReader exposes the DEFLATE payloads of consecutive chunks as one stream.
// It implements io.ByteReader so the inflater never reads past the end of a block.
type chunkReader struct {
	data   []byte
	off    int
	cur    []byte
	chunks int
	err    error
}

func (c *chunkReader) exhausted() bool {
	return len(c.cur) == 0 && c.off >= len(c.data)
}

// nextChunk loads the next chunk payload. It returns io.EOF when no input is left.
func (c *chunkReader) nextChunk() error {
	if c.err != nil {
		return c.err
	}
	for len(c.cur) == 0 {
		if c.off+4 > len(c.data) {
			c.off = len(c.data)
			return io.EOF
		}
		size := int(binary.LittleEndian.Uint32(c.data[c.off:]))
		c.off += 4
		if c.off+len(chunkMarker) > len(c.data) {
			c.err = fmt.Errorf("truncated chunk signature at offset %d: %w", c.off+HeaderSize, pkgerrors.ErrFormat)
			return c.err
		}
		if !bytes.Equal(c.data[c.off:c.off+len(chunkMarker)], chunkMarker) {
			c.err = fmt.Errorf("bad chunk signature %q at offset %d: %w",
				c.data[c.off:c.off+len(chunkMarker)], c.off+HeaderSize, pkgerrors.ErrFormat)
			return c.err
		}
		c.off += len(chunkMarker)
		n := size - len(chunkMarker)
		if n < 0 || c.off+n > len(c.data) {
			c.err = fmt.Errorf("truncated chunk %d (%d bytes declared): %w", c.chunks, size, pkgerrors.ErrFormat)
			return c.err
		}
		c.cur = c.data[c.off : c.off+n]
		c.off += n
		c.chunks++
	}
	return nil
}

// skipToNextChunk drops what is left of the current chunk and reports whether
// another chunk follows.
func (c *chunkReader) skipToNextChunk() bool {
	c.cur = nil
	return c.off+4 <= len(c.data)
}

func (c *chunkReader) ReadByte() (byte, error) {
	if len(c.cur) == 0 {
		if err := c.nextChunk(); err != nil {
			return 0, err
		}
	}
	b := c.cur[0]
	c.cur = c.cur[1:]
	return b, nil
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.cur) == 0 {
		if err := c.nextChunk(); err != nil {
			return 0, err
		}
	}
	n := copy(p, c.cur)
	c.cur = c.cur[n:]
	return n, nil
}
