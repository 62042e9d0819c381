package h2map

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/samcharles93/h2tags/pkg/blam"
)

// Chunked-zlib maps keep an uncompressed header region followed by a table
// of {compressed size, offset} pairs terminated by a zero size.
const (
	compressedHeaderSize = 0x1000
	chunkTableOffset     = 0x1000
	chunkEntrySize       = 8
)

// IsCompressed reports whether data looks like a chunked-zlib map: a valid
// header that declares more bytes than the file holds.
func IsCompressed(data []byte) bool {
	if len(data) < compressedHeaderSize+chunkEntrySize {
		return false
	}
	h, err := ReadHeader(data)
	if err != nil {
		return false
	}
	return int(h.TotalBytes) > len(data) && blam.I32(data, chunkTableOffset) > 0
}

// Decompress inflates a chunked-zlib map. The header region is copied
// verbatim and every chunk is inflated and appended in table order.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < compressedHeaderSize {
		return nil, fmt.Errorf("%w: compressed map shorter than its header", ErrCorruptMap)
	}
	out := bytes.NewBuffer(make([]byte, 0, len(data)*2))
	out.Write(data[:compressedHeaderSize])

	for i := 0; ; i++ {
		at := chunkTableOffset + i*chunkEntrySize
		if at+chunkEntrySize > len(data) {
			return nil, fmt.Errorf("%w: chunk table has no terminator", ErrCorruptMap)
		}
		size := int(blam.I32(data, at))
		off := int(blam.I32(data, at+4))
		if size == 0 {
			break
		}
		if size < 0 || off < 0 || off > len(data)-size {
			return nil, fmt.Errorf("%w: chunk %d [%d,+%d) outside file of %d bytes", ErrCorruptMap, i, off, size, len(data))
		}
		if err := inflate(out, data[off:off+size]); err != nil {
			return nil, fmt.Errorf("inflate chunk %d: %w", i, err)
		}
	}
	return out.Bytes(), nil
}

func inflate(dst io.Writer, chunk []byte) error {
	zr, err := zlib.NewReader(bytes.NewReader(chunk))
	if err != nil {
		return err
	}
	defer func() { _ = zr.Close() }()
	_, err = io.Copy(dst, zr)
	return err
}
