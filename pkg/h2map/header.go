// Package h2map reads Halo 2 map containers.
//
// A map file starts with a fixed 2048-byte header, followed somewhere by
// the tag index and the tag data it addresses. This package parses the
// header and index into a blam.Index and hands the raw bytes to the blam
// loader; it never interprets tag contents itself.
package h2map

import (
	"fmt"

	"github.com/samcharles93/h2tags/pkg/blam"
)

// Format constants must never change.
const (
	HeaderSize = 2048

	// SignatureStart is the first byte covered by the map signature.
	SignatureStart = 2048

	// Header magics, as they read once un-reversed.
	MagicHead  = "head"
	MagicFoot  = "foot"
	MagicIndex = "tags"

	signatureOffset = 720
)

// Header is the fixed map header.
type Header struct {
	Head            string
	Version         int32
	TotalBytes      int32
	IndexOffset     int32
	IndexSize       int32
	MetaSize        int32
	Origin          string
	Build           string
	Name            string
	ScenarioPath    string
	FileCount       int32
	FileTableOffset int32
	FileTableSize   int32
	FileIndexOffset int32
	StoredSignature uint32
	Foot            string
}

var HeaderLayout = blam.DefineShape("MapHeader", HeaderSize, func(b *blam.Builder[Header]) {
	blam.Text(b, 0, 4, "Head", func(h *Header) *string { return &h.Head })
	blam.Value(b, 4, "Version", blam.Int32, func(h *Header) *int32 { return &h.Version })
	blam.Value(b, 8, "TotalBytes", blam.Int32, func(h *Header) *int32 { return &h.TotalBytes })
	blam.Value(b, 16, "IndexOffset", blam.Int32, func(h *Header) *int32 { return &h.IndexOffset })
	blam.Value(b, 20, "IndexSize", blam.Int32, func(h *Header) *int32 { return &h.IndexSize })
	blam.Value(b, 24, "MetaSize", blam.Int32, func(h *Header) *int32 { return &h.MetaSize })
	blam.Text(b, 32, 32, "Origin", func(h *Header) *string { return &h.Origin })
	blam.Text(b, 288, 32, "Build", func(h *Header) *string { return &h.Build })
	blam.Text(b, 408, 32, "Name", func(h *Header) *string { return &h.Name })
	blam.Text(b, 444, 256, "ScenarioPath", func(h *Header) *string { return &h.ScenarioPath })
	blam.Value(b, 700, "FileCount", blam.Int32, func(h *Header) *int32 { return &h.FileCount })
	blam.Value(b, 704, "FileTableOffset", blam.Int32, func(h *Header) *int32 { return &h.FileTableOffset })
	blam.Value(b, 708, "FileTableSize", blam.Int32, func(h *Header) *int32 { return &h.FileTableSize })
	blam.Value(b, 712, "FileIndexOffset", blam.Int32, func(h *Header) *int32 { return &h.FileIndexOffset })
	blam.Value(b, signatureOffset, "StoredSignature", blam.Uint32, func(h *Header) *uint32 { return &h.StoredSignature })
	blam.Text(b, 2044, 4, "Foot", func(h *Header) *string { return &h.Foot })
})

// ReadHeader decodes and validates the header at the start of data.
func ReadHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is smaller than the header", ErrCorruptMap, len(data))
	}
	h, err := HeaderLayout.Materialize(data[:HeaderSize], blam.Source{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMap, err)
	}
	h.Head = unreverse(h.Head)
	h.Foot = unreverse(h.Foot)
	if h.Head != MagicHead {
		return nil, fmt.Errorf("%w: header starts with %q", ErrInvalidMagic, h.Head)
	}
	if h.Foot != MagicFoot {
		return nil, fmt.Errorf("%w: header ends with %q", ErrInvalidMagic, h.Foot)
	}
	return h, nil
}

// validate checks that the regions the header addresses fit in a file of
// size bytes.
func (h *Header) validate(size int) error {
	if !fits(h.IndexOffset, int64(h.IndexSize), size) || h.IndexOffset < HeaderSize {
		return fmt.Errorf("%w: index [%d,+%d) outside file of %d bytes", ErrCorruptMap, h.IndexOffset, h.IndexSize, size)
	}
	if h.FileCount < 0 {
		return fmt.Errorf("%w: negative file count %d", ErrCorruptMap, h.FileCount)
	}
	if h.FileCount > 0 {
		if !fits(h.FileTableOffset, int64(h.FileTableSize), size) {
			return fmt.Errorf("%w: file table [%d,+%d) outside file", ErrCorruptMap, h.FileTableOffset, h.FileTableSize)
		}
		if !fits(h.FileIndexOffset, int64(h.FileCount)*4, size) {
			return fmt.Errorf("%w: file index of %d entries at %d outside file", ErrCorruptMap, h.FileCount, h.FileIndexOffset)
		}
	}
	return nil
}

func fits(off int32, length int64, size int) bool {
	return off >= 0 && length >= 0 && int64(off)+length <= int64(size)
}

// unreverse turns a label stored byte-reversed on disk into its readable
// form. Four-character codes are written as little-endian integers.
func unreverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
