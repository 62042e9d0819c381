// Package maptest builds small synthetic map files for tests.
package maptest

import (
	"github.com/samcharles93/h2tags/pkg/blam"
)

// DefaultBaseAddress is the memory address given to the first tag.
const DefaultBaseAddress = 0x00400000

// Tag is one tag placed in a built map.
type Tag struct {
	Label string
	ID    blam.TagID
	Name  string
	Data  []byte
	// Relocs lists positions in Data holding chunk-relative u32 offsets;
	// they are rewritten to the memory addresses they denote.
	Relocs []int
	// RawRelocs lists positions in Data holding offsets into Map.Raw;
	// they are rewritten to absolute file offsets.
	RawRelocs []int
}

// Map describes a synthetic map.
type Map struct {
	Name     string
	Scenario string
	Build    string
	// Types lists the tag type labels written to the index. Empty means
	// one entry per distinct tag label.
	Types []string
	Tags  []Tag
	// Placeholders appends that many empty index entries.
	Placeholders int
	// Raw is appended after the tag data.
	Raw         []byte
	BaseAddress uint32
}

// Layout reports where Build placed things.
type Layout struct {
	IndexOffset int
	TagOffsets  map[blam.TagID]int
	RawOffset   int
	Secondary   uint32
}

const (
	headerSize = 2048
	align      = 16
)

// Build writes m as a map file. The stored signature is left zero.
func Build(m Map) ([]byte, Layout) {
	base := m.BaseAddress
	if base == 0 {
		base = DefaultBaseAddress
	}
	types := m.Types
	if len(types) == 0 {
		seen := map[string]bool{}
		for _, t := range m.Tags {
			if !seen[t.Label] {
				seen[t.Label] = true
				types = append(types, t.Label)
			}
		}
	}

	// Names: the zero-terminated table, then its u32 offset index.
	var table []byte
	nameOffsets := make([]int, len(m.Tags))
	for i, t := range m.Tags {
		nameOffsets[i] = len(table)
		table = append(table, t.Name...)
		table = append(table, 0)
	}
	tableOffset := headerSize
	fileIndexOffset := roundUp(tableOffset + len(table))
	indexOffset := roundUp(fileIndexOffset + 4*len(m.Tags))

	objects := len(m.Tags) + m.Placeholders
	indexSize := 32 + 12*len(types) + 16*objects
	tagsStart := roundUp(indexOffset + indexSize)
	indexSize = tagsStart - indexOffset

	lay := Layout{IndexOffset: indexOffset, TagOffsets: make(map[blam.TagID]int, len(m.Tags))}
	at := tagsStart
	for _, t := range m.Tags {
		lay.TagOffsets[t.ID] = at
		at = roundUp(at + len(t.Data))
	}
	lay.RawOffset = at
	total := at + len(m.Raw)
	lay.Secondary = base - uint32(tagsStart)

	out := make([]byte, total)
	putLabel(out, 0, "head")
	blam.PutU32(out, 4, 8)
	blam.PutU32(out, 8, uint32(total))
	blam.PutU32(out, 16, uint32(indexOffset))
	blam.PutU32(out, 20, uint32(indexSize))
	blam.PutU32(out, 24, uint32(total-tagsStart))
	blam.PutString(out, 32, 32, "synthetic")
	blam.PutString(out, 288, 32, orDefault(m.Build, "11081.07.04.30.0934.main"))
	blam.PutString(out, 408, 32, orDefault(m.Name, "testmap"))
	blam.PutString(out, 444, 256, orDefault(m.Scenario, "scenarios\\test\\testmap"))
	blam.PutU32(out, 700, uint32(len(m.Tags)))
	blam.PutU32(out, 704, uint32(tableOffset))
	blam.PutU32(out, 708, uint32(len(table)))
	blam.PutU32(out, 712, uint32(fileIndexOffset))
	putLabel(out, 2044, "foot")

	copy(out[tableOffset:], table)
	for i, off := range nameOffsets {
		blam.PutU32(out, fileIndexOffset+4*i, uint32(off))
	}

	ih := indexOffset
	blam.PutU32(out, ih+4, uint32(len(types)))
	blam.PutU32(out, ih+12, uint32(blam.NoTag))
	blam.PutU32(out, ih+16, uint32(blam.NoTag))
	blam.PutU32(out, ih+24, uint32(objects))
	putLabel(out, ih+28, "tags")
	for _, t := range m.Tags {
		if t.Label == "scnr" {
			blam.PutU32(out, ih+12, uint32(t.ID))
		}
		if t.Label == "matg" {
			blam.PutU32(out, ih+16, uint32(t.ID))
		}
	}
	for i, l := range types {
		putLabel(out, ih+32+12*i, l)
	}
	objectsAt := ih + 32 + 12*len(types)
	for i, t := range m.Tags {
		rec := objectsAt + 16*i
		off := lay.TagOffsets[t.ID]
		addr := base + uint32(off-tagsStart)
		putLabel(out, rec, t.Label)
		blam.PutU32(out, rec+4, uint32(t.ID))
		blam.PutU32(out, rec+8, addr)
		blam.PutU32(out, rec+12, uint32(len(t.Data)))

		copy(out[off:], t.Data)
		for _, r := range t.Relocs {
			blam.PutU32(out, off+r, blam.U32(t.Data, r)+addr)
		}
		for _, r := range t.RawRelocs {
			blam.PutU32(out, off+r, blam.U32(t.Data, r)+uint32(lay.RawOffset))
		}
	}
	for i := range m.Placeholders {
		rec := objectsAt + 16*(len(m.Tags)+i)
		putLabel(out, rec, "zzzz")
		blam.PutU32(out, rec+4, uint32(0xFFFF0000+i))
	}
	copy(out[lay.RawOffset:], m.Raw)
	return out, lay
}

// putLabel writes a four character code byte-reversed, the way map files
// store them.
func putLabel(b []byte, off int, s string) {
	l := blam.MakeLabel(s)
	for i := range 4 {
		b[off+i] = l[3-i]
	}
}

func roundUp(n int) int {
	return (n + align - 1) / align * align
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
