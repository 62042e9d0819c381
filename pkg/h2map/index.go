package h2map

import (
	"fmt"

	"github.com/samcharles93/h2tags/pkg/blam"
)

const (
	indexHeaderSize = 32
	tagTypeSize     = 12
	objectSize      = 16
)

// IndexHeader starts the tag index.
type IndexHeader struct {
	TagListAddress     uint32
	TagTypeCount       int32
	ObjectIndexAddress uint32
	ScenarioID         blam.TagID
	GlobalsID          blam.TagID
	ObjectCount        int32
	Magic              string
}

// TagType describes one tag kind and the kinds it derives from.
type TagType struct {
	Label       blam.Label `json:"label"`
	Parent      blam.Label `json:"parent"`
	Grandparent blam.Label `json:"grandparent"`
}

type objectRecord struct {
	Label   string
	ID      blam.TagID
	Address uint32
	Size    int32
}

type typeRecord struct {
	Label, Parent, Grandparent string
}

var (
	indexHeaderLayout = blam.DefineShape("IndexHeader", indexHeaderSize, func(b *blam.Builder[IndexHeader]) {
		blam.Value(b, 0, "TagListAddress", blam.Uint32, func(h *IndexHeader) *uint32 { return &h.TagListAddress })
		blam.Value(b, 4, "TagTypeCount", blam.Int32, func(h *IndexHeader) *int32 { return &h.TagTypeCount })
		blam.Value(b, 8, "ObjectIndexAddress", blam.Uint32, func(h *IndexHeader) *uint32 { return &h.ObjectIndexAddress })
		blam.Value(b, 12, "ScenarioID", blam.Enum32[blam.TagID](), func(h *IndexHeader) *blam.TagID { return &h.ScenarioID })
		blam.Value(b, 16, "GlobalsID", blam.Enum32[blam.TagID](), func(h *IndexHeader) *blam.TagID { return &h.GlobalsID })
		blam.Value(b, 24, "ObjectCount", blam.Int32, func(h *IndexHeader) *int32 { return &h.ObjectCount })
		blam.Text(b, 28, 4, "Magic", func(h *IndexHeader) *string { return &h.Magic })
	})

	typeRecordLayout = blam.DefineShape("TagType", tagTypeSize, func(b *blam.Builder[typeRecord]) {
		blam.Text(b, 0, 4, "Label", func(r *typeRecord) *string { return &r.Label })
		blam.Text(b, 4, 4, "Parent", func(r *typeRecord) *string { return &r.Parent })
		blam.Text(b, 8, 4, "Grandparent", func(r *typeRecord) *string { return &r.Grandparent })
	})

	objectRecordLayout = blam.DefineShape("ObjectEntry", objectSize, func(b *blam.Builder[objectRecord]) {
		blam.Text(b, 0, 4, "Label", func(r *objectRecord) *string { return &r.Label })
		blam.Value(b, 4, "ID", blam.Enum32[blam.TagID](), func(r *objectRecord) *blam.TagID { return &r.ID })
		blam.Value(b, 8, "Address", blam.Uint32, func(r *objectRecord) *uint32 { return &r.Address })
		blam.Value(b, 12, "Size", blam.Int32, func(r *objectRecord) *int32 { return &r.Size })
	})
)

// TagIndex is the parsed tag index of a map.
type TagIndex struct {
	Header IndexHeader
	Types  []TagType
	*blam.Index
	// SecondaryMagic converts tag memory addresses to file offsets:
	// offset = address - SecondaryMagic.
	SecondaryMagic uint32
}

// readIndex parses the tag index addressed by h. Names come from the file
// table and are matched to objects by position.
func readIndex(data []byte, h *Header, names []string) (*TagIndex, error) {
	base := int(h.IndexOffset)
	if len(data) < base+indexHeaderSize {
		return nil, fmt.Errorf("%w: index header past end of file", ErrCorruptMap)
	}
	ih, err := indexHeaderLayout.Materialize(data[base:base+indexHeaderSize], blam.Source{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMap, err)
	}
	ih.Magic = unreverse(ih.Magic)
	if ih.Magic != MagicIndex {
		return nil, fmt.Errorf("%w: index magic %q", ErrInvalidMagic, ih.Magic)
	}
	if ih.TagTypeCount < 0 || ih.ObjectCount < 0 {
		return nil, fmt.Errorf("%w: negative index counts (%d types, %d objects)", ErrCorruptMap, ih.TagTypeCount, ih.ObjectCount)
	}

	typesAt := base + indexHeaderSize
	objectsAt := typesAt + int(ih.TagTypeCount)*tagTypeSize
	end := objectsAt + int(ih.ObjectCount)*objectSize
	if end > len(data) || end < objectsAt {
		return nil, fmt.Errorf("%w: %d objects at %d run past end of file", ErrCorruptMap, ih.ObjectCount, objectsAt)
	}

	ti := &TagIndex{Header: *ih, Types: make([]TagType, 0, ih.TagTypeCount)}
	for i := range int(ih.TagTypeCount) {
		off := typesAt + i*tagTypeSize
		r, err := typeRecordLayout.Materialize(data[off:off+tagTypeSize], blam.Source{})
		if err != nil {
			return nil, fmt.Errorf("%w: tag type %d: %v", ErrCorruptMap, i, err)
		}
		ti.Types = append(ti.Types, TagType{
			Label:       blam.MakeLabel(unreverse(r.Label)),
			Parent:      blam.MakeLabel(unreverse(r.Parent)),
			Grandparent: blam.MakeLabel(unreverse(r.Grandparent)),
		})
	}

	var (
		entries []blam.Entry
		magicOK bool
	)
	for i := range int(ih.ObjectCount) {
		off := objectsAt + i*objectSize
		r, err := objectRecordLayout.Materialize(data[off:off+objectSize], blam.Source{})
		if err != nil {
			return nil, fmt.Errorf("%w: object %d: %v", ErrCorruptMap, i, err)
		}
		if r.Address == 0 || r.Size == 0 {
			continue
		}
		if !magicOK {
			ti.SecondaryMagic = r.Address - uint32(h.IndexOffset+h.IndexSize)
			magicOK = true
		}
		e := blam.Entry{
			Label:   blam.MakeLabel(unreverse(r.Label)),
			ID:      r.ID,
			Offset:  int(r.Address - ti.SecondaryMagic),
			Size:    int(r.Size),
			Address: r.Address,
		}
		if i < len(names) {
			e.Name = names[i]
		}
		entries = append(entries, e)
	}

	idx, err := blam.NewIndex(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMap, err)
	}
	ti.Index = idx
	return ti, nil
}

// readNames decodes the file table: FileCount offsets at FileIndexOffset,
// each pointing at a zero-terminated name inside the table.
func readNames(data []byte, h *Header) []string {
	if h.FileCount <= 0 {
		return nil
	}
	table := data[h.FileTableOffset : h.FileTableOffset+h.FileTableSize]
	names := make([]string, h.FileCount)
	for i := range names {
		off := int(blam.I32(data, int(h.FileIndexOffset)+i*4))
		names[i] = blam.CString(table, off, 0)
	}
	return names
}
