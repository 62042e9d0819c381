package blam

import (
	"fmt"
	"iter"
	"sort"
)

// Entry describes where one tag lives. Offset is the absolute position of
// the tag's chunk in the local data file. Address is the value that local
// offsets stored inside the tag use for the chunk start; it is zero when
// stored offsets are already chunk relative.
type Entry struct {
	Label   Label
	ID      TagID
	Name    string
	Offset  int
	Size    int
	Address uint32
}

// End is the first byte past the tag's chunk.
func (e Entry) End() int {
	return e.Offset + e.Size
}

// Index maps tag identifiers to entries. It is immutable once built and is
// safe for concurrent lookups.
type Index struct {
	entries []Entry
	byID    map[TagID]int
	byName  map[string]int
}

// NewIndex builds an index from entries in storage order. Identifiers must
// be unique.
func NewIndex(entries []Entry) (*Index, error) {
	idx := &Index{
		entries: make([]Entry, len(entries)),
		byID:    make(map[TagID]int, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	copy(idx.entries, entries)
	for i, e := range idx.entries {
		if prev, ok := idx.byID[e.ID]; ok {
			return nil, fmt.Errorf("%w: %s at entries %d and %d", ErrDuplicateTag, e.ID, prev, i)
		}
		idx.byID[e.ID] = i
		if e.Name != "" {
			key := nameKey(e.Name, e.Label)
			if _, ok := idx.byName[key]; !ok {
				idx.byName[key] = i
			}
			if _, ok := idx.byName[e.Name]; !ok {
				idx.byName[e.Name] = i
			}
		}
	}
	return idx, nil
}

func nameKey(name string, l Label) string {
	return name + "." + l.String()
}

func (idx *Index) Len() int {
	return len(idx.entries)
}

// Lookup returns the entry for id.
func (idx *Index) Lookup(id TagID) (Entry, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[i], true
}

// LookupName finds a tag by name. Both "name" and "name.label" forms are
// accepted; the bare form returns the first tag with that name.
func (idx *Index) LookupName(name string) (Entry, bool) {
	i, ok := idx.byName[name]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[i], true
}

// Find accepts either a tag identifier or a tag name.
func (idx *Index) Find(key string) (Entry, bool) {
	if e, ok := idx.LookupName(key); ok {
		return e, true
	}
	id, err := ParseTagID(key)
	if err != nil {
		return Entry{}, false
	}
	return idx.Lookup(id)
}

// At returns the i-th entry in storage order.
func (idx *Index) At(i int) Entry {
	return idx.entries[i]
}

// Entries iterates entries in storage order.
func (idx *Index) Entries() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		for i, e := range idx.entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// ByLabel returns the entries with the given label in storage order.
func (idx *Index) ByLabel(l Label) []Entry {
	var out []Entry
	for _, e := range idx.entries {
		if e.Label == l {
			out = append(out, e)
		}
	}
	return out
}

// LabelCounts returns how many entries carry each label.
func (idx *Index) LabelCounts() []LabelCount {
	counts := make(map[Label]int)
	for _, e := range idx.entries {
		counts[e.Label]++
	}
	out := make([]LabelCount, 0, len(counts))
	for l, n := range counts {
		out = append(out, LabelCount{Label: l, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label.String() < out[j].Label.String() })
	return out
}

type LabelCount struct {
	Label Label `json:"label"`
	Count int   `json:"count"`
}
