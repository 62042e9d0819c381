package blam

import "sort"

// Chunk is a byte range consumed while materializing a tag.
type Chunk struct {
	File    DataFile `json:"file"`
	Offset  int      `json:"offset"`
	Length  int      `json:"length"`
	Purpose string   `json:"purpose"`
	// External marks ranges fetched by the second pass.
	External bool `json:"external,omitempty"`
}

func (c Chunk) End() int {
	return c.Offset + c.Length
}

// Tracker records the chunks consumed for one tag. A Tracker belongs to a
// single materialization and is not safe for concurrent use.
type Tracker struct {
	chunks []Chunk
}

func (t *Tracker) Track(file DataFile, off, length int, purpose string) {
	if t == nil || length <= 0 {
		return
	}
	t.chunks = append(t.chunks, Chunk{File: file, Offset: off, Length: length, Purpose: purpose})
}

func (t *Tracker) trackExternal(file DataFile, off, length int, purpose string) {
	if t == nil || length <= 0 {
		return
	}
	t.chunks = append(t.chunks, Chunk{File: file, Offset: off, Length: length, Purpose: purpose, External: true})
}

// Chunks returns the recorded chunks in the order they were consumed.
func (t *Tracker) Chunks() []Chunk {
	if t == nil {
		return nil
	}
	out := make([]Chunk, len(t.chunks))
	copy(out, t.chunks)
	return out
}

// Coverage is the number of distinct bytes covered by chunks in each data
// file, with overlapping ranges counted once.
func Coverage(chunks []Chunk) map[DataFile]int {
	byFile := make(map[DataFile][]Chunk)
	for _, c := range chunks {
		byFile[c.File] = append(byFile[c.File], c)
	}
	out := make(map[DataFile]int, len(byFile))
	for f, cs := range byFile {
		sort.Slice(cs, func(i, j int) bool { return cs[i].Offset < cs[j].Offset })
		total, end := 0, -1
		for _, c := range cs {
			start := max(c.Offset, end)
			if c.End() > start {
				total += c.End() - start
			}
			end = max(end, c.End())
		}
		out[f] = total
	}
	return out
}
