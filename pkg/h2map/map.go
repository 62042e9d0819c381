package h2map

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Map is an opened map file.
type Map struct {
	// Data is the whole (decompressed) file. When the file was mapped it
	// is read-only and must not be retained after Close.
	Data   []byte
	Header *Header
	Index  *TagIndex
	Names  []string

	mmapped    bool
	compressed bool
}

// Open maps a map file read-only and parses its header and tag index.
// If mmap is unavailable, it falls back to ReadAt-based loading.
// Chunked-zlib maps are inflated into memory.
// The returned map must be closed to release any mapping.
func Open(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < HeaderSize || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: file size %d", ErrCorruptMap, size64)
	}
	size := int(size64)

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		m, parseErr := parse(data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, fmt.Errorf("%s: %w", path, parseErr)
		}
		return m, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	m, err := parse(data, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// OpenReaderAt loads a map from a random-access reader without mmap.
func OpenReaderAt(r io.ReaderAt, size int64) (*Map, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptMap
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return parse(data, false)
}

// Parse reads a map held in memory. data is retained.
func Parse(data []byte) (*Map, error) {
	return parse(data, false)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

func parse(data []byte, mmapped bool) (*Map, error) {
	raw := data
	compressed := IsCompressed(data)
	if compressed {
		inflated, err := Decompress(data)
		if err != nil {
			return nil, err
		}
		data = inflated
	}

	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	if err := h.validate(len(data)); err != nil {
		return nil, err
	}
	names := readNames(data, h)
	idx, err := readIndex(data, h, names)
	if err != nil {
		return nil, err
	}

	m := &Map{Data: data, Header: h, Index: idx, Names: names, compressed: compressed}
	if compressed && mmapped {
		// The inflated copy is heap memory; the mapping is no longer needed.
		if err := unix.Munmap(raw); err != nil {
			return nil, err
		}
	} else {
		m.mmapped = mmapped
	}
	return m, nil
}

// Compressed reports whether the file on disk was chunked-zlib.
func (m *Map) Compressed() bool { return m.compressed }

// Writable returns a private copy of the map bytes that may be modified.
func (m *Map) Writable() []byte {
	out := make([]byte, len(m.Data))
	copy(out, m.Data)
	return out
}

// Close releases any mmap backing.
func (m *Map) Close() error {
	if m == nil || m.Data == nil {
		return nil
	}
	var err error
	if m.mmapped {
		err = unix.Munmap(m.Data)
	}
	m.Data = nil
	m.Header = nil
	m.Index = nil
	m.mmapped = false
	return err
}
