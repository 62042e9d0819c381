package h2map

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/samcharles93/h2tags/internal/maptest"
	"github.com/samcharles93/h2tags/pkg/blam"
	"github.com/samcharles93/h2tags/pkg/tags"
)

const (
	idBitmap blam.TagID = 0xE1A40001
	idStem   blam.TagID = 0xE1A50002
)

func bitmapData(lodOffset, lodSize uint32) []byte {
	d := make([]byte, 160)
	blam.PutU16(d, 84, 128)
	blam.PutU16(d, 86, 64)
	blam.PutU32(d, 108, lodOffset)
	blam.PutU32(d, 132, lodSize)
	return d
}

func stemData(name string) []byte {
	d := make([]byte, 36)
	blam.PutString(d, 0, 32, name)
	return d
}

func testMapBytes(t *testing.T) ([]byte, maptest.Layout) {
	t.Helper()
	data, lay := maptest.Build(maptest.Map{
		Name: "ascension",
		Tags: []maptest.Tag{
			{Label: "bitm", ID: idBitmap, Name: "textures\\rock", Data: bitmapData(0, 8), RawRelocs: []int{108}},
			{Label: "stem", ID: idStem, Name: "shaders\\opaque", Data: stemData("opaque")},
		},
		Placeholders: 2,
		Raw:          []byte("LODBYTES"),
	})
	return data, lay
}

func TestParseSyntheticMap(t *testing.T) {
	t.Parallel()

	data, lay := testMapBytes(t)
	m, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Header.Name != "ascension" || m.Header.Version != 8 {
		t.Fatalf("header: name=%q version=%d", m.Header.Name, m.Header.Version)
	}
	if int(m.Header.IndexOffset) != lay.IndexOffset {
		t.Fatalf("index offset: got %d want %d", m.Header.IndexOffset, lay.IndexOffset)
	}
	if m.Index.Len() != 2 {
		t.Fatalf("index entries: got %d want 2", m.Index.Len())
	}
	if m.Index.SecondaryMagic != lay.Secondary {
		t.Fatalf("secondary magic: got 0x%X want 0x%X", m.Index.SecondaryMagic, lay.Secondary)
	}
	e, ok := m.Index.Lookup(idStem)
	if !ok {
		t.Fatal("stem entry missing")
	}
	if e.Label != blam.MakeLabel("stem") || e.Name != "shaders\\opaque" || e.Offset != lay.TagOffsets[idStem] || e.Size != 36 {
		t.Fatalf("stem entry: %+v", e)
	}
	if len(m.Index.Types) != 2 || m.Index.Types[0].Label != blam.MakeLabel("bitm") {
		t.Fatalf("tag types: %+v", m.Index.Types)
	}
	if len(m.Names) != 2 || m.Names[0] != "textures\\rock" {
		t.Fatalf("names: %q", m.Names)
	}
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	t.Parallel()

	data, _ := testMapBytes(t)
	copy(data, "xxxx")
	if _, err := ReadHeader(data); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("got %v want ErrInvalidMagic", err)
	}
	if _, err := ReadHeader(data[:100]); !errors.Is(err, ErrCorruptMap) {
		t.Fatalf("short header: got %v want ErrCorruptMap", err)
	}
}

func TestParseRejectsIndexOutsideFile(t *testing.T) {
	t.Parallel()

	data, _ := testMapBytes(t)
	blam.PutU32(data, 16, uint32(len(data)))
	if _, err := Parse(data); !errors.Is(err, ErrCorruptMap) {
		t.Fatalf("got %v want ErrCorruptMap", err)
	}
}

func TestParseRejectsOversizedFileCount(t *testing.T) {
	t.Parallel()

	for _, count := range []uint32{0x40000001, 0x7FFFFFFF, 1 << 20} {
		data, _ := testMapBytes(t)
		blam.PutU32(data, 700, count)
		if _, err := Parse(data); !errors.Is(err, ErrCorruptMap) {
			t.Fatalf("file count 0x%X: got %v want ErrCorruptMap", count, err)
		}
	}

	h := &Header{
		IndexOffset:     2048,
		IndexSize:       32,
		FileCount:       0x40000001,
		FileTableOffset: 2048,
		FileTableSize:   4,
		FileIndexOffset: 2048,
	}
	if err := h.validate(4096); !errors.Is(err, ErrCorruptMap) {
		t.Fatalf("validate: got %v want ErrCorruptMap", err)
	}
	h.FileCount = 512
	if err := h.validate(4096); err != nil {
		t.Fatalf("validate 512 entries: %v", err)
	}
	h.FileCount = 513
	if err := h.validate(4096); !errors.Is(err, ErrCorruptMap) {
		t.Fatalf("validate 513 entries: got %v want ErrCorruptMap", err)
	}
}

func TestOpenFile(t *testing.T) {
	t.Parallel()

	data, _ := testMapBytes(t)
	path := filepath.Join(t.TempDir(), "ascension.map")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write map: %v", err)
	}

	m, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			t.Fatalf("close: %v", cerr)
		}
	}()
	if !bytes.Equal(m.Data, data) {
		t.Fatal("mapped bytes differ from file")
	}
	w := m.Writable()
	w[0] = 0
	if m.Data[0] == 0 {
		t.Fatal("Writable should return a copy")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer func() { _ = f.Close() }()
	rm, err := OpenReaderAt(f, int64(len(data)))
	if err != nil {
		t.Fatalf("open readerat: %v", err)
	}
	if rm.mmapped {
		t.Fatal("OpenReaderAt should not mmap")
	}
	if rm.Index.Len() != m.Index.Len() {
		t.Fatalf("entries: got %d want %d", rm.Index.Len(), m.Index.Len())
	}
}

func compress(t *testing.T, data []byte, chunk int) []byte {
	t.Helper()
	var chunks [][]byte
	for off := compressedHeaderSize; off < len(data); off += chunk {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(data[off:min(off+chunk, len(data))]); err != nil {
			t.Fatalf("compress: %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("compress close: %v", err)
		}
		chunks = append(chunks, buf.Bytes())
	}

	out := make([]byte, compressedHeaderSize, len(data))
	copy(out, data[:compressedHeaderSize])
	table := make([]byte, (len(chunks)+1)*chunkEntrySize)
	out = append(out, table...)
	for i, c := range chunks {
		blam.PutU32(out, chunkTableOffset+i*chunkEntrySize, uint32(len(c)))
		blam.PutU32(out, chunkTableOffset+i*chunkEntrySize+4, uint32(len(out)))
		out = append(out, c...)
	}
	return out
}

func TestDecompress(t *testing.T) {
	t.Parallel()

	data, _ := maptest.Build(maptest.Map{
		Tags: []maptest.Tag{{Label: "stem", ID: idStem, Name: "shaders\\opaque", Data: stemData("opaque")}},
		Raw:  make([]byte, 0x3000),
	})
	packed := compress(t, data, 0x1000)
	if !IsCompressed(packed) {
		t.Fatal("IsCompressed should detect the chunked map")
	}
	if IsCompressed(data) {
		t.Fatal("plain map reported as compressed")
	}

	got, err := Decompress(packed)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("decompressed %d bytes, want %d identical bytes", len(got), len(data))
	}

	m, err := Parse(packed)
	if err != nil {
		t.Fatalf("parse compressed: %v", err)
	}
	if !m.Compressed() || m.Index.Len() != 1 {
		t.Fatalf("compressed map: compressed=%v entries=%d", m.Compressed(), m.Index.Len())
	}

	// A table that points past the end is corrupt.
	blam.PutU32(packed, chunkTableOffset+4, uint32(len(packed)))
	if _, err := Decompress(packed); !errors.Is(err, ErrCorruptMap) {
		t.Fatalf("bad chunk: got %v want ErrCorruptMap", err)
	}
}

func TestSignature(t *testing.T) {
	t.Parallel()

	data := make([]byte, HeaderSize+12)
	blam.PutU32(data, HeaderSize, 0x0000FFFF)
	blam.PutU32(data, HeaderSize+4, 0x00FF00FF)
	blam.PutU32(data, HeaderSize+8, 0x12340000)
	blam.PutU32(data, 0, 0xDEADBEEF)

	want := uint32(0x0000FFFF ^ 0x00FF00FF ^ 0x12340000)
	if got := Signature(data); got != want {
		t.Fatalf("signature: got 0x%08X want 0x%08X", got, want)
	}
	sig, err := StoreSignature(data)
	if err != nil || sig != want {
		t.Fatalf("store: 0x%08X err=%v", sig, err)
	}
	if blam.U32(data, signatureOffset) != want {
		t.Fatal("signature not written to header")
	}
	if Signature(data) != want {
		t.Fatal("storing the signature must not change it")
	}
	if _, err := StoreSignature(data[:10]); !errors.Is(err, ErrCorruptMap) {
		t.Fatalf("short map: got %v want ErrCorruptMap", err)
	}
}

func TestSessionLoad(t *testing.T) {
	t.Parallel()

	data, lay := testMapBytes(t)
	m, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s, err := NewSession(m, nil, blam.DefaultOffsetTable())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if s.ID == "" {
		t.Fatal("session id is empty")
	}
	if err := s.Load(context.Background(), tags.Default(), blam.LoadOptions{}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Report.Loaded != 2 || len(s.Report.Failures) != 0 {
		t.Fatalf("report: %+v", s.Report)
	}
	bm, err := blam.ResolveAs[tags.Bitmap](s.Graph, blam.TagRef{ID: idBitmap})
	if err != nil {
		t.Fatalf("resolve bitmap: %v", err)
	}
	if bm.Width != 128 || string(bm.Level(0)) != "LODBYTES" {
		t.Fatalf("bitmap: width=%d lod0=%q", bm.Width, bm.Level(0))
	}
	if bm.LevelsOfDetail[0].Offset != blam.NormalOffset(lay.RawOffset) {
		t.Fatalf("lod offset: got %s want %d", bm.LevelsOfDetail[0].Offset, lay.RawOffset)
	}
}

func TestOpenSessionWithSharedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	shared, slay := maptest.Build(maptest.Map{
		Name: "shared",
		Tags: []maptest.Tag{{Label: "stem", ID: 0xE0000001, Name: "shaders\\shared", Data: stemData("shared")}},
		Raw:  []byte("SHAREDLOD"),
	})
	local, _ := maptest.Build(maptest.Map{
		Tags: []maptest.Tag{{Label: "bitm", ID: idBitmap, Name: "textures\\shared_rock",
			Data: bitmapData(0x80000000|uint32(slay.RawOffset), 9)}},
	})
	localPath := filepath.Join(dir, "local.map")
	sharedPath := filepath.Join(dir, "shared.map")
	for path, b := range map[string][]byte{localPath: local, sharedPath: shared} {
		if err := os.WriteFile(path, b, 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	s, err := OpenSession(localPath, SessionOptions{Shared: map[blam.DataFile]string{blam.Shared: sharedPath}})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer func() { _ = s.Close() }()
	if err := s.Load(context.Background(), tags.Default(), blam.LoadOptions{Workers: 2}); err != nil {
		t.Fatalf("load: %v", err)
	}
	bm, err := blam.ResolveAs[tags.Bitmap](s.Graph, blam.TagRef{ID: idBitmap})
	if err != nil {
		t.Fatalf("resolve: %v (report %+v)", err, s.Report.Failures)
	}
	if string(bm.Level(0)) != "SHAREDLOD" {
		t.Fatalf("lod 0: %q", bm.Level(0))
	}

	bad := blam.DefaultOffsetTable()
	bad.ValueMask = 0xFFFFFFFF
	if _, err := OpenSession(localPath, SessionOptions{Offsets: &bad}); err == nil {
		t.Fatal("expected invalid offset table to fail")
	}
}
