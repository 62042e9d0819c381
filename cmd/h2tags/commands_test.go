package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/samcharles93/h2tags/internal/maptest"
	"github.com/samcharles93/h2tags/pkg/blam"
	"github.com/samcharles93/h2tags/pkg/h2map"
	"github.com/samcharles93/h2tags/pkg/tags"
)

const (
	idShader blam.TagID = 0xE0000001
	idStem   blam.TagID = 0xE0000002
	idBitmap blam.TagID = 0xE0000003
	idBroken blam.TagID = 0xE0000004
)

func testMap(t *testing.T) []byte {
	t.Helper()
	shader := make([]byte, 132)
	blam.PutU32(shader, 4, uint32(idStem))
	blam.PutU32(shader, 12, 1)
	blam.PutU32(shader, 16, 52)
	blam.PutU32(shader, 52+4, uint32(idBitmap))
	blam.PutU32(shader, 52+12, uint32(idStem))
	blam.PutU32(shader, 52+48, uint32(blam.NoTag))

	broken := make([]byte, 52)
	blam.PutU32(broken, 12, 0x00100000)

	stem := make([]byte, 36)
	blam.PutString(stem, 0, 32, "opaque")

	bitmap := make([]byte, 160)
	blam.PutU16(bitmap, 84, 128)
	blam.PutU16(bitmap, 86, 64)
	blam.PutU32(bitmap, 132, 8)

	data, _ := maptest.Build(maptest.Map{
		Name: "lockout",
		Tags: []maptest.Tag{
			{Label: "shad", ID: idShader, Name: `shaders\rock`, Data: shader, Relocs: []int{16}},
			{Label: "stem", ID: idStem, Name: `shaders\opaque`, Data: stem},
			{Label: "bitm", ID: idBitmap, Name: `textures\rock`, Data: bitmap, RawRelocs: []int{108}},
			{Label: "shad", ID: idBroken, Name: `shaders\broken`, Data: broken, Relocs: []int{16}},
		},
		Raw: []byte("LODBYTES"),
	})
	return data
}

func loadedSession(t *testing.T, data []byte) *h2map.Session {
	t.Helper()
	m, err := h2map.Parse(data)
	if err != nil {
		t.Fatalf("parse map: %v", err)
	}
	s, err := h2map.NewSession(m, nil, blam.DefaultOffsetTable())
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if err := s.Load(context.Background(), tags.Default(), blam.LoadOptions{}); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()
	s := loadedSession(t, testMap(t))

	var buf bytes.Buffer
	printSummary(&buf, s)
	printFailures(&buf, s.Report)
	out := buf.String()
	for _, want := range []string{
		"map:        lockout",
		"index:      4 entries",
		"loaded:     3/4",
		"shad  2  typed",
		"failures:",
		"0xE0000004",
		"out_of_bounds",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPrintEntries(t *testing.T) {
	t.Parallel()
	s := loadedSession(t, testMap(t))

	var buf bytes.Buffer
	l := blam.MakeLabel("shad")
	printEntries(&buf, s.Graph, &l)
	out := buf.String()
	if strings.Contains(out, "bitm") {
		t.Fatalf("label filter ignored:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines: got %d want 3:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[2], "failed") || !strings.Contains(lines[2], `shaders\broken`) {
		t.Fatalf("broken shader row: %q", lines[2])
	}
}

func TestFindTag(t *testing.T) {
	t.Parallel()
	s := loadedSession(t, testMap(t))

	for _, key := range []string{"0xE0000001", `shaders\rock`, " 0xe0000001 "} {
		tag, err := findTag(s.Graph, s.Report, key)
		if err != nil {
			t.Fatalf("findTag(%q): %v", key, err)
		}
		if tag.ID != idShader {
			t.Fatalf("findTag(%q): got %s", key, tag.ID)
		}
	}
	if _, err := findTag(s.Graph, s.Report, "missing"); err == nil {
		t.Fatal("expected not found")
	}
	_, err := findTag(s.Graph, s.Report, `shaders\broken`)
	if !errors.Is(err, blam.ErrOutOfBounds) {
		t.Fatalf("expected load failure, got %v", err)
	}
}

func TestTagDump(t *testing.T) {
	t.Parallel()
	s := loadedSession(t, testMap(t))

	tag, err := findTag(s.Graph, s.Report, "0xE0000001")
	if err != nil {
		t.Fatalf("findTag: %v", err)
	}
	d := newTagDump(s.Graph, tag, true)
	if len(d.Chunks) == 0 {
		t.Fatal("expected chunks")
	}
	if d.Coverage[blam.Local] == 0 {
		t.Fatalf("coverage: %v", d.Coverage)
	}
	byPath := make(map[string]refDump)
	for _, r := range d.Refs {
		byPath[r.Path] = r
	}
	if r := byPath["Template"]; r.Target != `stem 0xE0000002 shaders\opaque` {
		t.Fatalf("template ref: %+v", r)
	}
	if r := byPath["BitmapInfos[0].EmissiveBitmap"]; r.Error != blam.ReasonTypeMismatch {
		t.Fatalf("emissive ref: %+v", r)
	}

	var buf bytes.Buffer
	if err := writeJSON(&buf, d); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["id"] != "0xE0000001" || decoded["label"] != "shad" {
		t.Fatalf("json header: %v %v", decoded["id"], decoded["label"])
	}

	buf.Reset()
	printTag(&buf, d)
	if !strings.Contains(buf.String(), "ref BitmapInfos[0].AlphaBitmap: null") {
		t.Fatalf("text dump:\n%s", buf.String())
	}
}

func TestPrintWalk(t *testing.T) {
	t.Parallel()
	s := loadedSession(t, testMap(t))

	var buf bytes.Buffer
	printWalk(&buf, s.Graph, idShader, 0)
	want := "shad 0xE0000001 shaders\\rock\n" +
		"  stem 0xE0000002 shaders\\opaque\n" +
		"  bitm 0xE0000003 textures\\rock\n"
	if buf.String() != want {
		t.Fatalf("walk: got %q want %q", buf.String(), want)
	}

	buf.Reset()
	printWalk(&buf, s.Graph, idShader, -1)
	if strings.Count(buf.String(), "\n") != 3 {
		t.Fatalf("negative depth is unlimited: %q", buf.String())
	}
}

func TestWriteLevels(t *testing.T) {
	t.Parallel()
	s := loadedSession(t, testMap(t))

	tag, err := findTag(s.Graph, s.Report, `textures\rock`)
	if err != nil {
		t.Fatalf("findTag: %v", err)
	}
	bm := tag.Body.(*tags.Bitmap)
	dir := t.TempDir()
	info, err := writeLevels(dir, tag, bm)
	if err != nil {
		t.Fatalf("writeLevels: %v", err)
	}
	if len(info.Files) != 1 || info.Files[0] != "lod0.bin" || info.Width != 128 {
		t.Fatalf("info: %+v", info)
	}
	got, err := os.ReadFile(filepath.Join(dir, "lod0.bin"))
	if err != nil {
		t.Fatalf("read lod: %v", err)
	}
	if string(got) != "LODBYTES" {
		t.Fatalf("lod0: got %q", got)
	}
	if err := writeJSONFile(filepath.Join(dir, "bitmap.json"), info); err != nil {
		t.Fatalf("writeJSONFile: %v", err)
	}
}

func TestPrintLayout(t *testing.T) {
	t.Parallel()
	reg := tags.Default()

	var buf bytes.Buffer
	printLayouts(&buf, reg.Layouts())
	if strings.Count(buf.String(), "\n") != len(reg.Layouts())+1 {
		t.Fatalf("layout table:\n%s", buf.String())
	}

	l, ok := reg.Layout(blam.MakeLabel("shad"))
	if !ok {
		t.Fatal("shad layout missing")
	}
	buf.Reset()
	printLayout(&buf, l)
	for _, want := range []string{"BitmapInfos", "  DiffuseBitmap", "expect=bitm"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("shad layout missing %q:\n%s", want, buf.String())
		}
	}

	view := newLayoutDump(l)
	if view.Label != l.Label() || len(view.Fields) != len(l.Fields()) {
		t.Fatalf("layout view: %+v", view)
	}
}

func TestVerifyPatchedAndWrite(t *testing.T) {
	t.Parallel()
	data := testMap(t)
	table := blam.DefaultOffsetTable()

	baseline, err := materializeFailures(context.Background(), data, table)
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	if _, ok := baseline[idBroken]; !ok || len(baseline) != 1 {
		t.Fatalf("baseline failures: %v", baseline)
	}
	if err := verifyPatched(context.Background(), data, table, baseline); err != nil {
		t.Fatalf("unchanged map should verify: %v", err)
	}

	s := loadedSession(t, data)
	e, _ := s.Map.Index.Lookup(idShader)
	broken := append([]byte(nil), data...)
	blam.PutU32(broken, e.Offset+12, 0x00100000)
	if err := verifyPatched(context.Background(), broken, table, baseline); err == nil {
		t.Fatal("expected verify to reject a newly broken tag")
	}

	out := filepath.Join(t.TempDir(), "lockout.map")
	if err := writeFileAtomic(out, data); err != nil {
		t.Fatalf("writeFileAtomic: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil || !bytes.Equal(got, data) {
		t.Fatalf("written map differs (err %v)", err)
	}
	ents, _ := os.ReadDir(filepath.Dir(out))
	if len(ents) != 1 {
		t.Fatalf("temp file left behind: %d entries", len(ents))
	}
}
