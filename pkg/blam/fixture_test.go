package blam

import (
	"testing"
)

type testRec struct {
	V uint32
}

type testInner struct {
	A uint32
	B float32
}

type testHost struct {
	Recs  []testRec
	Other Ref[testTarget]
	Plain TagRef
	Inner testInner
	Name  string
}

func (testHost) TagLabel() Label { return MakeLabel("host") }

type testTarget struct {
	Flags uint32
	Back  Ref[testHost]
}

func (testTarget) TagLabel() Label { return MakeLabel("targ") }

type testBundle struct {
	Payloads []ExternalSpan
}

func (testBundle) TagLabel() Label { return MakeLabel("bndl") }

var (
	testRecShape = DefineShape("rec", 4, func(b *Builder[testRec]) {
		Value(b, 0, "V", Uint32, func(r *testRec) *uint32 { return &r.V })
	})
	testInnerShape = DefineShape("inner", 8, func(b *Builder[testInner]) {
		Value(b, 0, "A", Uint32, func(r *testInner) *uint32 { return &r.A })
		Value(b, 4, "B", Float32, func(r *testInner) *float32 { return &r.B })
	})
	testHostShape = DefineTag(32, func(b *Builder[testHost]) {
		Blocks(b, 0, "Recs", testRecShape, func(h *testHost) *[]testRec { return &h.Recs })
		TypedRef(b, 8, "Other", func(h *testHost) *Ref[testTarget] { return &h.Other })
		UntypedRef(b, 12, "Plain", func(h *testHost) *TagRef { return &h.Plain })
		Record(b, 16, "Inner", testInnerShape, func(h *testHost) *testInner { return &h.Inner })
		Text(b, 24, 8, "Name", func(h *testHost) *string { return &h.Name })
	})
	testTargetShape = DefineTag(16, func(b *Builder[testTarget]) {
		Value(b, 0, "Flags", Uint32, func(t *testTarget) *uint32 { return &t.Flags })
		TypedRef(b, 4, "Back", func(t *testTarget) *Ref[testHost] { return &t.Back })
	})
	testBundleShape = DefineTag(16, func(b *Builder[testBundle]) {
		External(b, 0, 8, 2, "Payloads", func(t *testBundle) *[]ExternalSpan { return &t.Payloads })
	})
)

func testRegistry() *Registry {
	reg := NewRegistry()
	Register(reg, testHostShape)
	Register(reg, testTargetShape)
	Register(reg, testBundleShape)
	return reg
}

// testMap lays out a small local data file:
//
//	0x000 host 1, Recs -> 0x40, Other -> 2, Plain -> 1
//	0x020 targ 2, Back -> 1
//	0x030 zzzz 3, no layout
//	0x040 two rec records of host 1
//	0x080 host 4, Recs count runs past the end of the file
//	0x0C8 zzzz 5, chunk runs past the end of the file
func testMap(t *testing.T) ([]byte, *Index) {
	t.Helper()

	local := make([]byte, 0x100)

	PutU32(local, 0x00, 2)
	PutU32(local, 0x04, 0x40)
	PutU32(local, 0x08, 2)
	PutU32(local, 0x0C, 1)
	PutU32(local, 0x10, 11)
	PutF32(local, 0x14, 0.5)
	PutString(local, 0x18, 8, "warthog")

	PutU32(local, 0x20, 0xABCD)
	PutU32(local, 0x24, 1)

	PutU32(local, 0x40, 7)
	PutU32(local, 0x44, 9)

	PutU32(local, 0x80, 100)
	PutU32(local, 0x84, 8)

	idx, err := NewIndex([]Entry{
		{Label: MakeLabel("host"), ID: 1, Name: "vehicles\\warthog", Offset: 0x00, Size: 0x20},
		{Label: MakeLabel("targ"), ID: 2, Name: "vehicles\\target", Offset: 0x20, Size: 0x10},
		{Label: MakeLabel("zzzz"), ID: 3, Name: "misc\\opaque", Offset: 0x30, Size: 0x08},
		{Label: MakeLabel("host"), ID: 4, Name: "vehicles\\broken", Offset: 0x80, Size: 0x20},
		{Label: MakeLabel("zzzz"), ID: 5, Name: "misc\\truncated", Offset: 0xC8, Size: 0x100},
	})
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	return local, idx
}
