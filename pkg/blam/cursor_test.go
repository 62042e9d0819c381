package blam

import (
	"testing"
)

func TestPrimitiveReads(t *testing.T) {
	t.Parallel()

	b := []byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x00, 0x80, 0x3F}

	if got := U32(b, 0); got != 0x04030201 {
		t.Fatalf("u32@0: got 0x%08X want 0x04030201", got)
	}
	if got := F32(b, 4); got != 1.0 {
		t.Fatalf("f32@4: got %v want 1", got)
	}
	if got := U16(b, 6); got != 0x3F80 {
		t.Fatalf("u16@6: got 0x%04X want 0x3F80", got)
	}
	if got := I8(b, 7); got != 0x3F {
		t.Fatalf("i8@7: got %d want %d", got, 0x3F)
	}
}

func TestOutOfBoundsReadsAreZero(t *testing.T) {
	t.Parallel()

	b := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	tests := []struct {
		name string
		got  uint64
	}{
		{"u32 straddling end", uint64(U32(b, 6))},
		{"u32 past end", uint64(U32(b, 8))},
		{"u16 straddling end", uint64(U16(b, 7))},
		{"u8 past end", uint64(U8(b, 8))},
		{"u32 negative", uint64(U32(b, -1))},
		{"i32 straddling end", uint64(uint32(I32(b, 5)))},
		{"i16 past end", uint64(uint16(I16(b, 9)))},
	}
	for _, tc := range tests {
		if tc.got != 0 {
			t.Fatalf("%s: got %d want 0", tc.name, tc.got)
		}
	}

	if v := ReadVec3(b, 0); v != (Vec3{}) {
		t.Fatalf("vec3 straddling end: got %+v want zero", v)
	}
	if m := ReadMat4(b, 0); m != (Mat4{}) {
		t.Fatalf("mat4 straddling end: got %+v want zero", m)
	}
}

func TestMatrixTransposition(t *testing.T) {
	t.Parallel()

	b := make([]byte, 64)
	for i := range 16 {
		if !PutF32(b, i*4, float32(i)) {
			t.Fatalf("put slot %d", i)
		}
	}
	m := ReadMat4(b, 0)
	for r := range 4 {
		for c := range 4 {
			want := float32(r + 4*c)
			if m.M[r][c] != want {
				t.Fatalf("M[%d][%d]: got %v want %v", r, c, m.M[r][c], want)
			}
		}
	}

	out := make([]byte, 64)
	if !PutMat4(out, 0, m) {
		t.Fatal("put mat4")
	}
	if string(out) != string(b) {
		t.Fatalf("mat4 round trip mismatch: got %x want %x", out, b)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	t.Parallel()

	b := make([]byte, 48)
	v2 := Vec2{1, 2}
	v3 := Vec3{3, 4, 5}
	q := Quat{0, 0, 0, 1}
	if !PutVec2(b, 0, v2) || !PutVec3(b, 8, v3) || !PutQuat(b, 20, q) {
		t.Fatal("put vectors")
	}
	if got := ReadVec2(b, 0); got != v2 {
		t.Fatalf("vec2: got %+v want %+v", got, v2)
	}
	if got := ReadVec3(b, 8); got != v3 {
		t.Fatalf("vec3: got %+v want %+v", got, v3)
	}
	if got := ReadQuat(b, 20); got != q {
		t.Fatalf("quat: got %+v want %+v", got, q)
	}
	if PutVec4(b, 40, Vec4{}) {
		t.Fatal("PutVec4 past end should fail")
	}
}

func TestStringReads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		data   []byte
		off    int
		length int
		want   string
	}{
		{"clamped to window", []byte("abc"), 0, 32, "abc"},
		{"stops at zero", []byte("ab\x00cd"), 0, 5, "ab"},
		{"offset inside", []byte("xxhello"), 2, 10, "hello"},
		{"offset past end", []byte("abc"), 3, 4, ""},
		{"negative offset", []byte("abc"), -1, 4, ""},
		{"latin1", []byte{'c', 0xE9}, 0, 2, "cé"},
	}
	for _, tc := range tests {
		if got := String(tc.data, tc.off, tc.length); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}

	if got := CString([]byte("objects\\warthog\x00junk"), 0, 0); got != "objects\\warthog" {
		t.Fatalf("cstring: got %q", got)
	}
	if got := CString([]byte("abcdef"), 1, 3); got != "bcd" {
		t.Fatalf("cstring with limit: got %q want %q", got, "bcd")
	}
}

func TestPutString(t *testing.T) {
	t.Parallel()

	b := []byte("XXXXXXXX")
	if !PutString(b, 2, 4, "hi") {
		t.Fatal("put string")
	}
	if string(b) != "XXhi\x00\x00XX" {
		t.Fatalf("got %q", b)
	}
	if PutString(b, 6, 4, "toolong") {
		t.Fatal("PutString past end should fail")
	}
}
