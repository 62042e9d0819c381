package blam

import (
	"errors"
	"testing"
)

func TestDecodeOffsets(t *testing.T) {
	t.Parallel()

	table := DefaultOffsetTable()
	tests := []struct {
		raw    uint32
		file   DataFile
		value  uint32
		absent bool
	}{
		{0x00000000, Local, 0, true},
		{0xFFFFFFFF, SinglePlayerShared, 0x3FFFFFFF, true},
		{0x7FFFFFFF, MainMenu, 0x3FFFFFFF, true},
		{0x00001000, Local, 0x1000, false},
		{0x40000010, MainMenu, 0x10, false},
		{0x80000020, Shared, 0x20, false},
		{0xC0000030, SinglePlayerShared, 0x30, false},
		{0x40000000, MainMenu, 0, true},
		{0x80000000, Shared, 0, true},
		{0xC0000000, SinglePlayerShared, 0, true},
	}
	for _, tc := range tests {
		d := table.Decode(NormalOffset(tc.raw))
		if d.Absent != tc.absent {
			t.Fatalf("0x%08X absent: got %v want %v", tc.raw, d.Absent, tc.absent)
		}
		if d.File != tc.file || d.Value != tc.value {
			t.Fatalf("0x%08X: got %s/0x%X want %s/0x%X", tc.raw, d.File, d.Value, tc.file, tc.value)
		}
	}
}

func TestOffsetTableValidate(t *testing.T) {
	t.Parallel()

	good := DefaultOffsetTable()
	if err := good.Validate(); err != nil {
		t.Fatalf("default table: %v", err)
	}

	overlap := DefaultOffsetTable()
	overlap.ValueMask = 0x7FFFFFFF
	if err := overlap.Validate(); err == nil {
		t.Fatal("expected overlapping masks to fail")
	}

	shift := DefaultOffsetTable()
	shift.LocationShift = 28
	if err := shift.Validate(); err == nil {
		t.Fatal("expected mismatched shift to fail")
	}
}

func TestResolveLocalAndExternal(t *testing.T) {
	t.Parallel()

	local := make([]byte, 64)
	shared := make([]byte, 32)
	res := NewResolver(DefaultOffsetTable(), NewStores(local).With(Shared, shared))
	e := Entry{ID: 1, Offset: 16, Size: 32}

	loc, ok, err := res.Resolve(NormalOffset(8), e)
	if err != nil || !ok {
		t.Fatalf("resolve local: ok=%v err=%v", ok, err)
	}
	if loc.File != Local || loc.Offset != 24 {
		t.Fatalf("resolve local: got %s@%d want local@24", loc.File, loc.Offset)
	}

	withAddr := Entry{ID: 2, Offset: 16, Size: 32, Address: 0x1000}
	loc, _, err = res.Resolve(NormalOffset(0x1004), withAddr)
	if err != nil || loc.Offset != 20 {
		t.Fatalf("resolve addressed local: got %d err=%v want 20", loc.Offset, err)
	}

	loc, ok, err = res.Resolve(NormalOffset(0x80000004), e)
	if err != nil || !ok || loc.File != Shared || loc.Offset != 4 || len(loc.Buffer) != len(shared) {
		t.Fatalf("resolve shared: %+v ok=%v err=%v", loc, ok, err)
	}

	_, ok, err = res.Resolve(NormalOffset(0x40000004), e)
	if !ok || !errors.Is(err, ErrMissingBackingFile) {
		t.Fatalf("resolve mainmenu: ok=%v err=%v want ErrMissingBackingFile", ok, err)
	}

	_, ok, err = res.Resolve(NormalOffset(0), e)
	if ok || err != nil {
		t.Fatalf("resolve sentinel: ok=%v err=%v want absent", ok, err)
	}

	_, _, err = res.Resolve(NormalOffset(0x1000), e)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("resolve past local end: got %v want ErrOutOfBounds", err)
	}
}

func TestReadCAO(t *testing.T) {
	t.Parallel()

	local := make([]byte, 32)
	res := NewResolver(DefaultOffsetTable(), NewStores(local))
	e := Entry{Offset: 0, Size: 32}

	// Zero count with a garbage offset never resolves the offset.
	PutU32(local, 0, 0)
	PutU32(local, 4, 0x40001234)
	cao, err := res.ReadCAO(local, 0, Count32, e)
	if err != nil || !cao.Empty() {
		t.Fatalf("zero count: %+v err=%v", cao, err)
	}

	PutU32(local, 8, 3)
	PutU32(local, 12, 16)
	cao, err = res.ReadCAO(local, 8, Count32, e)
	if err != nil || cao.Empty() || cao.Count != 3 || cao.At.Offset != 16 {
		t.Fatalf("present cao: %+v err=%v", cao, err)
	}

	PutU16(local, 16, 2)
	PutU16(local, 18, 0xFFFF)
	PutU32(local, 20, 24)
	cao, err = res.ReadCAO(local, 16, Count16, e)
	if err != nil || cao.Count != 2 || cao.At.Offset != 24 {
		t.Fatalf("16-bit cao: %+v err=%v", cao, err)
	}

	PutU32(local, 24, 5)
	PutU32(local, 28, 0xFFFFFFFF)
	cao, err = res.ReadCAO(local, 24, Count32, e)
	if err != nil || !cao.Empty() || cao.Count != 5 {
		t.Fatalf("absent offset: %+v err=%v", cao, err)
	}
}
