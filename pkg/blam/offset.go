package blam

import (
	"errors"
	"fmt"
	"math/bits"
)

// DataFile identifies which backing buffer a normalized offset addresses.
type DataFile uint8

const (
	Local DataFile = iota
	MainMenu
	Shared
	SinglePlayerShared
)

func (d DataFile) String() string {
	switch d {
	case Local:
		return "local"
	case MainMenu:
		return "mainmenu"
	case Shared:
		return "shared"
	case SinglePlayerShared:
		return "single_player_shared"
	default:
		return fmt.Sprintf("file(%d)", uint8(d))
	}
}

// ParseDataFile accepts the names produced by DataFile.String.
func ParseDataFile(s string) (DataFile, error) {
	for d := Local; d <= SinglePlayerShared; d++ {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown data file %q", s)
}

func (d DataFile) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *DataFile) UnmarshalText(b []byte) error {
	v, err := ParseDataFile(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// NormalOffset is a raw 32-bit offset whose high bits select a data file.
// Its meaning is defined by an OffsetTable.
type NormalOffset uint32

func (o NormalOffset) String() string {
	return fmt.Sprintf("0x%08X", uint32(o))
}

// OffsetTable describes how normalized offsets are encoded. The sentinel
// values and discriminant bits were inferred from shipped maps, so they are
// configuration rather than constants.
type OffsetTable struct {
	LocationShift uint     `yaml:"location_shift" json:"location_shift"`
	LocationMask  uint32   `yaml:"location_mask" json:"location_mask"`
	ValueMask     uint32   `yaml:"value_mask" json:"value_mask"`
	Absent        []uint32 `yaml:"absent" json:"absent"`
	AbsentValues  []uint32 `yaml:"absent_values" json:"absent_values"`
}

// DefaultOffsetTable matches the Halo 2 map convention: the top two bits
// select the data file, zero and both maximum values mean "not present".
// A zero value is also "not present" in any data file, so 0x80000000 never
// reads from the start of shared.map.
func DefaultOffsetTable() OffsetTable {
	return OffsetTable{
		LocationShift: 30,
		LocationMask:  0xC0000000,
		ValueMask:     0x3FFFFFFF,
		Absent:        []uint32{0x00000000, 0x7FFFFFFF, 0xFFFFFFFF},
		AbsentValues:  []uint32{0},
	}
}

func (t *OffsetTable) Validate() error {
	if t.LocationMask&t.ValueMask != 0 {
		return errors.New("offset table: location and value masks overlap")
	}
	if t.ValueMask == 0 {
		return errors.New("offset table: value mask is empty")
	}
	if t.LocationMask != 0 {
		if int(t.LocationShift) != bits.TrailingZeros32(t.LocationMask) {
			return fmt.Errorf("offset table: location shift %d does not match mask 0x%08X", t.LocationShift, t.LocationMask)
		}
	}
	return nil
}

// Decoded is a normalized offset split into its parts.
type Decoded struct {
	Raw    NormalOffset
	File   DataFile
	Value  uint32
	Absent bool
}

func (t *OffsetTable) Decode(o NormalOffset) Decoded {
	raw := uint32(o)
	d := Decoded{
		Raw:   o,
		File:  DataFile((raw & t.LocationMask) >> t.LocationShift),
		Value: raw & t.ValueMask,
	}
	for _, s := range t.Absent {
		if raw == s {
			d.Absent = true
			return d
		}
	}
	for _, s := range t.AbsentValues {
		if d.Value == s {
			d.Absent = true
			return d
		}
	}
	return d
}

// Stores holds the backing buffers of one map: its own data plus any
// shared data files.
type Stores struct {
	files map[DataFile][]byte
}

func NewStores(local []byte) *Stores {
	return &Stores{files: map[DataFile][]byte{Local: local}}
}

// With registers the buffer for a data file and returns s.
func (s *Stores) With(file DataFile, data []byte) *Stores {
	s.files[file] = data
	return s
}

func (s *Stores) Buffer(file DataFile) ([]byte, bool) {
	if s == nil {
		return nil, false
	}
	b, ok := s.files[file]
	return b, ok
}

func (s *Stores) Local() []byte {
	b, _ := s.Buffer(Local)
	return b
}

// Location is a resolved, file-scoped byte position.
type Location struct {
	File   DataFile
	Buffer []byte
	Offset int
}

// Window slices length bytes starting at the location.
func (l Location) Window(length int) ([]byte, bool) {
	if length < 0 || l.Offset < 0 || l.Offset > len(l.Buffer)-length {
		return nil, false
	}
	return l.Buffer[l.Offset : l.Offset+length], true
}

// Resolver turns normalized offsets into absolute positions inside the
// backing buffers. It is read-only and safe to share between goroutines.
type Resolver struct {
	Table  OffsetTable
	Stores *Stores
}

func NewResolver(table OffsetTable, stores *Stores) *Resolver {
	return &Resolver{Table: table, Stores: stores}
}

// Resolve maps an offset stored inside a tag. Local offsets are relative to
// the owning entry's chunk: absolute = entry.Offset + (value - entry.Address).
// External offsets are absolute within their data file. ok is false when
// the offset is a "not present" sentinel.
func (r *Resolver) Resolve(o NormalOffset, e Entry) (Location, bool, error) {
	d := r.Table.Decode(o)
	if d.Absent {
		return Location{}, false, nil
	}
	if d.File != Local {
		return r.external(d)
	}
	abs := int64(e.Offset) + int64(d.Value) - int64(e.Address)
	if abs < 0 || abs > int64(len(r.Stores.Local())) {
		return Location{}, true, fmt.Errorf("%w: local offset %s resolves to %d", ErrOutOfBounds, o, abs)
	}
	return Location{File: Local, Buffer: r.Stores.Local(), Offset: int(abs)}, true, nil
}

// ResolveFile maps an offset that is absolute within whichever data file it
// selects, as used by bulk payload spans.
func (r *Resolver) ResolveFile(o NormalOffset) (Location, bool, error) {
	d := r.Table.Decode(o)
	if d.Absent {
		return Location{}, false, nil
	}
	if d.File != Local {
		return r.external(d)
	}
	return Location{File: Local, Buffer: r.Stores.Local(), Offset: int(d.Value)}, true, nil
}

func (r *Resolver) external(d Decoded) (Location, bool, error) {
	buf, ok := r.Stores.Buffer(d.File)
	if !ok {
		return Location{}, true, fmt.Errorf("%w: %s (offset %s)", ErrMissingBackingFile, d.File, d.Raw)
	}
	return Location{File: d.File, Buffer: buf, Offset: int(d.Value)}, true, nil
}

// CountWidth is the stored width of a CAO count field.
type CountWidth uint8

const (
	Count32 CountWidth = iota
	Count16
)

// caoSize is the stored size of a count-and-offset pair. Sixteen bit counts
// are padded, the offset always starts four bytes in.
const caoSize = 8

// CAO is a count-and-offset descriptor for a run of fixed-size records.
type CAO struct {
	Count  int
	Offset NormalOffset
	// At is the resolved start of the run. It is only meaningful when
	// Present is true.
	At      Location
	Present bool
}

// Empty reports whether the descriptor addresses no records.
func (c CAO) Empty() bool {
	return !c.Present || c.Count == 0
}

// ReadCAO reads a count at off and an offset at off+4, then resolves the
// offset. A zero count never touches the offset field.
func (r *Resolver) ReadCAO(window []byte, off int, width CountWidth, e Entry) (CAO, error) {
	var count int
	switch width {
	case Count16:
		count = int(U16(window, off))
	default:
		count = int(U32(window, off))
	}
	if count == 0 {
		return CAO{}, nil
	}
	raw := NormalOffset(U32(window, off+4))
	loc, ok, err := r.Resolve(raw, e)
	if err != nil {
		return CAO{Count: count, Offset: raw}, err
	}
	if !ok {
		return CAO{Count: count, Offset: raw}, nil
	}
	return CAO{Count: count, Offset: raw, At: loc, Present: true}, nil
}
