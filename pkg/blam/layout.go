package blam

import (
	"fmt"
)

// FieldKind is the read strategy of a declared field.
type FieldKind uint8

const (
	KindInvalid FieldKind = iota
	KindU8
	KindI8
	KindU16
	KindI16
	KindU32
	KindI32
	KindF32
	KindVec2
	KindVec3
	KindVec4
	KindQuat
	KindMat4
	KindNormalOffset
	KindTagRef
	KindString
	KindCString
	KindArray
	KindRecord
	KindBlocks
	KindExternal
)

var kindNames = [...]string{
	KindInvalid:      "invalid",
	KindU8:           "u8",
	KindI8:           "i8",
	KindU16:          "u16",
	KindI16:          "i16",
	KindU32:          "u32",
	KindI32:          "i32",
	KindF32:          "f32",
	KindVec2:         "vec2",
	KindVec3:         "vec3",
	KindVec4:         "vec4",
	KindQuat:         "quat",
	KindMat4:         "mat4",
	KindNormalOffset: "offset",
	KindTagRef:       "tagref",
	KindString:       "string",
	KindCString:      "cstring",
	KindArray:        "array",
	KindRecord:       "record",
	KindBlocks:       "blocks",
	KindExternal:     "external",
}

func (k FieldKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k FieldKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *FieldKind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = FieldKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown field kind %q", b)
}

// Primitive reports whether values of this kind are read directly at an
// offset with a fixed width.
func (k FieldKind) Primitive() bool {
	return k >= KindU8 && k <= KindTagRef
}

// Field is the static description of one declared field.
type Field struct {
	Name   string    `json:"name"`
	Offset int       `json:"offset"`
	Kind   FieldKind `json:"kind"`
	// Elem is the element kind of arrays and primitive blocks.
	Elem FieldKind `json:"elem,omitempty"`
	// Width is the byte width of a primitive, the fixed length of a
	// string, the length of a nested record, or the record length of
	// a block run.
	Width int `json:"width"`
	// Count is the element count of fixed arrays and external span sets.
	Count      int        `json:"count,omitempty"`
	CountWidth CountWidth `json:"-"`
	// SizeOffset locates the size table of external span sets.
	SizeOffset int `json:"size_offset,omitempty"`
	// Expect is the label a typed reference must resolve to.
	Expect Label  `json:"expect,omitzero"`
	Sub    Layout `json:"-"`
}

// Span is the number of bytes the field occupies in its own record.
func (f Field) Span() int {
	switch f.Kind {
	case KindArray:
		return f.Width * f.Count
	case KindBlocks:
		return caoSize
	case KindExternal:
		return 0
	default:
		return f.Width
	}
}

// Layout is the type-erased view of a shape used by tooling that walks
// declarations without knowing the Go type behind them.
type Layout interface {
	Name() string
	Label() Label
	Size() int
	Fields() []Field
	Field(name string) (Field, bool)
	HasExternal() bool
}

// Prim bundles the kind, width and reader of a primitive value type.
type Prim[V any] struct {
	kind  FieldKind
	width int
	read  func(b []byte, off int) V
}

func (p Prim[V]) Kind() FieldKind { return p.kind }
func (p Prim[V]) Width() int      { return p.width }

var (
	Uint8      = Prim[uint8]{KindU8, widthU8, U8}
	Int8       = Prim[int8]{KindI8, widthU8, I8}
	Uint16     = Prim[uint16]{KindU16, widthU16, U16}
	Int16      = Prim[int16]{KindI16, widthU16, I16}
	Uint32     = Prim[uint32]{KindU32, widthU32, U32}
	Int32      = Prim[int32]{KindI32, widthU32, I32}
	Float32    = Prim[float32]{KindF32, widthU32, F32}
	Vector2    = Prim[Vec2]{KindVec2, widthVec2, ReadVec2}
	Vector3    = Prim[Vec3]{KindVec3, widthVec3, ReadVec3}
	Vector4    = Prim[Vec4]{KindVec4, widthVec4, ReadVec4}
	Quaternion = Prim[Quat]{KindQuat, widthVec4, ReadQuat}
	Matrix4    = Prim[Mat4]{KindMat4, widthMat4, ReadMat4}
	Offset     = Prim[NormalOffset]{KindNormalOffset, widthU32, func(b []byte, off int) NormalOffset {
		return NormalOffset(U32(b, off))
	}}
)

// Enum8 reads a named uint8 type.
func Enum8[V ~uint8]() Prim[V] {
	return Prim[V]{KindU8, widthU8, func(b []byte, off int) V { return V(U8(b, off)) }}
}

// Enum16 reads a named uint16 type.
func Enum16[V ~uint16]() Prim[V] {
	return Prim[V]{KindU16, widthU16, func(b []byte, off int) V { return V(U16(b, off)) }}
}

// EnumI16 reads a named int16 type.
func EnumI16[V ~int16]() Prim[V] {
	return Prim[V]{KindI16, widthU16, func(b []byte, off int) V { return V(I16(b, off)) }}
}

// Enum32 reads a named uint32 type.
func Enum32[V ~uint32]() Prim[V] {
	return Prim[V]{KindU32, widthU32, func(b []byte, off int) V { return V(U32(b, off)) }}
}

// EnumI32 reads a named int32 type.
func EnumI32[V ~int32]() Prim[V] {
	return Prim[V]{KindI32, widthU32, func(b []byte, off int) V { return V(I32(b, off)) }}
}

// RefSite is one tag reference found in a materialized body.
type RefSite struct {
	Path   string `json:"path"`
	Ref    TagRef `json:"ref"`
	Expect Label  `json:"expect,omitzero"`
}

type fieldOp[T any] func(c *cursor, t *T) error
type externalOp[T any] func(x *cursor, t *T) error
type refOp[T any] func(t *T, prefix string, yield func(RefSite) bool) bool

// Shape is the declared layout of a Go type T. Shapes are built once with
// DefineShape or DefineTag and are read-only afterwards.
type Shape[T any] struct {
	name      string
	label     Label
	size      int
	fields    []Field
	ops       []fieldOp[T]
	externals []externalOp[T]
	refs      []refOp[T]
}

func (s *Shape[T]) Name() string  { return s.name }
func (s *Shape[T]) Label() Label  { return s.label }
func (s *Shape[T]) Size() int     { return s.size }
func (s *Shape[T]) HasExternal() bool {
	return len(s.externals) > 0
}

// Fields returns the declared fields in declaration order.
func (s *Shape[T]) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *Shape[T]) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Builder collects field declarations for a shape.
type Builder[T any] struct {
	s *Shape[T]
}

// DefineShape declares the layout of T. size is the fixed record length; a
// size of zero means the record has no fixed length and can only be used
// as a top-level shape.
func DefineShape[T any](name string, size int, f func(b *Builder[T])) *Shape[T] {
	if size < 0 {
		panic(fmt.Sprintf("DefineShape(%s): negative size", name))
	}
	s := &Shape[T]{name: name, size: size}
	f(&Builder[T]{s: s})
	return s
}

// DefineTag declares the layout of a tag body. The shape takes its name and
// label from K.
func DefineTag[K Kind](size int, f func(b *Builder[K])) *Shape[K] {
	var zero K
	l := zero.TagLabel()
	s := DefineShape(l.String(), size, f)
	s.label = l
	return s
}

func (b *Builder[T]) add(f Field, op fieldOp[T]) {
	if f.Name == "" {
		panic(fmt.Sprintf("DefineShape(%s): field at offset %d has no name", b.s.name, f.Offset))
	}
	if f.Offset < 0 {
		panic(fmt.Sprintf("DefineShape(%s): field %s has negative offset", b.s.name, f.Name))
	}
	if _, dup := b.s.Field(f.Name); dup {
		panic(fmt.Sprintf("DefineShape(%s): duplicate field %s", b.s.name, f.Name))
	}
	if b.s.size > 0 && f.Offset+f.Span() > b.s.size {
		panic(fmt.Sprintf("DefineShape(%s): field %s [%d,%d) exceeds record length %d",
			b.s.name, f.Name, f.Offset, f.Offset+f.Span(), b.s.size))
	}
	b.s.fields = append(b.s.fields, f)
	b.s.ops = append(b.s.ops, op)
}

// Value declares a primitive field at off.
func Value[T, V any](b *Builder[T], off int, name string, p Prim[V], ptr func(*T) *V) {
	b.add(Field{Name: name, Offset: off, Kind: p.kind, Width: p.width}, func(c *cursor, t *T) error {
		*ptr(t) = p.read(c.data, off)
		return nil
	})
}

// Array declares count contiguous primitives starting at off.
func Array[T, V any](b *Builder[T], off, count int, name string, p Prim[V], ptr func(*T) *[]V) {
	if count <= 0 {
		panic(fmt.Sprintf("DefineShape(%s): array %s needs a positive count", b.s.name, name))
	}
	b.add(Field{Name: name, Offset: off, Kind: KindArray, Elem: p.kind, Width: p.width, Count: count}, func(c *cursor, t *T) error {
		out := make([]V, count)
		for i := range out {
			out[i] = p.read(c.data, off+i*p.width)
		}
		*ptr(t) = out
		return nil
	})
}

// Text declares a fixed-length string field.
func Text[T any](b *Builder[T], off, length int, name string, ptr func(*T) *string) {
	b.add(Field{Name: name, Offset: off, Kind: KindString, Width: length}, func(c *cursor, t *T) error {
		*ptr(t) = String(c.data, off, length)
		return nil
	})
}

// CText declares a zero-terminated string starting at off, scanning at
// most limit bytes (zero for no limit).
func CText[T any](b *Builder[T], off, limit int, name string, ptr func(*T) *string) {
	b.add(Field{Name: name, Offset: off, Kind: KindCString, Width: limit}, func(c *cursor, t *T) error {
		*ptr(t) = CString(c.data, off, limit)
		return nil
	})
}

// UntypedRef declares a tag reference field with no expected kind.
func UntypedRef[T any](b *Builder[T], off int, name string, ptr func(*T) *TagRef) {
	b.add(Field{Name: name, Offset: off, Kind: KindTagRef, Width: widthU32}, func(c *cursor, t *T) error {
		ptr(t).ID = TagID(U32(c.data, off))
		return nil
	})
	b.s.refs = append(b.s.refs, func(t *T, prefix string, yield func(RefSite) bool) bool {
		return yield(RefSite{Path: prefix + name, Ref: *ptr(t)})
	})
}

// TypedRef declares a tag reference field expected to address a K.
func TypedRef[T any, K Kind](b *Builder[T], off int, name string, ptr func(*T) *Ref[K]) {
	var zero K
	expect := zero.TagLabel()
	b.add(Field{Name: name, Offset: off, Kind: KindTagRef, Width: widthU32, Expect: expect}, func(c *cursor, t *T) error {
		ptr(t).ID = TagID(U32(c.data, off))
		return nil
	})
	b.s.refs = append(b.s.refs, func(t *T, prefix string, yield func(RefSite) bool) bool {
		return yield(RefSite{Path: prefix + name, Ref: ptr(t).Untyped(), Expect: expect})
	})
}

func checkSub[S any](parent, field string, sub *Shape[S]) {
	if sub.size <= 0 {
		panic(fmt.Sprintf("DefineShape(%s): %s uses %s which has no fixed length", parent, field, sub.name))
	}
	if sub.HasExternal() {
		panic(fmt.Sprintf("DefineShape(%s): %s uses %s which declares external data", parent, field, sub.name))
	}
}

// Record declares a single embedded sub-record of sub's fixed length.
func Record[T, S any](b *Builder[T], off int, name string, sub *Shape[S], ptr func(*T) *S) {
	checkSub(b.s.name, name, sub)
	b.add(Field{Name: name, Offset: off, Kind: KindRecord, Width: sub.size, Sub: sub}, func(c *cursor, t *T) error {
		w, ok := slice(c.data, off, sub.size)
		if !ok {
			return c.fail(name, off, sub.size, ErrOutOfBounds)
		}
		sc := c.sub(name, w, c.file, c.base+off)
		sc.track(sub.size)
		return sub.fill(sc, ptr(t))
	})
	b.s.refs = append(b.s.refs, func(t *T, prefix string, yield func(RefSite) bool) bool {
		return sub.walkRefs(ptr(t), prefix+name+".", yield)
	})
}

// Blocks declares a run of sub records located by a count-and-offset pair
// stored at off.
func Blocks[T, S any](b *Builder[T], off int, name string, sub *Shape[S], ptr func(*T) *[]S) {
	blocks(b, off, name, Count32, sub, ptr)
}

// Blocks16 is Blocks with a sixteen bit count.
func Blocks16[T, S any](b *Builder[T], off int, name string, sub *Shape[S], ptr func(*T) *[]S) {
	blocks(b, off, name, Count16, sub, ptr)
}

func blocks[T, S any](b *Builder[T], off int, name string, width CountWidth, sub *Shape[S], ptr func(*T) *[]S) {
	checkSub(b.s.name, name, sub)
	f := Field{Name: name, Offset: off, Kind: KindBlocks, Width: sub.size, CountWidth: width, Sub: sub}
	b.add(f, func(c *cursor, t *T) error {
		run, n, err := c.run(name, off, width, sub.size)
		if err != nil {
			return err
		}
		out := make([]S, n)
		for i := range out {
			rec := run.Buffer[run.Offset+i*sub.size : run.Offset+(i+1)*sub.size]
			sc := c.sub(fmt.Sprintf("%s[%d]", name, i), rec, run.File, run.Offset+i*sub.size)
			if err := sub.fill(sc, &out[i]); err != nil {
				return err
			}
		}
		*ptr(t) = out
		return nil
	})
	b.s.refs = append(b.s.refs, func(t *T, prefix string, yield func(RefSite) bool) bool {
		for i := range *ptr(t) {
			if !sub.walkRefs(&(*ptr(t))[i], fmt.Sprintf("%s%s[%d].", prefix, name, i), yield) {
				return false
			}
		}
		return true
	})
}

// PrimBlocks declares a run of primitives located by a count-and-offset
// pair stored at off.
func PrimBlocks[T, V any](b *Builder[T], off int, name string, p Prim[V], ptr func(*T) *[]V) {
	f := Field{Name: name, Offset: off, Kind: KindBlocks, Elem: p.kind, Width: p.width}
	b.add(f, func(c *cursor, t *T) error {
		run, n, err := c.run(name, off, Count32, p.width)
		if err != nil {
			return err
		}
		out := make([]V, n)
		for i := range out {
			out[i] = p.read(run.Buffer, run.Offset+i*p.width)
		}
		*ptr(t) = out
		return nil
	})
}

// ExternalSpan is a payload stored outside the tag's own chunk. Offset and
// Size are read during materialization; Data is filled by the second pass.
type ExternalSpan struct {
	Offset NormalOffset `json:"offset"`
	Size   uint32       `json:"size"`
	File   DataFile     `json:"file"`
	Data   []byte       `json:"-"`
}

func (s ExternalSpan) Loaded() bool {
	return s.Data != nil
}

// External declares count payload spans whose normalized offsets are stored
// as a u32 array at offsets and whose sizes are stored as a u32 array at
// sizes. The payload bytes are fetched by PopulateExternal.
func External[T any](b *Builder[T], offsets, sizes, count int, name string, ptr func(*T) *[]ExternalSpan) {
	if count <= 0 {
		panic(fmt.Sprintf("DefineShape(%s): external %s needs a positive count", b.s.name, name))
	}
	f := Field{Name: name, Offset: offsets, Kind: KindExternal, Elem: KindU32, Width: widthU32, Count: count, SizeOffset: sizes}
	b.add(f, func(c *cursor, t *T) error {
		var table OffsetTable
		if c.src.Resolver != nil {
			table = c.src.Resolver.Table
		} else {
			table = DefaultOffsetTable()
		}
		out := make([]ExternalSpan, count)
		for i := range out {
			o := NormalOffset(U32(c.data, offsets+i*widthU32))
			out[i] = ExternalSpan{
				Offset: o,
				Size:   U32(c.data, sizes+i*widthU32),
				File:   table.Decode(o).File,
			}
		}
		*ptr(t) = out
		return nil
	})
	b.s.externals = append(b.s.externals, func(x *cursor, t *T) error {
		spans := *ptr(t)
		for i := range spans {
			sp := &spans[i]
			if sp.Size == 0 {
				continue
			}
			field := fmt.Sprintf("%s[%d]", name, i)
			loc, ok, err := x.src.Resolver.ResolveFile(sp.Offset)
			if err != nil {
				return x.fail(field, int(uint32(sp.Offset)), int(sp.Size), err)
			}
			if !ok {
				continue
			}
			w, ok := loc.Window(int(sp.Size))
			if !ok {
				return &FieldError{
					ID:     x.src.Entry.ID,
					Label:  x.src.Entry.Label,
					Field:  field,
					Offset: loc.Offset,
					Length: int(sp.Size),
					Window: len(loc.Buffer),
					Err:    ErrOutOfBounds,
				}
			}
			sp.Data = append([]byte(nil), w...)
			x.src.Tracker.trackExternal(loc.File, loc.Offset, len(w), name)
		}
		return nil
	})
}
