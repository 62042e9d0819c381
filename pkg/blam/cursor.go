package blam

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// Out-of-bounds numeric reads yield zero. Every reader below returns the
// zero value of its kind when off < 0 or off+width > len(b); this is how
// the format's optional trailing fields are tolerated, and it is the only
// place where a short window is not an error.

// Vec2 is a two-lane float vector.
type Vec2 struct{ X, Y float32 }

// Vec3 is a three-lane float vector.
type Vec3 struct{ X, Y, Z float32 }

// Vec4 is a four-lane float vector.
type Vec4 struct{ X, Y, Z, W float32 }

// Quat is a quaternion stored as X, Y, Z, W.
type Quat struct{ X, Y, Z, W float32 }

// Mat4 is a 4x4 float matrix. M[r][c] is row r, column c.
type Mat4 struct {
	M [4][4]float32
}

// Primitive widths in bytes.
const (
	widthU8   = 1
	widthU16  = 2
	widthU32  = 4
	widthVec2 = 8
	widthVec3 = 12
	widthVec4 = 16
	widthMat4 = 64
)

func inBounds(b []byte, off, width int) bool {
	return off >= 0 && width >= 0 && off <= len(b)-width
}

func U8(b []byte, off int) uint8 {
	if !inBounds(b, off, widthU8) {
		return 0
	}
	return b[off]
}

func I8(b []byte, off int) int8 { return int8(U8(b, off)) }

func U16(b []byte, off int) uint16 {
	if !inBounds(b, off, widthU16) {
		return 0
	}
	return binary.LittleEndian.Uint16(b[off:])
}

func I16(b []byte, off int) int16 { return int16(U16(b, off)) }

func U32(b []byte, off int) uint32 {
	if !inBounds(b, off, widthU32) {
		return 0
	}
	return binary.LittleEndian.Uint32(b[off:])
}

func I32(b []byte, off int) int32 { return int32(U32(b, off)) }

func F32(b []byte, off int) float32 {
	return math.Float32frombits(U32(b, off))
}

// ReadVec2 reads two float lanes. A vector that does not fit entirely is zero.
func ReadVec2(b []byte, off int) Vec2 {
	if !inBounds(b, off, widthVec2) {
		return Vec2{}
	}
	return Vec2{F32(b, off), F32(b, off+4)}
}

func ReadVec3(b []byte, off int) Vec3 {
	if !inBounds(b, off, widthVec3) {
		return Vec3{}
	}
	return Vec3{F32(b, off), F32(b, off+4), F32(b, off+8)}
}

func ReadVec4(b []byte, off int) Vec4 {
	if !inBounds(b, off, widthVec4) {
		return Vec4{}
	}
	return Vec4{F32(b, off), F32(b, off+4), F32(b, off+8), F32(b, off+12)}
}

func ReadQuat(b []byte, off int) Quat {
	v := ReadVec4(b, off)
	return Quat{v.X, v.Y, v.Z, v.W}
}

// ReadMat4 reads sixteen float slots. The stored order is transposed
// relative to Mat4: M[r][c] comes from slot r+4*c.
func ReadMat4(b []byte, off int) Mat4 {
	var m Mat4
	if !inBounds(b, off, widthMat4) {
		return m
	}
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m.M[r][c] = F32(b, off+4*(r+4*c))
		}
	}
	return m
}

// String reads at most length bytes starting at off and stops at the first
// zero byte. The read is shortened silently when the window is smaller
// than length.
func String(b []byte, off, length int) string {
	if off < 0 || off >= len(b) || length <= 0 {
		return ""
	}
	n := min(length, len(b)-off)
	return decodeText(b[off : off+n])
}

// CString reads a zero-terminated string starting at off. limit caps the
// scan; zero means scan to the end of the window.
func CString(b []byte, off, limit int) string {
	if off < 0 || off >= len(b) {
		return ""
	}
	if limit <= 0 {
		limit = len(b) - off
	}
	return String(b, off, limit)
}

// decodeText maps each byte to the code point of the same value, so bytes
// above 0x7f are read as Latin-1 rather than rejected as invalid UTF-8.
func decodeText(raw []byte) string {
	end := 0
	ascii := true
	for end < len(raw) && raw[end] != 0 {
		if raw[end] >= utf8.RuneSelf {
			ascii = false
		}
		end++
	}
	if ascii {
		return string(raw[:end])
	}
	runes := make([]rune, end)
	for i := range end {
		runes[i] = rune(raw[i])
	}
	return string(runes)
}

// Put helpers write in the same little-endian layout the readers decode.
// They report false and leave b untouched when the value does not fit.

func PutU8(b []byte, off int, v uint8) bool {
	if !inBounds(b, off, widthU8) {
		return false
	}
	b[off] = v
	return true
}

func PutU16(b []byte, off int, v uint16) bool {
	if !inBounds(b, off, widthU16) {
		return false
	}
	binary.LittleEndian.PutUint16(b[off:], v)
	return true
}

func PutU32(b []byte, off int, v uint32) bool {
	if !inBounds(b, off, widthU32) {
		return false
	}
	binary.LittleEndian.PutUint32(b[off:], v)
	return true
}

func PutF32(b []byte, off int, v float32) bool {
	return PutU32(b, off, math.Float32bits(v))
}

func PutVec2(b []byte, off int, v Vec2) bool {
	if !inBounds(b, off, widthVec2) {
		return false
	}
	PutF32(b, off, v.X)
	PutF32(b, off+4, v.Y)
	return true
}

func PutVec3(b []byte, off int, v Vec3) bool {
	if !inBounds(b, off, widthVec3) {
		return false
	}
	PutF32(b, off, v.X)
	PutF32(b, off+4, v.Y)
	PutF32(b, off+8, v.Z)
	return true
}

func PutVec4(b []byte, off int, v Vec4) bool {
	if !inBounds(b, off, widthVec4) {
		return false
	}
	PutF32(b, off, v.X)
	PutF32(b, off+4, v.Y)
	PutF32(b, off+8, v.Z)
	PutF32(b, off+12, v.W)
	return true
}

func PutQuat(b []byte, off int, q Quat) bool {
	return PutVec4(b, off, Vec4{q.X, q.Y, q.Z, q.W})
}

func PutMat4(b []byte, off int, m Mat4) bool {
	if !inBounds(b, off, widthMat4) {
		return false
	}
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			PutF32(b, off+4*(r+4*c), m.M[r][c])
		}
	}
	return true
}

// PutString writes s into a fixed field of length bytes, zero padding the
// remainder. Strings longer than the field are truncated.
func PutString(b []byte, off, length int, s string) bool {
	if !inBounds(b, off, length) {
		return false
	}
	field := b[off : off+length]
	clear(field)
	copy(field, s)
	return true
}
