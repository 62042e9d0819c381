package patch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samcharles93/h2tags/pkg/blam"
)

var ErrBadValue = errors.New("patch: invalid value")

// encode parses v for the target's kind and writes it into buf.
func encode(buf []byte, t Target, v Value) error {
	s := strings.TrimSpace(string(v))
	var ok bool
	switch t.Kind {
	case blam.KindU8:
		n, err := strconv.ParseUint(s, 0, 8)
		if err != nil {
			return badValue(t, v, err)
		}
		ok = blam.PutU8(buf, t.Offset, uint8(n))
	case blam.KindI8:
		n, err := strconv.ParseInt(s, 0, 8)
		if err != nil {
			return badValue(t, v, err)
		}
		ok = blam.PutU8(buf, t.Offset, uint8(n))
	case blam.KindU16:
		n, err := strconv.ParseUint(s, 0, 16)
		if err != nil {
			return badValue(t, v, err)
		}
		ok = blam.PutU16(buf, t.Offset, uint16(n))
	case blam.KindI16:
		n, err := strconv.ParseInt(s, 0, 16)
		if err != nil {
			return badValue(t, v, err)
		}
		ok = blam.PutU16(buf, t.Offset, uint16(n))
	case blam.KindU32, blam.KindNormalOffset:
		n, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return badValue(t, v, err)
		}
		ok = blam.PutU32(buf, t.Offset, uint32(n))
	case blam.KindI32:
		n, err := strconv.ParseInt(s, 0, 32)
		if err != nil {
			return badValue(t, v, err)
		}
		ok = blam.PutU32(buf, t.Offset, uint32(n))
	case blam.KindTagRef:
		id, err := blam.ParseTagID(s)
		if err != nil {
			return badValue(t, v, err)
		}
		ok = blam.PutU32(buf, t.Offset, uint32(id))
	case blam.KindF32:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return badValue(t, v, err)
		}
		ok = blam.PutF32(buf, t.Offset, float32(f))
	case blam.KindVec2, blam.KindVec3, blam.KindVec4, blam.KindQuat:
		lanes, err := parseFloats(s, t.Width/4)
		if err != nil {
			return badValue(t, v, err)
		}
		ok = putLanes(buf, t.Offset, lanes)
	case blam.KindMat4:
		lanes, err := parseFloats(s, 16)
		if err != nil {
			return badValue(t, v, err)
		}
		var m blam.Mat4
		for i, f := range lanes {
			m.M[i/4][i%4] = f
		}
		ok = blam.PutMat4(buf, t.Offset, m)
	case blam.KindString:
		text := string(v)
		if len(text) > t.Width {
			return badValue(t, v, fmt.Errorf("%d bytes do not fit in %d", len(text), t.Width))
		}
		ok = blam.PutString(buf, t.Offset, t.Width, text)
	default:
		return fmt.Errorf("%w: %s is a %s", ErrNotWritable, t.Selector, t.Kind)
	}
	if !ok {
		return fmt.Errorf("%w: %s at %d+%d outside map of %d bytes", blam.ErrOutOfBounds, t.Selector, t.Offset, t.Width, len(buf))
	}
	return nil
}

// parseFloats reads n comma separated lanes, written row-major for matrices.
func parseFloats(s string, n int) ([]float32, error) {
	parts := strings.Split(strings.Trim(s, "[]() "), ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d components, got %d", n, len(parts))
	}
	out := make([]float32, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

func putLanes(buf []byte, off int, lanes []float32) bool {
	if off < 0 || off > len(buf)-4*len(lanes) {
		return false
	}
	for i, f := range lanes {
		blam.PutF32(buf, off+4*i, f)
	}
	return true
}

func badValue(t Target, v Value, err error) error {
	return fmt.Errorf("%w: %s (%s) = %q: %v", ErrBadValue, t.Selector, t.Kind, string(v), err)
}
