package patch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samcharles93/h2tags/pkg/blam"
)

var (
	ErrBadSelector    = errors.New("patch: malformed selector")
	ErrUnknownField   = errors.New("patch: unknown field")
	ErrIndexRange     = errors.New("patch: index out of range")
	ErrNotWritable    = errors.New("patch: field cannot be patched")
	ErrExternalTarget = errors.New("patch: field lives in a shared data file")
)

type segment struct {
	name  string
	index int // -1 when the segment has no subscript
}

func parseSelector(s string) ([]segment, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrBadSelector)
	}
	parts := strings.Split(s, ".")
	out := make([]segment, 0, len(parts))
	for _, p := range parts {
		seg := segment{name: p, index: -1}
		if open := strings.IndexByte(p, '['); open >= 0 {
			if !strings.HasSuffix(p, "]") || open == 0 {
				return nil, fmt.Errorf("%w: %q", ErrBadSelector, s)
			}
			n, err := strconv.Atoi(p[open+1 : len(p)-1])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: %q has a bad index", ErrBadSelector, s)
			}
			seg = segment{name: p[:open], index: n}
		}
		if seg.name == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadSelector, s)
		}
		out = append(out, seg)
	}
	return out, nil
}

// Target is the resolved byte position of a selector.
type Target struct {
	Selector string
	Kind     blam.FieldKind
	Width    int
	// Offset is absolute within the map buffer.
	Offset int
}

// resolve walks selector through layout l for the tag described by e.
// Record-relative offsets accumulate from the tag's chunk start; block runs
// are located by reading their count-and-offset pair from buf.
func resolve(buf []byte, res *blam.Resolver, e blam.Entry, l blam.Layout, selector string) (Target, error) {
	segs, err := parseSelector(selector)
	if err != nil {
		return Target{}, err
	}
	base := e.Offset
	for i, seg := range segs {
		f, ok := l.Field(seg.name)
		if !ok {
			return Target{}, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, l.Name(), seg.name)
		}
		last := i == len(segs)-1
		where := strings.Join(segNames(segs[:i+1]), ".")

		switch {
		case f.Kind.Primitive() || f.Kind == blam.KindString:
			if seg.index >= 0 || !last {
				return Target{}, fmt.Errorf("%w: %s is a %s", ErrBadSelector, where, f.Kind)
			}
			return Target{Selector: selector, Kind: f.Kind, Width: f.Width, Offset: base + f.Offset}, nil

		case f.Kind == blam.KindArray:
			if seg.index < 0 || !last {
				return Target{}, fmt.Errorf("%w: %s needs a single index", ErrBadSelector, where)
			}
			if seg.index >= f.Count {
				return Target{}, fmt.Errorf("%w: %s[%d] of %d", ErrIndexRange, seg.name, seg.index, f.Count)
			}
			return Target{Selector: selector, Kind: f.Elem, Width: f.Width, Offset: base + f.Offset + seg.index*f.Width}, nil

		case f.Kind == blam.KindRecord:
			if seg.index >= 0 || last {
				return Target{}, fmt.Errorf("%w: %s is a record", ErrBadSelector, where)
			}
			base += f.Offset
			l = f.Sub

		case f.Kind == blam.KindBlocks:
			if seg.index < 0 {
				return Target{}, fmt.Errorf("%w: %s needs an index", ErrBadSelector, where)
			}
			cao, err := res.ReadCAO(buf, base+f.Offset, f.CountWidth, e)
			if err != nil {
				return Target{}, fmt.Errorf("%s: %w", where, err)
			}
			if cao.Empty() || seg.index >= cao.Count {
				return Target{}, fmt.Errorf("%w: %s[%d] of %d", ErrIndexRange, seg.name, seg.index, cao.Count)
			}
			if cao.At.File != blam.Local {
				return Target{}, fmt.Errorf("%w: %s is in %s", ErrExternalTarget, where, cao.At.File)
			}
			at := cao.At.Offset + seg.index*f.Width
			if f.Sub == nil {
				if !last {
					return Target{}, fmt.Errorf("%w: %s holds %s values", ErrBadSelector, where, f.Elem)
				}
				return Target{Selector: selector, Kind: f.Elem, Width: f.Width, Offset: at}, nil
			}
			if last {
				return Target{}, fmt.Errorf("%w: %s is a record", ErrBadSelector, where)
			}
			base = at
			l = f.Sub

		default:
			return Target{}, fmt.Errorf("%w: %s is a %s", ErrNotWritable, where, f.Kind)
		}
	}
	return Target{}, fmt.Errorf("%w: %q ends on a record", ErrBadSelector, selector)
}

func segNames(segs []segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		if s.index >= 0 {
			out[i] = fmt.Sprintf("%s[%d]", s.name, s.index)
		} else {
			out[i] = s.name
		}
	}
	return out
}
