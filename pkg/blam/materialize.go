package blam

import (
	"errors"
	"fmt"
	"math"
)

// Source ties a materialization to the tag being read: its index entry,
// the resolver for offsets stored inside it, and the tracker that records
// consumed chunks. Resolver may be nil for shapes without block fields;
// Tracker may be nil when chunk tracking is not wanted.
type Source struct {
	Entry    Entry
	Resolver *Resolver
	Tracker  *Tracker
}

// cursor is the read position of one record: its window and where that
// window sits in its backing file.
type cursor struct {
	data []byte
	file DataFile
	base int
	path string
	src  *Source
}

func (c *cursor) join(name string) string {
	if c.path == "" {
		return name
	}
	return c.path + "." + name
}

func (c *cursor) sub(name string, data []byte, file DataFile, base int) *cursor {
	return &cursor{data: data, file: file, base: base, path: c.join(name), src: c.src}
}

func (c *cursor) track(length int) {
	c.src.Tracker.Track(c.file, c.base, length, c.path)
}

func (c *cursor) fail(name string, off, length int, err error) error {
	return &FieldError{
		ID:     c.src.Entry.ID,
		Label:  c.src.Entry.Label,
		Field:  c.join(name),
		Offset: off,
		Length: length,
		Window: len(c.data),
		Err:    err,
	}
}

var errNoResolver = errors.New("blam: block field read without a resolver")

// run resolves the count-and-offset pair at off and bounds checks the
// records it addresses. It returns the run's start and its record count.
func (c *cursor) run(name string, off int, width CountWidth, recLen int) (Location, int, error) {
	if c.src.Resolver == nil {
		return Location{}, 0, c.fail(name, off, caoSize, errNoResolver)
	}
	cao, err := c.src.Resolver.ReadCAO(c.data, off, width, c.src.Entry)
	if err != nil {
		return Location{}, 0, c.fail(name, off, caoSize, err)
	}
	if cao.Empty() {
		return Location{}, 0, nil
	}
	if cao.Count > math.MaxInt/recLen {
		return Location{}, 0, c.fail(name, off, caoSize, fmt.Errorf("%w: count %d overflows", ErrOutOfBounds, cao.Count))
	}
	total := cao.Count * recLen
	if _, ok := cao.At.Window(total); !ok {
		return Location{}, 0, &FieldError{
			ID:     c.src.Entry.ID,
			Label:  c.src.Entry.Label,
			Field:  c.join(name),
			Offset: cao.At.Offset,
			Length: total,
			Window: len(cao.At.Buffer),
			Err:    fmt.Errorf("%w: %d records of %d bytes in %s", ErrOutOfBounds, cao.Count, recLen, cao.At.File),
		}
	}
	c.src.Tracker.Track(cao.At.File, cao.At.Offset, total, c.join(name))
	return cao.At, cao.Count, nil
}

func slice(b []byte, off, length int) ([]byte, bool) {
	if !inBounds(b, off, length) {
		return nil, false
	}
	return b[off : off+length], true
}

// Materialize builds a T from window, normally the tag's chunk. The window
// may be shorter than the declared size: primitives past its end read as
// zero, while nested records and block runs that do not fit are errors.
// src.Entry.Offset must be the absolute position of window[0] in the local
// data file.
func (s *Shape[T]) Materialize(window []byte, src Source) (*T, error) {
	t := new(T)
	c := &cursor{data: window, file: Local, base: src.Entry.Offset, src: &src}
	if err := s.fill(c, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Shape[T]) fill(c *cursor, t *T) error {
	for _, op := range s.ops {
		if err := op(c, t); err != nil {
			return err
		}
	}
	return nil
}

// PopulateExternal runs the second pass for t: every declared external span
// with a present offset and a nonzero size is copied into an owned buffer.
// It must run after the whole index is available.
func (s *Shape[T]) PopulateExternal(t *T, src Source) error {
	if len(s.externals) == 0 {
		return nil
	}
	if src.Resolver == nil {
		return &FieldError{ID: src.Entry.ID, Label: src.Entry.Label, Field: s.name, Err: errNoResolver}
	}
	x := &cursor{file: Local, base: src.Entry.Offset, src: &src}
	for _, op := range s.externals {
		if err := op(x, t); err != nil {
			return err
		}
	}
	return nil
}

// Refs lists every tag reference declared in the layout, including those in
// nested records and block runs, in declaration order.
func (s *Shape[T]) Refs(t *T) []RefSite {
	var out []RefSite
	s.walkRefs(t, "", func(r RefSite) bool {
		out = append(out, r)
		return true
	})
	return out
}

func (s *Shape[T]) walkRefs(t *T, prefix string, yield func(RefSite) bool) bool {
	for _, r := range s.refs {
		if !r(t, prefix, yield) {
			return false
		}
	}
	return true
}

// The methods below let a Registry hold shapes of different types.

func (s *Shape[T]) materializeAny(window []byte, src Source) (any, error) {
	t, err := s.Materialize(window, src)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Shape[T]) populateAny(body any, src Source) error {
	t, ok := body.(*T)
	if !ok {
		return fmt.Errorf("blam: %s body has type %T", s.name, body)
	}
	return s.PopulateExternal(t, src)
}

func (s *Shape[T]) refsAny(body any) []RefSite {
	t, ok := body.(*T)
	if !ok {
		return nil
	}
	return s.Refs(t)
}
