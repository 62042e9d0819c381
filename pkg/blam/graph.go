package blam

import (
	"errors"
	"fmt"
)

// Graph is the arena of tags loaded from one map, keyed by identifier.
// References between tags stay identifiers; they are resolved through the
// graph on demand and never become pointers between tags.
type Graph struct {
	index *Index
	reg   *Registry
	tags  map[TagID]*Tag
	order []TagID
}

func (g *Graph) Index() *Index       { return g.index }
func (g *Graph) Registry() *Registry { return g.reg }
func (g *Graph) Len() int            { return len(g.order) }

func (g *Graph) Tag(id TagID) (*Tag, bool) {
	t, ok := g.tags[id]
	return t, ok
}

// Tags returns the loaded tags in index order.
func (g *Graph) Tags() []*Tag {
	out := make([]*Tag, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.tags[id])
	}
	return out
}

// Lookup resolves an untyped reference.
func (g *Graph) Lookup(ref TagRef) (*Tag, error) {
	e, ok := g.index.Lookup(ref.ID)
	if !ok {
		return nil, &RefError{ID: ref.ID, Err: ErrNotFound}
	}
	t, ok := g.tags[e.ID]
	if !ok {
		return nil, &RefError{ID: ref.ID, Actual: e.Label, Err: fmt.Errorf("%w: tag failed to load", ErrNotFound)}
	}
	return t, nil
}

// Resolve follows a typed reference. It fails with ErrNotFound when the
// identifier has no loaded tag and with ErrTypeMismatch when the tag's
// label differs from the kind the reference expects.
func Resolve[K Kind](g *Graph, ref Ref[K]) (*K, error) {
	return ResolveAs[K](g, ref.Untyped())
}

// ResolveAs resolves an untyped reference as a K.
func ResolveAs[K Kind](g *Graph, ref TagRef) (*K, error) {
	var zero K
	want := zero.TagLabel()
	e, ok := g.index.Lookup(ref.ID)
	if !ok {
		return nil, &RefError{ID: ref.ID, Expect: want, Err: ErrNotFound}
	}
	if e.Label != want {
		return nil, &RefError{ID: ref.ID, Expect: want, Actual: e.Label, Err: ErrTypeMismatch}
	}
	t, err := g.Lookup(ref)
	if err != nil {
		return nil, err
	}
	body, ok := t.Body.(*K)
	if !ok {
		return nil, &RefError{ID: ref.ID, Expect: want, Actual: e.Label, Err: fmt.Errorf("%w: tag has no %s body", ErrNotFound, want)}
	}
	return body, nil
}

// Follow resolves a reference found by Refs, checking the expected label
// when the site declares one.
func (g *Graph) Follow(site RefSite) (*Tag, error) {
	if !site.Expect.IsZero() {
		if e, ok := g.index.Lookup(site.Ref.ID); ok && e.Label != site.Expect {
			return nil, &RefError{ID: site.Ref.ID, Expect: site.Expect, Actual: e.Label, Err: ErrTypeMismatch}
		}
	}
	t, err := g.Lookup(site.Ref)
	if err != nil {
		var re *RefError
		if errors.As(err, &re) {
			re.Expect = site.Expect
		}
		return nil, err
	}
	return t, nil
}

// IsAbsent reports whether err means "no such target" rather than a
// structural problem: the reference is unresolved or points at the wrong
// kind of tag, and callers treat it as missing optional data.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrTypeMismatch)
}

// Refs lists the references declared in t's layout.
func (g *Graph) Refs(t *Tag) []RefSite {
	return g.reg.Refs(t)
}

// Walk visits tags reachable from start breadth first. Each tag is visited
// once even when the reference graph has cycles. Unresolved references are
// skipped. fn returns false to stop the walk.
func (g *Graph) Walk(start TagID, fn func(t *Tag, depth int) bool) {
	first, ok := g.tags[start]
	if !ok {
		return
	}
	type item struct {
		tag   *Tag
		depth int
	}
	seen := map[TagID]bool{start: true}
	queue := []item{{first, 0}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if !fn(it.tag, it.depth) {
			return
		}
		for _, site := range g.Refs(it.tag) {
			if site.Ref.IsNull() || seen[site.Ref.ID] {
				continue
			}
			next, err := g.Lookup(site.Ref)
			if err != nil {
				continue
			}
			seen[next.ID] = true
			queue = append(queue, item{next, it.depth + 1})
		}
	}
}
