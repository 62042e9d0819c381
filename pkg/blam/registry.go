package blam

import (
	"fmt"
)

type tagShape interface {
	Layout
	materializeAny(window []byte, src Source) (any, error)
	populateAny(body any, src Source) error
	refsAny(body any) []RefSite
}

// Registry maps tag labels to their declared shapes.
type Registry struct {
	shapes map[Label]tagShape
	order  []Label
}

func NewRegistry() *Registry {
	return &Registry{shapes: make(map[Label]tagShape)}
}

// Register adds the shape for tags of kind K. Registering two shapes for
// the same label panics.
func Register[K Kind](r *Registry, s *Shape[K]) {
	var zero K
	l := zero.TagLabel()
	if s.label != l {
		panic(fmt.Sprintf("Register(%s): shape declares label %q", l, s.label))
	}
	if _, dup := r.shapes[l]; dup {
		panic(fmt.Sprintf("Register(%s): label already registered", l))
	}
	r.shapes[l] = s
	r.order = append(r.order, l)
}

func (r *Registry) Layout(l Label) (Layout, bool) {
	s, ok := r.shapes[l]
	return s, ok
}

// Layouts returns the registered shapes in registration order.
func (r *Registry) Layouts() []Layout {
	out := make([]Layout, 0, len(r.order))
	for _, l := range r.order {
		out = append(out, r.shapes[l])
	}
	return out
}

// Materialize builds the body for a tag with entry e.
func (r *Registry) Materialize(window []byte, src Source) (any, error) {
	s, ok := r.shapes[src.Entry.Label]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, src.Entry.Label)
	}
	return s.materializeAny(window, src)
}

// Refs lists the references declared in t's layout. Tags without a
// registered layout have none.
func (r *Registry) Refs(t *Tag) []RefSite {
	s, ok := r.shapes[t.Label]
	if !ok || t.Body == nil {
		return nil
	}
	return s.refsAny(t.Body)
}
