package patch

import (
	"fmt"

	"github.com/samcharles93/h2tags/pkg/blam"
	"github.com/samcharles93/h2tags/pkg/h2map"
)

// Logger is the subset of a structured logger the patcher reports through.
type Logger interface {
	Debug(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

// Patcher writes into one writable map buffer.
type Patcher struct {
	buf []byte
	idx *blam.Index
	reg *blam.Registry
	res *blam.Resolver
	log Logger
}

// New returns a patcher over buf, which must be a private copy of the map
// described by idx. Block runs are located through buf itself, so earlier
// writes to a count-and-offset pair affect later selectors.
func New(buf []byte, idx *blam.Index, reg *blam.Registry, table blam.OffsetTable, log Logger) *Patcher {
	if log == nil {
		log = nopLogger{}
	}
	return &Patcher{
		buf: buf,
		idx: idx,
		reg: reg,
		res: blam.NewResolver(table, blam.NewStores(buf)),
		log: log,
	}
}

// Target resolves selector within the tag named by key without writing.
func (p *Patcher) Target(key, selector string) (blam.Entry, Target, error) {
	e, ok := p.idx.Find(key)
	if !ok {
		return blam.Entry{}, Target{}, fmt.Errorf("%w: %s", blam.ErrNotFound, key)
	}
	l, ok := p.reg.Layout(e.Label)
	if !ok {
		return e, Target{}, fmt.Errorf("tag %s: %w %s", e.ID, blam.ErrUnknownLabel, e.Label)
	}
	t, err := resolve(p.buf, p.res, e, l, selector)
	if err != nil {
		return e, Target{}, fmt.Errorf("tag %s (%s): %w", e.ID, e.Label, err)
	}
	return e, t, nil
}

// Set writes one value.
func (p *Patcher) Set(key, selector string, v Value) error {
	e, t, err := p.Target(key, selector)
	if err != nil {
		return err
	}
	if err := encode(p.buf, t, v); err != nil {
		return fmt.Errorf("tag %s (%s): %w", e.ID, e.Label, err)
	}
	p.log.Debug("patched field",
		"tag_id", e.ID.String(),
		"label", e.Label.String(),
		"selector", selector,
		"offset", t.Offset,
		"width", t.Width,
	)
	return nil
}

// Apply writes every property of doc in order and returns the number of
// writes. It stops at the first error; writes made before it are kept.
func (p *Patcher) Apply(doc Document) (int, error) {
	n := 0
	for _, tp := range doc {
		for _, pp := range tp.Properties {
			if err := p.Set(tp.Tag, pp.Selector, pp.Value); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// Finalize recomputes the map signature after patching.
func (p *Patcher) Finalize() (uint32, error) {
	return h2map.StoreSignature(p.buf)
}

// Bytes returns the patched buffer.
func (p *Patcher) Bytes() []byte { return p.buf }
