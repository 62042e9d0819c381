package blam

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Logger is the subset of a structured logger the loader reports through.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// LoadOptions tunes Load.
type LoadOptions struct {
	// Workers bounds the number of tags materialized concurrently. Zero
	// uses GOMAXPROCS; one loads sequentially.
	Workers int
	Log     Logger
}

// Load pass names reported in failures.
const (
	PassMaterialize = "materialize"
	PassExternal    = "external"
)

// Failure is one tag that could not be loaded.
type Failure struct {
	ID    TagID  `json:"id"`
	Label Label  `json:"label"`
	Name  string `json:"name,omitempty"`
	Pass  string `json:"pass"`
	Err   error  `json:"-"`
}

func (f Failure) Reason() string { return ReasonOf(f.Err) }

func (f Failure) Error() string {
	return fmt.Sprintf("%s pass: %v", f.Pass, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// LoadReport summarizes a Load. Failed tags are absent from the graph and
// listed here instead.
type LoadReport struct {
	Entries  int       `json:"entries"`
	Loaded   int       `json:"loaded"`
	Untyped  int       `json:"untyped"`
	External int       `json:"external"`
	Failures []Failure `json:"failures"`
}

// Err joins every failure, or returns nil when all tags loaded.
func (r *LoadReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

type loadSlot struct {
	tag     *Tag
	tracker *Tracker
	failure *Failure
}

// Load materializes every entry of idx. The first pass reads each tag's
// chunk through its registered layout; tags without one load with a nil
// Body. Once every tag has been read, the second pass fetches external
// payloads. A failing tag is dropped and recorded in the report without
// affecting the others. The returned error is non-nil only when ctx ends
// or the arguments are unusable.
func Load(ctx context.Context, idx *Index, res *Resolver, reg *Registry, opts LoadOptions) (*Graph, *LoadReport, error) {
	if idx == nil || res == nil || reg == nil {
		return nil, nil, errors.New("blam: Load needs an index, resolver and registry")
	}
	log := opts.Log
	if log == nil {
		log = nopLogger{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	slots := make([]loadSlot, idx.Len())
	local := res.Stores.Local()

	err := forEach(ctx, workers, len(slots), func(i int) {
		e := idx.At(i)
		s := &slots[i]
		s.tracker = &Tracker{}
		window, ok := slice(local, e.Offset, e.Size)
		if !ok {
			s.failure = &Failure{ID: e.ID, Label: e.Label, Name: e.Name, Pass: PassMaterialize, Err: &FieldError{
				ID: e.ID, Label: e.Label, Field: "chunk", Offset: e.Offset, Length: e.Size, Window: len(local),
				Err: ErrOutOfBounds,
			}}
			return
		}
		s.tracker.Track(Local, e.Offset, e.Size, "tag")
		t := &Tag{ID: e.ID, Label: e.Label, Name: e.Name, Data: window}
		if _, known := reg.shapes[e.Label]; known {
			body, err := reg.Materialize(window, Source{Entry: e, Resolver: res, Tracker: s.tracker})
			if err != nil {
				s.failure = &Failure{ID: e.ID, Label: e.Label, Name: e.Name, Pass: PassMaterialize, Err: err}
				return
			}
			t.Body = body
		}
		s.tag = t
	})
	if err != nil {
		return nil, nil, err
	}

	err = forEach(ctx, workers, len(slots), func(i int) {
		s := &slots[i]
		if s.tag == nil || s.tag.Body == nil {
			return
		}
		shape := reg.shapes[s.tag.Label]
		if !shape.HasExternal() {
			return
		}
		e := idx.At(i)
		if err := shape.populateAny(s.tag.Body, Source{Entry: e, Resolver: res, Tracker: s.tracker}); err != nil {
			s.failure = &Failure{ID: e.ID, Label: e.Label, Name: e.Name, Pass: PassExternal, Err: err}
			s.tag = nil
		}
	})
	if err != nil {
		return nil, nil, err
	}

	g := &Graph{index: idx, reg: reg, tags: make(map[TagID]*Tag, len(slots))}
	rep := &LoadReport{Entries: len(slots)}
	for i := range slots {
		s := &slots[i]
		if s.failure != nil {
			f := *s.failure
			rep.Failures = append(rep.Failures, f)
			args := []any{
				"tag_id", f.ID.String(),
				"label", f.Label.String(),
				"name", f.Name,
				"pass", f.Pass,
				"reason", f.Reason(),
			}
			var fe *FieldError
			if errors.As(f.Err, &fe) {
				args = append(args, "field", fe.Field, "offset", fe.Offset)
			}
			log.Warn("tag failed to load", append(args, "error", f.Err)...)
			continue
		}
		t := s.tag
		t.Chunks = s.tracker.Chunks()
		log.Debug("tag chunks", "tag_id", t.ID.String(), "chunks", len(t.Chunks))
		for _, c := range t.Chunks {
			if c.External {
				rep.External++
			}
		}
		if t.Body == nil {
			rep.Untyped++
		}
		g.tags[t.ID] = t
		g.order = append(g.order, t.ID)
	}
	rep.Loaded = len(g.order)
	log.Debug("tags loaded",
		"entries", rep.Entries,
		"loaded", rep.Loaded,
		"untyped", rep.Untyped,
		"failed", len(rep.Failures))
	return g, rep, nil
}

// forEach runs fn for every index in [0, n) on at most workers goroutines.
// Each call owns slot i of the caller's results, so results keep index
// order regardless of scheduling.
func forEach(ctx context.Context, workers, n int, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range n {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
