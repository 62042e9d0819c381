package h2map

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/samcharles93/h2tags/pkg/blam"
)

// Session is one map opened together with the shared data files its
// offsets may address.
type Session struct {
	ID       string
	Path     string
	Map      *Map
	Shared   map[blam.DataFile]*Map
	Resolver *blam.Resolver

	Graph  *blam.Graph
	Report *blam.LoadReport
}

// SessionOptions configures OpenSession.
type SessionOptions struct {
	// Shared maps data files to the paths of the maps holding them.
	Shared map[blam.DataFile]string
	// Offsets overrides the normalized offset encoding. The zero value
	// selects blam.DefaultOffsetTable.
	Offsets *blam.OffsetTable
}

// OpenSession opens the map at path and every shared file in opts.
func OpenSession(path string, opts SessionOptions) (*Session, error) {
	table := blam.DefaultOffsetTable()
	if opts.Offsets != nil {
		table = *opts.Offsets
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}

	m, err := Open(path)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:     uuid.NewString(),
		Path:   path,
		Map:    m,
		Shared: make(map[blam.DataFile]*Map, len(opts.Shared)),
	}
	stores := blam.NewStores(m.Data)
	for file, p := range opts.Shared {
		if file == blam.Local {
			_ = s.Close()
			return nil, fmt.Errorf("shared file %s cannot replace the local map", p)
		}
		sm, err := Open(p)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("open %s data file: %w", file, err)
		}
		s.Shared[file] = sm
		stores.With(file, sm.Data)
	}
	s.Resolver = blam.NewResolver(table, stores)
	return s, nil
}

// NewSession wraps maps that are already open. Ownership of m and shared
// passes to the session.
func NewSession(m *Map, shared map[blam.DataFile]*Map, table blam.OffsetTable) (*Session, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	stores := blam.NewStores(m.Data)
	for file, sm := range shared {
		stores.With(file, sm.Data)
	}
	if shared == nil {
		shared = make(map[blam.DataFile]*Map)
	}
	return &Session{
		ID:       uuid.NewString(),
		Map:      m,
		Shared:   shared,
		Resolver: blam.NewResolver(table, stores),
	}, nil
}

// Load runs the two-pass load over the map's tag index. Per-tag failures
// are kept in s.Report; the error is reserved for cancellation.
func (s *Session) Load(ctx context.Context, reg *blam.Registry, opts blam.LoadOptions) error {
	g, rep, err := blam.Load(ctx, s.Map.Index.Index, s.Resolver, reg, opts)
	if err != nil {
		return err
	}
	s.Graph = g
	s.Report = rep
	return nil
}

// Close closes the map and every shared file.
func (s *Session) Close() error {
	var errs []error
	if err := s.Map.Close(); err != nil {
		errs = append(errs, err)
	}
	for _, sm := range s.Shared {
		if err := sm.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
