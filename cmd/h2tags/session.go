package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/h2tags/internal/logger"
	"github.com/samcharles93/h2tags/pkg/blam"
	"github.com/samcharles93/h2tags/pkg/h2map"
	"github.com/samcharles93/h2tags/pkg/tags"
)

// openSession resolves the map from the map flags and config, opens it
// with its shared files and runs the load pass.
func openSession(ctx context.Context, cmd *cli.Command, stdin io.Reader) (*h2map.Session, error) {
	log := logger.FromContext(ctx)
	applyMapConfig(cmd, cfg)

	path, err := resolveMapPath(mapPath, mapsDir, stdin, os.Stderr)
	if err != nil {
		return nil, err
	}
	shared, err := sharedFiles(cfg, sharedMaps)
	if err != nil {
		return nil, err
	}
	s, err := h2map.OpenSession(path, h2map.SessionOptions{
		Shared:  shared,
		Offsets: cfg.Offsets,
	})
	if err != nil {
		return nil, err
	}
	log = log.With("session", s.ID, "map", s.Map.Header.Name)

	start := time.Now()
	if err := s.Load(ctx, tags.Default(), blam.LoadOptions{Workers: workers, Log: log}); err != nil {
		_ = s.Close()
		return nil, err
	}
	log.Info("map loaded",
		"path", path,
		"entries", s.Report.Entries,
		"loaded", s.Report.Loaded,
		"failures", len(s.Report.Failures),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return s, nil
}
