package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/h2tags/internal/logger"
	"github.com/samcharles93/h2tags/internal/patch"
	"github.com/samcharles93/h2tags/pkg/blam"
	"github.com/samcharles93/h2tags/pkg/h2map"
	"github.com/samcharles93/h2tags/pkg/tags"
)

func patchCmd() *cli.Command {
	var (
		patchPath string
		outPath   string
		dryRun    bool
		verify    bool
	)

	return &cli.Command{
		Name:  "patch",
		Usage: "Apply a tag patch document and rewrite the map signature",
		Flags: append(mapFlags(),
			&cli.StringFlag{
				Name:        "patch",
				Aliases:     []string{"p"},
				Usage:       "path to patch document (JSON, comments allowed)",
				Destination: &patchPath,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output map path (default: overwrite --map)",
				Destination: &outPath,
			},
			&cli.BoolFlag{Name: "dry-run", Usage: "apply in memory without writing", Destination: &dryRun},
			&cli.BoolFlag{Name: "verify", Usage: "reload the patched map before writing", Value: true, Destination: &verify},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyMapConfig(cmd, cfg)

			path, err := resolveMapPath(mapPath, mapsDir, os.Stdin, os.Stderr)
			if err != nil {
				return err
			}
			doc, err := patch.ReadFile(patchPath)
			if err != nil {
				return err
			}
			m, err := h2map.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = m.Close() }()
			if m.Compressed() {
				log.Warn("map is compressed; the patched map is written decompressed", "path", path)
			}

			table := blam.DefaultOffsetTable()
			if cfg.Offsets != nil {
				table = *cfg.Offsets
			}
			var baseline map[blam.TagID]blam.Failure
			if verify {
				if baseline, err = materializeFailures(ctx, m.Data, table); err != nil {
					return err
				}
			}
			p := patch.New(m.Writable(), m.Index.Index, tags.Default(), table, log)
			n, err := p.Apply(doc)
			if err != nil {
				return fmt.Errorf("%s: %w", patchPath, err)
			}
			sig, err := p.Finalize()
			if err != nil {
				return err
			}
			log.Info("patch applied", "writes", n, "signature", fmt.Sprintf("0x%08X", sig))

			if verify {
				if err := verifyPatched(ctx, p.Bytes(), table, baseline); err != nil {
					return err
				}
			}
			if dryRun {
				return nil
			}
			if strings.TrimSpace(outPath) == "" {
				outPath = path
			}
			// The source mapping must be released before it is replaced.
			if err := m.Close(); err != nil {
				return err
			}
			if err := writeFileAtomic(outPath, p.Bytes()); err != nil {
				return err
			}
			log.Info("map written", "path", outPath)
			return nil
		},
	}
}

// verifyPatched reloads buf and fails when a tag that materialized before
// the patch no longer does.
func verifyPatched(ctx context.Context, buf []byte, table blam.OffsetTable, baseline map[blam.TagID]blam.Failure) error {
	after, err := materializeFailures(ctx, buf, table)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	for id, f := range after {
		if _, ok := baseline[id]; !ok {
			return fmt.Errorf("verify: patched map breaks %s: %w", f.ID, f)
		}
	}
	return nil
}

// materializeFailures loads data without shared files and returns the
// first-pass failures by tag.
func materializeFailures(ctx context.Context, data []byte, table blam.OffsetTable) (map[blam.TagID]blam.Failure, error) {
	m, err := h2map.Parse(data)
	if err != nil {
		return nil, err
	}
	res := blam.NewResolver(table, blam.NewStores(m.Data))
	_, rep, err := blam.Load(ctx, m.Index.Index, res, tags.Default(), blam.LoadOptions{Workers: workers})
	if err != nil {
		return nil, err
	}
	out := make(map[blam.TagID]blam.Failure)
	for _, f := range rep.Failures {
		if f.Pass == blam.PassMaterialize {
			out[f.ID] = f
		}
	}
	return out, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}
