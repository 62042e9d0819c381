package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/h2tags/internal/logger"
	"github.com/samcharles93/h2tags/pkg/blam"
	"github.com/samcharles93/h2tags/pkg/tags"
)

// bitmapInfo is written next to the extracted levels.
type bitmapInfo struct {
	ID     blam.TagID          `json:"id"`
	Name   string              `json:"name"`
	Type   tags.TextureType    `json:"type"`
	Format tags.TextureFormat  `json:"format"`
	Width  int16               `json:"width"`
	Height int16               `json:"height"`
	Depth  int16               `json:"depth"`
	Mips   int16               `json:"mip_maps"`
	Levels []blam.ExternalSpan `json:"levels"`
	Files  []string            `json:"files"`
}

func extractCmd() *cli.Command {
	var (
		tagKey string
		outDir string
	)

	return &cli.Command{
		Name:  "extract",
		Usage: "Write a bitmap's level-of-detail payloads to files",
		Flags: append(mapFlags(),
			&cli.StringFlag{
				Name:        "tag",
				Aliases:     []string{"t"},
				Usage:       "bitmap tag name or 0xID",
				Destination: &tagKey,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output directory (default ./<map>_<tag>)",
				Destination: &outDir,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			s, err := openSession(ctx, cmd, os.Stdin)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			t, err := findTag(s.Graph, s.Report, tagKey)
			if err != nil {
				return err
			}
			bm, ok := t.Body.(*tags.Bitmap)
			if !ok {
				return fmt.Errorf("tag %s is %s, not a bitmap: %w", t.ID, t.Label, blam.ErrTypeMismatch)
			}
			dir, err := resolveOutDir(outDir, s.Path, t.Name)
			if err != nil {
				return err
			}

			info, err := writeLevels(dir, t, bm)
			if err != nil {
				return err
			}
			for i, span := range bm.LevelsOfDetail {
				if !span.Loaded() {
					log.Warn("level not loaded", "tag_id", t.ID, "level", i, "file", span.File, "offset", span.Offset)
				}
			}
			if err := writeJSONFile(filepath.Join(dir, "bitmap.json"), info); err != nil {
				return err
			}
			log.Info("extracted bitmap", "tag_id", t.ID, "levels", len(info.Files), "dir", dir)
			return nil
		},
	}
}

func writeLevels(dir string, t *blam.Tag, bm *tags.Bitmap) (bitmapInfo, error) {
	info := bitmapInfo{
		ID:     t.ID,
		Name:   t.Name,
		Type:   bm.TextureType,
		Format: bm.TextureFormat,
		Width:  bm.Width,
		Height: bm.Height,
		Depth:  bm.Depth,
		Mips:   bm.MipMapCount,
		Levels: bm.LevelsOfDetail,
		Files:  []string{},
	}
	for i := range bm.LevelsOfDetail {
		data := bm.Level(i)
		if data == nil {
			continue
		}
		name := fmt.Sprintf("lod%d.bin", i)
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return info, err
		}
		info.Files = append(info.Files, name)
	}
	return info, nil
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeJSON(f, v); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
