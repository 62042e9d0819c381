package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/h2tags/pkg/blam"
)

// tagDump is the --json form of one loaded tag.
type tagDump struct {
	ID          blam.TagID   `json:"id"`
	Label       blam.Label   `json:"label"`
	Name        string       `json:"name,omitempty"`
	Size        int          `json:"size"`
	Fingerprint string       `json:"fingerprint"`
	Body        any          `json:"body,omitempty"`
	Refs        []refDump    `json:"refs,omitempty"`
	Chunks      []blam.Chunk `json:"chunks,omitempty"`
	// Coverage is the number of distinct bytes read per data file.
	Coverage map[blam.DataFile]int `json:"coverage,omitempty"`
}

type refDump struct {
	blam.RefSite
	Target string `json:"target,omitempty"`
	Error  string `json:"error,omitempty"`
}

func dumpCmd() *cli.Command {
	var (
		tagKey     string
		asJSON     bool
		showChunks bool
	)

	return &cli.Command{
		Name:  "dump",
		Usage: "Print one materialized tag",
		Flags: append(mapFlags(),
			&cli.StringFlag{
				Name:        "tag",
				Aliases:     []string{"t"},
				Usage:       "tag name or 0xID",
				Destination: &tagKey,
				Required:    true,
			},
			&cli.BoolFlag{Name: "json", Usage: "print JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "chunks", Usage: "include consumed byte ranges", Destination: &showChunks},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(ctx, cmd, os.Stdin)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			t, err := findTag(s.Graph, s.Report, tagKey)
			if err != nil {
				return err
			}
			d := newTagDump(s.Graph, t, showChunks)
			if asJSON {
				return writeJSON(os.Stdout, d)
			}
			printTag(os.Stdout, d)
			return nil
		},
	}
}

func refsCmd() *cli.Command {
	var (
		tagKey   string
		maxDepth int
	)

	return &cli.Command{
		Name:  "refs",
		Usage: "Print the tags reachable from one tag",
		Flags: append(mapFlags(),
			&cli.StringFlag{
				Name:        "tag",
				Aliases:     []string{"t"},
				Usage:       "tag name or 0xID",
				Destination: &tagKey,
				Required:    true,
			},
			&cli.IntFlag{Name: "depth", Usage: "maximum depth (0 = unlimited)", Destination: &maxDepth},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(ctx, cmd, os.Stdin)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			t, err := findTag(s.Graph, s.Report, tagKey)
			if err != nil {
				return err
			}
			printWalk(os.Stdout, s.Graph, t.ID, maxDepth)
			return nil
		},
	}
}

// findTag looks key up in the index and returns its loaded tag. A tag that
// failed to load reports its failure.
func findTag(g *blam.Graph, r *blam.LoadReport, key string) (*blam.Tag, error) {
	e, ok := g.Index().Find(strings.TrimSpace(key))
	if !ok {
		return nil, fmt.Errorf("tag %q: %w", key, blam.ErrNotFound)
	}
	if t, ok := g.Tag(e.ID); ok {
		return t, nil
	}
	if r != nil {
		for _, f := range r.Failures {
			if f.ID == e.ID {
				return nil, f
			}
		}
	}
	return nil, fmt.Errorf("tag %s was not loaded", e.ID)
}

func newTagDump(g *blam.Graph, t *blam.Tag, chunks bool) tagDump {
	d := tagDump{
		ID:          t.ID,
		Label:       t.Label,
		Name:        t.Name,
		Size:        len(t.Data),
		Fingerprint: fmt.Sprintf("%016x", t.Fingerprint()),
		Body:        t.Body,
	}
	if chunks {
		d.Chunks = t.Chunks
		d.Coverage = blam.Coverage(t.Chunks)
	}
	for _, site := range g.Refs(t) {
		rd := refDump{RefSite: site}
		if !site.Ref.IsNull() {
			if target, err := g.Follow(site); err != nil {
				rd.Error = blam.ReasonOf(err)
			} else {
				rd.Target = target.String()
			}
		}
		d.Refs = append(d.Refs, rd)
	}
	return d
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func printTag(w io.Writer, d tagDump) {
	_, _ = fmt.Fprintf(w, "tag:         %s %s %s\n", d.ID, d.Label, d.Name)
	_, _ = fmt.Fprintf(w, "size:        %d bytes\n", d.Size)
	_, _ = fmt.Fprintf(w, "fingerprint: %s\n", d.Fingerprint)
	if d.Body == nil {
		_, _ = fmt.Fprintln(w, "body:        (no layout registered)")
	} else {
		_, _ = fmt.Fprintf(w, "body:        %+v\n", d.Body)
	}
	for _, r := range d.Refs {
		switch {
		case r.Ref.IsNull():
			_, _ = fmt.Fprintf(w, "  ref %s: null\n", r.Path)
		case r.Error != "":
			_, _ = fmt.Fprintf(w, "  ref %s: %s (%s)\n", r.Path, r.Ref.ID, r.Error)
		default:
			_, _ = fmt.Fprintf(w, "  ref %s: %s\n", r.Path, r.Target)
		}
	}
	for file := blam.Local; file <= blam.SinglePlayerShared; file++ {
		if n, ok := d.Coverage[file]; ok {
			_, _ = fmt.Fprintf(w, "  coverage %s: %d bytes\n", file, n)
		}
	}
	for _, c := range d.Chunks {
		ext := ""
		if c.External {
			ext = " external"
		}
		_, _ = fmt.Fprintf(w, "  chunk %s [0x%X, 0x%X) %s%s\n", c.File, c.Offset, c.End(), c.Purpose, ext)
	}
}

func printWalk(w io.Writer, g *blam.Graph, start blam.TagID, maxDepth int) {
	g.Walk(start, func(t *blam.Tag, depth int) bool {
		if maxDepth > 0 && depth > maxDepth {
			return true
		}
		_, _ = fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), t)
		return true
	})
}
