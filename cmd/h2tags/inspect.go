package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/h2tags/pkg/blam"
	"github.com/samcharles93/h2tags/pkg/h2map"
)

func inspectCmd() *cli.Command {
	var (
		showTags     bool
		showFailures bool
		labelFilter  string
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect a map's header, tag index and load report",
		Flags: append(mapFlags(),
			&cli.BoolFlag{Name: "tags", Usage: "list every index entry", Destination: &showTags},
			&cli.BoolFlag{Name: "failures", Usage: "list every per-tag load failure", Value: true, Destination: &showFailures},
			&cli.StringFlag{Name: "label", Usage: "only list entries with this label (implies --tags)", Destination: &labelFilter},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(ctx, cmd, os.Stdin)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			printSummary(os.Stdout, s)
			if showFailures {
				printFailures(os.Stdout, s.Report)
			}
			if showTags || labelFilter != "" {
				var filter *blam.Label
				if labelFilter != "" {
					l, err := blam.ParseLabel(labelFilter)
					if err != nil {
						return err
					}
					filter = &l
				}
				printEntries(os.Stdout, s.Graph, filter)
			}
			return nil
		},
	}
}

func printSummary(w io.Writer, s *h2map.Session) {
	m := s.Map
	h := m.Header
	_, _ = fmt.Fprintf(w, "map:        %s\n", h.Name)
	_, _ = fmt.Fprintf(w, "scenario:   %s\n", h.ScenarioPath)
	_, _ = fmt.Fprintf(w, "build:      %s\n", h.Build)
	_, _ = fmt.Fprintf(w, "version:    %d\n", h.Version)
	size := fmt.Sprintf("%d bytes", len(m.Data))
	if m.Compressed() {
		size += " (decompressed)"
	}
	_, _ = fmt.Fprintf(w, "size:       %s\n", size)
	_, _ = fmt.Fprintf(w, "signature:  0x%08X (computed 0x%08X)\n", h.StoredSignature, h2map.Signature(m.Data))
	_, _ = fmt.Fprintf(w, "session:    %s\n", s.ID)

	idx := m.Index
	_, _ = fmt.Fprintf(w, "index:      %d entries, %d types, scenario %s, globals %s\n",
		idx.Len(), len(idx.Types), idx.Header.ScenarioID, idx.Header.GlobalsID)
	if len(s.Shared) > 0 {
		names := make([]string, 0, len(s.Shared))
		for file := blam.MainMenu; file <= blam.SinglePlayerShared; file++ {
			if _, ok := s.Shared[file]; ok {
				names = append(names, file.String())
			}
		}
		_, _ = fmt.Fprintf(w, "shared:     %s\n", strings.Join(names, ", "))
	}

	_, _ = fmt.Fprintln(w, "labels:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, lc := range idx.LabelCounts() {
		typed := ""
		if _, ok := s.Graph.Registry().Layout(lc.Label); ok {
			typed = "typed"
		}
		_, _ = fmt.Fprintf(tw, "  %s\t%d\t%s\n", lc.Label, lc.Count, typed)
	}
	_ = tw.Flush()

	if r := s.Report; r != nil {
		_, _ = fmt.Fprintf(w, "loaded:     %d/%d (%d untyped, %d with external data, %d failed)\n",
			r.Loaded, r.Entries, r.Untyped, r.External, len(r.Failures))
	}
}

func printFailures(w io.Writer, r *blam.LoadReport) {
	if r == nil || len(r.Failures) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "failures:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range r.Failures {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", f.ID, f.Label, f.Pass, f.Reason(), f.Name)
	}
	_ = tw.Flush()
}

func printEntries(w io.Writer, g *blam.Graph, filter *blam.Label) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tLABEL\tOFFSET\tSIZE\tSTATE\tNAME")
	for _, e := range g.Index().Entries() {
		if filter != nil && e.Label != *filter {
			continue
		}
		state := "failed"
		if t, ok := g.Tag(e.ID); ok {
			state = "raw"
			if t.Body != nil {
				state = fmt.Sprintf("%016x", t.Fingerprint())
			}
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t0x%08X\t%d\t%s\t%s\n", e.ID, e.Label, e.Offset, e.Size, state, e.Name)
	}
	_ = tw.Flush()
}
