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
	"github.com/samcharles93/h2tags/pkg/tags"
)

func layoutCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "layout",
		Usage:     "Print the declared tag layouts",
		ArgsUsage: "[label]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			reg := tags.Default()
			if cmd.Args().Len() == 0 {
				if asJSON {
					views := make([]layoutDump, 0, len(reg.Layouts()))
					for _, l := range reg.Layouts() {
						views = append(views, newLayoutDump(l))
					}
					return writeJSON(os.Stdout, views)
				}
				printLayouts(os.Stdout, reg.Layouts())
				return nil
			}
			l, err := blam.ParseLabel(cmd.Args().First())
			if err != nil {
				return err
			}
			layout, ok := reg.Layout(l)
			if !ok {
				return fmt.Errorf("layout %s: %w", l, blam.ErrUnknownLabel)
			}
			if asJSON {
				return writeJSON(os.Stdout, newLayoutDump(layout))
			}
			printLayout(os.Stdout, layout)
			return nil
		},
	}
}

// fieldTree is a field with its nested record fields expanded.
type fieldTree struct {
	blam.Field
	Fields []fieldTree `json:"fields,omitempty"`
}

type layoutDump struct {
	Label    blam.Label  `json:"label"`
	Name     string      `json:"name"`
	Size     int         `json:"size"`
	External bool        `json:"external,omitempty"`
	Fields   []fieldTree `json:"fields"`
}

func newLayoutDump(l blam.Layout) layoutDump {
	return layoutDump{
		Label:    l.Label(),
		Name:     l.Name(),
		Size:     l.Size(),
		External: l.HasExternal(),
		Fields:   layoutFields(l.Fields()),
	}
}

func layoutFields(fields []blam.Field) []fieldTree {
	out := make([]fieldTree, len(fields))
	for i, f := range fields {
		out[i] = fieldTree{Field: f}
		if f.Sub != nil {
			out[i].Fields = layoutFields(f.Sub.Fields())
		}
	}
	return out
}

func printLayouts(w io.Writer, layouts []blam.Layout) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "LABEL\tNAME\tSIZE\tFIELDS\tEXTERNAL")
	for _, l := range layouts {
		ext := ""
		if l.HasExternal() {
			ext = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", l.Label(), l.Name(), l.Size(), len(l.Fields()), ext)
	}
	_ = tw.Flush()
}

func printLayout(w io.Writer, l blam.Layout) {
	_, _ = fmt.Fprintf(w, "%s %s (%d bytes)\n", l.Label(), l.Name(), l.Size())
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "OFFSET\tNAME\tKIND\tWIDTH\tDETAIL")
	printFields(tw, l.Fields(), 0)
	_ = tw.Flush()
}

func printFields(w io.Writer, fields []blam.Field, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, f := range fields {
		var detail []string
		if f.Count > 0 {
			detail = append(detail, fmt.Sprintf("count=%d", f.Count))
		}
		if f.Kind == blam.KindArray || (f.Kind == blam.KindBlocks && f.Sub == nil) {
			detail = append(detail, "elem="+f.Elem.String())
		}
		if !f.Expect.IsZero() {
			detail = append(detail, "expect="+f.Expect.String())
		}
		_, _ = fmt.Fprintf(w, "%s%d\t%s%s\t%s\t%d\t%s\n", indent, f.Offset, indent, f.Name, f.Kind, f.Width, strings.Join(detail, " "))
		if f.Sub != nil {
			printFields(w, f.Sub.Fields(), depth+1)
		}
	}
}
