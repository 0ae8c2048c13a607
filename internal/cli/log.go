package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"stackit.dev/rebaser/internal/graph"
	"stackit.dev/rebaser/internal/runtime"
	"stackit.dev/rebaser/internal/tui"
)

type logFlags struct {
	reverse  bool
	limit    int
	branches []string
}

// newLogCmd creates the log command
func newLogCmd() *cobra.Command {
	f := &logFlags{}

	cmd := &cobra.Command{
		Use:     "log",
		Short:   "Show the commits rebaser sees, newest first, with the references bound to them",
		Aliases: []string{"l"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				g, err := loadGraph(ctx.Repo, f.branches, f.limit)
				if err != nil {
					return err
				}
				for _, line := range logLines(g, f.reverse) {
					ctx.Splog.Info("%s", line)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&f.reverse, "reverse", "r", false, "Print the oldest commit first")
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 0, "Only show this many commits")
	cmd.Flags().StringSliceVar(&f.branches, "branches", nil, "Only show branches matching these glob patterns")

	return cmd
}

// logLines renders one line per node. Merge and root commits get their own marker color.
func logLines(g *graph.Graph, reverse bool) []string {
	nodes := g.Nodes()
	lines := make([]string, 0, len(nodes))
	for _, n := range nodes {
		marker := "◯"
		if len(n.Refs) > 0 {
			marker = "◉"
		}

		var b strings.Builder
		b.WriteString(tui.ColorLane(marker, len(n.Parents)))
		b.WriteString(" ")
		b.WriteString(tui.ColorYellow(shortHash(n.ID)))
		if len(n.Refs) > 0 {
			names := make([]string, 0, len(n.Refs))
			for _, r := range n.Refs {
				names = append(names, r.Short())
			}
			b.WriteString(" " + tui.ColorCyan("("+strings.Join(names, ", ")+")"))
		}
		subject, _, _ := strings.Cut(n.Message, "\n")
		b.WriteString(" " + subject)
		if len(n.Parents) == 0 {
			b.WriteString(" " + tui.ColorDim("[root]"))
		}
		lines = append(lines, b.String())
	}

	if !reverse {
		for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
			lines[i], lines[j] = lines[j], lines[i]
		}
	}
	return lines
}
