package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/cobra"

	"stackit.dev/rebaser/internal/git"
	"stackit.dev/rebaser/internal/graph"
	"stackit.dev/rebaser/internal/rebase"
	"stackit.dev/rebaser/internal/runtime"
	"stackit.dev/rebaser/internal/tui"
	"stackit.dev/rebaser/internal/workspace"
)

type insertBlankFlags struct {
	before      bool
	after       bool
	commit      string
	ref         string
	message     string
	dateMode    string
	interactive bool
	edit        bool
	dryRun      bool
	limit       int
	branches    []string
}

// newInsertBlankCmd creates the insert-blank command
func newInsertBlankCmd() *cobra.Command {
	f := &insertBlankFlags{}

	cmd := &cobra.Command{
		Use:   "insert-blank",
		Short: "Insert a commit without changes and rebase everything above it",
		Long: `Insert a commit without changes next to a commit or reference and rebase every
descendant onto it. Branches pointing at rewritten commits follow their commits.

With --ref and the default --after, the reference moves to the new commit, so the
branch grows by one commit. Without --commit or --ref the current branch is used.`,
		Example: `  rebaser insert-blank
  rebaser insert-blank --ref feature --message "Placeholder"
  rebaser insert-blank --commit HEAD~2 --before
  rebaser insert-blank --interactive --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.before && f.after {
				return fmt.Errorf("only one of --before or --after can be specified")
			}
			if f.commit != "" && f.ref != "" {
				return fmt.Errorf("only one of --commit or --ref can be specified")
			}
			if f.interactive && (f.commit != "" || f.ref != "") {
				return fmt.Errorf("--interactive cannot be combined with --commit or --ref")
			}
			return run(cmd, func(ctx *runtime.Context) error {
				return executeInsertBlank(ctx, f)
			})
		},
	}

	cmd.Flags().BoolVar(&f.before, "before", false, "Insert the blank commit below the anchor")
	cmd.Flags().BoolVar(&f.after, "after", false, "Insert the blank commit above the anchor (default)")
	cmd.Flags().StringVar(&f.commit, "commit", "", "Anchor on this revision")
	cmd.Flags().StringVar(&f.ref, "ref", "", "Anchor on the commit this reference points at")
	cmd.Flags().StringVarP(&f.message, "message", "m", "", "Message of the blank commit (defaults to the configured message)")
	cmd.Flags().StringVar(&f.dateMode, "date-mode", "", "One of committer-keep-author-keep, committer-update-author-keep, committer-update-author-update")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "Pick the anchor and message interactively")
	cmd.Flags().BoolVarP(&f.edit, "edit", "e", false, "Edit the message in your editor")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show what would change without writing anything")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Only load this many commits of history")
	cmd.Flags().StringSliceVar(&f.branches, "branches", nil, "Only rebase branches matching these glob patterns (default: all local branches)")

	return cmd
}

func executeInsertBlank(ctx *runtime.Context, f *insertBlankFlags) error {
	if f.interactive && !tui.IsTTY() {
		return fmt.Errorf("--interactive requires a terminal")
	}

	dateMode := ctx.Config.DateMode
	if f.dateMode != "" {
		dateMode = f.dateMode
	}
	mode, err := rebase.ParseDateMode(dateMode)
	if err != nil {
		return err
	}

	side := rebase.After
	if f.before {
		side = rebase.Before
	}

	message := ctx.Config.Message
	if f.message != "" {
		message = f.message
	}

	g, err := loadGraph(ctx.Repo, f.branches, f.limit)
	if err != nil {
		return err
	}

	var relativeTo workspace.RelativeTo
	switch {
	case f.commit != "":
		id, err := ctx.Repo.ResolveCommit(f.commit)
		if err != nil {
			return err
		}
		relativeTo = workspace.RelativeToCommit(id)
	case f.ref != "":
		relativeTo = workspace.RelativeToReference(f.ref)
	case f.interactive:
		id, err := promptAnchor(g)
		if err != nil {
			return err
		}
		relativeTo = workspace.RelativeToCommit(id)
		if !f.before && !f.after {
			if side, err = promptSide(); err != nil {
				return err
			}
		}
		if message, err = tui.PromptTextInput("Message for the blank commit:", message); err != nil {
			return err
		}
	default:
		relativeTo = workspace.RelativeToReference("HEAD")
	}

	if f.edit {
		if message, err = tui.EditMessage(message); err != nil {
			return err
		}
	}

	// One timestamp for the preview and the write, so both produce the same ids
	now := time.Now()
	opts := workspace.Options{
		DateMode: mode,
		Message:  message,
		Clock:    func() time.Time { return now },
		DryRun:   f.dryRun,
		Splog:    ctx.Splog,
	}

	if f.interactive && !f.dryRun {
		if err := confirmInsert(ctx, g, side, relativeTo, opts); err != nil {
			return err
		}
	}

	outcome, err := workspace.InsertBlankCommitWithOptions(g, ctx.Repo, side, relativeTo, opts)
	if err != nil {
		return err
	}

	printInsertOutcome(ctx.Splog, outcome, side, relativeTo, f.dryRun)
	return nil
}

// loadGraph walks HEAD and the local branches matching patterns (all of them when empty)
func loadGraph(repo *git.Repository, patterns []string, limit int) (*graph.Graph, error) {
	if len(patterns) == 0 {
		patterns = []string{"**"}
	}

	var tips []string
	if _, err := repo.ResolveReference("HEAD"); err == nil {
		tips = append(tips, "HEAD")
	}

	g, err := graph.Build(repo, graph.Options{Tips: tips, Branches: patterns, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if g.Len() == 0 {
		return nil, errors.New("repository has no commits")
	}
	return g, nil
}

func promptAnchor(g *graph.Graph) (plumbing.Hash, error) {
	nodes := g.Nodes()
	options := make([]tui.SelectOption, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		options = append(options, tui.SelectOption{
			Label: nodeLabel(nodes[i]),
			Value: nodes[i].ID.String(),
		})
	}

	selected, err := tui.PromptSelect("Insert the blank commit next to:", options, 0)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return plumbing.NewHash(selected), nil
}

func promptSide() (rebase.InsertSide, error) {
	choice, err := tui.PromptChoice("Insert the blank commit:", []string{rebase.After.String(), rebase.Before.String()}, rebase.After.String())
	if err != nil {
		return 0, err
	}
	return rebase.ParseInsertSide(choice)
}

// confirmInsert shows what the insertion would rewrite and asks before writing
func confirmInsert(ctx *runtime.Context, g *graph.Graph, side rebase.InsertSide, relativeTo workspace.RelativeTo, opts workspace.Options) error {
	opts.DryRun = true
	preview, err := workspace.InsertBlankCommitWithOptions(g, ctx.Repo, side, relativeTo, opts)
	if err != nil {
		return err
	}
	printInsertOutcome(ctx.Splog, preview, side, relativeTo, true)
	ctx.Splog.Newline()

	ok, err := tui.PromptConfirm("Write these changes?", true)
	if err != nil {
		return err
	}
	if !ok {
		return tui.ErrCanceled
	}
	return nil
}

func printInsertOutcome(splog *tui.Splog, outcome *workspace.InsertCommitOutcome, side rebase.InsertSide, relativeTo workspace.RelativeTo, dryRun bool) {
	verb := "Inserted"
	if dryRun {
		verb = "Would insert"
	}
	splog.Info("%s blank commit %s %s %s", verb, tui.ColorYellow(shortHash(outcome.BlankCommitID)), side, relativeTo)

	if len(outcome.CommitMapping) > 0 {
		splog.Info("Rewrote %d commit(s):", len(outcome.CommitMapping))
		for _, old := range sortedKeys(outcome.CommitMapping) {
			splog.Info("  %s → %s", shortHash(old), tui.ColorYellow(shortHash(outcome.CommitMapping[old])))
		}
	}
	for _, ref := range outcome.References {
		splog.Info("Moved %s: %s → %s", tui.ColorCyan(ref.Name.Short()), shortHash(ref.Old), tui.ColorYellow(shortHash(ref.New)))
	}
}

func nodeLabel(n graph.Node) string {
	subject, _, _ := strings.Cut(n.Message, "\n")
	label := shortHash(n.ID) + " " + subject
	if len(n.Refs) > 0 {
		names := make([]string, 0, len(n.Refs))
		for _, r := range n.Refs {
			names = append(names, r.Short())
		}
		label += " (" + strings.Join(names, ", ") + ")"
	}
	return label
}

func shortHash(h plumbing.Hash) string {
	return h.String()[:7]
}

func sortedKeys(m map[plumbing.Hash]plumbing.Hash) []plumbing.Hash {
	keys := make([]plumbing.Hash, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
