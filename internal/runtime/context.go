package runtime

import (
	"fmt"
	"io"

	"stackit.dev/rebaser/internal/config"
	"stackit.dev/rebaser/internal/git"
	"stackit.dev/rebaser/internal/tui"
)

// Context provides access to the repository, configuration and output for commands
type Context struct {
	Repo     *git.Repository
	RepoRoot string
	Config   *config.RepoConfig
	Splog    *tui.Splog
}

// Options configures NewContext
type Options struct {
	// Path is any directory inside the repository
	Path string
	// Out receives console output
	Out   io.Writer
	Debug bool
}

// NewContext opens the repository at opts.Path, loads its configuration and sets up logging.
// The debug log file comes from log_file in the config or REBASER_LOG_FILE.
func NewContext(opts Options) (*Context, error) {
	repo, err := git.OpenRepository(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	repoRoot := repo.GetRepoRoot()

	cfg, err := config.LoadRepoConfig(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	splog, err := tui.NewSplogWithOptions(tui.SplogOptions{
		Writer:  opts.Out,
		LogFile: tui.LogFilePath(cfg.LogFile),
		Debug:   opts.Debug,
	})
	if err != nil {
		return nil, err
	}

	return &Context{
		Repo:     repo,
		RepoRoot: repoRoot,
		Config:   cfg,
		Splog:    splog,
	}, nil
}

// Close releases the log file
func (c *Context) Close() error {
	return c.Splog.Close()
}
