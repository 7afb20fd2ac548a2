package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/wesm/forktree/internal/config"
	"github.com/wesm/forktree/internal/db"
	"github.com/wesm/forktree/internal/sync"
	"github.com/wesm/forktree/internal/tree"
	"github.com/wesm/forktree/internal/tui"
)

// app carries state shared by the root command and its
// subcommands once flags are parsed.
type app struct {
	cfg config.Config

	interactive bool
	filter      string
	depth       int
	jsonOutput  bool
	watch       bool
	exec        bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "forktree [project_path]",
		Short: "Show Claude Code sessions as a tree of forks",
		Long: `forktree groups the Claude Code sessions of one project by their
opening prompt and prints them as a tree: the earliest session of
each group is the root and later sessions are its forks.

With no project path, the project is detected from the working
directory. Data is stored in ~/.forktree/ by default.`,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: a.setup,
		RunE:              a.runTree,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	cmd.Version = version
	cmd.SetVersionTemplate(versionString() + "\n")

	f := cmd.Flags()
	f.BoolVarP(&a.interactive, "interactive", "i", false,
		"Browse the tree interactively")
	f.StringVar(&a.filter, "filter", "",
		"Show only the subtree of the first session matching keyword")
	f.IntVar(&a.depth, "depth", tree.Unlimited,
		"Deepest level shown (0 = roots only, -1 = unlimited)")
	f.BoolVar(&a.jsonOutput, "json", false, "Write the tree as JSON")
	f.BoolVar(&a.watch, "watch", false,
		"Re-render when transcripts change")
	f.BoolVar(&a.exec, "exec", false,
		"Run the resume command for the selected session")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newVersionCmd(),
		newSetResumeCmd(a),
		newCacheCmd(a),
	)
	return cmd
}

func versionString() string {
	s := fmt.Sprintf("forktree %s (commit %s", version, commit)
	if buildDate != "" {
		s += ", built " + buildDate
	}
	return s + ")"
}

// setup loads configuration and configures logging before any
// command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	log.SetOutput(cmd.ErrOrStderr())
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	log.SetLevel(log.WarnLevel)
	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}
	return nil
}

// openDB opens the transcript cache. It returns nil when the
// cache is disabled or cannot be opened; cache problems only cost
// speed, so they are logged rather than returned.
func (a *app) openDB() (*db.DB, func()) {
	if a.cfg.NoCache {
		return nil, func() {}
	}
	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		log.WithError(err).Warn("creating data dir; cache disabled")
		return nil, func() {}
	}
	database, err := db.Open(a.cfg.DBPath)
	if err != nil {
		log.WithError(err).Warn("opening cache; cache disabled")
		return nil, func() {}
	}
	return database, func() { database.Close() }
}

func (a *app) runTree(cmd *cobra.Command, args []string) error {
	if a.watch && a.interactive {
		return errors.New("--watch cannot be combined with --interactive")
	}
	if a.exec && !a.interactive {
		return errors.New("--exec requires --interactive")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	dir, err := config.ResolveProjectPath(
		arg, a.cfg.ClaudeProjectsDir, cwd,
	)
	if err != nil {
		return err
	}
	log.WithField("dir", dir).Debug("resolved project")

	database, closeDB := a.openDB()
	defer closeDB()
	engine := sync.NewEngine(database)

	if a.watch {
		return a.watchTree(cmd.Context(), engine, dir,
			cmd.OutOrStdout(), cmd.ErrOrStderr())
	}

	forest, stats, err := a.loadForest(engine, dir, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if forest == nil {
		return nil
	}

	if !a.interactive {
		return a.render(cmd.OutOrStdout(), forest)
	}
	id, ok, err := tui.Run(forest, tui.Options{
		ExpandLevels: expandLevels(a.depth),
		Version:      stats.LatestVersion,
	})
	if err != nil || !ok {
		return err
	}
	return a.resume(cmd.Context(), id, cmd.OutOrStdout())
}

// loadForest builds the forest for dir and applies --filter. A
// nil forest with a nil error means the filter matched nothing;
// that has already been reported on stderr.
func (a *app) loadForest(
	engine *sync.Engine, dir string, stderr io.Writer,
) (*tree.Forest, sync.Stats, error) {
	records, stats, err := engine.Load(dir)
	if err != nil {
		// The interactive browser has its own empty view.
		if !errors.Is(err, sync.ErrNoSessions) || !a.interactive {
			return nil, stats, err
		}
	}

	forest := tree.BuildFromRecords(records)
	if a.filter == "" || forest.Empty() {
		return forest, stats, nil
	}
	filtered, err := tree.Filter(forest, a.filter)
	if errors.Is(err, tree.ErrNotFound) {
		fmt.Fprintf(stderr, "No session matches %q\n", a.filter)
		return nil, stats, nil
	}
	return filtered, stats, err
}

// expandLevels maps --depth onto the number of levels the
// browser shows expanded.
func expandLevels(depth int) int {
	if depth < 0 {
		return 0
	}
	return depth + 1
}

func (a *app) render(w io.Writer, forest *tree.Forest) error {
	if a.jsonOutput {
		return tree.WriteJSON(w, forest)
	}
	err := tree.RenderText(w, forest, tree.TextOptions{
		MaxDepth: a.depth,
	})
	if err != nil || forest.Empty() {
		return err
	}
	_, err = fmt.Fprintf(w, "\nResume: %s\n", a.resumeHint("<session-id>"))
	return err
}

// resumeHint renders the resume command for id, falling back to
// the raw setting when it does not split.
func (a *app) resumeHint(id string) string {
	args, err := a.cfg.ResumeArgs(id)
	if err != nil {
		return a.cfg.ResumeCommand + " " + id
	}
	return strings.Join(args, " ")
}

// resume prints how to continue the chosen session, or runs the
// resume command directly with --exec.
func (a *app) resume(
	ctx context.Context, id string, stdout io.Writer,
) error {
	if !a.exec {
		fmt.Fprintf(stdout, "Resume with: %s\n", a.resumeHint(id))
		return nil
	}
	args, err := a.cfg.ResumeArgs(id)
	if err != nil {
		return err
	}

	log.WithField("command", args).Debug("resuming session")
	c := exec.CommandContext(ctx, args[0], args[1:]...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("running %s: %w", args[0], err)
	}
	return nil
}
