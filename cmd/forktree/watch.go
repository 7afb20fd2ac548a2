package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
	"github.com/wesm/forktree/internal/sync"
)

const watcherDebounce = 500 * time.Millisecond

// watchTree renders the tree, then renders it again from a fresh
// snapshot each time a transcript in dir changes, until
// interrupted.
func (a *app) watchTree(
	ctx context.Context, engine *sync.Engine, dir string,
	stdout, stderr io.Writer,
) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	changed := make(chan struct{}, 1)
	watcher, err := sync.NewWatcher(watcherDebounce, func([]string) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	watcher.Start()
	defer watcher.Stop()
	if err := watcher.Watch(dir); err != nil {
		return err
	}

	redraw := func() {
		if clearable(stdout) {
			fmt.Fprint(stdout, "\033[H\033[2J")
		}
		if err := a.renderOnce(engine, dir, stdout, stderr); err != nil {
			log.WithError(err).Warn("reloading sessions")
		}
	}

	redraw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			log.Debug("transcripts changed, reloading")
			redraw()
		}
	}
}

func (a *app) renderOnce(
	engine *sync.Engine, dir string, stdout, stderr io.Writer,
) error {
	forest, _, err := a.loadForest(engine, dir, stderr)
	if errors.Is(err, sync.ErrNoSessions) {
		fmt.Fprintln(stderr, "No sessions found; waiting for changes")
		return nil
	}
	if err != nil || forest == nil {
		return err
	}
	return a.render(stdout, forest)
}

func clearable(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
