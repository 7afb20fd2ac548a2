package tui

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/wesm/forktree/internal/tree"
)

// ErrNotTerminal is returned by Run when stdin or stdout is not
// an interactive terminal.
var ErrNotTerminal = errors.New(
	"interactive mode needs a terminal; run without -i for plain output",
)

// Run browses f until the user resumes a session or quits. It
// returns the chosen session id and true, or false on quit. The
// terminal is restored before Run returns on every path.
func Run(f *tree.Forest, opts Options) (string, bool, error) {
	return run(f, opts, os.Stdin, os.Stdout)
}

func run(
	f *tree.Forest, opts Options, in, out *os.File,
) (string, bool, error) {
	if !isTerminal(in) || !isTerminal(out) {
		return "", false, ErrNotTerminal
	}

	p := tea.NewProgram(
		NewModel(f, opts),
		tea.WithAltScreen(),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return "", false, fmt.Errorf("running browser: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return "", false, nil
	}
	id, chosen := m.Result()
	return id, chosen, nil
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
