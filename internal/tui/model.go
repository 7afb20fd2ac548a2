// Package tui is the terminal front end of the session browser.
// All navigation logic lives in internal/browser; this package
// maps keys to browser events and draws the current state.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/wesm/forktree/internal/browser"
	"github.com/wesm/forktree/internal/parser"
	"github.com/wesm/forktree/internal/tree"
)

// Lines used by the header, filter bar, footer and help.
const chromeLines = 4

// Options configures the browser.
type Options struct {
	// ExpandLevels is the number of tree levels visible on
	// start. Zero expands everything.
	ExpandLevels int
	// Version is shown in the header, typically the newest
	// Claude Code version seen in the project.
	Version string
}

// Model is the bubbletea model wrapping a browser.State.
type Model struct {
	state    *browser.State
	keys     keyMap
	help     help.Model
	sessions int
	version  string
	width    int
	height   int
}

// NewModel returns a model over f sized for an 80x24 terminal
// until the first WindowSizeMsg arrives.
func NewModel(f *tree.Forest, opts Options) Model {
	m := Model{
		keys:     defaultKeys(),
		help:     help.New(),
		sessions: f.Len(),
		version:  opts.Version,
		width:    80,
		height:   24,
	}
	m.state = browser.New(f, browser.Options{
		ViewportHeight: m.height - chromeLines,
		ExpandLevels:   opts.ExpandLevels,
	})
	return m
}

// Result returns the chosen session id after the program exits.
func (m Model) Result() (string, bool) {
	return m.state.Result()
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.state.Handle(browser.Event{
			Kind:   browser.Resize,
			Height: msg.Height - chromeLines,
		})
		return m, nil

	case tea.KeyMsg:
		for _, ev := range m.eventsFor(msg) {
			m.state.Handle(ev)
		}
		if m.state.Mode() == browser.Exited {
			return m, tea.Quit
		}
	}
	return m, nil
}

// eventsFor translates a key press into browser events.
func (m Model) eventsFor(msg tea.KeyMsg) []browser.Event {
	ev := func(k browser.EventKind) []browser.Event {
		return []browser.Event{{Kind: k}}
	}
	if msg.Type == tea.KeyCtrlC {
		return ev(browser.Quit)
	}
	if m.state.Mode() == browser.Searching {
		return searchEvents(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return ev(browser.Quit)
	case key.Matches(msg, m.keys.ClearFilter):
		return ev(browser.CancelSearch)
	case key.Matches(msg, m.keys.Up):
		return ev(browser.MoveUp)
	case key.Matches(msg, m.keys.Down):
		return ev(browser.MoveDown)
	case key.Matches(msg, m.keys.PageUp):
		return ev(browser.PageUp)
	case key.Matches(msg, m.keys.PageDown):
		return ev(browser.PageDown)
	case key.Matches(msg, m.keys.Top):
		return ev(browser.Top)
	case key.Matches(msg, m.keys.Bottom):
		return ev(browser.Bottom)
	case key.Matches(msg, m.keys.Collapse):
		return ev(browser.Collapse)
	case key.Matches(msg, m.keys.Expand):
		return ev(browser.Expand)
	case key.Matches(msg, m.keys.Toggle):
		return ev(browser.Toggle)
	case key.Matches(msg, m.keys.CollapseAll):
		return ev(browser.CollapseAll)
	case key.Matches(msg, m.keys.ExpandAll):
		return ev(browser.ExpandAll)
	case key.Matches(msg, m.keys.Search):
		return ev(browser.StartSearch)
	case key.Matches(msg, m.keys.Select):
		return ev(browser.Select)
	}
	return nil
}

func searchEvents(msg tea.KeyMsg) []browser.Event {
	one := func(k browser.EventKind) []browser.Event {
		return []browser.Event{{Kind: k}}
	}
	switch msg.Type {
	case tea.KeyEsc:
		return one(browser.CancelSearch)
	case tea.KeyEnter:
		return one(browser.ConfirmSearch)
	case tea.KeyBackspace:
		return one(browser.Backspace)
	case tea.KeyUp:
		return one(browser.MoveUp)
	case tea.KeyDown:
		return one(browser.MoveDown)
	case tea.KeyPgUp:
		return one(browser.PageUp)
	case tea.KeyPgDown:
		return one(browser.PageDown)
	case tea.KeySpace:
		return []browser.Event{{Kind: browser.Input, Rune: ' '}}
	case tea.KeyRunes:
		evs := make([]browser.Event, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			evs = append(evs, browser.Event{Kind: browser.Input, Rune: r})
		}
		return evs
	}
	return nil
}

func (m Model) View() string {
	if m.state.Mode() == browser.Exited {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader() + "\n")

	if m.state.Empty() {
		b.WriteString(emptyStyle.Render("No sessions found.") + "\n")
		b.WriteString(dimStyle.Render(" q: quit"))
		return b.String()
	}

	b.WriteString(m.renderFilterBar() + "\n")

	window := m.state.Window()
	first := m.state.Offset()
	for i, r := range window {
		b.WriteString(m.renderRow(r, first+i == m.state.Selected()) + "\n")
	}
	for i := len(window); i < m.state.ViewportHeight(); i++ {
		b.WriteString("\n")
	}

	b.WriteString(m.renderFooter() + "\n")
	if m.state.Mode() == browser.Searching {
		b.WriteString(m.help.View(searchKeys{}))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m Model) renderHeader() string {
	info := fmt.Sprintf("  %d sessions", m.sessions)
	if m.version != "" {
		info += "  claude " + m.version
	}
	return titleStyle.Render("Session Tree") + dimStyle.Render(info)
}

func (m Model) renderFilterBar() string {
	switch {
	case m.state.Mode() == browser.Searching:
		return filterStyle.Render(
			clip(" Filter: "+m.state.Filter()+"█", m.width),
		)
	case m.state.Filter() != "":
		return filterStyle.Render(clip(fmt.Sprintf(
			" Filter: %s  (%d shown)",
			m.state.Filter(), len(m.state.Rows()),
		), m.width))
	}
	return ""
}

func (m Model) renderRow(r browser.Row, selected bool) string {
	rec := r.Node.Record
	marker := "  "
	if r.Node.HasChildren() {
		if r.Expanded {
			marker = "▾ "
		} else {
			marker = "▸ "
		}
	}
	meta := fmt.Sprintf(" %s%s%s (%d) ",
		r.Prefix(), marker,
		tree.FormatTimestamp(rec.FirstTimestamp), rec.MessageCount,
	)
	meta = clip(meta, m.width)
	label := ""
	if l := r.Node.ForkLabel(); l != "" {
		label = " [" + l + "]"
	}

	room := max(0, m.width-runewidth.StringWidth(meta))
	label = clip(label, room)
	name := clip(
		parser.CleanLine(rec.DisplayName),
		max(0, room-runewidth.StringWidth(label)),
	)

	if selected {
		line := meta + name + label
		pad := max(0, m.width-runewidth.StringWidth(line))
		return selectedStyle.Render(line + strings.Repeat(" ", pad))
	}

	switch {
	case r.Match:
		name = matchStyle.Render(name)
	case r.Node.HasChildren():
		name = parentStyle.Render(name)
	}
	return dimStyle.Render(meta) + name + forkLabelStyle.Render(label)
}

func (m Model) renderFooter() string {
	line := ""
	if r, ok := m.state.Current(); ok {
		line = " " + r.ID()
		if v := r.Node.Record.Version; v != "" {
			line += "  v" + v
		}
	}
	line = clip(line, m.width)
	pad := max(0, m.width-runewidth.StringWidth(line))
	return statusBarStyle.Render(line + strings.Repeat(" ", pad))
}

// clip truncates s to at most width terminal cells.
func clip(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
