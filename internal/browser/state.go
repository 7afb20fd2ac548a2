package browser

import (
	"github.com/wesm/forktree/internal/tree"
)

// Mode is the input mode of the browser.
type Mode int

const (
	Browsing Mode = iota
	Searching
	Exited
)

func (m Mode) String() string {
	switch m {
	case Browsing:
		return "browsing"
	case Searching:
		return "searching"
	case Exited:
		return "exited"
	}
	return "unknown"
}

// EventKind identifies a browser input event.
type EventKind int

const (
	MoveUp EventKind = iota
	MoveDown
	PageUp
	PageDown
	Top
	Bottom
	Collapse
	Expand
	Toggle
	CollapseAll
	ExpandAll
	StartSearch
	Input
	Backspace
	CancelSearch
	ConfirmSearch
	Select
	Quit
	Resize
)

// Event is one input to State.Handle. Rune is set for Input and
// Height for Resize.
type Event struct {
	Kind   EventKind
	Rune   rune
	Height int
}

const defaultViewportHeight = 20

// Options configures a new State.
type Options struct {
	// ViewportHeight is the number of rows visible at once.
	ViewportHeight int
	// ExpandLevels is the number of tree levels visible on
	// start: 1 shows only roots. Zero or negative expands
	// everything.
	ExpandLevels int
}

// DefaultOptions returns options with everything expanded.
func DefaultOptions() Options {
	return Options{ViewportHeight: defaultViewportHeight}
}

// State is the navigation state over one forest. The forest is
// never modified; collapse flags and the filter are view state.
type State struct {
	forest *tree.Forest
	height int

	mode      Mode
	collapsed map[string]bool
	filter    string
	rows      []Row
	selected  int
	offset    int

	// Snapshot taken when a search starts, restored on cancel.
	savedCollapsed map[string]bool
	savedID        string
	searchActive   bool

	result string
	chosen bool
}

// New returns a browsing state over f.
func New(f *tree.Forest, opts Options) *State {
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = defaultViewportHeight
	}
	s := &State{
		forest:    f,
		height:    opts.ViewportHeight,
		collapsed: make(map[string]bool),
	}
	if opts.ExpandLevels > 0 {
		f.Walk(func(n *tree.Node, depth int) {
			if depth+1 >= opts.ExpandLevels && n.HasChildren() {
				s.collapsed[n.ID()] = true
			}
		})
	}
	s.rows = Flatten(f, s.collapsed, "")
	return s
}

// Mode returns the current input mode.
func (s *State) Mode() Mode { return s.mode }

// Filter returns the active search text.
func (s *State) Filter() string { return s.filter }

// Rows returns every visible row.
func (s *State) Rows() []Row { return s.rows }

// Selected returns the index of the cursor in Rows.
func (s *State) Selected() int { return s.selected }

// Offset returns the index of the first row in the viewport.
func (s *State) Offset() int { return s.offset }

// ViewportHeight returns the number of rows shown at once.
func (s *State) ViewportHeight() int { return s.height }

// Empty reports whether the forest has no sessions.
func (s *State) Empty() bool { return s.forest.Empty() }

// Current returns the row under the cursor.
func (s *State) Current() (Row, bool) {
	if len(s.rows) == 0 {
		return Row{}, false
	}
	return s.rows[s.selected], true
}

// Window returns the rows inside the viewport.
func (s *State) Window() []Row {
	end := min(s.offset+s.height, len(s.rows))
	return s.rows[s.offset:end]
}

// Result returns the chosen session id once the browser has
// exited. ok is false after a plain quit.
func (s *State) Result() (id string, ok bool) {
	return s.result, s.chosen
}

// Handle applies one event. Events after exit are ignored.
func (s *State) Handle(ev Event) {
	switch {
	case s.mode == Exited:
		return
	case ev.Kind == Quit:
		s.mode = Exited
		return
	case ev.Kind == Resize:
		s.resize(ev.Height)
		return
	case s.forest.Empty():
		return
	}

	switch ev.Kind {
	case MoveUp:
		s.moveTo(s.selected - 1)
	case MoveDown:
		s.moveTo(s.selected + 1)
	case PageUp:
		s.moveTo(s.selected - s.height)
	case PageDown:
		s.moveTo(s.selected + s.height)
	}
	if s.mode == Searching {
		s.handleSearching(ev)
	} else {
		s.handleBrowsing(ev)
	}
}

func (s *State) handleBrowsing(ev Event) {
	switch ev.Kind {
	case Top:
		s.moveTo(0)
	case Bottom:
		s.moveTo(len(s.rows) - 1)
	case Collapse:
		s.collapse()
	case Expand:
		s.expand()
	case Toggle:
		if r, ok := s.Current(); ok && r.Node.HasChildren() {
			if r.Expanded {
				s.collapse()
			} else {
				s.expand()
			}
		}
	case CollapseAll:
		id := s.currentID()
		s.forest.Walk(func(n *tree.Node, _ int) {
			if n.HasChildren() {
				s.collapsed[n.ID()] = true
			}
		})
		s.refresh(id)
	case ExpandAll:
		id := s.currentID()
		clear(s.collapsed)
		s.refresh(id)
	case StartSearch:
		if !s.searchActive {
			s.savedCollapsed = copyFlags(s.collapsed)
			s.savedID = s.currentID()
			s.searchActive = true
		}
		s.mode = Searching
		s.setFilter("")
	case CancelSearch:
		if s.searchActive {
			s.cancelSearch()
		}
	case Select:
		if r, ok := s.Current(); ok {
			s.result = r.ID()
			s.chosen = true
			s.mode = Exited
		}
	}
}

func (s *State) handleSearching(ev Event) {
	switch ev.Kind {
	case Input:
		s.setFilter(s.filter + string(ev.Rune))
	case Backspace:
		if s.filter == "" {
			return
		}
		r := []rune(s.filter)
		s.setFilter(string(r[:len(r)-1]))
	case CancelSearch:
		s.cancelSearch()
	case ConfirmSearch:
		s.mode = Browsing
		if s.filter == "" {
			s.searchActive = false
		}
	}
}

// setFilter replaces the filter, expanding ancestors of matches
// on top of the flags saved when the search started. The cursor
// lands on the first row that matches itself, or on row 0 when
// only ancestors remain. An empty filter puts it back on the
// session selected before the search.
func (s *State) setFilter(filter string) {
	s.filter = filter
	s.collapsed = expandForFilter(s.forest, s.savedCollapsed, filter)
	s.rows = Flatten(s.forest, s.collapsed, filter)
	s.offset = 0
	if filter == "" {
		s.selected = s.indexOf(s.savedID)
		s.moveTo(s.selected)
		return
	}
	first := 0
	for i, r := range s.rows {
		if r.Match {
			first = i
			break
		}
	}
	s.moveTo(first)
}

func (s *State) cancelSearch() {
	s.mode = Browsing
	s.filter = ""
	s.collapsed = s.savedCollapsed
	s.searchActive = false
	s.rows = Flatten(s.forest, s.collapsed, "")
	s.offset = 0
	s.moveTo(s.indexOf(s.savedID))
}

// collapse hides the children of the selected node, or moves the
// cursor to its parent when there is nothing to hide.
func (s *State) collapse() {
	r, ok := s.Current()
	if !ok {
		return
	}
	if r.Node.HasChildren() && r.Expanded {
		s.collapsed[r.ID()] = true
		s.refresh(r.ID())
		return
	}
	if p, ok := s.forest.Parent(r.ID()); ok {
		if i := s.indexOf(p); i >= 0 {
			s.moveTo(i)
		}
	}
}

func (s *State) expand() {
	r, ok := s.Current()
	if !ok || !r.Node.HasChildren() || r.Expanded {
		return
	}
	delete(s.collapsed, r.ID())
	s.refresh(r.ID())
}

// refresh recomputes the rows and puts the cursor back on id, or
// on its nearest visible ancestor.
func (s *State) refresh(id string) {
	s.rows = Flatten(s.forest, s.collapsed, s.filter)
	for id != "" {
		if i := s.indexOf(id); i >= 0 {
			s.moveTo(i)
			return
		}
		id, _ = s.forest.Parent(id)
	}
	s.moveTo(s.selected)
}

func (s *State) resize(h int) {
	s.height = max(1, h)
	s.moveTo(s.selected)
}

// moveTo clamps i into the row range, selects it and scrolls the
// viewport the minimum needed to show it.
func (s *State) moveTo(i int) {
	n := len(s.rows)
	s.selected = max(0, min(i, n-1))
	if s.selected < s.offset {
		s.offset = s.selected
	}
	if s.selected >= s.offset+s.height {
		s.offset = s.selected - s.height + 1
	}
	s.offset = max(0, min(s.offset, n-s.height))
}

func (s *State) currentID() string {
	if r, ok := s.Current(); ok {
		return r.ID()
	}
	return ""
}

// indexOf returns the row index of id, or -1.
func (s *State) indexOf(id string) int {
	for i, r := range s.rows {
		if r.ID() == id {
			return i
		}
	}
	return -1
}

func copyFlags(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
