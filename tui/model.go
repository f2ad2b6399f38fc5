// Package tui is a terminal rendition of the comparator page: two filter
// inputs, the product list and the comparison of the selected pair.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/giygas/smpc-comparator/comparison"
	"github.com/giygas/smpc-comparator/filter"
	"github.com/giygas/smpc-comparator/interfaces"
	"github.com/giygas/smpc-comparator/record"
	"github.com/giygas/smpc-comparator/selection"
	"github.com/giygas/smpc-comparator/validation"
)

// LoadFunc fetches the full record set
type LoadFunc func(ctx context.Context) ([]record.Record, error)

type loadedMsg struct{ records []record.Record }

type loadFailedMsg struct{ err error }

// Focus targets, cycled with tab
const (
	focusName = iota
	focusAuth
	focusList
	focusCount
)

// Model implements tea.Model
type Model struct {
	ctx    context.Context
	load   LoadFunc
	names  comparison.Namer
	keys   KeyMap
	styles Styles

	state      interfaces.ViewState
	err        error
	refreshing bool

	spinner spinner.Model
	inputs  [2]textinput.Model
	help    help.Model
	focus   int

	records  []record.Record
	filtered []record.Record
	cursor   int
	sel      selection.Set
	onlyDiff bool

	width  int
	height int
}

var _ tea.Model = Model{}

// New creates a model that loads its records with load on start
func New(ctx context.Context, load LoadFunc, names comparison.Namer) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	name := textinput.New()
	name.Placeholder = "Search by medicinal product name..."
	name.CharLimit = validation.MaxFilterLength
	name.Focus()

	auth := textinput.New()
	auth.Placeholder = "Filter by auth number..."
	auth.CharLimit = validation.MaxFilterLength

	return Model{
		ctx:     ctx,
		load:    load,
		names:   names,
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
		state:   interfaces.StateLoading,
		spinner: sp,
		inputs:  [2]textinput.Model{name, auth},
		help:    help.New(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch(), textinput.Blink)
}

func (m Model) fetch() tea.Cmd {
	ctx, load := m.ctx, m.load
	return func() tea.Msg {
		records, err := load(ctx)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return loadedMsg{records: records}
	}
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg:
		m.records = msg.records
		m.state = interfaces.StateReady
		m.err = nil
		m.refreshing = false
		m.sel = reselect(m.sel, msg.records)
		m.applyFilter()
		return m, nil

	case loadFailedMsg:
		m.err = msg.err
		m.refreshing = false
		if m.state != interfaces.StateReady {
			m.state = interfaces.StateError
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != interfaces.StateLoading && !m.refreshing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.state != interfaces.StateReady {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh) && m.state == interfaces.StateError:
			m.state = interfaces.StateLoading
			return m, tea.Batch(m.spinner.Tick, m.fetch())
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.NextFocus):
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case key.Matches(msg, m.keys.PrevFocus):
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	}

	if m.focus != focusList {
		if msg.Type == tea.KeyEnter || msg.Type == tea.KeyDown {
			m.setFocus(focusList)
			return m, nil
		}
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		m.applyFilter()
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if m.cursor < len(m.filtered) {
			rec := m.filtered[m.cursor]
			// same rule as the page: a full selection disables the other rows
			if m.sel.Full() && !m.sel.Contains(rec.Key) {
				return m, nil
			}
			m.sel = m.sel.Toggle(rec)
		}
	case key.Matches(msg, m.keys.Clear):
		m.sel = m.sel.Clear()
	case key.Matches(msg, m.keys.OnlyDiff):
		m.onlyDiff = !m.onlyDiff
	case key.Matches(msg, m.keys.Refresh):
		if !m.refreshing {
			m.refreshing = true
			return m, tea.Batch(m.spinner.Tick, m.fetch())
		}
	}
	return m, nil
}

// reselect carries the selection over to a reloaded data set, dropping keys
// that no longer exist.
func reselect(sel selection.Set, records []record.Record) selection.Set {
	byKey := make(map[string]record.Record, len(records))
	for _, r := range records {
		if _, dup := byKey[r.Key]; !dup {
			byKey[r.Key] = r
		}
	}
	return selection.FromKeys(sel.Keys(), func(k string) (record.Record, bool) {
		r, ok := byKey[k]
		return r, ok
	})
}

func (m *Model) setFocus(f int) {
	m.focus = f
	for i := range m.inputs {
		if i == f {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

// applyFilter recomputes the visible products. The selection is kept even
// when its records are filtered out.
func (m *Model) applyFilter() {
	m.filtered = filter.Apply(m.records, m.Filter())
	if m.cursor >= len(m.filtered) {
		m.cursor = max(len(m.filtered)-1, 0)
	}
}

// Filter returns the current filter inputs
func (m Model) Filter() filter.State {
	return filter.State{Name: m.inputs[focusName].Value(), Auth: m.inputs[focusAuth].Value()}
}

// State returns the load state
func (m Model) State() interfaces.ViewState { return m.state }

// Selection returns the selected records
func (m Model) Selection() selection.Set { return m.sel }

// Visible returns the products matching the filter
func (m Model) Visible() []record.Record { return m.filtered }

// Cursor returns the highlighted product index
func (m Model) Cursor() int { return m.cursor }

// Err returns the last load error
func (m Model) Err() error { return m.err }

// View implements tea.Model
func (m Model) View() string {
	s := m.styles
	switch m.state {
	case interfaces.StateLoading:
		return fmt.Sprintf("\n  %s Loading pharmaceutical data...\n", m.spinner.View())
	case interfaces.StateError:
		return fmt.Sprintf("\n  %s\n  %s\n\n  %s\n",
			s.Error.Render("Error Loading Data"),
			m.err,
			s.Muted.Render("r retry • q quit"))
	}

	var b strings.Builder
	b.WriteString(s.Title.Render("SMPC Data Comparator"))
	b.WriteString("\n")
	b.WriteString(s.Subtitle.Render("Compare medicinal product information and specifications"))
	b.WriteString("\n\n")

	for i, label := range []string{"Name", "Auth"} {
		style := s.Label
		if m.focus == i {
			style = s.Focused
		}
		b.WriteString(style.Render(label))
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.Title.Render(fmt.Sprintf("Medicinal Products (%d)", len(m.filtered))))
	b.WriteString("  ")
	b.WriteString(s.Muted.Render(fmt.Sprintf("Currently selected: %d/%d", m.sel.Len(), selection.Capacity)))
	if m.refreshing {
		b.WriteString("  " + m.spinner.View())
	} else if m.err != nil {
		b.WriteString("  " + s.Error.Render("refresh failed: "+m.err.Error()))
	}
	b.WriteString("\n")
	b.WriteString(m.renderProducts())
	b.WriteString("\n")

	b.WriteString(renderComparison(s, comparison.Build(m.sel, m.names), m.width, m.onlyDiff))
	b.WriteString("\n")
	b.WriteString(s.Help.Render(m.help.View(m.keys)))
	return b.String()
}

// listHeight is the number of product lines shown around the cursor
func (m Model) listHeight() int {
	if m.height <= 0 {
		return 10
	}
	return max(m.height/3, 3)
}

func (m Model) renderProducts() string {
	s := m.styles
	if len(m.filtered) == 0 {
		return s.Muted.Render("No data found matching your criteria") + "\n"
	}

	n := m.listHeight()
	start := 0
	if m.cursor >= n {
		start = m.cursor - n + 1
	}
	end := min(start+n, len(m.filtered))

	var b strings.Builder
	for i := start; i < end; i++ {
		rec := m.filtered[i]
		selected := m.sel.Contains(rec.Key)

		mark := "[ ]"
		if selected {
			mark = "[x]"
		}
		pointer := "  "
		if i == m.cursor && m.focus == focusList {
			pointer = "> "
		}

		line := fmt.Sprintf("%s%s %s  %s  %s", pointer, mark,
			displayText(rec.Name()), displayText(rec.AuthorisationNumber()), displayText(rec.PharmaceuticalForm()))

		switch {
		case selected:
			line = s.Selected.Render(line)
		case m.sel.Full():
			line = s.Disabled.Render(line)
		case i == m.cursor:
			line = s.Cursor.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if end < len(m.filtered) || start > 0 {
		b.WriteString(s.Muted.Render(fmt.Sprintf("  %d-%d of %d", start+1, end, len(m.filtered))))
		b.WriteString("\n")
	}
	return b.String()
}

func displayText(v record.Value) string {
	if v.Truthy() {
		return v.Text
	}
	return record.Placeholder
}

// Run starts the program and blocks until the user quits
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
