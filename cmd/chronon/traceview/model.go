// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package traceview

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/junegunn/fzf/src/util"

	"github.com/chronon-foundation/chronon/lib/trace"
	"github.com/chronon-foundation/chronon/lib/tui"
)

// FocusRegion identifies which pane has keyboard focus.
type FocusRegion int

const (
	// FocusList means navigation keys move the entry list cursor.
	FocusList FocusRegion = iota
	// FocusFilter means keystrokes go to the filter input.
	FocusFilter
)

// fzf slab sizes, matching fzf's own defaults. One slab is reused
// across every candidate within a filter pass.
const (
	slab16Size = 100 * 1024
	slab32Size = 2048
)

// Model is the bubbletea model for the trace viewer.
type Model struct {
	trace *trace.Trace
	theme tui.Theme
	keys  keyMap

	width  int
	height int

	focus       FocusRegion
	filterInput string

	// visible holds indices into trace.Entries that pass the current
	// filter, in chronological order. matchPositions holds, for each
	// visible entry index, the rune positions to highlight.
	visible        []int
	matchPositions map[int][]int

	cursor     int // index into visible
	scroll     int // first visible row
	showDetail bool

	slab *util.Slab
}

// NewModel builds a viewer for a decoded trace.
func NewModel(decoded *trace.Trace) Model {
	model := Model{
		trace:  decoded,
		theme:  tui.DefaultTheme,
		keys:   defaultKeys,
		width:  80,
		height: 24,
		slab:   util.MakeSlab(slab16Size, slab32Size),
	}
	model.applyFilter()
	return model
}

// Run opens the viewer in the alternate screen and blocks until the
// user quits.
func Run(decoded *trace.Trace) error {
	program := tea.NewProgram(NewModel(decoded), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running trace viewer: %w", err)
	}
	return nil
}

func (model Model) Init() tea.Cmd {
	return nil
}

func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		if model.focus == FocusFilter {
			return model.handleFilterKeys(message)
		}
		return model.handleListKeys(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.clampScroll()
	}
	return model, nil
}

func (model Model) handleListKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.Up):
		model.moveCursor(-1)

	case key.Matches(message, model.keys.Down):
		model.moveCursor(1)

	case key.Matches(message, model.keys.Top):
		model.cursor = 0
		model.clampScroll()

	case key.Matches(message, model.keys.Bottom):
		model.cursor = len(model.visible) - 1
		model.clampScroll()

	case key.Matches(message, model.keys.HalfUp):
		model.moveCursor(-model.listHeight() / 2)

	case key.Matches(message, model.keys.HalfDown):
		model.moveCursor(model.listHeight() / 2)

	case key.Matches(message, model.keys.Filter):
		model.focus = FocusFilter

	case key.Matches(message, model.keys.Detail):
		model.showDetail = !model.showDetail
		model.clampScroll()

	case key.Matches(message, model.keys.Clear):
		if model.filterInput != "" {
			model.filterInput = ""
			model.applyFilter()
		}
	}
	return model, nil
}

func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEscape:
		model.focus = FocusList
		model.filterInput = ""
		model.applyFilter()

	case tea.KeyEnter:
		// Keep the filter, return focus to the list.
		model.focus = FocusList

	case tea.KeyBackspace:
		if len(model.filterInput) > 0 {
			runes := []rune(model.filterInput)
			model.filterInput = string(runes[:len(runes)-1])
			model.applyFilter()
		}

	case tea.KeyCtrlC:
		return model, tea.Quit

	case tea.KeyRunes, tea.KeySpace:
		model.filterInput += string(message.Runes)
		model.applyFilter()
	}
	return model, nil
}

// moveCursor shifts the selection and keeps it in view.
func (model *Model) moveCursor(delta int) {
	model.cursor += delta
	model.clampScroll()
}

// clampScroll bounds the cursor to the visible set and adjusts the
// scroll offset so the cursor stays on screen.
func (model *Model) clampScroll() {
	if model.cursor >= len(model.visible) {
		model.cursor = len(model.visible) - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}

	height := model.listHeight()
	if height < 1 {
		height = 1
	}
	if model.cursor < model.scroll {
		model.scroll = model.cursor
	}
	if model.cursor >= model.scroll+height {
		model.scroll = model.cursor - height + 1
	}
	if model.scroll < 0 {
		model.scroll = 0
	}
}

// applyFilter recomputes the visible entry set from the filter input.
// An empty filter shows everything. Matching entries stay in
// chronological order; score is used only to decide inclusion, since
// reordering a trace would hide the causality the viewer exists to
// show.
func (model *Model) applyFilter() {
	model.visible = model.visible[:0]
	model.matchPositions = make(map[int][]int)

	if model.filterInput == "" {
		for index := range model.trace.Entries {
			model.visible = append(model.visible, index)
		}
		model.clampScroll()
		return
	}

	pattern := []rune(model.filterInput)
	for index, entry := range model.trace.Entries {
		result := tui.FuzzyMatch(entryLine(entry), pattern, model.slab)
		if result.Score <= 0 {
			continue
		}
		model.visible = append(model.visible, index)
		model.matchPositions[index] = result.Positions
	}
	model.clampScroll()
}

// entryLine is the text a list row displays and the text the fuzzy
// filter matches against. Keeping them identical means match
// positions from the filter line up with rendered characters.
func entryLine(entry trace.Entry) string {
	switch entry.Kind {
	case trace.KindAdvance:
		return fmt.Sprintf("%12s  %-8s", entry.At, entry.Kind)
	default:
		return fmt.Sprintf("%12s  %-8s  %-16s  fire=%s seq=%d",
			entry.At, entry.Kind, entry.Timer, entry.FireTime, entry.Sequence)
	}
}

// SelectedEntry returns the entry under the cursor, or false when the
// filter has emptied the list.
func (model Model) SelectedEntry() (trace.Entry, bool) {
	if len(model.visible) == 0 {
		return trace.Entry{}, false
	}
	return model.trace.Entries[model.visible[model.cursor]], true
}
