// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package traceview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/chronon-foundation/chronon/lib/tui"
)

// Fixed chrome heights. The header is the scenario line plus the
// summary line, the filter prompt takes one line, the help footer one.
const (
	headerHeight = 2
	filterHeight = 1
	footerHeight = 1
	detailHeight = 7
)

// listHeight returns the number of entry rows that fit on screen.
func (model Model) listHeight() int {
	height := model.height - headerHeight - filterHeight - footerHeight
	if model.showDetail {
		height -= detailHeight
	}
	if height < 1 {
		height = 1
	}
	return height
}

func (model Model) View() string {
	var view strings.Builder

	view.WriteString(model.renderHeader())
	view.WriteString("\n")
	view.WriteString(model.renderFilterLine())
	view.WriteString("\n")
	view.WriteString(model.renderList())
	if model.showDetail {
		view.WriteString("\n")
		view.WriteString(model.renderDetail())
	}
	view.WriteString("\n")
	view.WriteString(model.renderFooter())

	return view.String()
}

func (model Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(model.theme.HeaderForeground).
		Render(model.trace.Scenario)

	summary := model.trace.Summary
	counters := fmt.Sprintf("%d entries · %d wakes · %d cancels · %d advances · %s elapsed",
		len(model.trace.Entries), summary.Wakes, summary.Cancels, summary.Advances, summary.Elapsed)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(counters)

	return title + "\n" + faint
}

func (model Model) renderFilterLine() string {
	if model.focus == FocusFilter {
		prompt := lipgloss.NewStyle().Foreground(model.theme.AccentColor).Render("/")
		return prompt + model.filterInput + "█"
	}
	if model.filterInput != "" {
		line := fmt.Sprintf("/%s (%d/%d)", model.filterInput, len(model.visible), len(model.trace.Entries))
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(line)
	}
	return ""
}

func (model Model) renderList() string {
	height := model.listHeight()
	rowWidth := model.width - 2 // scrollbar column plus a gap
	if rowWidth < 10 {
		rowWidth = 10
	}

	rows := make([]string, 0, height)
	for row := 0; row < height; row++ {
		listIndex := model.scroll + row
		if listIndex >= len(model.visible) {
			rows = append(rows, "")
			continue
		}
		entryIndex := model.visible[listIndex]
		rows = append(rows, model.renderRow(entryIndex, listIndex == model.cursor, rowWidth))
	}

	scrollbar := tui.RenderScrollbar(model.theme, height,
		len(model.visible), height, model.scroll, model.focus == FocusList)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		strings.Join(rows, "\n"), " ", scrollbar)
}

// renderRow styles one entry line: kind color as the base, the fuzzy
// match positions tinted, and the selected row inverted.
func (model Model) renderRow(entryIndex int, selected bool, width int) string {
	entry := model.trace.Entries[entryIndex]
	text := entryLine(entry)

	base := lipgloss.NewStyle().Foreground(model.theme.KindColor(entry.Kind))
	if selected {
		base = base.
			Background(model.theme.SelectedBackground).
			Foreground(model.theme.SelectedForeground)
	}
	highlight := base.Background(model.theme.SearchHighlightBackground)

	rendered := renderHighlighted(text, model.matchPositions[entryIndex], base, highlight)

	// Pad the row so the selection background spans the full width.
	if padding := width - ansi.StringWidth(text); padding > 0 {
		rendered += base.Render(strings.Repeat(" ", padding))
	} else if padding < 0 {
		rendered = ansi.Truncate(rendered, width, "…")
	}
	return rendered
}

// renderHighlighted renders text with the given rune positions styled
// by highlight and everything else by base. Consecutive runes with the
// same style are grouped into one Render call.
func renderHighlighted(text string, positions []int, base, highlight lipgloss.Style) string {
	if len(positions) == 0 {
		return base.Render(text)
	}

	matched := make(map[int]bool, len(positions))
	for _, position := range positions {
		matched[position] = true
	}

	var result strings.Builder
	var segment strings.Builder
	segmentMatched := false

	flush := func() {
		if segment.Len() == 0 {
			return
		}
		if segmentMatched {
			result.WriteString(highlight.Render(segment.String()))
		} else {
			result.WriteString(base.Render(segment.String()))
		}
		segment.Reset()
	}

	for index, r := range []rune(text) {
		if matched[index] != segmentMatched {
			flush()
			segmentMatched = matched[index]
		}
		segment.WriteRune(r)
	}
	flush()

	return result.String()
}

func (model Model) renderDetail() string {
	border := lipgloss.NewStyle().Foreground(model.theme.BorderColor)
	rule := border.Render(strings.Repeat("─", max(model.width, 1)))

	entry, ok := model.SelectedEntry()
	if !ok {
		return rule + "\n" + lipgloss.NewStyle().
			Foreground(model.theme.FaintText).
			Render("no entry selected") + strings.Repeat("\n", detailHeight-3) + rule
	}

	label := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	value := lipgloss.NewStyle().Foreground(model.theme.NormalText)
	kind := lipgloss.NewStyle().Bold(true).Foreground(model.theme.KindColor(entry.Kind))

	lines := []string{
		rule,
		label.Render("kind      ") + kind.Render(string(entry.Kind)),
		label.Render("at        ") + value.Render(entry.At.String()),
		label.Render("timer     ") + value.Render(orDash(entry.Timer)),
		label.Render("fire time ") + value.Render(entry.FireTime.String()),
		label.Render("sequence  ") + value.Render(fmt.Sprintf("%d", entry.Sequence)),
		rule,
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderFooter() string {
	help := "↑/↓ move · / filter · enter detail · g/G jump · q quit"
	return lipgloss.NewStyle().Foreground(model.theme.HelpText).Render(help)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
