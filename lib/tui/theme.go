// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/chronon-foundation/chronon/lib/trace"
)

// Theme defines the color palette and visual properties for Chronon's
// terminal UIs. All colors use lipgloss ANSI 256-color codes for
// broad terminal compatibility.
//
// The fields cover both universal chrome (text, selection, borders)
// and the semantic trace-entry categories that recur across views:
// every viewer colors a wake the same way, whether it appears in a
// scrolling entry list or a detail pane.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Trace entry kind colors.
	KindRegister lipgloss.Color
	KindAdvance  lipgloss.Color
	KindWake     lipgloss.Color
	KindRemove   lipgloss.Color
	KindCancel   lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// AccentColor marks the focused pane and the scrollbar thumb.
	AccentColor lipgloss.Color

	// Search and filter match highlighting.
	SearchHighlightBackground lipgloss.Color // Background tint for matched characters.
	SearchCurrentBackground   lipgloss.Color // Background for the current search match.

	// Autolinked references.
	LinkForeground lipgloss.Color // Foreground color for inline reference links.
}

// KindColor returns the color for a trace entry kind. Unknown kinds
// return FaintText.
func (theme Theme) KindColor(kind trace.Kind) lipgloss.Color {
	switch kind {
	case trace.KindRegister:
		return theme.KindRegister
	case trace.KindAdvance:
		return theme.KindAdvance
	case trace.KindWake:
		return theme.KindWake
	case trace.KindRemove:
		return theme.KindRemove
	case trace.KindCancel:
		return theme.KindCancel
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme. Designed for
// 256-color terminals with a dark background (the common case for
// development environments and tmux sessions).
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	KindRegister: lipgloss.Color("75"),  // blue: a timer entered the queue
	KindAdvance:  lipgloss.Color("220"), // yellow/amber: the clock moved
	KindWake:     lipgloss.Color("114"), // green: a waiter fired
	KindRemove:   lipgloss.Color("245"), // gray: routine dequeue
	KindCancel:   lipgloss.Color("196"), // red: a timer was cut short

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	AccentColor: lipgloss.Color("220"),

	SearchHighlightBackground: lipgloss.Color("58"),  // dark amber
	SearchCurrentBackground:   lipgloss.Color("100"), // brighter amber for current match

	LinkForeground: lipgloss.Color("75"),
}
