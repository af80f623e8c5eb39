// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides shared terminal user interface components for
// Chronon's interactive viewers. Built on bubbletea (Elm architecture),
// these components handle common patterns: the color theme, fuzzy
// filter matching, scrollbar rendering, overlay splicing, and styled
// markdown output.
//
// Domain-specific viewers (the trace viewer, future run browsers)
// import this package for consistent look and behavior: same theme,
// same keyboard conventions, same overlay mechanics. Each viewer owns
// its own data source, layout, and domain-specific rendering.
package tui
