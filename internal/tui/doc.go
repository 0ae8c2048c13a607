// Package tui provides the terminal user interface for the rebaser.
//
// It handles:
//   - Structured logging and status reporting (Splog)
//   - Interactive anchor and message prompts (using bubbletea)
//   - Terminal styling and colors (using lipgloss)
package tui
