// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Styling is deliberately sparse. Stdout carries either the launched
// server's RPC stream or plain machine-readable output, so color only
// appears on the human-facing surfaces: help text, `resolve`/`config`
// reports and the error footer. Adaptive colors keep both light and dark
// terminals readable.
var (
	headingColor = lipgloss.AdaptiveColor{Light: "#005F87", Dark: "#5FD7FF"}
	dimColor     = lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"}
	alertColor   = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}
	detailColor  = lipgloss.AdaptiveColor{Light: "#005F5F", Dark: "#5FAFAF"}

	// TitleStyle marks section headings in report output.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(headingColor)

	// SubtitleStyle is for secondary headings and descriptive text.
	SubtitleStyle = lipgloss.NewStyle().Foreground(dimColor)

	// ErrorStyle marks the error footer prefix.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(alertColor)

	// ValueStyle is for resolved paths, commands and configuration values.
	ValueStyle = lipgloss.NewStyle().Foreground(detailColor)
)
