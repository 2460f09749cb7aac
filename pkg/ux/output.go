// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux renders styled terminal output for the tracelabel CLI.
//
// Interactive terminals get lipgloss-styled text; piped output falls back
// to plain prefixed lines so scripts can parse reports. Mode selection
// lives in personality.go.
package ux

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// TraceWorks palette - graphite base with signal colors.
var (
	ColorAccent  = lipgloss.Color("#7C6FF0") // violet - titles, highlights
	ColorAccent2 = lipgloss.Color("#5A8DEE") // blue - secondary emphasis
	ColorSuccess = lipgloss.Color("#3DDC97") // green - success states
	ColorWarning = lipgloss.Color("#F5B759") // amber - warnings
	ColorError   = lipgloss.Color("#EF6461") // red - errors
	ColorMuted   = lipgloss.Color("#6B7280") // gray - secondary text
)

// Styles holds the pre-configured lipgloss styles used by the CLI.
var Styles = struct {
	Title     lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorMuted),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Bold(true).Foreground(ColorAccent2),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(0, 1),
}

// Icon is a themed status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconBullet  Icon = "•"
	IconArrow   Icon = "→"
)

// Render returns the icon with its semantic color applied.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// Title prints a styled section title. Suppressed in machine mode.
func Title(text string) {
	if GetMode() == ModeMachine {
		return
	}
	fmt.Println(Styles.Title.Render(text))
}

// Success prints a success line with a checkmark.
func Success(text string) {
	if GetMode() == ModeMachine {
		fmt.Fprintf(os.Stdout, "OK: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
}

// Warning prints a warning line.
func Warning(text string) {
	if GetMode() == ModeMachine {
		fmt.Fprintf(os.Stderr, "WARN: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
}

// Error prints an error line.
func Error(text string) {
	if GetMode() == ModeMachine {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", IconError.Render(), Styles.Error.Render(text))
}

// Info prints an informational line.
func Info(text string) {
	if GetMode() == ModeMachine {
		fmt.Println(text)
		return
	}
	fmt.Printf("%s %s\n", Styles.Muted.Render("│"), text)
}

// Muted prints secondary text. Suppressed in machine mode.
func Muted(text string) {
	if GetMode() == ModeMachine {
		return
	}
	fmt.Println(Styles.Muted.Render(text))
}

// KeyValue prints an aligned "key: value" report line.
func KeyValue(key string, value any) {
	if GetMode() == ModeMachine {
		fmt.Printf("%s=%v\n", key, value)
		return
	}
	fmt.Printf("  %s %v\n", Styles.Muted.Render(fmt.Sprintf("%-18s", key+":")), value)
}

// FileStatus prints a file with its scan outcome and optional reason.
func FileStatus(path string, status Icon, reason string) {
	if GetMode() == ModeMachine {
		fmt.Printf("%s\t%s\t%s\n", status, path, reason)
		return
	}
	if reason != "" {
		fmt.Printf("%s %s %s\n", status.Render(), path, Styles.Muted.Render("("+reason+")"))
		return
	}
	fmt.Printf("%s %s\n", status.Render(), path)
}

// ScanSummary prints the one-line reconcile summary.
func ScanSummary(scanned, parsed, reused, removed, invalid int) {
	if GetMode() == ModeMachine {
		fmt.Printf("SUMMARY: scanned=%d parsed=%d reused=%d removed=%d invalid=%d\n",
			scanned, parsed, reused, removed, invalid)
		return
	}
	fmt.Printf("\n%s %s  %s %s  %s %s  %s %s\n",
		Styles.Bold.Render(fmt.Sprintf("%d", scanned)), Styles.Muted.Render("scanned"),
		Styles.Highlight.Render(fmt.Sprintf("%d", parsed)), Styles.Muted.Render("parsed"),
		Styles.Success.Render(fmt.Sprintf("%d", reused)), Styles.Muted.Render("reused"),
		Styles.Warning.Render(fmt.Sprintf("%d", invalid)), Styles.Muted.Render("invalid"),
	)
}

// ProgressBar renders a labeling-completion bar of the given width.
func ProgressBar(current, total int, width int) string {
	if total <= 0 {
		total = 1
	}
	if GetMode() == ModeMachine {
		return fmt.Sprintf("%d/%d", current, total)
	}
	pct := float64(current) / float64(total)
	if pct > 1 {
		pct = 1
	}
	filled := int(pct * float64(width))
	empty := width - filled

	bar := Styles.Success.Render(repeatChar('█', filled)) +
		Styles.Muted.Render(repeatChar('░', empty))
	return fmt.Sprintf("%s %3.0f%%", bar, pct*100)
}

func repeatChar(c rune, n int) string {
	if n <= 0 {
		return ""
	}
	result := make([]rune, n)
	for i := range result {
		result[i] = c
	}
	return string(result)
}
