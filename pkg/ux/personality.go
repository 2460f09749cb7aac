// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// Mode controls how much styling CLI output carries.
type Mode string

const (
	// ModeStyled renders colors, icons, and boxes for interactive terminals.
	ModeStyled Mode = "styled"

	// ModeMachine emits plain prefixed text suitable for pipes and scripts.
	ModeMachine Mode = "machine"
)

var (
	modeMu      sync.RWMutex
	currentMode = detectMode()
)

// detectMode picks the startup mode: styled on a TTY, machine otherwise.
// TRACELABEL_PLAIN=1 forces machine mode regardless of the terminal.
func detectMode() Mode {
	if os.Getenv("TRACELABEL_PLAIN") == "1" {
		return ModeMachine
	}
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return ModeStyled
	}
	return ModeMachine
}

// GetMode returns the active output mode.
func GetMode() Mode {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return currentMode
}

// SetMode overrides the detected output mode. Used by the --plain flag.
func SetMode(m Mode) {
	modeMu.Lock()
	defer modeMu.Unlock()
	currentMode = m
}
