// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation for user-supplied identifiers.
//
// Trace file paths and puzzle ids arrive from URL segments and request
// bodies and end up joined onto the corpus directory. These validators
// reject traversal sequences, absolute paths, and control characters before
// any filesystem access happens.
package validation

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// puzzleIDPattern matches puzzle identifiers as they appear in trace
// filenames: hex-ish stems, optionally with dashes or underscores.
// Max length 128 keeps pathological inputs out of log lines.
var puzzleIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]{0,127}$`)

// ValidatePuzzleID validates a puzzle identifier.
//
// Valid ids are 1-128 characters of letters, digits, dot, underscore, or
// hyphen, starting with a letter or digit. Anything else (path separators,
// whitespace, control bytes) is rejected.
func ValidatePuzzleID(id string) error {
	if id == "" {
		return fmt.Errorf("puzzle id cannot be empty")
	}
	if !puzzleIDPattern.MatchString(id) {
		return fmt.Errorf("invalid puzzle id %q", id)
	}
	return nil
}

// CleanTracePath validates and normalizes a corpus-relative trace path.
//
// The returned path is slash-separated and safe to join onto the corpus
// root: absolute paths, drive letters, "..", and NUL bytes are rejected.
// Backslashes are treated as separators so Windows-style inputs from older
// label documents keep working.
func CleanTracePath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("trace path cannot be empty")
	}
	if strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("trace path contains NUL byte")
	}

	normalized := strings.ReplaceAll(p, `\`, "/")
	if strings.HasPrefix(normalized, "/") {
		return "", fmt.Errorf("trace path %q must be relative", p)
	}
	if len(normalized) >= 2 && normalized[1] == ':' {
		return "", fmt.Errorf("trace path %q must be relative", p)
	}

	cleaned := path.Clean(normalized)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("trace path %q escapes the corpus root", p)
	}
	return cleaned, nil
}
