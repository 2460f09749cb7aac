// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package trace

import (
	"path"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// VersionFunc extracts a version tag from a corpus-relative file path.
// An empty return means the file carries no version marker and is the
// canonical/base attempt for its puzzle. The strategy is pluggable; the
// grouping code only relies on CompareVersions for ordering.
type VersionFunc func(relPath string) string

// versionMarker matches the "_vNN_analysis" convention in trace filenames,
// e.g. "0934a4d8_v11_analysis.json".
var versionMarker = regexp.MustCompile(`_(v\d+)_analysis`)

// DefaultVersion recognizes the _vNN_analysis filename convention.
func DefaultVersion(relPath string) string {
	m := versionMarker.FindStringSubmatch(path.Base(relPath))
	if m == nil {
		return ""
	}
	return m[1]
}

// DerivePuzzleID derives a puzzle id from a corpus-relative file path by
// stripping the recognized analysis suffix from the file stem. Used as the
// fallback when the document itself carries no puzzle_id.
func DerivePuzzleID(relPath string) string {
	stem := strings.TrimSuffix(path.Base(relPath), path.Ext(relPath))
	if m := versionMarker.FindStringIndex(stem); m != nil {
		return stem[:m[0]]
	}
	if i := strings.LastIndex(stem, "_analysis"); i > 0 {
		return stem[:i]
	}
	return stem
}

// CompareVersions orders version tags deterministically:
//
//   - the empty tag sorts first (base attempt before revisions)
//   - numeric tags compare numerically via semver, so v2 < v10 < v11
//   - tags semver cannot parse sort after valid ones, lexically
//
// The return follows strings.Compare conventions.
func CompareVersions(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}

	aValid, bValid := semver.IsValid(a), semver.IsValid(b)
	switch {
	case aValid && bValid:
		return semver.Compare(a, b)
	case aValid:
		return -1
	case bValid:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
