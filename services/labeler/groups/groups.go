// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package groups folds a corpus snapshot into per-puzzle groups with a
// deterministic review order.
package groups

import (
	"sort"

	"github.com/TraceWorksAI/TraceLabel/services/labeler/corpus"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/trace"
)

// Member is one trace file inside a puzzle group.
type Member struct {
	FilePath   string        `json:"file_path"`
	VersionTag string        `json:"version_tag,omitempty"`
	Summary    trace.Summary `json:"summary"`
}

// Group is every trace file sharing a puzzle ID. Members are ordered
// untagged first, then tags ascending, with the file path breaking ties,
// so the same corpus always yields the same order regardless of scan order.
type Group struct {
	PuzzleID string   `json:"puzzle_id"`
	Members  []Member `json:"members"`
}

// Primary returns the member shown when a single trace has to stand in for
// the whole group.
func (g Group) Primary() Member {
	return g.Members[0]
}

// Build groups a snapshot's entries by puzzle ID. Groups come back sorted
// by puzzle ID ascending; every group has at least one member.
func Build(snap *corpus.Snapshot) []Group {
	byID := make(map[string][]Member)
	for rel, e := range snap.Entries {
		byID[e.PuzzleID] = append(byID[e.PuzzleID], Member{
			FilePath:   rel,
			VersionTag: e.VersionTag,
			Summary:    e.Summary,
		})
	}

	out := make([]Group, 0, len(byID))
	for id, members := range byID {
		sort.Slice(members, func(i, j int) bool {
			if c := trace.CompareVersions(members[i].VersionTag, members[j].VersionTag); c != 0 {
				return c < 0
			}
			return members[i].FilePath < members[j].FilePath
		})
		out = append(out, Group{PuzzleID: id, Members: members})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PuzzleID < out[j].PuzzleID
	})
	return out
}

// Index maps puzzle IDs to their position in a Build result.
func Index(gs []Group) map[string]int {
	idx := make(map[string]int, len(gs))
	for i, g := range gs {
		idx[g.PuzzleID] = i
	}
	return idx
}
