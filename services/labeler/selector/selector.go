// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package selector answers "what should the reviewer look at next" over
// the deterministic group order.
package selector

import "github.com/TraceWorksAI/TraceLabel/services/labeler/groups"

// Pagination bounds for ListUnlabeled.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Labeled reports whether a puzzle already has a label. labels.Store
// satisfies it.
type Labeled interface {
	Has(puzzleID string) bool
}

// Page is one window into the unlabeled queue. PageNum is 0-indexed.
type Page struct {
	Groups   []groups.Group `json:"groups"`
	Total    int            `json:"total"`
	PageNum  int            `json:"page"`
	PageSize int            `json:"page_size"`
	HasMore  bool           `json:"has_more"`
}

// NextUnlabeled returns the first group without a label. The order is the
// group order, so repeated calls between labelings walk the corpus front
// to back.
func NextUnlabeled(gs []groups.Group, labeled Labeled) (groups.Group, bool) {
	for _, g := range gs {
		if !labeled.Has(g.PuzzleID) {
			return g, true
		}
	}
	return groups.Group{}, false
}

// ListUnlabeled returns one page of the unlabeled queue. A non-positive
// pageSize falls back to DefaultPageSize; pageSize above MaxPageSize is
// clamped. A page past the end yields an empty slice, not an error, and a
// negative page is treated as page zero.
func ListUnlabeled(gs []groups.Group, labeled Labeled, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page < 0 {
		page = 0
	}

	var unlabeled []groups.Group
	for _, g := range gs {
		if !labeled.Has(g.PuzzleID) {
			unlabeled = append(unlabeled, g)
		}
	}

	total := len(unlabeled)
	start := page * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return Page{
		Groups:   unlabeled[start:end],
		Total:    total,
		PageNum:  page,
		PageSize: pageSize,
		HasMore:  end < total,
	}
}
