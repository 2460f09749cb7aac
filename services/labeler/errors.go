// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package labeler

import (
	"errors"
	"fmt"

	"github.com/TraceWorksAI/TraceLabel/services/labeler/labels"
)

// Boundary error taxonomy. Every Service operation classifies its failures
// into these sentinels (or leaves them unclassified for internal faults) so
// transports can map them without knowing the layers underneath.
var (
	// ErrNotFound reports that the requested puzzle, trace, or label does
	// not exist in the current corpus or store.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput reports a request that failed validation before any
	// state was touched.
	ErrInvalidInput = errors.New("invalid input")
)

// classify maps store-layer errors onto the boundary taxonomy. Errors with
// no boundary meaning (ErrStoreWrite, I/O faults) pass through unchanged.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, labels.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, labels.ErrInvalidLabel):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return err
	}
}
