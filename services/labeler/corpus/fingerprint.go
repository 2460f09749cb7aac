// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package corpus

import (
	"io/fs"
)

// Fingerprint identifies a file revision by size and modification time.
// Two fingerprints compare equal exactly when neither field changed, which
// is the trigger for skipping a re-parse during reconciliation.
type Fingerprint struct {
	Size      int64 `json:"size"`
	ModTimeNS int64 `json:"mod_time_ns"`
}

// fingerprintOf derives a Fingerprint from file metadata.
func fingerprintOf(info fs.FileInfo) Fingerprint {
	return Fingerprint{
		Size:      info.Size(),
		ModTimeNS: info.ModTime().UnixNano(),
	}
}
