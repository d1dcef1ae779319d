package models

import (
	"fmt"
	"strings"
)

// CacheMarkerKey is the fixed key written in front of the run id
const CacheMarkerKey = "INIT_REPOSITORY_PIPELINE_ID"

// CacheMarker records the run that last synchronized a working directory.
// Persisted as a single line: INIT_REPOSITORY_PIPELINE_ID=<run-id>
type CacheMarker struct {
	RunID string
}

func (m CacheMarker) String() string {
	return CacheMarkerKey + "=" + m.RunID
}

// ParseCacheMarker reads a marker line. Everything after the first "=" is the
// run id, with surrounding whitespace trimmed.
func ParseCacheMarker(content string) (CacheMarker, error) {
	_, runID, found := strings.Cut(strings.TrimSpace(content), "=")
	if !found {
		return CacheMarker{}, fmt.Errorf("malformed cache marker: missing '='")
	}

	runID = strings.TrimSpace(runID)
	if runID == "" {
		return CacheMarker{}, fmt.Errorf("malformed cache marker: empty run id")
	}

	return CacheMarker{RunID: runID}, nil
}
