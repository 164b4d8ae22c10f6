package index

import (
	"errors"
	"fmt"

	"github.com/shelfworksco/stacks/pkg/vector"
)

var (
	// ErrRebuildInProgress rejects a rebuild or rollback request while
	// another writer holds the granularity's slot. Callers get an
	// immediate signal instead of queuing.
	ErrRebuildInProgress = errors.New("rebuild already in progress")

	// ErrNoBackup rejects a rollback when no backup snapshot exists.
	ErrNoBackup = errors.New("no backup available to roll back to")

	// ErrIndexNotReady rejects reads against a granularity that has never
	// been populated.
	ErrIndexNotReady = errors.New("index not ready: no documents have been indexed")
)

// RebuildError is a fatal failure of one rebuild attempt. The live snapshot
// and backup are left untouched.
type RebuildError struct {
	Granularity vector.Granularity
	Err         error
}

func (e *RebuildError) Error() string {
	return fmt.Sprintf("rebuild failed for %s index: %v", e.Granularity, e.Err)
}

func (e *RebuildError) Unwrap() error {
	return e.Err
}
