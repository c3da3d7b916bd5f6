// Package lookup persists governance records in lookup tables and reads the
// platform's search inventory.
package lookup

import (
	"context"

	"github.com/sgov-project/sgov/pkg/model"
)

// Snapshot is the content of a lookup at one revision.
type Snapshot struct {
	Records  []*model.GovernanceRecord
	Revision string
}

// Find returns the record for searchName, or nil.
func (s *Snapshot) Find(searchName string) *model.GovernanceRecord {
	for _, r := range s.Records {
		if r.SearchName == searchName {
			return r
		}
	}
	return nil
}

// Store reads and replaces whole lookups. Each call is atomic.
//
// Write fails with errclass.ErrRevisionConflict when the lookup no longer
// matches expectedRevision, and returns the new revision otherwise.
type Store interface {
	Read(ctx context.Context, scope string) (*Snapshot, error)
	Write(ctx context.Context, scope string, records []*model.GovernanceRecord, expectedRevision string) (string, error)
	Close() error
}

// Inventory supplies platform facts about scheduled searches.
type Inventory interface {
	ReadInventory(ctx context.Context) ([]model.SearchFacts, error)
}
