package lookup

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/sgov-project/sgov/pkg/errclass"
	"github.com/sgov-project/sgov/pkg/fsutil"
	"github.com/sgov-project/sgov/pkg/model"
	"github.com/sgov-project/sgov/pkg/nameutil"
)

// CSVStore keeps each lookup in <dir>/<scope>.csv. The revision of a lookup
// is the SHA-256 of its file content; a missing file has revision "".
type CSVStore struct {
	dir       string
	inventory string
}

// NewCSVStore creates a store rooted at dir. inventory names the lookup read
// by ReadInventory.
func NewCSVStore(dir, inventory string) *CSVStore {
	return &CSVStore{dir: dir, inventory: inventory}
}

// Path returns the file backing scope.
func (s *CSVStore) Path(scope string) string {
	return filepath.Join(s.dir, scope+".csv")
}

// Read loads a lookup. A missing file is an empty lookup.
func (s *CSVStore) Read(ctx context.Context, scope string) (*Snapshot, error) {
	if err := nameutil.ValidateLookupName(scope); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(scope))
	if os.IsNotExist(err) {
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lookup %s: %w", scope, err)
	}

	records, err := DecodeRecords(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse lookup %s: %w", scope, err)
	}
	return &Snapshot{Records: records, Revision: revisionOf(data)}, nil
}

// Write replaces a lookup if it still matches expectedRevision.
func (s *CSVStore) Write(ctx context.Context, scope string, records []*model.GovernanceRecord, expectedRevision string) (string, error) {
	if err := nameutil.ValidateLookupName(scope); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create lookup dir: %w", err)
	}

	lock := flock.New(s.Path(scope) + ".lock")
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("lock lookup %s: %w", scope, err)
	}
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	current, err := os.ReadFile(s.Path(scope))
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("read lookup %s: %w", scope, err)
	}
	if rev := revisionOf(current); rev != expectedRevision {
		return "", errclass.ErrRevisionConflict.WithMessagef("lookup %s changed since it was read", scope)
	}

	var buf bytes.Buffer
	if err := EncodeRecords(&buf, records); err != nil {
		return "", fmt.Errorf("encode lookup %s: %w", scope, err)
	}
	if err := fsutil.AtomicWrite(s.Path(scope), buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write lookup %s: %w", scope, err)
	}
	return revisionOf(buf.Bytes()), nil
}

// ReadInventory loads the search inventory lookup. A missing file is empty.
func (s *CSVStore) ReadInventory(ctx context.Context) ([]model.SearchFacts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path(s.inventory))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open inventory: %w", err)
	}
	defer f.Close()

	facts, err := DecodeInventory(f)
	if err != nil {
		return nil, fmt.Errorf("parse inventory: %w", err)
	}
	return facts, nil
}

// WriteInventory replaces the search inventory lookup.
func (s *CSVStore) WriteInventory(ctx context.Context, facts []model.SearchFacts) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, f := range facts {
		if err := nameutil.ValidateSearchName(f.SearchName); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	if err := EncodeInventory(&buf, facts); err != nil {
		return err
	}
	if err := fsutil.AtomicWrite(s.Path(s.inventory), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write inventory: %w", err)
	}
	return nil
}

// Close is a no-op; files are opened per call.
func (s *CSVStore) Close() error {
	return nil
}

func revisionOf(data []byte) string {
	if data == nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
