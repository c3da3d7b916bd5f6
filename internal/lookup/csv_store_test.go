package lookup_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sgov-project/sgov/internal/lookup"
	"github.com/sgov-project/sgov/pkg/errclass"
	"github.com/sgov-project/sgov/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scope = "flagged_searches"

func sample() []*model.GovernanceRecord {
	return []*model.GovernanceRecord{
		{SearchName: "a", Status: model.StatusPending, FlaggedBy: "admin", FlaggedTime: 1704067200},
		{SearchName: "b", Status: model.StatusNotified, RemediationDeadline: 1704672000, NotificationSent: true},
	}
}

func TestCSVStore_ReadMissing(t *testing.T) {
	s := lookup.NewCSVStore(t.TempDir(), "search_inventory")
	snap, err := s.Read(context.Background(), scope)
	require.NoError(t, err)
	assert.Empty(t, snap.Records)
	assert.Equal(t, "", snap.Revision)
}

func TestCSVStore_WriteRead(t *testing.T) {
	ctx := context.Background()
	s := lookup.NewCSVStore(t.TempDir(), "search_inventory")

	rev, err := s.Write(ctx, scope, sample(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, rev)

	snap, err := s.Read(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, rev, snap.Revision)
	assert.Equal(t, sample(), snap.Records)
	assert.NotNil(t, snap.Find("b"))
	assert.Nil(t, snap.Find("zzz"))
}

func TestCSVStore_RevisionConflict(t *testing.T) {
	ctx := context.Background()
	s := lookup.NewCSVStore(t.TempDir(), "search_inventory")

	first, err := s.Read(ctx, scope)
	require.NoError(t, err)
	second, err := s.Read(ctx, scope)
	require.NoError(t, err)

	_, err = s.Write(ctx, scope, sample()[:1], first.Revision)
	require.NoError(t, err)

	_, err = s.Write(ctx, scope, sample(), second.Revision)
	assert.True(t, errors.Is(err, errclass.ErrRevisionConflict))

	snap, err := s.Read(ctx, scope)
	require.NoError(t, err)
	assert.Len(t, snap.Records, 1, "losing writer must not overwrite")
}

func TestCSVStore_InvalidScope(t *testing.T) {
	s := lookup.NewCSVStore(t.TempDir(), "search_inventory")
	_, err := s.Read(context.Background(), "../passwd")
	assert.True(t, errors.Is(err, errclass.ErrNameInvalid))
	_, err = s.Write(context.Background(), "a/b", nil, "")
	assert.True(t, errors.Is(err, errclass.ErrNameInvalid))
}

func TestCSVStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := lookup.NewCSVStore(t.TempDir(), "search_inventory")
	_, err := s.Read(ctx, scope)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCSVStore_ReadInventory(t *testing.T) {
	dir := t.TempDir()
	s := lookup.NewCSVStore(dir, "search_inventory")

	facts, err := s.ReadInventory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, facts)

	content := "search_name,search_owner,search_app,is_suspicious,disabled,suspicious_reason\nX,o,a,1,0,too frequent\n"
	require.NoError(t, os.WriteFile(s.Path("search_inventory"), []byte(content), 0644))

	facts, err = s.ReadInventory(context.Background())
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "too frequent", facts[0].SuspiciousReason)
}

func TestCSVStore_WriteInventory(t *testing.T) {
	ctx := context.Background()
	s := lookup.NewCSVStore(filepath.Join(t.TempDir(), "nested"), "search_inventory")

	facts := []model.SearchFacts{
		{SearchName: "Errors by Host", Owner: "alice", App: "search", IsSuspicious: true},
		{SearchName: "Nightly Report", Owner: "bob", App: "ops", Disabled: true},
	}
	require.NoError(t, s.WriteInventory(ctx, facts))

	got, err := s.ReadInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, facts, got)

	err = s.WriteInventory(ctx, []model.SearchFacts{{SearchName: ""}})
	assert.True(t, errors.Is(err, errclass.ErrNameInvalid))
}
