package audit_test

import (
	"testing"
	"time"

	"github.com/sgov-project/sgov/internal/audit"
	"github.com/sgov-project/sgov/pkg/model"
	"github.com/stretchr/testify/assert"
)

func fixedClock() time.Time {
	return time.Unix(1704067200, 0)
}

func TestRecorder_Defaults(t *testing.T) {
	rec := audit.NewRecorder("admin", "sess-1").WithClock(fixedClock)

	e := rec.Record(model.ActionMarkOK, "Errors Last Hour", audit.Context{})
	assert.Equal(t, int64(1704067200), e.Timestamp)
	assert.Equal(t, model.ActionMarkOK, e.Action)
	assert.Equal(t, "admin", e.PerformedBy)
	assert.Equal(t, "sess-1", e.SessionID)
	assert.Equal(t, "", e.SearchOwner)
	assert.Equal(t, "", e.Details)
	assert.Equal(t, int64(0), e.OldDeadline)
	assert.Equal(t, model.FlagStatusUnflagged, e.OldFlagStatus)
	assert.Equal(t, model.FlagStatusUnflagged, e.NewFlagStatus)
}

func TestRecorder_ExplicitActor(t *testing.T) {
	rec := audit.NewRecorder("admin", "s")
	e := rec.Record(model.ActionFlag, "x", audit.Context{PerformedBy: "alice"})
	assert.Equal(t, "alice", e.PerformedBy)
}

func TestRecorder_Change(t *testing.T) {
	rec := audit.NewRecorder("admin", "s").WithClock(fixedClock)
	before := &model.GovernanceRecord{SearchName: "a", Owner: "bob", App: "search", Status: model.StatusPending}
	after := before.Clone()
	after.Status = model.StatusNotified
	after.RemediationDeadline = 1704672000
	after.FlagReason = "runs every minute"

	e := rec.Change(model.ActionNotify, before, after, "", "Owner notified")
	assert.Equal(t, "bob", e.SearchOwner)
	assert.Equal(t, "search", e.SearchApp)
	assert.Equal(t, model.StatusPending, e.OldStatus)
	assert.Equal(t, model.StatusNotified, e.NewStatus)
	assert.Equal(t, model.FlagStatusFlagged, e.OldFlagStatus)
	assert.Equal(t, model.FlagStatusFlagged, e.NewFlagStatus)
	assert.Equal(t, int64(0), e.OldDeadline)
	assert.Equal(t, int64(1704672000), e.NewDeadline)
	assert.Equal(t, "runs every minute", e.FlagReason)
	assert.Equal(t, "admin", e.PerformedBy)
	assert.Equal(t, "Owner notified", e.Details)
}
