// Package audit builds and persists the append-only governance audit trail.
package audit

import (
	"time"

	"github.com/sgov-project/sgov/internal/status"
	"github.com/sgov-project/sgov/pkg/model"
)

// Context carries the optional fields of an audit entry. Zero values are
// written as empty strings and zeros, never omitted.
type Context struct {
	Owner            string
	App              string
	OldStatus        model.StatusCode
	NewStatus        model.StatusCode
	OldDeadline      int64
	NewDeadline      int64
	FlagReason       string
	SuspiciousReason string
	PerformedBy      string
	Details          string
}

// Recorder builds audit entries for one operator session.
type Recorder struct {
	systemActor string
	sessionID   string
	now         func() time.Time
}

// NewRecorder creates a Recorder. systemActor is used when an entry names no
// actor.
func NewRecorder(systemActor, sessionID string) *Recorder {
	return &Recorder{
		systemActor: systemActor,
		sessionID:   sessionID,
		now:         time.Now,
	}
}

// WithClock returns a copy of r that timestamps entries with now.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	c := *r
	c.now = now
	return &c
}

// SessionID returns the session id stamped on every entry.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Actor returns actor, or the system actor when actor is empty.
func (r *Recorder) Actor(actor string) string {
	if actor == "" {
		return r.systemActor
	}
	return actor
}

// Record builds one audit entry.
func (r *Recorder) Record(action model.Action, searchName string, c Context) model.AuditEntry {
	actor := r.Actor(c.PerformedBy)
	return model.AuditEntry{
		Timestamp:        r.now().Unix(),
		Action:           action,
		SearchName:       searchName,
		SearchOwner:      c.Owner,
		SearchApp:        c.App,
		OldStatus:        c.OldStatus,
		NewStatus:        c.NewStatus,
		OldFlagStatus:    status.FlagStatus(c.OldStatus),
		NewFlagStatus:    status.FlagStatus(c.NewStatus),
		OldDeadline:      c.OldDeadline,
		NewDeadline:      c.NewDeadline,
		FlagReason:       c.FlagReason,
		SuspiciousReason: c.SuspiciousReason,
		PerformedBy:      actor,
		Details:          c.Details,
		SessionID:        r.sessionID,
	}
}

// Change builds the entry for a record moving from before to after.
func (r *Recorder) Change(action model.Action, before, after *model.GovernanceRecord, actor, details string) model.AuditEntry {
	return r.Record(action, before.SearchName, Context{
		Owner:            before.Owner,
		App:              before.App,
		OldStatus:        before.Status,
		NewStatus:        after.Status,
		OldDeadline:      before.RemediationDeadline,
		NewDeadline:      after.RemediationDeadline,
		FlagReason:       after.FlagReason,
		SuspiciousReason: after.SuspiciousReason,
		PerformedBy:      actor,
		Details:          details,
	})
}
