package status_test

import (
	"testing"

	"github.com/sgov-project/sgov/internal/status"
	"github.com/sgov-project/sgov/pkg/model"
	"github.com/stretchr/testify/assert"
)

const now int64 = 1704067200

func TestResolveIcon_Priority(t *testing.T) {
	tests := []struct {
		name string
		rec  model.GovernanceRecord
		want model.Icon
	}{
		{"all facts true", model.GovernanceRecord{IsDisabledByPlatform: true, Status: model.StatusNotified, IsSuspicious: true}, model.IconDisabled},
		{"disabled and flagged", model.GovernanceRecord{IsDisabledByPlatform: true, Status: model.StatusPending}, model.IconDisabled},
		{"disabled status", model.GovernanceRecord{Status: model.StatusDisabled}, model.IconDisabled},
		{"notified and suspicious", model.GovernanceRecord{Status: model.StatusNotified, IsSuspicious: true}, model.IconNotified},
		{"pending", model.GovernanceRecord{Status: model.StatusPending, IsSuspicious: true}, model.IconFlagged},
		{"review", model.GovernanceRecord{Status: model.StatusReview}, model.IconFlagged},
		{"suspicious", model.GovernanceRecord{Status: model.StatusSuspicious, IsSuspicious: true}, model.IconSuspicious},
		{"ok", model.GovernanceRecord{}, model.IconNone},
		{"resolved", model.GovernanceRecord{Status: model.StatusResolved}, model.IconNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.ResolveIcon(&tt.rec))
		})
	}
}

func TestDaysLeft(t *testing.T) {
	tests := []struct {
		name string
		rec  model.GovernanceRecord
		want string
	}{
		{"ok", model.GovernanceRecord{}, ""},
		{"suspicious", model.GovernanceRecord{Status: model.StatusSuspicious, IsSuspicious: true}, ""},
		{"disabled", model.GovernanceRecord{Status: model.StatusDisabled, RemediationDeadline: now + 86400}, ""},
		{"resolved", model.GovernanceRecord{Status: model.StatusResolved}, ""},
		{"pending", model.GovernanceRecord{Status: model.StatusPending}, status.DaysLeftAwaiting},
		{"review", model.GovernanceRecord{Status: model.StatusReview, RemediationDeadline: now + 86400}, status.DaysLeftAwaiting},
		{"notified no deadline", model.GovernanceRecord{Status: model.StatusNotified}, status.DaysLeftNoDeadline},
		{"notified negative deadline", model.GovernanceRecord{Status: model.StatusNotified, RemediationDeadline: -5}, status.DaysLeftNoDeadline},
		{"notified expired", model.GovernanceRecord{Status: model.StatusNotified, RemediationDeadline: now - 86400}, status.DaysLeftExpired},
		{"notified seven days", model.GovernanceRecord{Status: model.StatusNotified, RemediationDeadline: now + 7*86400}, "7.0"},
		{"notified half day", model.GovernanceRecord{Status: model.StatusNotified, RemediationDeadline: now + 43200}, "0.5"},
		{"notified just past", model.GovernanceRecord{Status: model.StatusNotified, RemediationDeadline: now - 60}, "0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.DaysLeft(&tt.rec, now))
		})
	}
}

func TestDaysLeft_Idempotent(t *testing.T) {
	rec := model.GovernanceRecord{Status: model.StatusNotified, RemediationDeadline: now + 3*86400}
	before := rec
	first := status.DaysLeft(&rec, now)
	second := status.DaysLeft(&rec, now)
	assert.Equal(t, first, second)
	assert.Equal(t, before, rec)
}

func TestDaysRemaining_Rounding(t *testing.T) {
	assert.Equal(t, 1.5, status.DaysRemaining(now+int64(1.46*86400), now))
	assert.Equal(t, -1.0, status.DaysRemaining(now-86400, now))
	assert.Equal(t, 0.0, status.DaysRemaining(now-100, now))
}
