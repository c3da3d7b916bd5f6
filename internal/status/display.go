package status

import (
	"fmt"
	"math"

	"github.com/sgov-project/sgov/pkg/model"
)

// Text shown in the Days Left column.
const (
	DaysLeftAwaiting   = "Awaiting"
	DaysLeftNoDeadline = "No deadline"
	DaysLeftExpired    = "Expired"
)

// ResolveIcon picks the single badge for a record. Priority, highest first:
// platform-disabled, notified, pending/review, suspicious, none.
func ResolveIcon(r *model.GovernanceRecord) model.Icon {
	switch {
	case r.IsDisabledByPlatform || r.Status == model.StatusDisabled:
		return model.IconDisabled
	case r.Status == model.StatusNotified:
		return model.IconNotified
	case r.Status == model.StatusPending || r.Status == model.StatusReview:
		return model.IconFlagged
	case r.IsSuspicious:
		return model.IconSuspicious
	}
	return model.IconNone
}

// DaysLeft renders the remaining remediation time for a record. It is a pure
// function of the record and now.
func DaysLeft(r *model.GovernanceRecord, now int64) string {
	switch r.Status {
	case model.StatusPending, model.StatusReview:
		return DaysLeftAwaiting
	case model.StatusNotified:
	default:
		return ""
	}

	if r.RemediationDeadline <= 0 {
		return DaysLeftNoDeadline
	}
	days := DaysRemaining(r.RemediationDeadline, now)
	if days < 0 {
		return DaysLeftExpired
	}
	return fmt.Sprintf("%.1f", days)
}

// DaysRemaining returns (deadline-now) in days rounded to one decimal place.
func DaysRemaining(deadline, now int64) float64 {
	days := float64(deadline-now) / float64(model.SecondsPerDay)
	rounded := math.Round(days*10) / 10
	if rounded == 0 {
		// drop negative zero
		return 0
	}
	return rounded
}
