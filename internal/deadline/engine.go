// Package deadline computes, extends and reduces remediation deadlines.
package deadline

import (
	"fmt"

	"github.com/sgov-project/sgov/pkg/errclass"
	"github.com/sgov-project/sgov/pkg/model"
)

// Direction of a deadline change.
const (
	DirectionExtended = "extended"
	DirectionReduced  = "reduced"
)

// Change is one record's deadline before and after an extension.
type Change struct {
	SearchName  string `json:"search_name"`
	OldDeadline int64  `json:"old_deadline"`
	NewDeadline int64  `json:"new_deadline"`
}

// Result is the outcome of an extension over a batch of records.
type Result struct {
	DeltaDays int    `json:"delta_days"`
	Direction string `json:"direction"`
	Message   string `json:"message"`

	// Updated holds copies of the input records carrying their new deadline.
	// Empty when the batch was blocked.
	Updated []*model.GovernanceRecord `json:"-"`
	Changes []Change                  `json:"changes,omitempty"`

	// Expired lists the records a reduction would push to or past now.
	Expired []*model.GovernanceRecord `json:"expired,omitempty"`
}

// Blocked reports whether the batch awaits a disable decision.
func (r *Result) Blocked() bool {
	return len(r.Expired) > 0
}

// Initial returns the deadline a record gets when it enters notified: the
// existing deadline if one is set, otherwise now + remediationDays.
func Initial(rec *model.GovernanceRecord, remediationDays int, now int64) int64 {
	if rec.HasDeadline() {
		return rec.RemediationDeadline
	}
	return now + int64(remediationDays)*model.SecondsPerDay
}

// Extend moves one record's deadline by deltaDays.
func Extend(rec *model.GovernanceRecord, deltaDays int, now int64) (*Result, error) {
	return ExtendBatch([]*model.GovernanceRecord{rec}, deltaDays, now)
}

// ExtendBatch moves every record's deadline by deltaDays. Input records are
// never modified.
//
// A reduction that would leave any record's deadline at or before now blocks
// the whole batch: the returned Result lists the expiring records and the
// error is ErrRequiresDisableConfirmation. No record is updated in that case.
func ExtendBatch(recs []*model.GovernanceRecord, deltaDays int, now int64) (*Result, error) {
	if deltaDays == 0 {
		return nil, errclass.ErrInvalidExtension.WithMessage("extension must be a non-zero number of days")
	}
	if len(recs) == 0 {
		return nil, errclass.ErrInvalidExtension.WithMessage("no searches selected")
	}

	res := &Result{DeltaDays: deltaDays, Direction: DirectionExtended}
	if deltaDays < 0 {
		res.Direction = DirectionReduced
	}
	deltaSeconds := int64(deltaDays) * model.SecondsPerDay

	for _, rec := range recs {
		if !rec.HasDeadline() {
			return nil, errclass.ErrInvalidExtension.WithMessagef("search '%s' has no remediation deadline", rec.SearchName)
		}
		candidate := rec.RemediationDeadline + deltaSeconds
		if deltaDays < 0 && candidate <= now {
			res.Expired = append(res.Expired, rec)
		}
	}

	if res.Blocked() {
		res.Message = expiredMessage(res.Expired, len(recs))
		return res, errclass.ErrRequiresDisableConfirmation.WithMessage(res.Message)
	}

	for _, rec := range recs {
		updated := rec.Clone()
		updated.RemediationDeadline = rec.RemediationDeadline + deltaSeconds
		res.Updated = append(res.Updated, updated)
		res.Changes = append(res.Changes, Change{
			SearchName:  rec.SearchName,
			OldDeadline: rec.RemediationDeadline,
			NewDeadline: updated.RemediationDeadline,
		})
	}
	res.Message = Message(recs, deltaDays)
	return res, nil
}

// Message is the operator-facing summary of an applied change.
func Message(recs []*model.GovernanceRecord, deltaDays int) string {
	direction := DirectionExtended
	if deltaDays < 0 {
		direction = DirectionReduced
	}
	if len(recs) == 1 {
		return fmt.Sprintf("Deadline for '%s' %s by %d days.", recs[0].SearchName, direction, abs(deltaDays))
	}
	return fmt.Sprintf("Deadlines for %d searches %s by %d days.", len(recs), direction, abs(deltaDays))
}

func expiredMessage(expired []*model.GovernanceRecord, total int) string {
	if len(expired) == 1 {
		return fmt.Sprintf("Reducing would expire the deadline for '%s'. Disable instead?", expired[0].SearchName)
	}
	return fmt.Sprintf("Reducing would expire the deadline for %d of %d searches. Disable them instead?", len(expired), total)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
