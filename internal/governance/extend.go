package governance

import (
	"context"
	"errors"

	"github.com/sgov-project/sgov/internal/deadline"
	"github.com/sgov-project/sgov/internal/status"
	"github.com/sgov-project/sgov/pkg/errclass"
	"github.com/sgov-project/sgov/pkg/model"
)

// extendable reports whether rec's deadline may move. A deadline can only
// change while disabling the search is still possible, which is also what a
// blocked reduction offers instead.
func extendable(rec *model.GovernanceRecord) error {
	if status.IsTerminal(rec.Status) {
		return errclass.ErrInvalidExtension.WithMessagef("search '%s' is %s; its deadline can no longer change",
			rec.SearchName, rec.Status)
	}
	if !status.CanTransition(rec.Status, model.StatusDisabled) {
		return errclass.ErrInvalidExtension.WithMessagef("search '%s' is not flagged; it has no remediation deadline to change",
			rec.SearchName)
	}
	return nil
}

// Extend moves the remediation deadline of every named search by deltaDays.
//
// The batch is all or nothing. When a reduction would expire any deadline,
// nothing is written and Extend returns the blocked deadline.Result together
// with ErrRequiresDisableConfirmation; the caller may then DisableExpired the
// listed searches.
func (s *Service) Extend(ctx context.Context, names []string, deltaDays int, actor string) (*deadline.Result, error) {
	names, err := normalizeNames(names)
	if err != nil {
		s.reject(err)
		return nil, err
	}

	var outcome *deadline.Result
	res, err := s.commit(ctx, actor, func(v *view, now int64) ([]change, error) {
		recs := make([]*model.GovernanceRecord, 0, len(names))
		for _, name := range names {
			rec, err := v.current(name)
			if err != nil {
				return nil, err
			}
			if err := extendable(rec); err != nil {
				return nil, err
			}
			recs = append(recs, rec)
		}

		var err error
		outcome, err = deadline.ExtendBatch(recs, deltaDays, now)
		if err != nil {
			return nil, err
		}

		changes := make([]change, 0, len(recs))
		for i, rec := range recs {
			after := outcome.Updated[i]
			changes = append(changes, change{
				before:  rec,
				after:   after,
				action:  model.ActionExtendDeadline,
				details: deadline.Message([]*model.GovernanceRecord{rec}, deltaDays),
			})
		}
		return changes, nil
	})
	if err != nil {
		if errors.Is(err, errclass.ErrRequiresDisableConfirmation) && outcome != nil {
			s.metrics.RecordExtensionBlocked()
			expired := make([]string, 0, len(outcome.Expired))
			for _, r := range outcome.Expired {
				expired = append(expired, r.SearchName)
			}
			s.log.Warn("deadline change blocked, deadlines would expire", map[string]any{
				"delta_days": deltaDays,
				"expired":    expired,
			})
			return outcome, err
		}
		return nil, err
	}

	s.metrics.RecordDeadlineChange(outcome.Direction, len(res.Records))
	return outcome, nil
}
