// Package governance drives scheduled searches through the governance
// lifecycle: it validates each request, moves deadlines, persists the flagged
// lookup, writes the audit trail and notifies owners.
package governance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sgov-project/sgov/internal/audit"
	"github.com/sgov-project/sgov/internal/deadline"
	"github.com/sgov-project/sgov/internal/lookup"
	"github.com/sgov-project/sgov/internal/notify"
	"github.com/sgov-project/sgov/internal/status"
	"github.com/sgov-project/sgov/pkg/errclass"
	"github.com/sgov-project/sgov/pkg/logging"
	"github.com/sgov-project/sgov/pkg/metrics"
	"github.com/sgov-project/sgov/pkg/model"
	"github.com/sgov-project/sgov/pkg/nameutil"
)

// Options wires a Service. Store, Inventory, Recorder and Sink are required.
type Options struct {
	Store     lookup.Store
	Inventory lookup.Inventory
	Scope     string

	Recorder   *audit.Recorder
	Sink       audit.Sink
	Dispatcher notify.Dispatcher
	Metrics    *metrics.Registry
	Logger     *logging.Logger

	RemediationDays int
	Now             func() time.Time
}

// Service applies governance operations against one flagged lookup.
type Service struct {
	store      lookup.Store
	inventory  lookup.Inventory
	scope      string
	recorder   *audit.Recorder
	sink       audit.Sink
	dispatcher notify.Dispatcher
	metrics    *metrics.Registry
	log        *logging.Logger
	days       int
	now        func() time.Time
}

// New creates a Service.
func New(opts Options) *Service {
	s := &Service{
		store:      opts.Store,
		inventory:  opts.Inventory,
		scope:      opts.Scope,
		recorder:   opts.Recorder,
		sink:       opts.Sink,
		dispatcher: opts.Dispatcher,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		days:       opts.RemediationDays,
		now:        opts.Now,
	}
	if s.scope == "" {
		s.scope = "flagged_searches"
	}
	if s.dispatcher == nil {
		s.dispatcher = notify.Nop{}
	}
	if s.metrics == nil {
		s.metrics = metrics.Default()
	}
	if s.log == nil {
		s.log = logging.Global()
	}
	if s.days <= 0 {
		s.days = 7
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.recorder != nil {
		s.recorder = s.recorder.WithClock(s.now)
	}
	return s
}

// Result describes a committed operation.
type Result struct {
	Message string                    `json:"message"`
	Records []*model.GovernanceRecord `json:"records"`
	Entries []model.AuditEntry        `json:"audit"`

	// Warnings are failures that happened after the change was committed,
	// such as undelivered notifications.
	Warnings []string `json:"warnings,omitempty"`
}

// change is one record's before and after state inside a commit.
type change struct {
	before  *model.GovernanceRecord
	after   *model.GovernanceRecord
	action  model.Action
	details string
}

// Flag moves suspicious searches to pending. A single search is audited as
// flag, several as bulk_flag with one entry each.
func (s *Service) Flag(ctx context.Context, names []string, reason, actor string) (*Result, error) {
	action := model.ActionFlag
	if len(names) > 1 {
		action = model.ActionBulkFlag
	}
	res, err := s.transition(ctx, names, model.StatusPending, actor, action, "", func(before, after *model.GovernanceRecord, now int64) {
		after.FlagReason = reason
		after.FlaggedBy = s.recorder.Actor(actor)
		after.FlaggedTime = now
		after.NotificationSent = false
		after.NotificationTime = 0
	})
	if err != nil {
		return nil, err
	}
	res.Message = countMessage("Flagged", res.Records)
	return res, nil
}

// Notify moves searches to notified, sets their remediation deadline when
// none is set, and sends one notification per search.
func (s *Service) Notify(ctx context.Context, names []string, actor string) (*Result, error) {
	res, err := s.transition(ctx, names, model.StatusNotified, actor, model.ActionNotify, "", func(before, after *model.GovernanceRecord, now int64) {
		after.RemediationDeadline = deadline.Initial(before, s.days, now)
		after.NotificationSent = true
		after.NotificationTime = now
	})
	if err != nil {
		return nil, err
	}
	res.Message = countMessage("Notified owners of", res.Records)

	now := s.now().Unix()
	notes := make([]notify.Notification, 0, len(res.Records))
	for _, rec := range res.Records {
		notes = append(notes, notify.Build(rec, now))
	}
	if err := s.dispatcher.Dispatch(ctx, notes); err != nil {
		s.metrics.RecordNotification(false)
		s.log.ErrorErr("notification delivery failed", err, map[string]any{"searches": len(notes)})
		res.Warnings = append(res.Warnings, err.Error())
	} else {
		for range notes {
			s.metrics.RecordNotification(true)
		}
	}
	return res, nil
}

// Review moves searches to pending review.
func (s *Service) Review(ctx context.Context, names []string, actor string) (*Result, error) {
	res, err := s.transition(ctx, names, model.StatusReview, actor, model.ActionStatusChange, "", nil)
	if err != nil {
		return nil, err
	}
	res.Message = countMessage("Marked for review", res.Records)
	return res, nil
}

// Disable moves searches to the terminal disabled status.
func (s *Service) Disable(ctx context.Context, names []string, actor string) (*Result, error) {
	return s.disable(ctx, names, actor, "")
}

// DisableExpired is the confirmation path of a blocked deadline reduction:
// the searches whose deadline would have expired are disabled instead.
func (s *Service) DisableExpired(ctx context.Context, names []string, actor string) (*Result, error) {
	return s.disable(ctx, names, actor, "disabled instead of reducing an expiring deadline")
}

func (s *Service) disable(ctx context.Context, names []string, actor, details string) (*Result, error) {
	res, err := s.transition(ctx, names, model.StatusDisabled, actor, model.ActionDisable, details, nil)
	if err != nil {
		return nil, err
	}
	res.Message = countMessage("Disabled", res.Records)
	return res, nil
}

// Resolve closes out searches. Resolved records are removed from the flagged
// lookup; a later suspicious classification starts a fresh record.
func (s *Service) Resolve(ctx context.Context, names []string, actor string) (*Result, error) {
	action := model.ActionUnflag
	if len(names) > 1 {
		action = model.ActionBulkUnflag
	}
	res, err := s.transition(ctx, names, model.StatusResolved, actor, action, "", nil)
	if err != nil {
		return nil, err
	}
	res.Message = countMessage("Resolved", res.Records)
	return res, nil
}

// Transition applies the operation that moves one search to target.
func (s *Service) Transition(ctx context.Context, name string, target model.StatusCode, actor, reason string) (*Result, error) {
	names := []string{name}
	switch target {
	case model.StatusPending:
		return s.Flag(ctx, names, reason, actor)
	case model.StatusNotified:
		return s.Notify(ctx, names, actor)
	case model.StatusReview:
		return s.Review(ctx, names, actor)
	case model.StatusDisabled:
		return s.Disable(ctx, names, actor)
	case model.StatusResolved:
		return s.Resolve(ctx, names, actor)
	case model.StatusSuspicious:
		err := &errclass.TransitionError{SearchName: name, To: target}
		s.reject(err)
		return nil, err
	}
	err := errclass.ErrUnknownStatus.WithMessagef("unknown status %q", target)
	s.reject(err)
	return nil, err
}

// mutateFunc adjusts a record that is moving to a new status.
type mutateFunc func(before, after *model.GovernanceRecord, now int64)

// transition validates every search before anything is written, so a batch
// with one illegal move changes nothing.
func (s *Service) transition(ctx context.Context, names []string, target model.StatusCode, actor string, action model.Action, details string, mutate mutateFunc) (*Result, error) {
	names, err := normalizeNames(names)
	if err != nil {
		s.reject(err)
		return nil, err
	}

	return s.commit(ctx, actor, func(v *view, now int64) ([]change, error) {
		changes := make([]change, 0, len(names))
		for _, name := range names {
			before, err := v.current(name)
			if err != nil {
				return nil, err
			}
			if err := status.Validate(name, before.Status, target); err != nil {
				return nil, err
			}
			after := before.Clone()
			after.Status = target
			if mutate != nil {
				mutate(before, after, now)
			}
			changes = append(changes, change{before: before, after: after, action: action, details: details})
		}
		return changes, nil
	})
}

// commit reads the lookup, plans changes against it and writes the result
// guarded by the revision that was read. A concurrent writer causes one
// re-read and re-plan before ErrRevisionConflict is returned.
func (s *Service) commit(ctx context.Context, actor string, plan func(v *view, now int64) ([]change, error)) (*Result, error) {
	var res *Result

	op := func() error {
		v, err := s.load(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		now := s.now().Unix()
		changes, err := plan(v, now)
		if err != nil {
			return backoff.Permanent(err)
		}
		if _, err := s.store.Write(ctx, s.scope, v.apply(changes), v.snap.Revision); err != nil {
			if errors.Is(err, errclass.ErrRevisionConflict) {
				s.log.Warn("lookup changed during update, retrying", map[string]any{"scope": s.scope})
				return err
			}
			return backoff.Permanent(err)
		}

		res = &Result{}
		for _, c := range changes {
			res.Records = append(res.Records, c.after)
			res.Entries = append(res.Entries, s.recorder.Change(c.action, c.before, c.after, actor, c.details))
		}
		if err := s.sink.Append(res.Entries...); err != nil {
			return backoff.Permanent(fmt.Errorf("append audit: %w", err))
		}
		s.committed(changes, actor)
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		s.reject(err)
		return nil, err
	}
	return res, nil
}

// committed records metrics, logs and publishes the events of a written
// batch.
func (s *Service) committed(changes []change, actor string) {
	var events []notify.Event
	for _, c := range changes {
		if ev, ok := notify.EventFor(c.action, c.before, c.after, s.recorder.Actor(actor)); ok {
			events = append(events, ev)
		}
		s.metrics.RecordAudit(string(c.action))
		fields := map[string]any{
			"search_name": c.after.SearchName,
			"old_status":  string(c.before.Status),
			"new_status":  string(c.after.Status),
			"action":      string(c.action),
		}
		if c.before.Status != c.after.Status {
			s.metrics.RecordTransition(string(c.before.Status), string(c.after.Status))
		}
		if c.before.RemediationDeadline != c.after.RemediationDeadline {
			fields["old_deadline"] = c.before.RemediationDeadline
			fields["new_deadline"] = c.after.RemediationDeadline
		}
		s.log.Info("governance change committed", fields)
	}
	if len(events) > 0 {
		s.dispatcher.Publish(events)
	}
}

// reject counts a refused operation by error class.
func (s *Service) reject(err error) {
	var te *errclass.TransitionError
	var ge *errclass.GovError
	switch {
	case errors.As(err, &te):
		s.metrics.RecordRejection(errclass.ErrInvalidTransition.Code)
	case errors.As(err, &ge):
		s.metrics.RecordRejection(ge.Code)
	}
}

// MarkOK acknowledges a suspicious search that needs no action. Only an
// audit entry is written.
func (s *Service) MarkOK(ctx context.Context, name, actor, reason string) (*Result, error) {
	names, err := normalizeNames([]string{name})
	if err != nil {
		s.reject(err)
		return nil, err
	}
	v, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := v.current(names[0])
	if err != nil {
		s.reject(err)
		return nil, err
	}
	if status.IsAlreadyFlagged(rec.Status) {
		err := errclass.ErrAlreadyFlagged.WithMessagef("search '%s' is already flagged (%s)", rec.SearchName, status.Label(rec.Status))
		s.reject(err)
		return nil, err
	}
	if rec.Status != model.StatusSuspicious {
		err := errclass.ErrInvalidTransition.WithMessagef("search '%s' is not suspicious", rec.SearchName)
		s.reject(err)
		return nil, err
	}

	entry := s.recorder.Change(model.ActionMarkOK, rec, rec, actor, reason)
	if err := s.sink.Append(entry); err != nil {
		return nil, fmt.Errorf("append audit: %w", err)
	}
	s.metrics.RecordAudit(string(model.ActionMarkOK))
	s.log.Info("search marked ok", map[string]any{"search_name": rec.SearchName, "action": string(model.ActionMarkOK)})

	return &Result{
		Message: fmt.Sprintf("Marked '%s' as OK.", rec.SearchName),
		Records: []*model.GovernanceRecord{rec},
		Entries: []model.AuditEntry{entry},
	}, nil
}

// normalizeNames validates and de-duplicates names, keeping first-seen order.
func normalizeNames(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, errclass.ErrNameInvalid.WithMessage("no searches selected")
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if err := nameutil.ValidateSearchName(n); err != nil {
			return nil, err
		}
		n = nameutil.Normalize(n)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}

func countMessage(verb string, recs []*model.GovernanceRecord) string {
	if len(recs) == 1 {
		return fmt.Sprintf("%s '%s'.", verb, recs[0].SearchName)
	}
	names := make([]string, 0, len(recs))
	for _, r := range recs {
		names = append(names, r.SearchName)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s %d searches: %s.", verb, len(recs), strings.Join(names, ", "))
}
