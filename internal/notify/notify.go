// Package notify turns notified records into owner notifications and hands
// them to a delivery channel.
package notify

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sgov-project/sgov/pkg/config"
	"github.com/sgov-project/sgov/pkg/model"
	"github.com/sgov-project/sgov/pkg/webhook"
)

// Notification is everything needed to tell an owner about a flagged search.
type Notification struct {
	Owner        string `json:"owner"`
	DeadlineDays int    `json:"deadline_days"`
	SearchName   string `json:"search_name"`
	App          string `json:"app"`
	Deadline     int64  `json:"deadline"`
	Reason       string `json:"reason,omitempty"`
}

// Build derives the notification for rec. DeadlineDays is the number of whole
// days left before the deadline, rounded up, and never negative.
func Build(rec *model.GovernanceRecord, now int64) Notification {
	days := 0
	if rec.HasDeadline() && rec.RemediationDeadline > now {
		left := rec.RemediationDeadline - now
		days = int((left + model.SecondsPerDay - 1) / model.SecondsPerDay)
	}
	return Notification{
		Owner:        rec.Owner,
		DeadlineDays: days,
		SearchName:   rec.SearchName,
		App:          rec.App,
		Deadline:     rec.RemediationDeadline,
		Reason:       rec.FlagReason,
	}
}

// Event announces a committed lifecycle change other than an owner
// notification.
type Event struct {
	Type        webhook.EventType `json:"type"`
	SearchName  string            `json:"search_name"`
	Owner       string            `json:"owner"`
	App         string            `json:"app"`
	OldStatus   model.StatusCode  `json:"old_status"`
	NewStatus   model.StatusCode  `json:"new_status"`
	OldDeadline int64             `json:"old_deadline"`
	NewDeadline int64             `json:"new_deadline"`
	Reason      string            `json:"reason,omitempty"`
	PerformedBy string            `json:"performed_by"`
}

// EventFor maps a committed change to its event. Changes that already reach
// the owner through Dispatch, and audit-only actions, have no event.
func EventFor(action model.Action, before, after *model.GovernanceRecord, actor string) (Event, bool) {
	var typ webhook.EventType
	switch {
	case action == model.ActionExtendDeadline && after.RemediationDeadline > before.RemediationDeadline:
		typ = webhook.EventDeadlineExtended
	case action == model.ActionExtendDeadline:
		typ = webhook.EventDeadlineReduced
	case before.Status == after.Status:
		return Event{}, false
	case after.Status == model.StatusPending:
		typ = webhook.EventSearchFlagged
	case after.Status == model.StatusReview:
		typ = webhook.EventSearchReview
	case after.Status == model.StatusDisabled:
		typ = webhook.EventSearchDisabled
	case after.Status == model.StatusResolved:
		typ = webhook.EventSearchResolved
	default:
		return Event{}, false
	}
	return Event{
		Type:        typ,
		SearchName:  after.SearchName,
		Owner:       after.Owner,
		App:         after.App,
		OldStatus:   before.Status,
		NewStatus:   after.Status,
		OldDeadline: before.RemediationDeadline,
		NewDeadline: after.RemediationDeadline,
		Reason:      after.FlagReason,
		PerformedBy: actor,
	}, true
}

// Dispatcher delivers notifications and lifecycle events.
//
// Dispatch blocks until every owner notification was delivered or failed.
// Publish hands events off for background delivery; Close waits for it.
type Dispatcher interface {
	Dispatch(ctx context.Context, notes []Notification) error
	Publish(events []Event)
	Close() error
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Dispatch(context.Context, []Notification) error { return nil }
func (Nop) Publish([]Event)                                {}
func (Nop) Close() error                                   { return nil }

// WebhookDispatcher posts one search.notified event per notification and
// one webhook event per published lifecycle event.
type WebhookDispatcher struct {
	client *webhook.Client
}

// NewWebhookDispatcher wraps an existing webhook client.
func NewWebhookDispatcher(client *webhook.Client) *WebhookDispatcher {
	return &WebhookDispatcher{client: client}
}

// FromConfig builds the dispatcher for the notify section of the config.
// Without any enabled webhook it returns Nop.
func FromConfig(cfg config.NotifyConfig) (Dispatcher, error) {
	wc := webhook.DefaultConfig()
	wc.MaxRetries = cfg.MaxRetries
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("notify.timeout: %w", err)
		}
		wc.Timeout = d
	}
	for _, h := range cfg.Webhooks {
		if !h.Enabled {
			continue
		}
		events, err := parseEvents(h.Events)
		if err != nil {
			return nil, fmt.Errorf("notify webhook %s: %w", h.URL, err)
		}
		wc.Hooks = append(wc.Hooks, webhook.HookConfig{
			URL:     h.URL,
			Secret:  h.Secret,
			Events:  events,
			Enabled: true,
		})
	}
	if len(wc.Hooks) == 0 {
		return Nop{}, nil
	}
	return NewWebhookDispatcher(webhook.NewClient(wc)), nil
}

// Dispatch sends every notification synchronously and joins the failures.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, notes []Notification) error {
	var errs []error
	for _, n := range notes {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := d.client.Send(webhook.Event{
			Event:        webhook.EventOwnerNotified,
			SearchName:   n.SearchName,
			Owner:        n.Owner,
			App:          n.App,
			DeadlineDays: n.DeadlineDays,
			Deadline:     n.Deadline,
			Reason:       n.Reason,
		}, false)
		if err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", n.SearchName, err))
		}
	}
	return errors.Join(errs...)
}

// Publish queues events for asynchronous delivery. Failed deliveries are
// logged by the client.
func (d *WebhookDispatcher) Publish(events []Event) {
	for _, e := range events {
		d.client.Send(webhook.Event{
			Event:      e.Type,
			SearchName: e.SearchName,
			Owner:      e.Owner,
			App:        e.App,
			Deadline:   e.NewDeadline,
			Reason:     e.Reason,
			Metadata: map[string]any{
				"old_status":   string(e.OldStatus),
				"new_status":   string(e.NewStatus),
				"old_deadline": e.OldDeadline,
				"performed_by": e.PerformedBy,
			},
		}, true)
	}
}

func parseEvents(names []string) ([]webhook.EventType, error) {
	out := make([]webhook.EventType, 0, len(names))
	for _, n := range names {
		typ := webhook.EventType(n)
		if !slices.Contains(webhook.AllEvents, typ) && n != "*" {
			return nil, fmt.Errorf("unknown event %q", n)
		}
		out = append(out, typ)
	}
	return out, nil
}

// Close drains queued events and stops the underlying client.
func (d *WebhookDispatcher) Close() error {
	return d.client.Close()
}
