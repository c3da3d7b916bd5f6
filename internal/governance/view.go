package governance

import (
	"context"
	"fmt"
	"sort"

	"github.com/sgov-project/sgov/internal/lookup"
	"github.com/sgov-project/sgov/internal/status"
	"github.com/sgov-project/sgov/pkg/errclass"
	"github.com/sgov-project/sgov/pkg/model"
)

// view is the flagged lookup at one revision joined with the inventory.
type view struct {
	snap  *lookup.Snapshot
	facts map[string]model.SearchFacts
	order []string // inventory order
}

func (s *Service) load(ctx context.Context) (*view, error) {
	snap, err := s.store.Read(ctx, s.scope)
	if err != nil {
		return nil, fmt.Errorf("read lookup %s: %w", s.scope, err)
	}
	v := &view{snap: snap, facts: map[string]model.SearchFacts{}}
	if s.inventory != nil {
		facts, err := s.inventory.ReadInventory(ctx)
		if err != nil {
			return nil, fmt.Errorf("read inventory: %w", err)
		}
		for _, f := range facts {
			if _, dup := v.facts[f.SearchName]; !dup {
				v.order = append(v.order, f.SearchName)
			}
			v.facts[f.SearchName] = f
		}
	}
	return v, nil
}

// current returns a copy of the search's record with inventory facts merged
// in. A search with no lookup row is suspicious when the inventory says so
// and has no status otherwise.
func (v *view) current(name string) (*model.GovernanceRecord, error) {
	f, known := v.facts[name]
	if row := v.snap.Find(name); row != nil {
		rec := row.Clone()
		if known {
			merge(rec, f)
		}
		return rec, nil
	}
	if !known {
		return nil, errclass.ErrRecordNotFound.WithMessagef("search '%s' not found", name)
	}
	rec := &model.GovernanceRecord{SearchName: name}
	merge(rec, f)
	if f.IsSuspicious {
		rec.Status = model.StatusSuspicious
	}
	return rec, nil
}

func merge(rec *model.GovernanceRecord, f model.SearchFacts) {
	rec.IsSuspicious = f.IsSuspicious
	rec.IsDisabledByPlatform = f.Disabled
	rec.SuspiciousReason = f.SuspiciousReason
	if rec.Owner == "" {
		rec.Owner = f.Owner
	}
	if rec.App == "" {
		rec.App = f.App
	}
}

// apply returns the lookup content after changes. Resolved records are
// dropped; new records are appended after the existing rows.
func (v *view) apply(changes []change) []*model.GovernanceRecord {
	next := make(map[string]*model.GovernanceRecord, len(changes))
	for _, c := range changes {
		next[c.after.SearchName] = c.after
	}

	out := make([]*model.GovernanceRecord, 0, len(v.snap.Records)+len(changes))
	seen := make(map[string]bool, len(v.snap.Records))
	keep := func(rec *model.GovernanceRecord) {
		if rec.Status != model.StatusResolved {
			out = append(out, rec)
		}
	}
	for _, row := range v.snap.Records {
		seen[row.SearchName] = true
		if rec, ok := next[row.SearchName]; ok {
			keep(rec)
			continue
		}
		out = append(out, row)
	}
	for _, c := range changes {
		if !seen[c.after.SearchName] {
			seen[c.after.SearchName] = true
			keep(c.after)
		}
	}
	return out
}

// records lists every governed or inventoried search, sorted by name.
func (v *view) records() []*model.GovernanceRecord {
	names := make(map[string]bool, len(v.order)+len(v.snap.Records))
	for _, n := range v.order {
		names[n] = true
	}
	for _, r := range v.snap.Records {
		names[r.SearchName] = true
	}
	out := make([]*model.GovernanceRecord, 0, len(names))
	for n := range names {
		rec, err := v.current(n)
		if err == nil {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SearchName < out[j].SearchName })
	return out
}

// View is one row of the governance dashboard.
type View struct {
	*model.GovernanceRecord
	Label    string     `json:"label"`
	Color    string     `json:"color"`
	Icon     model.Icon `json:"icon"`
	DaysLeft string     `json:"days_left"`
}

func newView(rec *model.GovernanceRecord, now int64) View {
	v := View{
		GovernanceRecord: rec,
		Icon:             status.ResolveIcon(rec),
		DaysLeft:         status.DaysLeft(rec, now),
	}
	if rec.Status != model.StatusNone {
		info := status.Lookup(rec.Status)
		v.Label = info.Label
		v.Color = info.Color
	}
	return v
}

// List returns the dashboard rows for every known search.
func (s *Service) List(ctx context.Context) ([]View, error) {
	v, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().Unix()
	recs := v.records()
	out := make([]View, 0, len(recs))
	for _, rec := range recs {
		out = append(out, newView(rec, now))
	}
	return out, nil
}

// Show returns the dashboard row for one search.
func (s *Service) Show(ctx context.Context, name string) (*View, error) {
	names, err := normalizeNames([]string{name})
	if err != nil {
		return nil, err
	}
	v, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := v.current(names[0])
	if err != nil {
		return nil, err
	}
	row := newView(rec, s.now().Unix())
	return &row, nil
}

// Summary counts searches per dashboard bucket.
type Summary struct {
	Total      int `json:"total"`
	Suspicious int `json:"suspicious"`
	Flagged    int `json:"flagged"`
	Notified   int `json:"notified"`
	Expired    int `json:"expired"`
	Disabled   int `json:"disabled"`
}

// Summary counts the searches returned by List. Suspicious counts unflagged
// suspicious searches only; flagged counts pending, notified and review.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	rows, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	sum := &Summary{Total: len(rows)}
	for _, r := range rows {
		switch {
		case r.IsDisabledByPlatform || r.Status == model.StatusDisabled:
			sum.Disabled++
		case status.IsFlagged(r.Status):
			sum.Flagged++
		case r.Status == model.StatusSuspicious:
			sum.Suspicious++
		}
		if r.Status == model.StatusNotified {
			sum.Notified++
			if r.DaysLeft == status.DaysLeftExpired {
				sum.Expired++
			}
		}
	}
	return sum, nil
}
