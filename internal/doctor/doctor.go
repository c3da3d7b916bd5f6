// Package doctor checks a governance workspace for records that break the
// lifecycle rules and for damage left by interrupted writes.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sgov-project/sgov/internal/audit"
	"github.com/sgov-project/sgov/internal/lookup"
	"github.com/sgov-project/sgov/internal/status"
	"github.com/sgov-project/sgov/pkg/errclass"
	"github.com/sgov-project/sgov/pkg/model"
)

// tmpPrefix matches the temp files written by fsutil.AtomicWrite.
const tmpPrefix = ".sgov-tmp-"

// Finding represents a detected issue.
type Finding struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	SearchName  string `json:"search_name,omitempty"`
	Path        string `json:"path,omitempty"`
}

// Result contains doctor check results.
type Result struct {
	Healthy  bool      `json:"healthy"`
	Records  int       `json:"records"`
	Audit    int       `json:"audit_entries"`
	Findings []Finding `json:"findings"`
}

// Options locates what the doctor inspects.
type Options struct {
	Store     lookup.Store
	Inventory lookup.Inventory
	Scope     string
	AuditPath string
	// LookupDir is scanned for orphan temp files. Empty skips the scan.
	LookupDir string
	Now       func() time.Time
}

// Doctor performs workspace health checks.
type Doctor struct {
	opts Options
}

// NewDoctor creates a new doctor.
func NewDoctor(opts Options) *Doctor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Doctor{opts: opts}
}

// Check runs all diagnostic checks. Critical and error findings make the
// workspace unhealthy; warnings and info do not.
func (d *Doctor) Check(ctx context.Context) (*Result, error) {
	result := &Result{Healthy: true, Findings: []Finding{}}

	snap, err := d.opts.Store.Read(ctx, d.opts.Scope)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		result.add(Finding{
			Category:    "lookup",
			Description: fmt.Sprintf("cannot read lookup %s: %v", d.opts.Scope, err),
			Severity:    "critical",
		})
	} else {
		result.Records = len(snap.Records)
		d.checkRecords(snap.Records, result)
		d.checkInventory(ctx, snap.Records, result)
	}

	d.checkAudit(result)
	d.checkOrphanTmp(result)
	return result, nil
}

func (r *Result) add(f Finding) {
	if f.Severity == "critical" || f.Severity == "error" {
		r.Healthy = false
	}
	r.Findings = append(r.Findings, f)
}

func (d *Doctor) checkRecords(records []*model.GovernanceRecord, result *Result) {
	now := d.opts.Now().Unix()
	seen := make(map[string]bool, len(records))

	for _, rec := range records {
		name := rec.SearchName
		if seen[name] {
			result.add(Finding{
				Category:    "record",
				Description: fmt.Sprintf("duplicate row for '%s'", name),
				Severity:    "error",
				SearchName:  name,
			})
		}
		seen[name] = true

		switch {
		case !rec.Status.IsValid():
			result.add(Finding{
				Category:    "status",
				Description: fmt.Sprintf("'%s' has unknown status %q (%s)", name, rec.Status, errclass.ErrUnknownStatus.Code),
				Severity:    "error",
				SearchName:  name,
			})
			continue
		case rec.Status == model.StatusResolved:
			result.add(Finding{
				Category:    "status",
				Description: fmt.Sprintf("'%s' is resolved but still stored", name),
				Severity:    "warning",
				SearchName:  name,
			})
		}

		if rec.Status == model.StatusNotified {
			switch {
			case !rec.HasDeadline():
				result.add(Finding{
					Category:    "deadline",
					Description: fmt.Sprintf("'%s' is notified without a remediation deadline", name),
					Severity:    "error",
					SearchName:  name,
				})
			case rec.RemediationDeadline <= now:
				result.add(Finding{
					Category: "deadline",
					Description: fmt.Sprintf("'%s' passed its deadline on %s",
						name, time.Unix(rec.RemediationDeadline, 0).UTC().Format(time.RFC3339)),
					Severity:   "info",
					SearchName: name,
				})
			}
		}

		if status.IsFlagged(rec.Status) && rec.FlaggedTime == 0 {
			result.add(Finding{
				Category:    "record",
				Description: fmt.Sprintf("'%s' is %s without a flagged time", name, rec.Status),
				Severity:    "warning",
				SearchName:  name,
			})
		}
	}
}

func (d *Doctor) checkInventory(ctx context.Context, records []*model.GovernanceRecord, result *Result) {
	if d.opts.Inventory == nil {
		return
	}
	facts, err := d.opts.Inventory.ReadInventory(ctx)
	if err != nil {
		result.add(Finding{
			Category:    "inventory",
			Description: fmt.Sprintf("cannot read inventory: %v", err),
			Severity:    "error",
		})
		return
	}
	if len(facts) == 0 {
		return
	}

	known := make(map[string]bool, len(facts))
	for _, f := range facts {
		known[f.SearchName] = true
	}
	for _, rec := range records {
		if !known[rec.SearchName] {
			result.add(Finding{
				Category:    "inventory",
				Description: fmt.Sprintf("'%s' is governed but missing from the inventory", rec.SearchName),
				Severity:    "warning",
				SearchName:  rec.SearchName,
			})
		}
	}
}

func (d *Doctor) checkAudit(result *Result) {
	if d.opts.AuditPath == "" {
		return
	}
	n, err := audit.Verify(d.opts.AuditPath)
	result.Audit = n
	if err == nil {
		return
	}
	sev := "error"
	if errors.Is(err, errclass.ErrAuditChainBroken) {
		sev = "critical"
	}
	result.add(Finding{
		Category:    "audit",
		Description: err.Error(),
		Severity:    sev,
		Path:        d.opts.AuditPath,
	})
}

func (d *Doctor) checkOrphanTmp(result *Result) {
	for _, path := range d.orphanTmp() {
		result.add(Finding{
			Category:    "tmp",
			Description: fmt.Sprintf("orphan temp file: %s", filepath.Base(path)),
			Severity:    "info",
			Path:        path,
		})
	}
}

func (d *Doctor) orphanTmp() []string {
	if d.opts.LookupDir == "" {
		return nil
	}
	entries, err := os.ReadDir(d.opts.LookupDir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), tmpPrefix) {
			out = append(out, filepath.Join(d.opts.LookupDir, e.Name()))
		}
	}
	return out
}

// RepairAction describes one available repair.
type RepairAction struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// RepairResult reports the outcome of one repair.
type RepairResult struct {
	Action  string `json:"action"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Cleaned int    `json:"cleaned"`
}

// ListRepairActions returns the repairs Repair understands.
func (d *Doctor) ListRepairActions() []RepairAction {
	return []RepairAction{
		{ID: "clean_tmp", Description: "Remove temp files left by interrupted lookup writes"},
	}
}

// Repair runs the named repairs. Unknown actions are reported as failed
// results rather than errors.
func (d *Doctor) Repair(actions []string) ([]RepairResult, error) {
	results := make([]RepairResult, 0, len(actions))
	for _, action := range actions {
		switch action {
		case "clean_tmp":
			results = append(results, d.cleanTmp())
		default:
			results = append(results, RepairResult{
				Action:  action,
				Message: fmt.Sprintf("unknown repair action: %s", action),
			})
		}
	}
	return results, nil
}

func (d *Doctor) cleanTmp() RepairResult {
	res := RepairResult{Action: "clean_tmp", Success: true}
	for _, path := range d.orphanTmp() {
		if err := os.Remove(path); err != nil {
			res.Success = false
			res.Message = err.Error()
			continue
		}
		res.Cleaned++
	}
	if res.Success {
		res.Message = fmt.Sprintf("removed %d temp files", res.Cleaned)
	}
	return res
}
