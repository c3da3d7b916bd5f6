package lookup

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/sgov-project/sgov/pkg/model"
	"github.com/sgov-project/sgov/pkg/nameutil"
)

// EncodeRecords writes records as CSV with model.LookupColumns as header.
func EncodeRecords(w io.Writer, records []*model.GovernanceRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.LookupColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.SearchName,
			r.Owner,
			r.App,
			r.FlaggedBy,
			formatInt(r.FlaggedTime),
			formatBool(r.NotificationSent),
			formatInt(r.NotificationTime),
			formatInt(r.RemediationDeadline),
			string(r.Status),
			r.FlagReason,
			r.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %q: %w", r.SearchName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeRecords parses a flagged-search lookup. Columns are matched by header
// name; missing columns read as empty. Search names are NFC-normalized.
func DecodeRecords(r io.Reader) ([]*model.GovernanceRecord, error) {
	rows, err := readRows(r)
	if err != nil || rows == nil {
		return nil, err
	}

	var out []*model.GovernanceRecord
	for i, row := range rows.data {
		line := i + 2
		rec := &model.GovernanceRecord{
			SearchName: nameutil.Normalize(rows.get(row, "search_name")),
			Owner:      rows.get(row, "search_owner"),
			App:        rows.get(row, "search_app"),
			FlaggedBy:  rows.get(row, "flagged_by"),
			Status:     model.StatusCode(strings.ToLower(rows.get(row, "status"))),
			FlagReason: rows.get(row, "reason"),
			Notes:      rows.get(row, "notes"),
		}
		if rec.SearchName == "" {
			continue
		}
		if rec.FlaggedTime, err = parseInt(rows.get(row, "flagged_time")); err != nil {
			return nil, fmt.Errorf("line %d flagged_time: %w", line, err)
		}
		if rec.NotificationTime, err = parseInt(rows.get(row, "notification_time")); err != nil {
			return nil, fmt.Errorf("line %d notification_time: %w", line, err)
		}
		if rec.RemediationDeadline, err = parseInt(rows.get(row, "remediation_deadline")); err != nil {
			return nil, fmt.Errorf("line %d remediation_deadline: %w", line, err)
		}
		rec.NotificationSent = parseBool(rows.get(row, "notification_sent"))
		out = append(out, rec)
	}
	return out, nil
}

// DecodeInventory parses a search inventory lookup.
func DecodeInventory(r io.Reader) ([]model.SearchFacts, error) {
	rows, err := readRows(r)
	if err != nil || rows == nil {
		return nil, err
	}

	var out []model.SearchFacts
	for _, row := range rows.data {
		f := model.SearchFacts{
			SearchName:       nameutil.Normalize(rows.get(row, "search_name")),
			Owner:            rows.get(row, "search_owner"),
			App:              rows.get(row, "search_app"),
			IsSuspicious:     parseBool(rows.get(row, "is_suspicious")),
			Disabled:         parseBool(rows.get(row, "disabled")),
			SuspiciousReason: rows.get(row, "suspicious_reason"),
		}
		if f.SearchName == "" {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// EncodeInventory writes facts with model.InventoryColumns as header.
func EncodeInventory(w io.Writer, facts []model.SearchFacts) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.InventoryColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, f := range facts {
		row := []string{f.SearchName, f.Owner, f.App, formatBool(f.IsSuspicious), formatBool(f.Disabled), f.SuspiciousReason}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %q: %w", f.SearchName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type table struct {
	index map[string]int
	data  [][]string
}

func (t *table) get(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func readRows(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &table{index: make(map[string]int, len(header))}
	for i, h := range header {
		t.index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	t.data, err = cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return t, nil
}

func formatInt(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// parseInt accepts integers and the float epochs lookups often carry.
func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Floor(f)), nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "t", "y":
		return true
	}
	return false
}
