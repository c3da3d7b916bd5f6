package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sgov-project/sgov/pkg/errclass"
	"github.com/sgov-project/sgov/pkg/model"
)

// ReadAll returns every record in the log in write order. A missing log is
// an empty trail.
func ReadAll(path string) ([]model.AuditRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	var records []model.AuditRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec model.AuditRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("parse audit line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan audit log: %w", err)
	}
	return records, nil
}

// ForSearch filters records down to one search.
func ForSearch(records []model.AuditRecord, searchName string) []model.AuditRecord {
	var out []model.AuditRecord
	for _, r := range records {
		if r.SearchName == searchName {
			out = append(out, r)
		}
	}
	return out
}

// Verify walks the hash chain and reports the first broken link.
func Verify(path string) (int, error) {
	records, err := ReadAll(path)
	if err != nil {
		return 0, err
	}

	var prev model.HashValue
	for i := range records {
		rec := &records[i]
		if rec.PrevHash != prev {
			return i, errclass.ErrAuditChainBroken.WithMessagef("record %d: prev_hash does not match record %d", i+1, i)
		}
		want, err := computeRecordHash(rec)
		if err != nil {
			return i, err
		}
		if rec.RecordHash != want {
			return i, errclass.ErrAuditChainBroken.WithMessagef("record %d: record_hash mismatch", i+1)
		}
		prev = rec.RecordHash
	}
	return len(records), nil
}
