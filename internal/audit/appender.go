package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/sgov-project/sgov/pkg/model"
)

// Sink persists audit entries in the order given.
type Sink interface {
	Append(entries ...model.AuditEntry) error
}

// FileAppender appends audit entries to a JSONL file with hash chain.
type FileAppender struct {
	path string
	mu   sync.Mutex
}

// NewFileAppender creates a new FileAppender.
func NewFileAppender(path string) *FileAppender {
	return &FileAppender{path: path}
}

// Path returns the audit log location.
func (a *FileAppender) Path() string {
	return a.path
}

// Append seals entries into the chain and writes them under one file lock.
func (a *FileAppender) Append(entries ...model.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	lock := flock.New(a.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock audit log: %w", err)
	}
	defer lock.Unlock()

	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	prevHash, err := lastRecordHash(file)
	if err != nil {
		return fmt.Errorf("get last record hash: %w", err)
	}

	var buf []byte
	for _, entry := range entries {
		record := model.AuditRecord{AuditEntry: entry, PrevHash: prevHash}
		hash, err := computeRecordHash(&record)
		if err != nil {
			return fmt.Errorf("compute record hash: %w", err)
		}
		record.RecordHash = hash

		line, err := json.Marshal(&record)
		if err != nil {
			return fmt.Errorf("marshal audit record: %w", err)
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
		prevHash = hash
	}

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}
	if _, err := file.Write(buf); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync audit log: %w", err)
	}
	return nil
}

// LastRecordHash returns the hash of the last record in the log.
func (a *FileAppender) LastRecordHash() (model.HashValue, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	file, err := os.Open(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	return lastRecordHash(file)
}

func lastRecordHash(file *os.File) (model.HashValue, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek to start: %w", err)
	}

	var lastHash model.HashValue
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var record model.AuditRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue // skip malformed lines
		}
		lastHash = record.RecordHash
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan audit log: %w", err)
	}
	return lastHash, nil
}

// computeRecordHash hashes the entry and its predecessor link. Struct field
// order makes the JSON encoding deterministic.
func computeRecordHash(record *model.AuditRecord) (model.HashValue, error) {
	sealed := struct {
		model.AuditEntry
		PrevHash model.HashValue `json:"prev_hash"`
	}{record.AuditEntry, record.PrevHash}

	data, err := json.Marshal(sealed)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	hash := sha256.Sum256(data)
	return model.HashValue(hex.EncodeToString(hash[:])), nil
}
