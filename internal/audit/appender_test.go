package audit_test

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sgov-project/sgov/internal/audit"
	"github.com/sgov-project/sgov/pkg/errclass"
	"github.com/sgov-project/sgov/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(action model.Action, name string) model.AuditEntry {
	return model.AuditEntry{Timestamp: 1704067200, Action: action, SearchName: name, PerformedBy: "admin"}
}

func TestFileAppender_AppendCreatesJSONL(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit", "audit.jsonl")

	appender := audit.NewFileAppender(logPath)
	require.NoError(t, appender.Append(entry(model.ActionFlag, "Errors Last Hour")))

	file, err := os.Open(logPath)
	require.NoError(t, err)
	defer file.Close()

	scanner := bufio.NewScanner(file)
	require.True(t, scanner.Scan())

	var record model.AuditRecord
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
	assert.Equal(t, model.ActionFlag, record.Action)
	assert.Equal(t, "Errors Last Hour", record.SearchName)

	// empty optional fields are present, not omitted
	assert.Contains(t, scanner.Text(), `"flag_reason":""`)
	assert.Contains(t, scanner.Text(), `"old_deadline":0`)
}

func TestFileAppender_HashChain(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	appender := audit.NewFileAppender(logPath)

	require.NoError(t, appender.Append(entry(model.ActionFlag, "a")))
	require.NoError(t, appender.Append(entry(model.ActionNotify, "a"), entry(model.ActionNotify, "b")))

	records, err := audit.ReadAll(logPath)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, model.HashValue(""), records[0].PrevHash)
	assert.Equal(t, records[0].RecordHash, records[1].PrevHash)
	assert.Equal(t, records[1].RecordHash, records[2].PrevHash)
	for _, r := range records {
		assert.NotEmpty(t, r.RecordHash)
	}

	n, err := audit.Verify(logPath)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestFileAppender_PreservesOrder(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	appender := audit.NewFileAppender(logPath)

	names := []string{"first", "second", "third"}
	var batch []model.AuditEntry
	for _, n := range names {
		batch = append(batch, entry(model.ActionBulkFlag, n))
	}
	require.NoError(t, appender.Append(batch...))

	records, err := audit.ReadAll(logPath)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, n := range names {
		assert.Equal(t, n, records[i].SearchName)
	}
}

func TestFileAppender_ConcurrentAppends(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	appender := audit.NewFileAppender(logPath)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			appender.Append(entry(model.ActionStatusChange, "s"))
		}()
	}
	wg.Wait()

	n, err := audit.Verify(logPath)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestFileAppender_LastRecordHash(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	appender := audit.NewFileAppender(logPath)

	hash, err := appender.LastRecordHash()
	require.NoError(t, err)
	assert.Equal(t, model.HashValue(""), hash)

	require.NoError(t, appender.Append(entry(model.ActionFlag, "a")))
	hash, err = appender.LastRecordHash()
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}

func TestFileAppender_AppendNothing(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	require.NoError(t, audit.NewFileAppender(logPath).Append())
	_, err := os.Stat(logPath)
	assert.True(t, os.IsNotExist(err))
}

func TestVerify_DetectsTampering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	appender := audit.NewFileAppender(logPath)
	require.NoError(t, appender.Append(entry(model.ActionFlag, "a"), entry(model.ActionDisable, "a")))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), `"action":"disable"`, `"action":"unflag"`, 1)
	require.NoError(t, os.WriteFile(logPath, []byte(tampered), 0644))

	_, err = audit.Verify(logPath)
	assert.True(t, errors.Is(err, errclass.ErrAuditChainBroken))
}

func TestReadAll_MissingLog(t *testing.T) {
	records, err := audit.ReadAll(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestForSearch(t *testing.T) {
	records := []model.AuditRecord{
		{AuditEntry: entry(model.ActionFlag, "a")},
		{AuditEntry: entry(model.ActionFlag, "b")},
		{AuditEntry: entry(model.ActionNotify, "a")},
	}
	got := audit.ForSearch(records, "a")
	require.Len(t, got, 2)
	assert.Equal(t, model.ActionNotify, got[1].Action)
}
