package lookup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sgov-project/sgov/pkg/errclass"
	"github.com/sgov-project/sgov/pkg/model"
	"github.com/sgov-project/sgov/pkg/nameutil"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS lookup_rows (
	scope                TEXT NOT NULL,
	search_name          TEXT NOT NULL,
	search_owner         TEXT NOT NULL DEFAULT '',
	search_app           TEXT NOT NULL DEFAULT '',
	flagged_by           TEXT NOT NULL DEFAULT '',
	flagged_time         INTEGER NOT NULL DEFAULT 0,
	notification_sent    INTEGER NOT NULL DEFAULT 0,
	notification_time    INTEGER NOT NULL DEFAULT 0,
	remediation_deadline INTEGER NOT NULL DEFAULT 0,
	status               TEXT NOT NULL,
	reason               TEXT NOT NULL DEFAULT '',
	notes                TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (scope, search_name)
);
CREATE TABLE IF NOT EXISTS lookup_revisions (
	scope    TEXT PRIMARY KEY,
	revision INTEGER NOT NULL
);`

// SQLiteStore keeps lookups as rows of an embedded SQLite database. The
// revision of a lookup is a counter bumped on every write; "0" before the
// first write.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := "file:" + path + "?_pragma=busy_timeout=5000&_pragma=journal_mode=WAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Read loads a lookup ordered by search name.
func (s *SQLiteStore) Read(ctx context.Context, scope string) (*Snapshot, error) {
	if err := nameutil.ValidateLookupName(scope); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	rev, err := revision(ctx, tx, scope)
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT search_name, search_owner, search_app, flagged_by, flagged_time,
		notification_sent, notification_time, remediation_deadline, status, reason, notes
		FROM lookup_rows WHERE scope = ? ORDER BY search_name`, scope)
	if err != nil {
		return nil, fmt.Errorf("query lookup %s: %w", scope, err)
	}
	defer rows.Close()

	snap := &Snapshot{Revision: strconv.FormatInt(rev, 10)}
	for rows.Next() {
		var (
			r      model.GovernanceRecord
			sent   int
			status string
		)
		if err := rows.Scan(&r.SearchName, &r.Owner, &r.App, &r.FlaggedBy, &r.FlaggedTime,
			&sent, &r.NotificationTime, &r.RemediationDeadline, &status, &r.FlagReason, &r.Notes); err != nil {
			return nil, fmt.Errorf("scan lookup %s: %w", scope, err)
		}
		r.SearchName = nameutil.Normalize(r.SearchName)
		r.NotificationSent = sent != 0
		r.Status = model.StatusCode(status)
		snap.Records = append(snap.Records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookup %s: %w", scope, err)
	}
	return snap, nil
}

// Write replaces a lookup in one transaction if it still matches
// expectedRevision.
func (s *SQLiteStore) Write(ctx context.Context, scope string, records []*model.GovernanceRecord, expectedRevision string) (string, error) {
	if err := nameutil.ValidateLookupName(scope); err != nil {
		return "", err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin write: %w", err)
	}
	defer tx.Rollback()

	rev, err := revision(ctx, tx, scope)
	if err != nil {
		return "", err
	}
	if strconv.FormatInt(rev, 10) != expectedRevision {
		return "", errclass.ErrRevisionConflict.WithMessagef("lookup %s changed since it was read", scope)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM lookup_rows WHERE scope = ?`, scope); err != nil {
		return "", fmt.Errorf("clear lookup %s: %w", scope, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO lookup_rows (scope, search_name, search_owner, search_app,
		flagged_by, flagged_time, notification_sent, notification_time, remediation_deadline, status, reason, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		sent := 0
		if r.NotificationSent {
			sent = 1
		}
		if _, err := stmt.ExecContext(ctx, scope, r.SearchName, r.Owner, r.App, r.FlaggedBy, r.FlaggedTime,
			sent, r.NotificationTime, r.RemediationDeadline, string(r.Status), r.FlagReason, r.Notes); err != nil {
			return "", fmt.Errorf("insert %q: %w", r.SearchName, err)
		}
	}

	next := rev + 1
	if _, err := tx.ExecContext(ctx, `INSERT INTO lookup_revisions (scope, revision) VALUES (?, ?)
		ON CONFLICT(scope) DO UPDATE SET revision = excluded.revision`, scope, next); err != nil {
		return "", fmt.Errorf("bump revision: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit lookup %s: %w", scope, err)
	}
	return strconv.FormatInt(next, 10), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func revision(ctx context.Context, tx *sql.Tx, scope string) (int64, error) {
	var rev int64
	err := tx.QueryRowContext(ctx, `SELECT revision FROM lookup_revisions WHERE scope = ?`, scope).Scan(&rev)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read revision %s: %w", scope, err)
	}
	return rev, nil
}
