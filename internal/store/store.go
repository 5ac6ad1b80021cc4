// Package store keeps a SQLite catalog of imported MED-PC sessions.
//
// A session is identified by its source file and its position in that file,
// so re-importing a file replaces its sessions instead of duplicating them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/mpcdata/internal/models"
)

// ErrNotFound is returned when no stored session matches an id
var ErrNotFound = errors.New("session not found")

// ErrAmbiguousID is returned when an id prefix matches several sessions
var ErrAmbiguousID = errors.New("session id prefix is ambiguous")

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Record is a stored session with its catalog metadata
type Record struct {
	ID           string
	SourcePath   string
	SessionIndex int // 0-based position in the source file
	ImportedAt   time.Time
	Session      *models.Session
}

// Summary is the catalog row of a session without its variables
type Summary struct {
	ID           string
	SourcePath   string
	SessionIndex int
	Subject      string
	Experiment   string
	Box          string
	MSN          string
	StartedAt    time.Time // zero when the start could not be derived
	ScalarCount  int
	ArrayCount   int
	ImportedAt   time.Time
}

// ListFilter narrows ListSessions. Zero values match everything.
type ListFilter struct {
	Subject    string
	SourcePath string
	Limit      int
}

// Store is the session catalog
type Store struct {
	db     *sql.DB
	dbPath string
	policy func() backoff.BackOff
}

// NewStore opens (creating if needed) the catalog at dbPath and applies
// pending migrations. ":memory:" opens a private in-memory catalog.
func NewStore(dbPath string) (*Store, error) {
	dsn := "file::memory:?_foreign_keys=on"
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = "file:" + dbPath + "?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps :memory: catalogs shared and serializes writers.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		dbPath: dbPath,
		policy: defaultRetryPolicy,
	}

	if err := s.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path the store was opened with
func (s *Store) Path() string {
	return s.dbPath
}

func defaultRetryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return b
}

// retry runs op again while SQLite reports the database as locked
func (s *Store) retry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err == nil || isLocked(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(s.policy(), ctx))
}

func isLocked(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}

// SaveSession stores session as the index-th session of sourcePath,
// replacing a previous import of the same position. The stored id is
// kept across re-imports.
func (s *Store) SaveSession(ctx context.Context, sourcePath string, index int, session *models.Session) (*Record, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}

	rec := &Record{
		SourcePath:   sourcePath,
		SessionIndex: index,
		ImportedAt:   time.Now().UTC().Truncate(time.Second),
		Session:      session,
	}

	err := s.retry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		id, err := existingID(ctx, tx, sourcePath, index)
		if err != nil {
			return err
		}
		if id == "" {
			id = uuid.New().String()
		}
		rec.ID = id

		if err := upsertSession(ctx, tx, rec); err != nil {
			return err
		}
		if err := replaceVariables(ctx, tx, id, session); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, fmt.Errorf("save session %s#%d: %w", sourcePath, index, err)
	}
	return rec, nil
}

// SaveSessions stores every session parsed from sourcePath and removes
// catalog entries for positions the file no longer has.
func (s *Store) SaveSessions(ctx context.Context, sourcePath string, sessions []*models.Session) ([]*Record, error) {
	records := make([]*Record, 0, len(sessions))
	for i, session := range sessions {
		rec, err := s.SaveSession(ctx, sourcePath, i, session)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}

	err := s.retry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM sessions WHERE source_path = ? AND session_index >= ?`,
			sourcePath, len(sessions))
		return err
	})
	if err != nil {
		return records, fmt.Errorf("prune sessions of %s: %w", sourcePath, err)
	}
	return records, nil
}

func existingID(ctx context.Context, tx *sql.Tx, sourcePath string, index int) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM sessions WHERE source_path = ? AND session_index = ?`,
		sourcePath, index).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("look up session: %w", err)
	}
	return id, nil
}

func upsertSession(ctx context.Context, tx *sql.Tx, rec *Record) error {
	ss := rec.Session

	var startedAt sql.NullTime
	if !ss.StartDateTime.IsZero() {
		startedAt = sql.NullTime{Time: ss.StartDateTime, Valid: true}
	}

	issues := make([]string, 0, len(ss.Issues))
	for _, issue := range ss.Issues {
		issues = append(issues, issue.Error())
	}
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO sessions
		(id, source_path, session_index, subject, experiment, group_name, box, box_numeric, msn,
		 start_date, end_date, start_time, end_time, started_at, imported_at, issues)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		 subject = excluded.subject,
		 experiment = excluded.experiment,
		 group_name = excluded.group_name,
		 box = excluded.box,
		 box_numeric = excluded.box_numeric,
		 msn = excluded.msn,
		 start_date = excluded.start_date,
		 end_date = excluded.end_date,
		 start_time = excluded.start_time,
		 end_time = excluded.end_time,
		 started_at = excluded.started_at,
		 imported_at = excluded.imported_at,
		 issues = excluded.issues`,
		rec.ID, rec.SourcePath, rec.SessionIndex,
		ss.Subject, ss.Experiment, ss.Group, ss.Box.String(), ss.Box.Numeric, ss.MSN,
		formatDate(ss.StartDate), formatDate(ss.EndDate),
		ss.StartTime.Padded(), ss.EndTime.Padded(),
		startedAt, rec.ImportedAt, string(issuesJSON))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func replaceVariables(ctx context.Context, tx *sql.Tx, id string, ss *models.Session) error {
	for _, table := range []string{"scalars", "arrays"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE session_id = ?", id); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, name := range ss.ScalarNames() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scalars (session_id, name, value) VALUES (?, ?, ?)`,
			id, name, ss.ScalarVars[name]); err != nil {
			return fmt.Errorf("insert scalar %s: %w", name, err)
		}
	}

	for _, name := range ss.ArrayNames() {
		values := ss.ArrayVars[name]
		if values == nil {
			values = []float64{}
		}
		data, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("marshal array %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO arrays (session_id, name, length, data) VALUES (?, ?, ?, ?)`,
			id, name, len(values), string(data)); err != nil {
			return fmt.Errorf("insert array %s: %w", name, err)
		}
	}
	return nil
}

// ResolveID expands a full id or a unique id prefix to a stored id
func (s *Store) ResolveID(ctx context.Context, idOrPrefix string) (string, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return "", ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM sessions WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2`,
		idOrPrefix, stripWildcards(idOrPrefix)+"%")
	if err != nil {
		return "", fmt.Errorf("resolve id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan id: %w", err)
		}
		if id == idOrPrefix {
			return id, nil
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%s: %w", idOrPrefix, ErrNotFound)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%s: %w", idOrPrefix, ErrAmbiguousID)
	}
}

// stripWildcards keeps LIKE from treating user input as a pattern.
// Generated ids never contain % or _.
func stripWildcards(s string) string {
	return strings.NewReplacer(`%`, ``, `_`, ``).Replace(s)
}

// GetSession loads a stored session with all its variables. id may be a
// unique prefix.
func (s *Store) GetSession(ctx context.Context, id string) (*Record, error) {
	id, err := s.ResolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		rec                            Record
		box                            string
		boxNumeric                     bool
		startDate, endDate             string
		startTime, endTime, issuesJSON string
		startedAt                      sql.NullTime
	)
	ss := models.NewSession()
	err = s.db.QueryRowContext(ctx, `SELECT id, source_path, session_index, subject, experiment,
		group_name, box, box_numeric, msn, start_date, end_date, start_time, end_time,
		started_at, imported_at, issues
		FROM sessions WHERE id = ?`, id).Scan(
		&rec.ID, &rec.SourcePath, &rec.SessionIndex, &ss.Subject, &ss.Experiment,
		&ss.Group, &box, &boxNumeric, &ss.MSN, &startDate, &endDate, &startTime, &endTime,
		&startedAt, &rec.ImportedAt, &issuesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	if ss.StartDate, err = parseDate(startDate); err != nil {
		return nil, err
	}
	if ss.EndDate, err = parseDate(endDate); err != nil {
		return nil, err
	}
	if ss.StartTime, err = parseTime(startTime); err != nil {
		return nil, err
	}
	if ss.EndTime, err = parseTime(endTime); err != nil {
		return nil, err
	}
	if startedAt.Valid {
		ss.StartDateTime = startedAt.Time.UTC()
	}
	ss.Box = models.TextBox(box)
	if boxNumeric {
		n, err := strconv.Atoi(box)
		if err != nil {
			return nil, fmt.Errorf("stored box %q is not numeric: %w", box, err)
		}
		ss.Box = models.NumericBox(n)
	}

	var issues []string
	if err := json.Unmarshal([]byte(issuesJSON), &issues); err != nil {
		return nil, fmt.Errorf("unmarshal issues: %w", err)
	}
	for _, issue := range issues {
		ss.Issues = append(ss.Issues, errors.New(issue))
	}

	if err := s.loadVariables(ctx, id, ss); err != nil {
		return nil, err
	}

	rec.Session = ss
	return &rec, nil
}

func (s *Store) loadVariables(ctx context.Context, id string, ss *models.Session) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM scalars WHERE session_id = ?`, id)
	if err != nil {
		return fmt.Errorf("query scalars: %w", err)
	}
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			rows.Close()
			return fmt.Errorf("scan scalar: %w", err)
		}
		ss.ScalarVars[name] = value
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT name, data FROM arrays WHERE session_id = ?`, id)
	if err != nil {
		return fmt.Errorf("query arrays: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return fmt.Errorf("scan array: %w", err)
		}
		values := []float64{}
		if err := json.Unmarshal([]byte(data), &values); err != nil {
			return fmt.Errorf("unmarshal array %s: %w", name, err)
		}
		ss.ArrayVars[name] = values
	}
	return rows.Err()
}

// ListSessions returns catalog summaries, most recent session first
func (s *Store) ListSessions(ctx context.Context, filter ListFilter) ([]*Summary, error) {
	query := `SELECT s.id, s.source_path, s.session_index, s.subject, s.experiment, s.box, s.msn,
		s.started_at, s.imported_at,
		(SELECT COUNT(*) FROM scalars WHERE session_id = s.id),
		(SELECT COUNT(*) FROM arrays WHERE session_id = s.id)
		FROM sessions s`

	var where []string
	var args []interface{}
	if filter.Subject != "" {
		where = append(where, "s.subject = ?")
		args = append(args, filter.Subject)
	}
	if filter.SourcePath != "" {
		where = append(where, "s.source_path = ?")
		args = append(args, filter.SourcePath)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.started_at IS NULL, s.started_at DESC, s.source_path, s.session_index"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []*Summary
	for rows.Next() {
		var sum Summary
		var startedAt sql.NullTime
		if err := rows.Scan(&sum.ID, &sum.SourcePath, &sum.SessionIndex, &sum.Subject,
			&sum.Experiment, &sum.Box, &sum.MSN, &startedAt, &sum.ImportedAt,
			&sum.ScalarCount, &sum.ArrayCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if startedAt.Valid {
			sum.StartedAt = startedAt.Time.UTC()
		}
		summaries = append(summaries, &sum)
	}
	return summaries, rows.Err()
}

// DeleteSource removes every session imported from sourcePath and reports
// how many were removed
func (s *Store) DeleteSource(ctx context.Context, sourcePath string) (int64, error) {
	var n int64
	err := s.retry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE source_path = ?`, sourcePath)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete sessions of %s: %w", sourcePath, err)
	}
	return n, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored date %q: %w", s, err)
	}
	return t, nil
}

func parseTime(s string) (models.TimeOfDay, error) {
	if s == "" {
		return models.TimeOfDay{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return models.TimeOfDay{}, fmt.Errorf("stored time %q: %w", s, err)
	}
	return models.NewTimeOfDay(t.Hour(), t.Minute(), t.Second()), nil
}
