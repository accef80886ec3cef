package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/memoria-ai/memoria/internal/model"
	"github.com/memoria-ai/memoria/internal/summary"
)

const (
	// DefaultRecallLimit applies when a caller passes no limit.
	DefaultRecallLimit = 10
	// MaxRecallLimit caps any caller-supplied limit.
	MaxRecallLimit = 1000

	// DefaultImportance applies when a caller passes no importance.
	DefaultImportance = 0.5

	schemaVersion = 1
)

// Options tunes store construction.
type Options struct {
	// RecoverCorrupt rebuilds the database from scratch when the startup
	// integrity check fails. Off by default: a corrupt database is an error,
	// never silent data loss.
	RecoverCorrupt bool

	// OnWrite, when set, observes every accepted (non-duplicate) memory
	// write after commit. Mirroring layers hook in here.
	OnWrite func(model.MemoryRecord)
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	opts Options
	now  func() time.Time
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, opts Options) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	if err := checkIntegrity(db); err != nil {
		db.Close()
		if !opts.RecoverCorrupt {
			return nil, fmt.Errorf("integrity check %s: %w (set recover-corrupt to rebuild)", dbPath, err)
		}
		if err := removeDBFiles(dbPath); err != nil {
			return nil, fmt.Errorf("rebuild corrupt db: %w", err)
		}
		db, err = openDB(dbPath)
		if err != nil {
			return nil, err
		}
	}

	s := &SQLiteStore{
		db:   db,
		opts: opts,
		now:  time.Now,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Single connection keeps the admit-insert-touch sequence serialized.
	db.SetMaxOpenConns(1)
	return db, nil
}

func checkIntegrity(db *sql.DB) error {
	var result string
	if err := db.QueryRow(`PRAGMA quick_check`).Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("quick_check: %s", result)
	}
	return nil
}

func removeDBFiles(dbPath string) error {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_meta (
		version INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS memories (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp           REAL NOT NULL,
		owner_id            TEXT NOT NULL,
		content             TEXT NOT NULL,
		emotional_context   TEXT,
		importance          REAL NOT NULL DEFAULT 0.5,
		category            TEXT,
		metadata            TEXT,
		content_fingerprint TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_memories_owner_fp ON memories(owner_id, content_fingerprint);
	CREATE INDEX IF NOT EXISTS idx_memories_owner_ts ON memories(owner_id, timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_category ON memories(category);

	CREATE TABLE IF NOT EXISTS relationships (
		owner_id           TEXT PRIMARY KEY,
		first_contact      REAL NOT NULL,
		last_contact       REAL NOT NULL,
		trust_level        REAL NOT NULL DEFAULT 0.5,
		total_interactions INTEGER NOT NULL DEFAULT 0,
		personal_notes     TEXT
	);

	CREATE TABLE IF NOT EXISTS learning_patterns (
		id           TEXT PRIMARY KEY,
		pattern_type TEXT NOT NULL,
		pattern_data TEXT,
		success_rate REAL NOT NULL DEFAULT 0,
		last_updated REAL NOT NULL,
		usage_count  INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_patterns_type ON learning_patterns(pattern_type);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_meta LIMIT 1`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.Exec(`INSERT INTO schema_meta (version) VALUES (?)`, schemaVersion)
		return err
	case err != nil:
		return err
	case version > schemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported %d", version, schemaVersion)
	}
	return nil
}

func (s *SQLiteStore) nowTS() float64 {
	return model.TimestampOf(s.now())
}

// Remember stores a memory inside one transaction spanning the duplicate
// check, the insert, and the relationship touch. Duplicate (owner, content)
// submissions return the original timestamp with no side effects.
func (s *SQLiteStore) Remember(ctx context.Context, p RememberParams) (float64, error) {
	if p.OwnerID == "" {
		return 0, &ValidationError{Field: "owner_id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(p.Content) == "" {
		return 0, &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	importance := DefaultImportance
	if p.Importance != nil {
		importance = *p.Importance
		if importance < 0 || importance > 1 {
			return 0, &ValidationError{Field: "importance", Reason: "must be within [0,1]"}
		}
	}

	var metaJSON *string
	if len(p.Metadata) > 0 {
		b, err := json.Marshal(p.Metadata)
		if err != nil {
			return 0, &ValidationError{Field: "metadata", Reason: "must be JSON-serializable"}
		}
		str := string(b)
		metaJSON = &str
	}

	ts := s.nowTS()
	if p.Timestamp != nil {
		ts = *p.Timestamp
	}
	fp := Fingerprint(p.OwnerID, p.Content)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Admit check: an existing row with the same fingerprint absorbs the
	// submission and hands back its original timestamp.
	var existing float64
	err = tx.QueryRowContext(ctx,
		`SELECT timestamp FROM memories WHERE owner_id = ? AND content_fingerprint = ?`,
		p.OwnerID, fp).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("dedup check: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO memories (timestamp, owner_id, content, emotional_context, importance, category, metadata, content_fingerprint)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ts, p.OwnerID, p.Content, nullable(p.EmotionalContext), importance,
		nullable(p.Category), metaJSON, fp)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with an identical concurrent submission.
			tx.Rollback()
			var won float64
			if qerr := s.db.QueryRowContext(ctx,
				`SELECT timestamp FROM memories WHERE owner_id = ? AND content_fingerprint = ?`,
				p.OwnerID, fp).Scan(&won); qerr == nil {
				return won, nil
			}
		}
		return 0, fmt.Errorf("insert memory: %w", err)
	}
	id, _ := res.LastInsertId()

	if err := touchInTx(ctx, tx, p.OwnerID, "", s.nowTS()); err != nil {
		return 0, fmt.Errorf("touch relationship: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	if s.opts.OnWrite != nil {
		s.opts.OnWrite(model.MemoryRecord{
			ID:               id,
			Timestamp:        ts,
			OwnerID:          p.OwnerID,
			Content:          p.Content,
			EmotionalContext: p.EmotionalContext,
			Importance:       importance,
			Category:         p.Category,
			Metadata:         p.Metadata,
			Fingerprint:      fp,
		})
	}

	return ts, nil
}

// Recall returns memories matching the filter, ordered by timestamp
// descending and capped to the limit.
func (s *SQLiteStore) Recall(ctx context.Context, p RecallParams) ([]model.MemoryRecord, error) {
	if p.StartTime != nil && p.EndTime != nil && *p.StartTime > *p.EndTime {
		return nil, ErrInvalidRange
	}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultRecallLimit
	}
	if limit > MaxRecallLimit {
		limit = MaxRecallLimit
	}

	minImportance := p.MinImportance
	if minImportance < 0 {
		minImportance = 0
	}
	if minImportance > 1 {
		minImportance = 1
	}

	where := []string{"importance >= ?"}
	args := []any{minImportance}

	if p.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, p.OwnerID)
	}
	if p.StartTime != nil {
		where = append(where, "timestamp >= ?")
		args = append(args, *p.StartTime)
	}
	if p.EndTime != nil {
		where = append(where, "timestamp <= ?")
		args = append(args, *p.EndTime)
	}
	if p.Category != "" {
		where = append(where, "category = ?")
		args = append(args, p.Category)
	}

	query := `SELECT id, timestamp, owner_id, content, emotional_context, importance, category, metadata, content_fingerprint
	          FROM memories WHERE ` + strings.Join(where, " AND ") + `
	          ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var records []model.MemoryRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memories: %w", err)
	}

	return records, nil
}

// SummarizeConversation aggregates an owner's memories over a time window.
// End defaults to now, start to end minus 24 hours.
func (s *SQLiteStore) SummarizeConversation(ctx context.Context, ownerID string, start, end *float64) (*summary.Summary, error) {
	if ownerID == "" {
		return nil, &ValidationError{Field: "owner_id", Reason: "must not be empty"}
	}

	endTS := s.nowTS()
	if end != nil {
		endTS = *end
	}
	startTS := endTS - 24*3600
	if start != nil {
		startTS = *start
	}
	if startTS > endTS {
		return nil, ErrInvalidRange
	}

	records, err := s.Recall(ctx, RecallParams{
		OwnerID:   ownerID,
		Limit:     MaxRecallLimit,
		StartTime: &startTS,
		EndTime:   &endTS,
	})
	if err != nil {
		return nil, err
	}

	sum := summary.Summarize(records)
	sum.OwnerID = ownerID
	sum.Start = startTS
	sum.End = endTS
	return sum, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (model.MemoryRecord, error) {
	var r model.MemoryRecord
	var emotion, category, meta sql.NullString

	err := row.Scan(&r.ID, &r.Timestamp, &r.OwnerID, &r.Content,
		&emotion, &r.Importance, &category, &meta, &r.Fingerprint)
	if err != nil {
		return r, fmt.Errorf("scan memory: %w", err)
	}

	if emotion.Valid {
		r.EmotionalContext = emotion.String
	}
	if category.Valid {
		r.Category = category.String
	}
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &r.Metadata); err != nil {
			return r, fmt.Errorf("decode metadata for memory %d: %w", r.ID, err)
		}
	}

	return r, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
