package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"shiftbuddy/internal/modules/journey/domain"
	journeyout "shiftbuddy/internal/modules/journey/port/out"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

// SQLiteTrackProjector keeps the last fetched track of every slot.
type SQLiteTrackProjector struct {
	db *sql.DB
}

func NewSQLiteTrackProjector(dbPath string) (*SQLiteTrackProjector, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	projector := &SQLiteTrackProjector{db: db}
	if err := projector.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return projector, nil
}

var _ journeyout.TrackProjector = (*SQLiteTrackProjector)(nil)

func (s *SQLiteTrackProjector) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS slot_track (
  slot_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  step TEXT NOT NULL,
  status TEXT NOT NULL,
  updated_at TEXT,
  fetched_at TEXT NOT NULL,
  PRIMARY KEY (slot_id, position)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create slot_track table: %w", err)
	}
	return nil
}

func (s *SQLiteTrackProjector) Close() error {
	return s.db.Close()
}

// ReplaceTrack swaps the stored track of slotID for entries in one transaction.
func (s *SQLiteTrackProjector) ReplaceTrack(ctx context.Context, slotID string, fetchedAt time.Time, entries []domain.TrackEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin track tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM slot_track WHERE slot_id = ?`, slotID); err != nil {
		return fmt.Errorf("clear slot track: %w", err)
	}
	const stmt = `
INSERT INTO slot_track (slot_id, position, step, status, updated_at, fetched_at)
VALUES (?, ?, ?, ?, ?, ?);
`
	for i, e := range entries {
		updated := ""
		if !e.UpdatedAt.IsZero() {
			updated = e.UpdatedAt.UTC().Format(timeLayout)
		}
		if _, err := tx.ExecContext(ctx, stmt, slotID, i, e.Step, e.Status, updated, fetchedAt.UTC().Format(timeLayout)); err != nil {
			return fmt.Errorf("insert slot track entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit slot track: %w", err)
	}
	return nil
}

func (s *SQLiteTrackProjector) ListTrack(ctx context.Context, slotID string, limit int) ([]journeyout.TrackRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT slot_id, position, step, status, updated_at, fetched_at
FROM slot_track
WHERE slot_id = ?
ORDER BY position ASC
LIMIT ?`, slotID, limit)
	if err != nil {
		return nil, fmt.Errorf("query slot track: %w", err)
	}
	defer rows.Close()

	var out []journeyout.TrackRecord
	for rows.Next() {
		var (
			rec              journeyout.TrackRecord
			updated, fetched string
		)
		if err := rows.Scan(&rec.SlotID, &rec.Position, &rec.Entry.Step, &rec.Entry.Status, &updated, &fetched); err != nil {
			return nil, fmt.Errorf("scan slot track: %w", err)
		}
		if updated != "" {
			if rec.Entry.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
				return nil, fmt.Errorf("parse updated_at: %w", err)
			}
		}
		if rec.FetchedAt, err = time.Parse(timeLayout, fetched); err != nil {
			return nil, fmt.Errorf("parse fetched_at: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slot track: %w", err)
	}
	return out, nil
}
