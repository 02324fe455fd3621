package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"lovelink/pkg/bonus"
	"lovelink/pkg/relationship"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS relationships (
	id TEXT PRIMARY KEY,
	intimacy_level INTEGER NOT NULL DEFAULT 0,
	total_date_count INTEGER NOT NULL DEFAULT 0,
	unlocked_infinite_mode INTEGER NOT NULL DEFAULT 0,
	infinite_date_count INTEGER NOT NULL DEFAULT 0,
	reset_epoch INTEGER NOT NULL DEFAULT 0,
	last_updated INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS login_bonus (
	profile_id TEXT PRIMARY KEY,
	day INTEGER NOT NULL DEFAULT 0,
	streak INTEGER NOT NULL DEFAULT 0,
	last_login_date INTEGER NOT NULL DEFAULT 0
);
`

// Store is the on-device copy of profiles and login streaks. It is the
// authoritative source when the remote store is unreachable.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the SQLite file at path and applies the schema
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadProfile returns the saved profile; false when none is saved
func (s *Store) LoadProfile(ctx context.Context, id string) (relationship.Profile, bool, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT intimacy_level, total_date_count, unlocked_infinite_mode, infinite_date_count, reset_epoch, last_updated
FROM relationships WHERE id = ?
`, id)

	p := relationship.Profile{ID: id}
	var unlocked int
	var updated int64
	err := row.Scan(&p.IntimacyScore, &p.TotalDateCount, &unlocked, &p.InfiniteDateCount, &p.ResetEpoch, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return relationship.Profile{}, false, nil
	}
	if err != nil {
		return relationship.Profile{}, false, fmt.Errorf("load profile %s: %w", id, err)
	}
	p.InfiniteModeUnlocked = unlocked != 0
	if updated > 0 {
		p.UpdatedAt = time.UnixMilli(updated)
	}
	return p, true, nil
}

// SaveProfile upserts the profile
func (s *Store) SaveProfile(ctx context.Context, p relationship.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO relationships (id, intimacy_level, total_date_count, unlocked_infinite_mode, infinite_date_count, reset_epoch, last_updated)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	intimacy_level = excluded.intimacy_level,
	total_date_count = excluded.total_date_count,
	unlocked_infinite_mode = excluded.unlocked_infinite_mode,
	infinite_date_count = excluded.infinite_date_count,
	reset_epoch = excluded.reset_epoch,
	last_updated = excluded.last_updated
`,
		p.ID,
		p.IntimacyScore,
		p.TotalDateCount,
		boolInt(p.InfiniteModeUnlocked),
		p.InfiniteDateCount,
		p.ResetEpoch,
		unixMilli(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.ID, err)
	}
	return nil
}

// LoadLoginRecord returns the saved streak, or a zero record
func (s *Store) LoadLoginRecord(ctx context.Context, profileID string) (bonus.Record, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT day, streak, last_login_date FROM login_bonus WHERE profile_id = ?
`, profileID)

	var r bonus.Record
	var last int64
	err := row.Scan(&r.Day, &r.Streak, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return bonus.Record{}, nil
	}
	if err != nil {
		return bonus.Record{}, fmt.Errorf("load login record %s: %w", profileID, err)
	}
	if last > 0 {
		r.LastLoginDate = time.UnixMilli(last)
	}
	return r, nil
}

// SaveLoginRecord upserts the streak record
func (s *Store) SaveLoginRecord(ctx context.Context, profileID string, r bonus.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO login_bonus (profile_id, day, streak, last_login_date)
VALUES (?, ?, ?, ?)
ON CONFLICT(profile_id) DO UPDATE SET
	day = excluded.day,
	streak = excluded.streak,
	last_login_date = excluded.last_login_date
`,
		profileID,
		r.Day,
		r.Streak,
		unixMilli(r.LastLoginDate),
	)
	if err != nil {
		return fmt.Errorf("save login record %s: %w", profileID, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}
