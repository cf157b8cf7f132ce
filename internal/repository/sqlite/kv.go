package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/prompt-cards/internal/apperror"
	"github.com/sakif/prompt-cards/internal/repository"
)

// compile-time checks
var (
	_ repository.Storage       = (*ProfileStorage)(nil)
	_ repository.ProfileLister = (*DB)(nil)
)

// ProfileStorage is the blob storage of a single browser profile.
// Every query is filtered by profileID, so two profiles never see each other's keys.
type ProfileStorage struct {
	db        *DB
	profileID string
}

// Profile returns the storage scoped to one browser profile.
// No row is written until the first Put.
func (db *DB) Profile(profileID string) *ProfileStorage {
	return &ProfileStorage{db: db, profileID: profileID}
}

// ID returns the profile this storage is scoped to.
func (p *ProfileStorage) ID() string {
	return p.profileID
}

// Get returns the blob stored under key.
// Returns apperror.ErrNotFound if the key has never been written or was deleted.
func (p *ProfileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := p.db.conn.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE profile_id = ? AND key = ?`,
		p.profileID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("key", key)
		}
		return nil, fmt.Errorf("sqlite: reading %s/%s: %w", p.profileID, key, err)
	}
	return []byte(value), nil
}

// Put writes value under key, replacing any previous value.
//
// UPSERT:
// ON CONFLICT ... DO UPDATE keeps the row in place instead of deleting and
// re-inserting it the way INSERT OR REPLACE would.
func (p *ProfileStorage) Put(ctx context.Context, key string, value []byte) error {
	_, err := p.db.conn.ExecContext(ctx,
		`INSERT INTO kv (profile_id, key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(profile_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		p.profileID, key, string(value), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing %s/%s: %w", p.profileID, key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (p *ProfileStorage) Delete(ctx context.Context, key string) error {
	_, err := p.db.conn.ExecContext(ctx,
		`DELETE FROM kv WHERE profile_id = ? AND key = ?`,
		p.profileID, key,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting %s/%s: %w", p.profileID, key, err)
	}
	return nil
}

// Profiles lists every profile that has at least one stored key,
// most recently updated first.
//
// ALWAYS CLOSE ROWS:
// sql.Rows holds the (only) connection until it is closed, so the
// defer rows.Close() right after the error check is not optional.
func (db *DB) Profiles(ctx context.Context) ([]repository.ProfileSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT profile_id, COUNT(*), MAX(updated_at)
		 FROM kv
		 GROUP BY profile_id
		 ORDER BY MAX(updated_at) DESC, profile_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing profiles: %w", err)
	}
	defer rows.Close()

	var profiles []repository.ProfileSummary
	for rows.Next() {
		var (
			summary   repository.ProfileSummary
			updatedMs int64
		)
		if err := rows.Scan(&summary.ID, &summary.Keys, &updatedMs); err != nil {
			return nil, fmt.Errorf("sqlite: scanning profile row: %w", err)
		}
		summary.UpdatedAt = time.UnixMilli(updatedMs)
		profiles = append(profiles, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating profiles: %w", err)
	}
	return profiles, nil
}
