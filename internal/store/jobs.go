package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jobhound/jobhound/internal/listing"
)

// UpsertStats counts what one UpsertListings call did.
type UpsertStats struct {
	Inserted int
	Updated  int
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UpsertListings stores listings keyed by (external_id, source). Existing rows get
// their mutable columns and last_seen_at refreshed, so repeated calls are idempotent.
func (s *Store) UpsertListings(ctx context.Context, items []*listing.Listing) (UpsertStats, error) {
	var stats UpsertStats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, err
	}
	defer func() { _ = tx.Rollback() }()

	now := s.timestamp()
	for _, item := range items {
		if item == nil {
			continue
		}
		_, inserted, err := upsertJob(ctx, tx, item, now)
		if err != nil {
			return UpsertStats{}, err
		}
		if inserted {
			stats.Inserted++
		} else {
			stats.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return UpsertStats{}, fmt.Errorf("commit listings: %w", err)
	}

	return stats, nil
}

func upsertJob(ctx context.Context, q execQuerier, item *listing.Listing, now string) (id int64, inserted bool, err error) {
	key := item.Key()

	err = q.QueryRowContext(ctx, `SELECT id FROM jobs WHERE external_id = ? AND source = ?;`,
		key.ExternalID, string(key.Source)).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := q.ExecContext(ctx, `
INSERT INTO jobs (external_id, source, title, company, location, description, salary, url, posted_date, match_score, first_seen_at, last_seen_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			key.ExternalID, string(key.Source), item.Title, item.Company, item.Location, item.Description,
			item.Salary, item.URL, item.PostedDate, item.MatchScore, now, now,
		)
		if err != nil {
			return 0, false, fmt.Errorf("insert job %s: %w", key, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, false, err
		}
		return id, true, nil
	case err != nil:
		return 0, false, fmt.Errorf("lookup job %s: %w", key, err)
	}

	if _, err := q.ExecContext(ctx, `
UPDATE jobs SET title = ?, company = ?, location = ?, description = ?, salary = ?, url = ?,
  posted_date = ?, match_score = COALESCE(?, match_score), is_active = 1, last_seen_at = ?
WHERE id = ?;`,
		item.Title, item.Company, item.Location, item.Description, item.Salary, item.URL,
		item.PostedDate, item.MatchScore, now, id,
	); err != nil {
		return 0, false, fmt.Errorf("update job %s: %w", key, err)
	}

	return id, false, nil
}

// Job loads a stored listing by key.
func (s *Store) Job(ctx context.Context, key listing.Key) (*listing.Listing, error) {
	var (
		l      listing.Listing
		source string
		salary sql.NullString
		score  sql.NullFloat64
	)

	err := s.db.QueryRowContext(ctx, `
SELECT external_id, source, title, company, location, description, salary, url, posted_date, match_score
FROM jobs WHERE external_id = ? AND source = ?;`, key.ExternalID, string(key.Source)).Scan(
		&l.ExternalID, &source, &l.Title, &l.Company, &l.Location, &l.Description, &salary, &l.URL, &l.PostedDate, &score,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", key, err)
	}

	l.Source = listing.Source(source)
	if salary.Valid {
		l.Salary = &salary.String
	}
	if score.Valid {
		l.SetScore(score.Float64)
	}

	return &l, nil
}
