package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jobhound/jobhound/internal/listing"
)

const StatusApplied = "applied"

// Application is one job the tenant applied to.
type Application struct {
	Key       listing.Key
	Title     string
	Company   string
	Status    string
	Notes     string
	AppliedAt string
}

// Exclude hides the listing from future searches of the tenant. The listing is
// stored first when it was never seen.
func (s *Store) Exclude(ctx context.Context, tenant Tenant, l *listing.Listing, reason string) error {
	return s.withJob(ctx, l, func(q execQuerier, jobID int64, now string) error {
		_, err := q.ExecContext(ctx, `
INSERT INTO excluded_jobs (user_id, job_id, reason, excluded_at) VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, job_id) DO UPDATE SET reason = excluded.reason, excluded_at = excluded.excluded_at;`,
			tenant.UserID, jobID, strings.TrimSpace(reason), now)
		if err != nil {
			return fmt.Errorf("exclude %s: %w", l.Key(), err)
		}
		return nil
	})
}

// RecordApplication marks the listing as applied for the tenant.
func (s *Store) RecordApplication(ctx context.Context, tenant Tenant, l *listing.Listing, notes string) error {
	return s.withJob(ctx, l, func(q execQuerier, jobID int64, now string) error {
		_, err := q.ExecContext(ctx, `
INSERT INTO job_applications (user_id, job_id, status, notes, applied_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, job_id) DO UPDATE SET notes = excluded.notes;`,
			tenant.UserID, jobID, StatusApplied, strings.TrimSpace(notes), now)
		if err != nil {
			return fmt.Errorf("record application %s: %w", l.Key(), err)
		}
		return nil
	})
}

// Hidden returns the keys of every listing the tenant applied to or excluded.
func (s *Store) Hidden(ctx context.Context, tenant Tenant) (map[listing.Key]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT j.source, j.external_id FROM jobs j
JOIN job_applications a ON a.job_id = j.id WHERE a.user_id = ?
UNION
SELECT j.source, j.external_id FROM jobs j
JOIN excluded_jobs e ON e.job_id = j.id WHERE e.user_id = ?;`, tenant.UserID, tenant.UserID)
	if err != nil {
		return nil, fmt.Errorf("query hidden jobs: %w", err)
	}
	defer rows.Close()

	hidden := make(map[listing.Key]struct{})
	for rows.Next() {
		var source, id string
		if err := rows.Scan(&source, &id); err != nil {
			return nil, err
		}
		hidden[listing.Key{Source: listing.Source(source), ExternalID: id}] = struct{}{}
	}

	return hidden, rows.Err()
}

// Applications lists the tenant's applications, newest first.
func (s *Store) Applications(ctx context.Context, tenant Tenant) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT j.source, j.external_id, j.title, j.company, a.status, a.notes, a.applied_at
FROM job_applications a JOIN jobs j ON j.id = a.job_id
WHERE a.user_id = ?
ORDER BY a.applied_at DESC, a.id DESC;`, tenant.UserID)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		var (
			a      Application
			source string
		)
		if err := rows.Scan(&source, &a.Key.ExternalID, &a.Title, &a.Company, &a.Status, &a.Notes, &a.AppliedAt); err != nil {
			return nil, err
		}
		a.Key.Source = listing.Source(source)
		out = append(out, a)
	}

	return out, rows.Err()
}

// DocumentRecord is a generated document to keep alongside its job.
type DocumentRecord struct {
	Kind    string
	Content string
	Model   string
}

// SaveDocument stores a generated document for the tenant.
func (s *Store) SaveDocument(ctx context.Context, tenant Tenant, l *listing.Listing, doc DocumentRecord) error {
	return s.withJob(ctx, l, func(q execQuerier, jobID int64, now string) error {
		_, err := q.ExecContext(ctx, `
INSERT INTO generated_documents (user_id, job_id, document_type, content, ai_model, created_at)
VALUES (?, ?, ?, ?, ?, ?);`, tenant.UserID, jobID, doc.Kind, doc.Content, doc.Model, now)
		if err != nil {
			return fmt.Errorf("save %s document for %s: %w", doc.Kind, l.Key(), err)
		}
		return nil
	})
}

// DocumentCount returns how many documents are stored for the listing.
func (s *Store) DocumentCount(ctx context.Context, tenant Tenant, key listing.Key) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM generated_documents d JOIN jobs j ON j.id = d.job_id
WHERE d.user_id = ? AND j.source = ? AND j.external_id = ?;`,
		tenant.UserID, string(key.Source), key.ExternalID).Scan(&n)
	return n, err
}

func (s *Store) withJob(ctx context.Context, l *listing.Listing, fn func(q execQuerier, jobID int64, now string) error) error {
	if l == nil {
		return fmt.Errorf("nil listing")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := s.timestamp()
	jobID, _, err := upsertJob(ctx, tx, l, now)
	if err != nil {
		return err
	}

	if err := fn(tx, jobID, now); err != nil {
		return err
	}

	return tx.Commit()
}
