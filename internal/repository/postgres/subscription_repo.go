package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mangawatch/internal/domain/subscription"
)

var _ subscription.Repo = (*SubscriptionRepoImpl)(nil)

type SubscriptionRepoImpl struct {
	db *DB
}

func NewSubscriptionRepo(db *DB) *SubscriptionRepoImpl { return &SubscriptionRepoImpl{db: db} }

const (
	qSubInsert = `
INSERT INTO subscriptions (series_key, title, cover_url, last_chapter, targets)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at;
`

	qSubList = `
SELECT id, series_key, title, cover_url, last_chapter, targets, created_at, updated_at
FROM subscriptions
ORDER BY series_key, id;
`

	// last_chapter is monotonic: a write that does not raise it is a no-op.
	qSubBumpChapter = `
UPDATE subscriptions
SET last_chapter = $2, updated_at = now()
WHERE id = $1 AND last_chapter < $2;
`

	qSubDelete = `DELETE FROM subscriptions WHERE id = $1;`
)

func scanSubscription(row pgx.Row, s *subscription.Subscription) error {
	var rawTargets []byte
	if err := row.Scan(
		&s.ID,
		&s.SeriesKey,
		&s.Title,
		&s.CoverURL,
		&s.LastChapter,
		&rawTargets,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan subscription: %w", err)
	}
	ts, err := targetsFromJSON(rawTargets)
	if err != nil {
		return err
	}
	s.Targets = ts
	return nil
}

func (r *SubscriptionRepoImpl) Create(ctx context.Context, s *subscription.Subscription) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rawTargets, err := targetsToJSON(s.Targets)
	if err != nil {
		return err
	}
	row := r.db.Pool.QueryRow(ctx, qSubInsert,
		s.SeriesKey, s.Title, s.CoverURL, s.LastChapter, rawTargets)
	if err := row.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return fmt.Errorf("insert subscription: %w", mapPgError(err))
	}
	return nil
}

func (r *SubscriptionRepoImpl) List(ctx context.Context) ([]*subscription.Subscription, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qSubList)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var out []*subscription.Subscription
	for rows.Next() {
		var s subscription.Subscription
		if err := scanSubscription(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *SubscriptionRepoImpl) UpdateLastChapter(ctx context.Context, id int64, chapter int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qSubBumpChapter, id, chapter); err != nil {
		return fmt.Errorf("bump last_chapter: %w", err)
	}
	return nil
}

func (r *SubscriptionRepoImpl) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qSubDelete, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
