package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mangawatch/internal/domain/schedule"
)

var _ schedule.Repo = (*ScheduleRepoImpl)(nil)

type ScheduleRepoImpl struct {
	db *DB
}

func NewScheduleRepo(db *DB) *ScheduleRepoImpl { return &ScheduleRepoImpl{db: db} }

const (
	qScheduleInsert = `
INSERT INTO schedules (kind, fire_at, cron_expr, title, description, created_by, targets)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
RETURNING id, created_at;
`

	qScheduleGet = `
SELECT id, kind, fire_at, COALESCE(cron_expr, ''), title, description, created_by, targets, created_at
FROM schedules
WHERE id = $1;
`

	qScheduleList = `
SELECT id, kind, fire_at, COALESCE(cron_expr, ''), title, description, created_by, targets, created_at
FROM schedules
ORDER BY id;
`

	qScheduleDelete = `DELETE FROM schedules WHERE id = $1;`
)

func scanSchedule(row pgx.Row, d *schedule.Definition) error {
	var rawTargets []byte
	if err := row.Scan(
		&d.ID,
		&d.Kind,
		&d.FireAt,
		&d.CronExpr,
		&d.Title,
		&d.Description,
		&d.CreatedBy,
		&rawTargets,
		&d.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan schedule: %w", err)
	}
	ts, err := targetsFromJSON(rawTargets)
	if err != nil {
		return err
	}
	d.Targets = ts
	return nil
}

func (r *ScheduleRepoImpl) Create(ctx context.Context, d *schedule.Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rawTargets, err := targetsToJSON(d.Targets)
	if err != nil {
		return err
	}
	row := r.db.Pool.QueryRow(ctx, qScheduleInsert,
		d.Kind, d.FireAt, d.CronExpr, d.Title, d.Description, d.CreatedBy, rawTargets)
	if err := row.Scan(&d.ID, &d.CreatedAt); err != nil {
		return fmt.Errorf("insert schedule: %w", mapPgError(err))
	}
	return nil
}

func (r *ScheduleRepoImpl) GetByID(ctx context.Context, id int64) (*schedule.Definition, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var d schedule.Definition
	if err := scanSchedule(r.db.Pool.QueryRow(ctx, qScheduleGet, id), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *ScheduleRepoImpl) List(ctx context.Context) ([]*schedule.Definition, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qScheduleList)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var out []*schedule.Definition
	for rows.Next() {
		var d schedule.Definition
		if err := scanSchedule(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *ScheduleRepoImpl) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qScheduleDelete, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
