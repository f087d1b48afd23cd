package models

import (
	"context"
	"database/sql"
)

type sqlDiscussionRepo struct{ db *sql.DB }

func NewSQLDiscussionRepository(db *sql.DB) DiscussionRepository {
	return &sqlDiscussionRepo{db}
}

func (r *sqlDiscussionRepo) Post(ctx context.Context, d *Discussion) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO discussions (event_id, user_id, message) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		d.EventID, d.UserID, d.Message,
	).Scan(&d.ID, &d.CreatedAt)
}

func (r *sqlDiscussionRepo) ListByEvent(ctx context.Context, eventID string) ([]Discussion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT d.id, d.event_id, d.user_id, d.message, d.created_at, u.username, u.full_name
		 FROM discussions d JOIN users u ON d.user_id = u.id
		 WHERE d.event_id = $1
		 ORDER BY d.created_at ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Discussion{}
	for rows.Next() {
		var d Discussion
		if err := rows.Scan(&d.ID, &d.EventID, &d.UserID, &d.Message, &d.CreatedAt,
			&d.Username, &d.FullName); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *sqlDiscussionRepo) DeleteByEvent(ctx context.Context, eventID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM discussions WHERE event_id = $1`, eventID)
	return err
}
