package models

import (
	"context"
	"database/sql"
)

// Notifications have no write path in this system; rows arrive out of band.
type sqlNotificationRepo struct{ db *sql.DB }

func NewSQLNotificationRepository(db *sql.DB) NotificationRepository {
	return &sqlNotificationRepo{db}
}

func (r *sqlNotificationRepo) ListByUser(ctx context.Context, userID int64) ([]Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, message, is_read, created_at
		 FROM notifications WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
