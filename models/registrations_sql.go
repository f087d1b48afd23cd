package models

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

type sqlRegistrationRepo struct{ db *sql.DB }

func NewSQLRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &sqlRegistrationRepo{db}
}

// Register inserts the row with payment_status already completed (payment is
// simulated client-side). UNIQUE(user_id, event_id) rejects duplicates; the
// loser of a concurrent race sees ErrAlreadyRegistered, not a server error.
func (r *sqlRegistrationRepo) Register(ctx context.Context, userID int64, eventID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO registrations (user_id, event_id, payment_status) VALUES ($1, $2, 'completed')`,
		userID, eventID)
	if isUniqueViolation(err) {
		return ErrAlreadyRegistered
	}
	return err
}

func (r *sqlRegistrationRepo) Cancel(ctx context.Context, userID int64, eventID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM registrations WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotRegistered
	}
	return nil
}

// CountByEvent returns the derived participant count per event. Events with
// no registrations are simply absent from the map.
func (r *sqlRegistrationRepo) CountByEvent(ctx context.Context, eventIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id, COUNT(*) FROM registrations
		 WHERE event_id = ANY($1::uuid[]) GROUP BY event_id`, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (r *sqlRegistrationRepo) ParticipantsByEvent(ctx context.Context, eventID string) ([]Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.username, u.email, r.registered_at
		 FROM registrations r JOIN users u ON r.user_id = u.id
		 WHERE r.event_id = $1
		 ORDER BY r.registered_at ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Participant{}
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.Username, &p.Email, &p.RegisteredAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *sqlRegistrationRepo) ByUser(ctx context.Context, userID int64) ([]Registration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, event_id, payment_status, registered_at
		 FROM registrations WHERE user_id = $1
		 ORDER BY registered_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Registration{}
	for rows.Next() {
		var reg Registration
		if err := rows.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.PaymentStatus, &reg.RegisteredAt); err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func (r *sqlRegistrationRepo) DeleteByEvent(ctx context.Context, eventID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE event_id = $1`, eventID)
	return err
}
