package models

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"campusevents/utils"
)

type sqlUserRepo struct{ db *sql.DB }

func NewSQLUserRepository(db *sql.DB) UserRepository { return &sqlUserRepo{db} }

func (r *sqlUserRepo) Create(ctx context.Context, u *User) error {
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password, full_name, college, phone)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		 RETURNING id, created_at`,
		u.Username, u.Email, u.Password, u.FullName, u.College, u.Phone,
	).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateUser
	}
	return err
}

func (r *sqlUserRepo) ValidateCredentials(ctx context.Context, identifier, plain string) (User, error) {
	u, err := r.scanOne(r.db.QueryRowContext(ctx,
		selectUser+` WHERE username = $1 OR email = $1`, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if !utils.CheckPasswordHash(plain, u.Password) {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (r *sqlUserRepo) ByID(ctx context.Context, id int64) (User, error) {
	u, err := r.scanOne(r.db.QueryRowContext(ctx, selectUser+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *sqlUserRepo) ByIDs(ctx context.Context, ids []int64) (map[int64]User, error) {
	out := make(map[int64]User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, selectUser+` WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		u, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

const selectUser = `SELECT id, username, email, password, full_name, college, phone, created_at FROM users`

type rowScanner interface{ Scan(dest ...any) error }

func (r *sqlUserRepo) scanOne(row rowScanner) (User, error) {
	var u User
	var college, phone sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.FullName,
		&college, &phone, &u.CreatedAt); err != nil {
		return User{}, err
	}
	u.College = college.String
	u.Phone = phone.String
	return u, nil
}

// unique_violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
