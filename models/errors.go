package models

import "errors"

// Domain errors. Storage-native failure codes (Postgres 23505, Mongo
// ErrNoDocuments) are translated into these at the repository boundary; the
// gateway maps them onto HTTP statuses.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateUser      = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("already registered for this event")
	ErrNotRegistered      = errors.New("not registered for this event")
)
