package model

import "time"

// Token is a persisted opaque bearer token bound to one user. Only the
// SHA-256 digest of the token value is stored; the plain value is returned
// to the client once and never kept.
type Token struct {
	ID        int64
	UserID    int64
	TokenHash string
	CreatedAt time.Time
}
