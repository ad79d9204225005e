package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/taskline/taskline-go/internal/model"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenRepository handles persistence of opaque bearer tokens. Rows hold only
// token digests; resolution always goes through the digest.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create inserts a new token row and sets the generated ID on the token struct.
func (r *TokenRepository) Create(ctx context.Context, token *model.Token) error {
	query := `INSERT INTO tokens (user_id, token_hash) VALUES (?, ?)`

	result, err := r.db.ExecContext(ctx, query, token.UserID, token.TokenHash)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	token.ID = id
	return nil
}

// GetByHash retrieves a token row by its digest. Tokens have no expiry; a row
// is valid until deleted.
func (r *TokenRepository) GetByHash(ctx context.Context, hash string) (*model.Token, error) {
	query := `SELECT id, user_id, token_hash, created_at FROM tokens WHERE token_hash = ?`

	token := &model.Token{}
	err := r.db.QueryRowContext(ctx, query, hash).Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	return token, nil
}

// DeleteByUser removes every token held by a user in a single statement, so
// revocation is atomic with respect to the store. Returns the number of
// tokens revoked.
func (r *TokenRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
