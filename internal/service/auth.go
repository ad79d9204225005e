package service

import (
	"context"
	"errors"
	"net/mail"

	"github.com/taskline/taskline-go/internal/crypto"
	"github.com/taskline/taskline-go/internal/model"
	"github.com/taskline/taskline-go/internal/repository"
)

var (
	// ErrInvalidCredentials is returned for both unknown-email and
	// wrong-password logins so the two cases cannot be told apart.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthenticated is returned when a presented token does not resolve
	// to a user, including tokens revoked by logout.
	ErrUnauthenticated = errors.New("unauthenticated")
)

const minPasswordLength = 6

// AuthService handles registration, login and the bearer-token lifecycle.
type AuthService struct {
	users  *repository.UserRepository
	tokens *repository.TokenRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(users *repository.UserRepository, tokens *repository.TokenRepository) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates a new user account and returns a bearer token, so
// registration doubles as the first login. A duplicate email surfaces as a
// field validation error rather than a distinct conflict.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (string, error) {
	ve := model.NewValidationError()
	if req.Name == "" {
		ve.Add("name", "The name field is required.")
	}
	validateEmail(ve, req.Email)
	validatePassword(ve, req.Password)
	if ve.HasErrors() {
		return "", ve
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return "", err
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			ve.Add("email", "The email has already been taken.")
			return "", ve
		}
		return "", err
	}

	return s.Issue(ctx, user.ID)
}

// Login authenticates a user and returns a fresh bearer token. Tokens issued
// earlier stay valid; a user may hold several at once.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (string, error) {
	ve := model.NewValidationError()
	validateEmail(ve, req.Email)
	validatePassword(ve, req.Password)
	if ve.HasErrors() {
		return "", ve
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	match, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return "", err
	}
	if !match {
		return "", ErrInvalidCredentials
	}

	return s.Issue(ctx, user.ID)
}

// Issue creates and persists a new token bound to the user and returns the
// plain value.
func (s *AuthService) Issue(ctx context.Context, userID int64) (string, error) {
	plain, digest, err := crypto.NewToken()
	if err != nil {
		return "", err
	}

	token := &model.Token{UserID: userID, TokenHash: digest}
	if err := s.tokens.Create(ctx, token); err != nil {
		return "", err
	}

	return plain, nil
}

// Resolve maps a presented bearer token to its user. Unknown and revoked
// tokens fail identically with ErrUnauthenticated.
func (s *AuthService) Resolve(ctx context.Context, plain string) (*model.User, error) {
	token, err := s.tokens.GetByHash(ctx, crypto.HashToken(plain))
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	return user, nil
}

// Logout revokes every token the user currently holds, not just the one the
// request presented. In-flight requests that already resolved a token finish;
// nothing resolves after the delete commits.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	_, err := s.tokens.DeleteByUser(ctx, userID)
	return err
}

func validateEmail(ve *model.ValidationError, email string) {
	if email == "" {
		ve.Add("email", "The email field is required.")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		ve.Add("email", "The email must be a valid email address.")
	}
}

func validatePassword(ve *model.ValidationError, password string) {
	if password == "" {
		ve.Add("password", "The password field is required.")
		return
	}
	if len(password) < minPasswordLength {
		ve.Add("password", "The password must be at least 6 characters.")
	}
}
