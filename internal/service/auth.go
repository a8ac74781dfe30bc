package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/sakif/auctions/internal/apperror"
	"github.com/sakif/auctions/internal/auth"
	"github.com/sakif/auctions/internal/model"
	"github.com/sakif/auctions/internal/repository"
)

const MaxUsernameLength = 150

// errBadCredentials is the same for an unknown username and a
// wrong password.
var errBadCredentials = apperror.Unauthenticated("invalid username and/or password")

// AuthService registers accounts and turns credentials into session tokens.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult is a signed-in user and the token for their cookie.
type AuthResult struct {
	User  *model.User
	Token string
}

type RegisterInput struct {
	Username     string
	Email        string
	FirstName    string
	LastName     string
	Password     string
	Confirmation string
}

// Register creates a password account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username, err := validateText("username", in.Username, MaxUsernameLength)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperror.ValidationFailed("email", "email is not a valid address")
	}

	if in.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if in.Password != in.Confirmation {
		return nil, apperror.ValidationFailed("confirmation", "passwords must match")
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: registering %q: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return s.issue(user)
}

// Login checks a username and password and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	// An OAuth-only account has no hash; Verify fails for it like a mismatch.
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed", slog.String("username", user.Username))
		return nil, errBadCredentials
	}

	return s.issue(user)
}

// LoginOrRegisterGitHub upserts the account behind a GitHub profile.
//
// A first-time GitHub user whose login is already taken by a password
// account gets the login suffixed with the GitHub ID instead.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, errors.New("service/auth: GitHub user must not be nil")
	}

	first, last, _ := strings.Cut(strings.TrimSpace(ghUser.Name), " ")
	user := &model.User{
		GitHubID:  &ghUser.ID,
		Username:  ghUser.Login,
		Email:     ghUser.Email,
		FirstName: first,
		LastName:  last,
		AvatarURL: ghUser.AvatarURL,
	}

	err := s.users.UpsertGitHubUser(ctx, user)
	if errors.Is(err, apperror.ErrConflict) {
		user.Username = fmt.Sprintf("%s-%d", ghUser.Login, ghUser.ID)
		err = s.users.UpsertGitHubUser(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return s.issue(user)
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if err := requireUser(id, "see your profile"); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// ValidateToken returns the user ID inside a session token.
func (s *AuthService) ValidateToken(token string) (string, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

// TokenTTL is how long issued tokens (and their cookies) last.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
