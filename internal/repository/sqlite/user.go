package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/auctions/internal/apperror"
	"github.com/sakif/auctions/internal/model"
	"github.com/sakif/auctions/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, first_name, last_name, password_hash,
	github_id, avatar_url, created_at, updated_at`

// CreateUser inserts a new account and fills in ID and timestamps.
//
// Username and email are both UNIQUE. We don't pre-check them: the insert
// either succeeds or fails with a constraint error, and checking first
// would leave a window for two registrations to race.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		nullString(user.Email),
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		githubIDValue(user.GitHubID),
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ConflictMessage("username and/or email is already taken")
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// GetUserByID returns apperror.ErrNotFound if no user has that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByUsername is used by password login.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}
	return u, nil
}

// UpsertGitHubUser creates or refreshes the account tied to a GitHub ID.
//
// The lookup and the write share one transaction, so a user who double-
// clicks "Sign in with GitHub" still ends up with a single row. On update
// the internal ID and CreatedAt are kept; profile fields are refreshed.
func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return fmt.Errorf("sqlite: upserting GitHub user %q: missing GitHub ID", user.Username)
	}

	return db.inTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanUser(tx.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE github_id = ?`, *user.GitHubID))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("sqlite: looking up user by github_id %d: %w", *user.GitHubID, err)
		}

		now := time.Now()
		if existing != nil {
			user.ID = existing.ID
			user.Username = existing.Username // usernames don't follow GitHub renames
			user.FirstName = existing.FirstName
			user.LastName = existing.LastName
			user.PasswordHash = existing.PasswordHash
			user.CreatedAt = existing.CreatedAt
			user.UpdatedAt = now
			_, err = tx.ExecContext(ctx,
				`UPDATE users SET email = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
				nullString(user.Email), user.AvatarURL, user.UpdatedAt, user.ID,
			)
			if err != nil {
				if isUniqueViolation(err) {
					return apperror.ConflictMessage("email is already taken")
				}
				return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
			}
			return nil
		}

		user.ID = xid.New().String()
		user.CreatedAt = now
		user.UpdatedAt = now
		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (`+userColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			user.ID,
			user.Username,
			nullString(user.Email),
			user.FirstName,
			user.LastName,
			user.PasswordHash,
			*user.GitHubID,
			user.AvatarURL,
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.ConflictMessage("username and/or email is already taken")
			}
			return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", *user.GitHubID, err)
		}
		return nil
	})
}

// scanUser reads one row selected with userColumns.
func scanUser(row scanner) (*model.User, error) {
	var (
		u        model.User
		email    sql.NullString
		githubID sql.NullInt64
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&email,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&githubID,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	if githubID.Valid {
		id := githubID.Int64
		u.GitHubID = &id
	}
	return &u, nil
}

func githubIDValue(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
