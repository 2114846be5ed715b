package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"chat-api/internal/apperr"
	"chat-api/internal/models"
)

// UserRepository abstracts user reads and the username claim.
type UserRepository interface {
	Get(ctx context.Context, id string) (models.User, error)
	Search(ctx context.Context, term, excludeUsername string) ([]models.UserSummary, error)
	ClaimUsername(ctx context.Context, userID, username string) (models.CreateUsernameResult, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Get fetches a user by id.
func (r *UserRepo) Get(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, username, email, image FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.NotFound("user not found")
	}
	return user, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search returns users whose username contains term, case-insensitively,
// excluding the caller.
func (r *UserRepo) Search(ctx context.Context, term, excludeUsername string) ([]models.UserSummary, error) {
	users := []models.UserSummary{}
	query := `SELECT id, username, image FROM users
        WHERE username IS NOT NULL
        AND username ILIKE '%' || $1 || '%'
        AND username <> $2
        ORDER BY username`
	err := r.db.SelectContext(ctx, &users, query, likeEscaper.Replace(term), excludeUsername)
	return users, err
}

// ClaimUsername checks availability and claims the username for the user.
// A taken username is a business rejection, not an error.
func (r *UserRepo) ClaimUsername(ctx context.Context, userID, username string) (models.CreateUsernameResult, error) {
	var existingID string
	err := r.db.GetContext(ctx, &existingID, `SELECT id FROM users WHERE username=$1`, username)
	if err == nil {
		return models.CreateUsernameResult{Error: "Username is Already taken!"}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.CreateUsernameResult{}, err
	}

	res, err := r.db.ExecContext(ctx, `UPDATE users SET username=$1 WHERE id=$2`, username, userID)
	if err != nil {
		return models.CreateUsernameResult{}, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return models.CreateUsernameResult{}, err
	}
	if count == 0 {
		return models.CreateUsernameResult{}, apperr.NotFound("user not found")
	}
	return models.CreateUsernameResult{Success: true}, nil
}
