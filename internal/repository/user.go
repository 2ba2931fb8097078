package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/jmoiron/sqlx"
)

var userColumnList = []string{
	"id", "email", "username", "password_hash", "full_name", "profile_image_url",
	"google_id", "role", "is_verified", "created_at", "updated_at",
}

var userColumns = strings.Join(userColumnList, ", ")

// UserRepository reads return (nil, nil) when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByUsername(ctx context.Context, username string) (*model.User, error)
	ByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	Update(ctx context.Context, id int64, patch model.UserUpdate) (*model.User, error)
	Count(ctx context.Context) (int, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now().UTC()
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	query := `INSERT INTO users (email, username, password_hash, full_name, profile_image_url, google_id, role, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + userColumns

	created := &model.User{}
	err := r.db.GetContext(ctx, created, query,
		user.Email, user.Username, user.PasswordHash, user.FullName, user.ProfileImageURL,
		user.GoogleID, user.Role, user.IsVerified, now, now)
	if err != nil {
		return nil, storeError("create user", err)
	}

	return created, nil
}

func (r *userRepository) ByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, "user by id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "user by email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepository) ByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, "user by username", `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepository) ByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return r.getOne(ctx, "user by google id", `SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID)
}

func (r *userRepository) getOne(ctx context.Context, op, query string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.GetContext(ctx, user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(op, err)
	}

	return user, nil
}

// Update applies the non-nil fields of patch and returns the updated row,
// or (nil, nil) when the user does not exist.
func (r *userRepository) Update(ctx context.Context, id int64, patch model.UserUpdate) (*model.User, error) {
	set := &setClause{}
	setIf(set, "email", patch.Email)
	setIf(set, "username", patch.Username)
	setIf(set, "password_hash", patch.PasswordHash)
	setIf(set, "full_name", patch.FullName)
	setIf(set, "profile_image_url", patch.ProfileImageURL)
	setIf(set, "google_id", patch.GoogleID)
	setIf(set, "role", patch.Role)
	setIf(set, "is_verified", patch.IsVerified)
	if set.empty() {
		return r.ByID(ctx, id)
	}
	set.add("updated_at", time.Now().UTC())

	query := r.db.Rebind(`UPDATE users SET ` + set.String() + ` WHERE id = ? RETURNING ` + userColumns)
	args := append(set.args, id)

	user := &model.User{}
	err := r.db.GetContext(ctx, user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("update user", err)
	}

	return user, nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	if err != nil {
		return 0, storeError("count users", err)
	}
	return n, nil
}
