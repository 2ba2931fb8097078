package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/jmoiron/sqlx"
)

const sessionColumns = "id, token, user_id, data, expires_at, created_at"

// SessionRepository stores sessions as-is; expiry is evaluated by the caller.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) (*model.Session, error)
	ByToken(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, token string) (bool, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) (*model.Session, error) {
	query := `INSERT INTO sessions (token, user_id, data, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + sessionColumns

	created := &model.Session{}
	err := r.db.GetContext(ctx, created, query,
		session.Token, session.UserID, session.Data, session.ExpiresAt.UTC(), time.Now().UTC())
	if err != nil {
		return nil, storeError("create session", err)
	}

	return created, nil
}

func (r *sessionRepository) ByToken(ctx context.Context, token string) (*model.Session, error) {
	session := &model.Session{}
	err := r.db.GetContext(ctx, session, `SELECT `+sessionColumns+` FROM sessions WHERE token = $1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("session by token", err)
	}

	return session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, token string) (bool, error) {
	n, err := r.exec(ctx, "delete session", `DELETE FROM sessions WHERE token = $1`, token)
	return n > 0, err
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	return r.exec(ctx, "delete user sessions", `DELETE FROM sessions WHERE user_id = $1`, userID)
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.exec(ctx, "delete expired sessions", `DELETE FROM sessions WHERE expires_at <= $1`, now.UTC())
}

func (r *sessionRepository) exec(ctx context.Context, op, query string, arg any) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, storeError(op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, storeError(op, err)
	}

	return rows, nil
}
