package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/jmoiron/sqlx"
)

const jobApplicationColumns = "id, full_name, email, phone, city, experience, motivation, cv_url, status, created_at"

type JobApplicationRepository interface {
	Create(ctx context.Context, app *model.JobApplication) (*model.JobApplication, error)
	ByID(ctx context.Context, id int64) (*model.JobApplication, error)
}

type jobApplicationRepository struct {
	db *sqlx.DB
}

func NewJobApplicationRepository(db *sqlx.DB) JobApplicationRepository {
	return &jobApplicationRepository{db: db}
}

func (r *jobApplicationRepository) Create(ctx context.Context, app *model.JobApplication) (*model.JobApplication, error) {
	if app.Status == "" {
		app.Status = model.JobApplicationStatusNew
	}

	query := `INSERT INTO job_applications (full_name, email, phone, city, experience, motivation, cv_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + jobApplicationColumns

	created := &model.JobApplication{}
	err := r.db.GetContext(ctx, created, query,
		app.FullName, app.Email, app.Phone, app.City, app.Experience, app.Motivation, app.CVURL,
		app.Status, time.Now().UTC())
	if err != nil {
		return nil, storeError("create job application", err)
	}

	return created, nil
}

func (r *jobApplicationRepository) ByID(ctx context.Context, id int64) (*model.JobApplication, error) {
	app := &model.JobApplication{}
	err := r.db.GetContext(ctx, app, `SELECT `+jobApplicationColumns+` FROM job_applications WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("job application by id", err)
	}

	return app, nil
}

const chefQuizColumns = "id, user_id, email, answers, score, created_at"

type ChefQuizRepository interface {
	Create(ctx context.Context, quiz *model.ChefQuiz) (*model.ChefQuiz, error)
}

type chefQuizRepository struct {
	db *sqlx.DB
}

func NewChefQuizRepository(db *sqlx.DB) ChefQuizRepository {
	return &chefQuizRepository{db: db}
}

func (r *chefQuizRepository) Create(ctx context.Context, quiz *model.ChefQuiz) (*model.ChefQuiz, error) {
	query := `INSERT INTO chef_quizzes (user_id, email, answers, score, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + chefQuizColumns

	created := &model.ChefQuiz{}
	err := r.db.GetContext(ctx, created, query, quiz.UserID, quiz.Email, quiz.Answers, quiz.Score, time.Now().UTC())
	if err != nil {
		return nil, storeError("create chef quiz", err)
	}

	return created, nil
}
