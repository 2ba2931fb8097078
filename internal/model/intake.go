package model

import "time"

const (
	JobApplicationStatusNew      = "new"
	JobApplicationStatusReviewed = "reviewed"
)

// JobApplication is an intake record from someone applying to cook on the platform.
type JobApplication struct {
	ID         int64     `db:"id" json:"id"`
	FullName   string    `db:"full_name" json:"fullName"`
	Email      string    `db:"email" json:"email"`
	Phone      string    `db:"phone" json:"phone"`
	City       string    `db:"city" json:"city"`
	Experience string    `db:"experience" json:"experience"`
	Motivation string    `db:"motivation" json:"motivation"`
	CVURL      *string   `db:"cv_url" json:"cvUrl"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// ChefQuiz stores the answers of the "which chef suits you" questionnaire.
type ChefQuiz struct {
	ID        int64     `db:"id" json:"id"`
	UserID    *int64    `db:"user_id" json:"userId"`
	Email     string    `db:"email" json:"email"`
	Answers   string    `db:"answers" json:"answers"` // JSON object
	Score     int       `db:"score" json:"score"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
