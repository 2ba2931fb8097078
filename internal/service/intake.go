package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/repository"
	"github.com/chezmoi-app/chezmoi/internal/service/auth"
	"github.com/chezmoi-app/chezmoi/internal/storage"
	"github.com/chezmoi-app/chezmoi/internal/validation"
	"github.com/google/uuid"
)

type JobApplicationInput struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	Experience string `json:"experience"`
	Motivation string `json:"motivation"`
}

// Upload is an attached document read from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type ChefQuizInput struct {
	Email   string            `json:"email"`
	Answers map[string]string `json:"answers"`
}

type IntakeService struct {
	applications repository.JobApplicationRepository
	quizzes      repository.ChefQuizRepository
	storage      storage.Storage // nil disables CV uploads
	emailService *EmailService
}

func NewIntakeService(applications repository.JobApplicationRepository, quizzes repository.ChefQuizRepository, store storage.Storage, emailService *EmailService) *IntakeService {
	return &IntakeService{
		applications: applications,
		quizzes:      quizzes,
		storage:      store,
		emailService: emailService,
	}
}

// SubmitJobApplication records an application. The CV, when given, is kept
// in object storage and the application stores its object key.
func (s *IntakeService) SubmitJobApplication(ctx context.Context, in JobApplicationInput, cv *Upload) (*model.JobApplication, error) {
	in.Email = auth.NormalizeEmail(in.Email)
	err := validation.ValidateEmail(in.Email)
	if err != nil {
		return nil, invalidInput("%s", err.Error())
	}
	err = validation.ValidateName(in.FullName)
	if err != nil {
		return nil, invalidInput("%s", err.Error())
	}

	app := &model.JobApplication{
		FullName:   strings.TrimSpace(in.FullName),
		Email:      in.Email,
		Phone:      strings.TrimSpace(in.Phone),
		City:       strings.TrimSpace(in.City),
		Experience: strings.TrimSpace(in.Experience),
		Motivation: strings.TrimSpace(in.Motivation),
	}

	if cv != nil {
		key, err := s.storeCV(ctx, cv)
		if err != nil {
			return nil, err
		}
		if key != "" {
			app.CVURL = &key
		}
	}

	created, err := s.applications.Create(ctx, app)
	if err != nil {
		return nil, err
	}

	slog.Info("job application received", "application_id", created.ID, "has_cv", created.CVURL != nil)

	err = s.emailService.SendJobApplicationReceived(ctx, created.Email, created.FullName)
	if err != nil {
		slog.Error("failed to send job application email", "application_id", created.ID, "error", err)
	}
	return created, nil
}

func (s *IntakeService) storeCV(ctx context.Context, cv *Upload) (string, error) {
	if s.storage == nil {
		slog.Warn("CV upload skipped, object storage not configured", "filename", cv.Filename)
		return "", nil
	}

	ext := strings.ToLower(filepath.Ext(cv.Filename))
	key := "cv/" + uuid.NewString() + ext

	err := s.storage.Save(ctx, key, cv.Body, cv.ContentType)
	if err != nil {
		return "", fmt.Errorf("store CV: %w", err)
	}
	return key, nil
}

// SubmitChefQuiz stores the answers; the score is the number of answered questions.
func (s *IntakeService) SubmitChefQuiz(ctx context.Context, user *model.User, in ChefQuizInput) (*model.ChefQuiz, error) {
	email := auth.NormalizeEmail(in.Email)
	if email == "" && user != nil {
		email = user.Email
	}
	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, invalidInput("%s", err.Error())
	}
	if len(in.Answers) == 0 {
		return nil, invalidInput("answers are required")
	}

	score := 0
	for _, answer := range in.Answers {
		if strings.TrimSpace(answer) != "" {
			score++
		}
	}

	answers, err := json.Marshal(in.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode quiz answers: %w", err)
	}

	quiz := &model.ChefQuiz{
		Email:   email,
		Answers: string(answers),
		Score:   score,
	}
	if user != nil {
		quiz.UserID = &user.ID
	}

	return s.quizzes.Create(ctx, quiz)
}
