package service

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	objects map[string]string
}

func (m *memoryStorage) Save(_ context.Context, key string, body io.Reader, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = string(data)
	return nil
}

func (m *memoryStorage) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) PresignedURL(_ context.Context, key string) (string, error) {
	return "https://storage.example.com/" + key, nil
}

func TestIntakeService_JobApplication(t *testing.T) {
	env := newTestEnv(t)
	store := &memoryStorage{objects: make(map[string]string)}
	intake := NewIntakeService(env.store.JobApplications, env.store.ChefQuizzes, store, env.email)

	in := JobApplicationInput{FullName: "Auguste Escoffier", Email: "Auguste@Example.com", City: "Nice", Experience: "40 years"}
	app, err := intake.SubmitJobApplication(env.ctx, in, &Upload{Filename: "CV.PDF", ContentType: "application/pdf", Body: strings.NewReader("%PDF-1.7")})
	require.NoError(t, err)
	assert.Equal(t, "auguste@example.com", app.Email)
	require.NotNil(t, app.CVURL)
	assert.True(t, strings.HasPrefix(*app.CVURL, "cv/"))
	assert.True(t, strings.HasSuffix(*app.CVURL, ".pdf"))
	assert.Equal(t, "%PDF-1.7", store.objects[*app.CVURL])

	withoutStorage := NewIntakeService(env.store.JobApplications, env.store.ChefQuizzes, nil, env.email)
	app, err = withoutStorage.SubmitJobApplication(env.ctx, in, &Upload{Filename: "cv.pdf", Body: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Nil(t, app.CVURL)

	_, err = intake.SubmitJobApplication(env.ctx, JobApplicationInput{FullName: "No Mail"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = intake.SubmitJobApplication(env.ctx, JobApplicationInput{Email: "anon@example.com"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIntakeService_ChefQuiz(t *testing.T) {
	env := newTestEnv(t)
	intake := NewIntakeService(env.store.JobApplications, env.store.ChefQuizzes, nil, env.email)
	user := env.user(t)

	quiz, err := intake.SubmitChefQuiz(env.ctx, user, ChefQuizInput{Answers: map[string]string{
		"cuisine":  "japanese",
		"occasion": "birthday",
		"budget":   " ",
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, quiz.Score)
	assert.Equal(t, user.Email, quiz.Email)
	require.NotNil(t, quiz.UserID)
	assert.Equal(t, user.ID, *quiz.UserID)

	var answers map[string]string
	require.NoError(t, json.Unmarshal([]byte(quiz.Answers), &answers))
	assert.Equal(t, "japanese", answers["cuisine"])

	anonymous, err := intake.SubmitChefQuiz(env.ctx, nil, ChefQuizInput{Email: "guest@example.com", Answers: map[string]string{"cuisine": "thai"}})
	require.NoError(t, err)
	assert.Nil(t, anonymous.UserID)

	_, err = intake.SubmitChefQuiz(env.ctx, nil, ChefQuizInput{Answers: map[string]string{"cuisine": "thai"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = intake.SubmitChefQuiz(env.ctx, user, ChefQuizInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
