package service

import (
	"context"
	"errors"
	"testing"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	reply  string
	err    error
	system string
	user   string
}

func (c *stubCompleter) Complete(_ context.Context, system, user string, _ int64) (string, error) {
	c.system, c.user = system, user
	return c.reply, c.err
}

func TestAssistantService_Unconfigured(t *testing.T) {
	assistant := NewAssistantService(NewOpenAICompleter("", "gpt-4o"))
	assert.False(t, assistant.Enabled())

	answer, err := assistant.Answer(context.Background(), "How do I book a chef?", "")
	require.NoError(t, err)
	assert.Equal(t, assistantNotConfigured, answer)

	assert.Equal(t, contextualHelpFallback, assistant.ContextualHelp(context.Background(), nil, "/chefs"))

	_, err = assistant.Answer(context.Background(), "   ", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAssistantService_Answer(t *testing.T) {
	completer := &stubCompleter{reply: "Browse chefs and pick a service."}
	assistant := NewAssistantService(completer)

	answer, err := assistant.Answer(context.Background(), "How do I book?", "booking page")
	require.NoError(t, err)
	assert.Equal(t, "Browse chefs and pick a service.", answer)
	assert.Equal(t, assistantSystemPrompt, completer.system)
	assert.Equal(t, "Context: booking page\n\nQuestion: How do I book?", completer.user)

	completer.reply = ""
	answer, err = assistant.Answer(context.Background(), "Hello?", "")
	require.NoError(t, err)
	assert.Equal(t, assistantEmptyAnswer, answer)
	assert.Equal(t, "Hello?", completer.user)

	completer.err = errors.New("rate limited")
	_, err = assistant.Answer(context.Background(), "Hello?", "")
	assert.ErrorIs(t, err, ErrAssistantUnavailable)
}

func TestAssistantService_ContextualHelp(t *testing.T) {
	completer := &stubCompleter{reply: "Add your first service."}
	assistant := NewAssistantService(completer)

	help := assistant.ContextualHelp(context.Background(), &model.User{Role: model.RoleChef}, "/dashboard")
	assert.Equal(t, "Add your first service.", help)
	assert.Contains(t, completer.user, "chef")

	completer.err = errors.New("timeout")
	assert.Equal(t, contextualHelpFallback, assistant.ContextualHelp(context.Background(), nil, "/dashboard"))
}
