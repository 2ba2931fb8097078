package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrAssistantUnavailable wraps failures of the completion backend.
var ErrAssistantUnavailable = errors.New("assistant unavailable")

const (
	assistantSystemPrompt = "You are a helpful AI assistant for ChezMoi, a culinary platform connecting chefs with customers. " +
		"Provide helpful, friendly responses about cooking, chef services, and platform features. " +
		"Always respond in the same language as the user's question."
	contextualHelpPrompt = "Generate helpful, contextual assistance for ChezMoi users based on their current page and profile. " +
		"Keep responses concise and actionable."

	assistantNotConfigured = "AI assistant is not available at the moment."
	assistantEmptyAnswer   = "I'm sorry, I couldn't generate a response."
	contextualHelpFallback = "Welcome to ChezMoi! How can I help you today?"

	maxQuestionLength = 2000
)

// Completer turns a system and user prompt into a single reply.
type Completer interface {
	Complete(ctx context.Context, system, user string, maxTokens int64) (string, error)
}

type openAICompleter struct {
	client openai.Client
	model  string
}

// NewOpenAICompleter returns nil when apiKey is empty.
func NewOpenAICompleter(apiKey, model string) Completer {
	if apiKey == "" {
		slog.Info("assistant disabled, OPENAI_API_KEY not set")
		return nil
	}
	return &openAICompleter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *openAICompleter) Complete(ctx context.Context, system, user string, maxTokens int64) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       openai.ChatModel(c.model),
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

type AssistantService struct {
	completer Completer // nil when unconfigured
}

func NewAssistantService(completer Completer) *AssistantService {
	return &AssistantService{completer: completer}
}

func (s *AssistantService) Enabled() bool {
	return s.completer != nil
}

// Answer replies to a free-form question, optionally grounded by page context.
func (s *AssistantService) Answer(ctx context.Context, question, pageContext string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", invalidInput("question is required")
	}
	if len(question) > maxQuestionLength {
		return "", invalidInput("question must be at most %d characters", maxQuestionLength)
	}
	if s.completer == nil {
		return assistantNotConfigured, nil
	}

	prompt := question
	if c := strings.TrimSpace(pageContext); c != "" {
		prompt = fmt.Sprintf("Context: %s\n\nQuestion: %s", c, question)
	}

	answer, err := s.completer.Complete(ctx, assistantSystemPrompt, prompt, 500)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAssistantUnavailable, err)
	}
	if strings.TrimSpace(answer) == "" {
		return assistantEmptyAnswer, nil
	}
	return answer, nil
}

// ContextualHelp suggests next steps for the page the user is on. It never fails.
func (s *AssistantService) ContextualHelp(ctx context.Context, user *model.User, page string) string {
	if s.completer == nil {
		return contextualHelpFallback
	}

	role := "visitor"
	if user != nil {
		role = user.Role
	}
	prompt := fmt.Sprintf("User is on page: %s. User role: %s. Suggest what they can do next.", page, role)

	help, err := s.completer.Complete(ctx, contextualHelpPrompt, prompt, 200)
	if err != nil {
		slog.Warn("contextual help failed", "page", page, "error", err)
		return contextualHelpFallback
	}
	if strings.TrimSpace(help) == "" {
		return contextualHelpFallback
	}
	return help
}
