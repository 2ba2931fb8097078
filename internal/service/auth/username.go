package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/chezmoi-app/chezmoi/internal/repository"
	"github.com/google/uuid"
)

const maxUsernameLen = 30

// UniqueUsername derives an unused username from the local part of an email.
func UniqueUsername(ctx context.Context, users repository.UserRepository, email string) (string, error) {
	base := usernameBase(email)

	for i := 1; i <= 20; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s%d", base, i)
		}

		existing, err := users.ByUsername(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		if existing == nil {
			return candidate, nil
		}
	}

	return base + "-" + uuid.NewString()[:8], nil
}

func usernameBase(email string) string {
	local, _, _ := strings.Cut(NormalizeEmail(email), "@")

	var b strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}

	base := b.String()
	if len(base) > maxUsernameLen {
		base = base[:maxUsernameLen]
	}
	if base == "" {
		base = "user"
	}
	return base
}
