// Package auth resolves credentials to users. Each strategy verifies one kind of
// credential; sessions are issued by the caller.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/chezmoi-app/chezmoi/internal/model"
)

var (
	// ErrInvalidCredentials covers every verification failure: unknown account,
	// wrong password, account without a password, mismatched provider.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownStrategy    = errors.New("unknown authentication strategy")
)

// Credentials is implemented only by the types in this package.
type Credentials interface {
	credentials()
}

// LocalCredentials is an email and password pair.
type LocalCredentials struct {
	Email    string
	Password string
}

// FederatedCredentials is an identity asserted by an external provider.
type FederatedCredentials struct {
	Provider    string
	Subject     string
	Email       string
	DisplayName string
	PictureURL  string
}

func (LocalCredentials) credentials()     {}
func (FederatedCredentials) credentials() {}

type Strategy interface {
	Name() string
	Resolve(ctx context.Context, creds Credentials) (*model.User, error)
}

// Registry looks strategies up by name.
type Registry struct {
	strategies map[string]Strategy
}

func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[string]Strategy, len(strategies))}
	for _, s := range strategies {
		r.strategies[s.Name()] = s
	}
	return r
}

func (r *Registry) Get(name string) (Strategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, ErrUnknownStrategy
	}
	return s, nil
}

func (r *Registry) Has(name string) bool {
	_, ok := r.strategies[name]
	return ok
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
