package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/db/dbtest"
	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/repository"
	"github.com/chezmoi-app/chezmoi/internal/service/payment"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	ctx   context.Context
	store *repository.Storage
	email *EmailService
	seq   int
}

func newTestEnv(t *testing.T) *testEnv {
	return &testEnv{
		ctx:   context.Background(),
		store: repository.NewStorage(dbtest.New(t)),
		email: NewEmailService("", "noreply@example.com", "", "http://localhost:5000", "ChezMoi", true),
	}
}

func (e *testEnv) user(t *testing.T) *model.User {
	t.Helper()
	e.seq++
	user, err := e.store.Users.Create(e.ctx, &model.User{
		Email:    fmt.Sprintf("user%d@example.com", e.seq),
		Username: fmt.Sprintf("user%d", e.seq),
		FullName: fmt.Sprintf("User %d", e.seq),
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) admin(t *testing.T) *model.User {
	t.Helper()
	user := e.user(t)
	role := model.RoleAdmin
	user, err := e.store.Users.Update(e.ctx, user.ID, model.UserUpdate{Role: &role})
	require.NoError(t, err)
	return user
}

// approvedChef returns an approved, available chef with one service priced per guest.
func (e *testEnv) approvedChef(t *testing.T, price int64) (*model.User, *model.Chef, *model.Service) {
	t.Helper()
	owner := e.user(t)
	chef, err := e.store.Chefs.Create(e.ctx, &model.Chef{
		UserID:         owner.ID,
		Location:       "Lyon",
		PricePerPerson: price,
		IsApproved:     true,
		IsAvailable:    true,
	})
	require.NoError(t, err)

	svc, err := e.store.Services.Create(e.ctx, &model.Service{ChefID: chef.ID, Name: "Tasting menu", Price: price, DurationMinutes: 180})
	require.NoError(t, err)
	return owner, chef, svc
}

func (e *testEnv) bookingService(provider payment.Provider) *BookingService {
	return NewBookingService(e.store.Bookings, e.store.Chefs, e.store.Services, e.store.Users, e.email, provider, "eur")
}

func futureDate() time.Time {
	return time.Now().Add(7 * 24 * time.Hour).Truncate(time.Second)
}
