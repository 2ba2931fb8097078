package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/db/dbtest"
	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db    *sqlx.DB
	store *repository.Storage
	ctx   context.Context
	seq   int
}

func newFixture(t *testing.T) *fixture {
	conn := dbtest.New(t)
	return &fixture{db: conn, store: repository.NewStorage(conn), ctx: context.Background()}
}

func (f *fixture) user(t *testing.T) *model.User {
	t.Helper()
	f.seq++
	user, err := f.store.Users.Create(f.ctx, &model.User{
		Email:    fmt.Sprintf("user%d@example.com", f.seq),
		Username: fmt.Sprintf("user%d", f.seq),
		FullName: fmt.Sprintf("User %d", f.seq),
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) chef(t *testing.T, price int64, rating float64, approved, available bool, specialties ...string) *model.Chef {
	t.Helper()
	owner := f.user(t)
	chef, err := f.store.Chefs.Create(f.ctx, &model.Chef{
		UserID:         owner.ID,
		Location:       "Paris",
		PricePerPerson: price,
		IsApproved:     approved,
		IsAvailable:    available,
		Specialties:    specialties,
	})
	require.NoError(t, err)

	_, err = f.db.ExecContext(f.ctx, `UPDATE chefs SET rating = $1 WHERE id = $2`, rating, chef.ID)
	require.NoError(t, err)
	chef.Rating = rating
	return chef
}

func (f *fixture) service(t *testing.T, chefID, price int64) *model.Service {
	t.Helper()
	service, err := f.store.Services.Create(f.ctx, &model.Service{ChefID: chefID, Name: "Dinner", Price: price, DurationMinutes: 180})
	require.NoError(t, err)
	return service
}

func (f *fixture) booking(t *testing.T, customerID int64, chef *model.Chef, service *model.Service, status string) *model.Booking {
	t.Helper()
	booking, err := f.store.Bookings.Create(f.ctx, &model.Booking{
		CustomerID:  customerID,
		ChefID:      chef.ID,
		ServiceID:   service.ID,
		EventDate:   time.Now().Add(72 * time.Hour),
		GuestCount:  4,
		TotalAmount: service.Price * 4,
		Status:      status,
	})
	require.NoError(t, err)
	return booking
}

func ids(chefs []model.ChefWithUser) []int64 {
	out := make([]int64, len(chefs))
	for i, c := range chefs {
		out[i] = c.ID
	}
	return out
}

func TestUsers(t *testing.T) {
	f := newFixture(t)
	user := f.user(t)

	assert.NotZero(t, user.ID)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.False(t, user.CreatedAt.IsZero())

	byEmail, err := f.store.Users.ByEmail(f.ctx, user.Email)
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)

	byUsername, err := f.store.Users.ByUsername(f.ctx, user.Username)
	require.NoError(t, err)
	require.NotNil(t, byUsername)
	assert.Equal(t, user.ID, byUsername.ID)

	missing, err := f.store.Users.ByID(f.ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = f.store.Users.ByGoogleID(f.ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	user := f.user(t)

	_, err := f.store.Users.Create(f.ctx, &model.User{Email: user.Email, Username: "someone-else"})
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrConstraintViolation)
	assert.NotErrorIs(t, err, repository.ErrPersistence)

	n, err := f.store.Users.Count(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUsers_Update(t *testing.T) {
	f := newFixture(t)
	user := f.user(t)

	googleID := "google-123"
	role := model.RoleChef
	updated, err := f.store.Users.Update(f.ctx, user.ID, model.UserUpdate{GoogleID: &googleID, Role: &role})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, model.RoleChef, updated.Role)
	require.NotNil(t, updated.GoogleID)
	assert.Equal(t, googleID, *updated.GoogleID)
	assert.Equal(t, user.Email, updated.Email)

	unchanged, err := f.store.Users.Update(f.ctx, user.ID, model.UserUpdate{})
	require.NoError(t, err)
	assert.Equal(t, model.RoleChef, unchanged.Role)

	missing, err := f.store.Users.Update(f.ctx, 9999, model.UserUpdate{Role: &role})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestChefs_Featured(t *testing.T) {
	f := newFixture(t)

	a := f.chef(t, 5000, 4.9, true, true)
	b := f.chef(t, 5000, 4.2, true, true)
	c := f.chef(t, 5000, 4.9, true, true)
	d := f.chef(t, 5000, 3.0, true, true)
	f.chef(t, 5000, 5.0, false, true)
	f.chef(t, 5000, 5.0, true, false)

	featured, err := f.store.Chefs.Featured(f.ctx, model.FeaturedChefLimit)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, c.ID, b.ID, d.ID}, ids(featured))

	for _, chef := range featured {
		assert.True(t, chef.IsApproved)
		assert.True(t, chef.IsAvailable)
		assert.NotZero(t, chef.User.ID)
		assert.Equal(t, chef.UserID, chef.User.ID)
	}
}

func TestChefs_FeaturedCap(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 9; i++ {
		f.chef(t, 5000, float64(i%5), true, true)
	}

	featured, err := f.store.Chefs.Featured(f.ctx, 100)
	require.NoError(t, err)
	assert.Len(t, featured, model.FeaturedChefLimit)
	for i := 1; i < len(featured); i++ {
		assert.GreaterOrEqual(t, featured[i-1].Rating, featured[i].Rating)
	}
}

func TestChefs_Search(t *testing.T) {
	f := newFixture(t)

	cheap := f.chef(t, 1500, 4.0, true, true, "French", "Pastry")
	pricey := f.chef(t, 2500, 4.8, true, true, "italian")
	mid := f.chef(t, 2000, 3.5, true, true, "Japanese")

	_, err := f.db.ExecContext(f.ctx, `UPDATE chefs SET location = $1 WHERE id = $2`, "Lyon", mid.ID)
	require.NoError(t, err)

	maxPrice := int64(2000)
	found, err := f.store.Chefs.Search(f.ctx, model.ChefFilter{MaxPrice: &maxPrice})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{cheap.ID, mid.ID}, ids(found))

	location := "lyo"
	found, err = f.store.Chefs.Search(f.ctx, model.ChefFilter{Location: &location})
	require.NoError(t, err)
	assert.Equal(t, []int64{mid.ID}, ids(found))

	found, err = f.store.Chefs.Search(f.ctx, model.ChefFilter{Specialties: []string{"pastry", "ITALIAN"}})
	require.NoError(t, err)
	assert.Equal(t, []int64{pricey.ID, cheap.ID}, ids(found))

	minRating := 4.0
	found, err = f.store.Chefs.Search(f.ctx, model.ChefFilter{MinRating: &minRating, MaxPrice: &maxPrice})
	require.NoError(t, err)
	assert.Equal(t, []int64{cheap.ID}, ids(found))

	found, err = f.store.Chefs.Search(f.ctx, model.ChefFilter{})
	require.NoError(t, err)
	assert.Len(t, found, 3)

	wildcard := "%"
	found, err = f.store.Chefs.Search(f.ctx, model.ChefFilter{Location: &wildcard})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestChefs_WithUserEmptyChildren(t *testing.T) {
	f := newFixture(t)
	chef := f.chef(t, 3000, 0, true, true)

	detail, err := f.store.Chefs.WithUser(f.ctx, chef.ID)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, chef.UserID, detail.User.ID)
	assert.NotNil(t, detail.Services)
	assert.Empty(t, detail.Services)
	assert.NotNil(t, detail.Reviews)
	assert.Empty(t, detail.Reviews)
	assert.NotNil(t, detail.Specialties)

	missing, err := f.store.Chefs.WithUser(f.ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestChefs_OnePerUser(t *testing.T) {
	f := newFixture(t)
	chef := f.chef(t, 3000, 0, false, true)

	_, err := f.store.Chefs.Create(f.ctx, &model.Chef{UserID: chef.UserID})
	assert.ErrorIs(t, err, repository.ErrConstraintViolation)
}

func TestChefs_UpdateAndSpecialties(t *testing.T) {
	f := newFixture(t)
	chef := f.chef(t, 3000, 0, false, true, "vegan")

	approved := true
	updated, err := f.store.Chefs.Update(f.ctx, chef.ID, model.ChefUpdate{IsApproved: &approved})
	require.NoError(t, err)
	assert.True(t, updated.IsApproved)
	assert.Equal(t, []string{"vegan"}, updated.Specialties)

	err = f.store.Chefs.SetSpecialties(f.ctx, chef.ID, []string{" Thai ", "thai", "BBQ"})
	require.NoError(t, err)

	reloaded, err := f.store.Chefs.ByID(f.ctx, chef.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bbq", "thai"}, reloaded.Specialties)
}

func TestServices_Delete(t *testing.T) {
	f := newFixture(t)
	chef := f.chef(t, 3000, 0, true, true)
	service := f.service(t, chef.ID, 4500)

	deleted, err := f.store.Services.Delete(f.ctx, 9999)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = f.store.Services.Delete(f.ctx, service.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	services, err := f.store.Services.ByChef(f.ctx, chef.ID)
	require.NoError(t, err)
	assert.Empty(t, services)
}

func TestBookings(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t)
	chef := f.chef(t, 3000, 0, true, true)
	service := f.service(t, chef.ID, 4500)
	booking := f.booking(t, customer.ID, chef, service, "")

	assert.Equal(t, model.BookingStatusPending, booking.Status)
	assert.Equal(t, model.PaymentStatusUnpaid, booking.PaymentStatus)

	details, err := f.store.Bookings.WithDetails(f.ctx, booking.ID)
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, customer.ID, details.Customer.ID)
	assert.Equal(t, chef.ID, details.Chef.ID)
	assert.Equal(t, chef.UserID, details.Chef.User.ID)
	assert.Equal(t, service.ID, details.Service.ID)
	assert.Len(t, details.Chef.Services, 1)

	intent := "pi_123"
	status := model.BookingStatusConfirmed
	updated, err := f.store.Bookings.Update(f.ctx, booking.ID, model.BookingUpdate{PaymentIntentID: &intent, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, updated.Status)

	byIntent, err := f.store.Bookings.ByPaymentIntentID(f.ctx, intent)
	require.NoError(t, err)
	require.NotNil(t, byIntent)
	assert.Equal(t, booking.ID, byIntent.ID)

	list, err := f.store.Bookings.ByCustomer(f.ctx, customer.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = f.store.Bookings.ByChef(f.ctx, chef.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	missing, err := f.store.Bookings.WithDetails(f.ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBookings_ForeignKey(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t)
	chef := f.chef(t, 3000, 0, true, true)

	_, err := f.store.Bookings.Create(f.ctx, &model.Booking{
		CustomerID: customer.ID, ChefID: chef.ID, ServiceID: 9999,
		EventDate: time.Now(), GuestCount: 2,
	})
	assert.ErrorIs(t, err, repository.ErrConstraintViolation)
}

func TestReviews_RecomputeRating(t *testing.T) {
	f := newFixture(t)
	chef := f.chef(t, 3000, 0, true, true)
	service := f.service(t, chef.ID, 4500)

	first := f.booking(t, f.user(t).ID, chef, service, model.BookingStatusCompleted)
	second := f.booking(t, f.user(t).ID, chef, service, model.BookingStatusCompleted)

	_, err := f.store.Reviews.Create(f.ctx, &model.Review{CustomerID: first.CustomerID, ChefID: chef.ID, BookingID: &first.ID, Rating: 5})
	require.NoError(t, err)
	_, err = f.store.Reviews.Create(f.ctx, &model.Review{CustomerID: second.CustomerID, ChefID: chef.ID, BookingID: &second.ID, Rating: 4})
	require.NoError(t, err)

	reloaded, err := f.store.Chefs.ByID(f.ctx, chef.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, reloaded.Rating, 0.001)
	assert.Equal(t, 2, reloaded.ReviewCount)

	// Second review of the same booking is rejected and leaves the aggregate untouched
	_, err = f.store.Reviews.Create(f.ctx, &model.Review{CustomerID: first.CustomerID, ChefID: chef.ID, BookingID: &first.ID, Rating: 1})
	assert.ErrorIs(t, err, repository.ErrConstraintViolation)

	reloaded, err = f.store.Chefs.ByID(f.ctx, chef.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, reloaded.Rating, 0.001)
	assert.Equal(t, 2, reloaded.ReviewCount)

	reviews, err := f.store.Reviews.ByChef(f.ctx, chef.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}

func TestMessages(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t)
	bob := f.user(t)
	carol := f.user(t)

	m1, err := f.store.Messages.Create(f.ctx, &model.Message{SenderID: alice.ID, ReceiverID: bob.ID, Content: "Bonjour"})
	require.NoError(t, err)
	_, err = f.store.Messages.Create(f.ctx, &model.Message{SenderID: bob.ID, ReceiverID: alice.ID, Content: "Salut"})
	require.NoError(t, err)
	_, err = f.store.Messages.Create(f.ctx, &model.Message{SenderID: carol.ID, ReceiverID: bob.ID, Content: "Hello"})
	require.NoError(t, err)

	conversation, err := f.store.Messages.Conversation(f.ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, conversation, 2)
	assert.Equal(t, "Bonjour", conversation[0].Content)

	unread, err := f.store.Messages.UnreadCount(f.ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	ok, err := f.store.Messages.MarkRead(f.ctx, m1.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.store.Messages.MarkRead(f.ctx, m1.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	unread, err = f.store.Messages.UnreadCount(f.ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestNewsletter(t *testing.T) {
	f := newFixture(t)

	sub, err := f.store.Newsletter.Subscribe(f.ctx, "food@example.com")
	require.NoError(t, err)
	assert.True(t, sub.IsActive)

	gone, err := f.store.Newsletter.Unsubscribe(f.ctx, "food@example.com")
	require.NoError(t, err)
	require.NotNil(t, gone)
	assert.False(t, gone.IsActive)
	assert.NotNil(t, gone.UnsubscribedAt)

	again, err := f.store.Newsletter.Subscribe(f.ctx, "food@example.com")
	require.NoError(t, err)
	assert.True(t, again.IsActive)
	assert.Nil(t, again.UnsubscribedAt)
	assert.Equal(t, sub.ID, again.ID)

	unknown, err := f.store.Newsletter.Unsubscribe(f.ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, unknown)
}

func TestIntake(t *testing.T) {
	f := newFixture(t)

	app, err := f.store.JobApplications.Create(f.ctx, &model.JobApplication{FullName: "Jeanne", Email: "jeanne@example.com"})
	require.NoError(t, err)
	assert.Equal(t, model.JobApplicationStatusNew, app.Status)

	loaded, err := f.store.JobApplications.ByID(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jeanne", loaded.FullName)

	quiz, err := f.store.ChefQuizzes.Create(f.ctx, &model.ChefQuiz{Email: "q@example.com", Answers: `{"q1":"a"}`, Score: 1})
	require.NoError(t, err)
	assert.NotZero(t, quiz.ID)
	assert.Nil(t, quiz.UserID)
}

func TestSessions(t *testing.T) {
	f := newFixture(t)
	user := f.user(t)
	now := time.Now().UTC()

	live, err := f.store.Sessions.Create(f.ctx, &model.Session{Token: "live", UserID: user.ID, Data: "{}", ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	_, err = f.store.Sessions.Create(f.ctx, &model.Session{Token: "stale", UserID: user.ID, Data: "{}", ExpiresAt: now.Add(-time.Hour)})
	require.NoError(t, err)

	_, err = f.store.Sessions.Create(f.ctx, &model.Session{Token: "live", UserID: user.ID, Data: "{}", ExpiresAt: now})
	assert.ErrorIs(t, err, repository.ErrConstraintViolation)

	found, err := f.store.Sessions.ByToken(f.ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, live.ID, found.ID)
	assert.False(t, found.IsExpired(now))

	removed, err := f.store.Sessions.DeleteExpired(f.ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	ok, err := f.store.Sessions.Delete(f.ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.store.Sessions.Delete(f.ctx, "live")
	require.NoError(t, err)
	assert.False(t, ok)
}
