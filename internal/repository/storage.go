package repository

import "github.com/jmoiron/sqlx"

// Storage is the persistence contract of the application: one repository per entity,
// all sharing the same database handle.
type Storage struct {
	Users           UserRepository
	Chefs           ChefRepository
	Services        ServiceRepository
	Bookings        BookingRepository
	Reviews         ReviewRepository
	Messages        MessageRepository
	Newsletter      NewsletterRepository
	JobApplications JobApplicationRepository
	ChefQuizzes     ChefQuizRepository
	Sessions        SessionRepository
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		Users:           NewUserRepository(db),
		Chefs:           NewChefRepository(db),
		Services:        NewServiceRepository(db),
		Bookings:        NewBookingRepository(db),
		Reviews:         NewReviewRepository(db),
		Messages:        NewMessageRepository(db),
		Newsletter:      NewNewsletterRepository(db),
		JobApplications: NewJobApplicationRepository(db),
		ChefQuizzes:     NewChefQuizRepository(db),
		Sessions:        NewSessionRepository(db),
	}
}
