package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/realtime"
	"github.com/chezmoi-app/chezmoi/internal/repository"
)

const maxMessageLength = 4000

// Broadcaster pushes a typed event to the connected clients of the given users.
type Broadcaster interface {
	PublishTo(kind string, payload any, userIDs ...int64) error
}

type SendMessageInput struct {
	ReceiverID int64  `json:"receiverId"`
	BookingID  *int64 `json:"bookingId"`
	Content    string `json:"content"`
}

type MessageService struct {
	messages    repository.MessageRepository
	users       repository.UserRepository
	bookings    repository.BookingRepository
	chefs       repository.ChefRepository
	broadcaster Broadcaster
}

func NewMessageService(messages repository.MessageRepository, users repository.UserRepository, bookings repository.BookingRepository, chefs repository.ChefRepository, broadcaster Broadcaster) *MessageService {
	return &MessageService{
		messages:    messages,
		users:       users,
		bookings:    bookings,
		chefs:       chefs,
		broadcaster: broadcaster,
	}
}

// Send persists the message and then announces it to connected clients.
// A failed broadcast is logged; the message is already stored.
func (s *MessageService) Send(ctx context.Context, sender *model.User, in SendMessageInput) (*model.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, invalidInput("message content is required")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, invalidInput("message must be at most %d characters", maxMessageLength)
	}
	if in.ReceiverID == sender.ID {
		return nil, invalidInput("cannot send a message to yourself")
	}

	receiver, err := s.users.ByID(ctx, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, invalidInput("receiver does not exist")
	}

	if in.BookingID != nil {
		err = s.checkBookingScope(ctx, *in.BookingID, sender.ID, receiver.ID)
		if err != nil {
			return nil, err
		}
	}

	msg, err := s.messages.Create(ctx, &model.Message{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		BookingID:  in.BookingID,
		Content:    content,
	})
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		err = s.broadcaster.PublishTo(realtime.EnvelopeMessage, msg, msg.SenderID, msg.ReceiverID)
		if err != nil {
			slog.Warn("failed to broadcast message", "message_id", msg.ID, "error", err)
		}
	}

	return msg, nil
}

// checkBookingScope requires sender and receiver to be the booking's customer and chef.
func (s *MessageService) checkBookingScope(ctx context.Context, bookingID, senderID, receiverID int64) error {
	booking, err := s.bookings.ByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return invalidInput("booking does not exist")
	}

	chef, err := s.chefs.ByID(ctx, booking.ChefID)
	if err != nil {
		return err
	}
	if chef == nil {
		return invalidInput("booking does not exist")
	}

	parties := map[int64]bool{booking.CustomerID: true, chef.UserID: true}
	if !parties[senderID] || !parties[receiverID] {
		return ErrForbidden
	}
	return nil
}

// Conversation returns the messages exchanged between user and other, oldest first.
func (s *MessageService) Conversation(ctx context.Context, user *model.User, otherID int64) ([]model.Message, error) {
	return s.messages.Conversation(ctx, user.ID, otherID)
}

// MarkRead flags a message addressed to user as read.
func (s *MessageService) MarkRead(ctx context.Context, user *model.User, messageID int64) error {
	ok, err := s.messages.MarkRead(ctx, messageID, user.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *MessageService) UnreadCount(ctx context.Context, user *model.User) (int, error) {
	return s.messages.UnreadCount(ctx, user.ID)
}
