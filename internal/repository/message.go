package repository

import (
	"context"
	"strings"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/jmoiron/sqlx"
)

var messageColumns = strings.Join([]string{
	"id", "sender_id", "receiver_id", "booking_id", "content", "is_read", "created_at",
}, ", ")

type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) (*model.Message, error)
	// Conversation returns messages exchanged between two users, oldest first.
	Conversation(ctx context.Context, userA, userB int64) ([]model.Message, error)
	// MarkRead flags a message as read when receiverID is its receiver.
	MarkRead(ctx context.Context, id, receiverID int64) (bool, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
}

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *model.Message) (*model.Message, error) {
	query := `INSERT INTO messages (sender_id, receiver_id, booking_id, content, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + messageColumns

	created := &model.Message{}
	err := r.db.GetContext(ctx, created, query,
		message.SenderID, message.ReceiverID, message.BookingID, message.Content, false, time.Now().UTC())
	if err != nil {
		return nil, storeError("create message", err)
	}

	return created, nil
}

func (r *messageRepository) Conversation(ctx context.Context, userA, userB int64) ([]model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $3 AND receiver_id = $4)
		ORDER BY created_at ASC, id ASC`

	messages := []model.Message{}
	err := r.db.SelectContext(ctx, &messages, query, userA, userB, userB, userA)
	if err != nil {
		return nil, storeError("conversation", err)
	}

	return messages, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, id, receiverID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = $1 WHERE id = $2 AND receiver_id = $3`, true, id, receiverID)
	if err != nil {
		return false, storeError("mark message read", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, storeError("mark message read", err)
	}

	return rows > 0, nil
}

func (r *messageRepository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND is_read = $2`, userID, false)
	if err != nil {
		return 0, storeError("unread count", err)
	}

	return n, nil
}
