package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	kinds      []string
	recipients [][]int64
	err        error
}

func (b *recordingBroadcaster) PublishTo(kind string, _ any, userIDs ...int64) error {
	b.kinds = append(b.kinds, kind)
	b.recipients = append(b.recipients, userIDs)
	return b.err
}

func TestMessageService_Send(t *testing.T) {
	env := newTestEnv(t)
	hub := &recordingBroadcaster{}
	messages := NewMessageService(env.store.Messages, env.store.Users, env.store.Bookings, env.store.Chefs, hub)
	alice, bob := env.user(t), env.user(t)

	msg, err := messages.Send(env.ctx, alice, SendMessageInput{ReceiverID: bob.ID, Content: " Bonjour! "})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour!", msg.Content)
	assert.False(t, msg.IsRead)
	assert.Equal(t, []string{realtime.EnvelopeMessage}, hub.kinds)
	assert.ElementsMatch(t, []int64{alice.ID, bob.ID}, hub.recipients[0], "only the two participants are notified")

	hub.err = errors.New("hub closed")
	_, err = messages.Send(env.ctx, bob, SendMessageInput{ReceiverID: alice.ID, Content: "Salut"})
	require.NoError(t, err, "a failed broadcast does not fail the send")

	tests := []struct {
		name    string
		in      SendMessageInput
		wantErr error
	}{
		{"empty", SendMessageInput{ReceiverID: bob.ID, Content: "  "}, ErrInvalidInput},
		{"too long", SendMessageInput{ReceiverID: bob.ID, Content: strings.Repeat("a", maxMessageLength+1)}, ErrInvalidInput},
		{"to self", SendMessageInput{ReceiverID: alice.ID, Content: "hi"}, ErrInvalidInput},
		{"unknown receiver", SendMessageInput{ReceiverID: 9999, Content: "hi"}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := messages.Send(env.ctx, alice, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	conversation, err := messages.Conversation(env.ctx, bob, alice.ID)
	require.NoError(t, err)
	require.Len(t, conversation, 2)
	assert.Equal(t, "Bonjour!", conversation[0].Content)

	unread, err := messages.UnreadCount(env.ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	err = messages.MarkRead(env.ctx, alice, msg.ID)
	assert.ErrorIs(t, err, ErrNotFound, "only the receiver can mark a message read")

	require.NoError(t, messages.MarkRead(env.ctx, bob, msg.ID))
	unread, err = messages.UnreadCount(env.ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}

func TestMessageService_BookingScope(t *testing.T) {
	env := newTestEnv(t)
	messages := NewMessageService(env.store.Messages, env.store.Users, env.store.Bookings, env.store.Chefs, nil)
	customer := env.user(t)
	chefUser, chef, svc := env.approvedChef(t, 2000)

	booking, err := env.bookingService(nil).Create(env.ctx, customer, BookingInput{ChefID: chef.ID, ServiceID: svc.ID, EventDate: futureDate(), GuestCount: 2})
	require.NoError(t, err)

	msg, err := messages.Send(env.ctx, customer, SendMessageInput{ReceiverID: chefUser.ID, BookingID: &booking.ID, Content: "Any allergies to note?"})
	require.NoError(t, err)
	require.NotNil(t, msg.BookingID)
	assert.Equal(t, booking.ID, *msg.BookingID)

	outsider := env.user(t)
	_, err = messages.Send(env.ctx, outsider, SendMessageInput{ReceiverID: chefUser.ID, BookingID: &booking.ID, Content: "hello"})
	assert.ErrorIs(t, err, ErrForbidden)

	missing := int64(9999)
	_, err = messages.Send(env.ctx, customer, SendMessageInput{ReceiverID: chefUser.ID, BookingID: &missing, Content: "hello"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

var _ Broadcaster = (*realtime.Hub)(nil)

func TestMessageService_UnreadCountEmpty(t *testing.T) {
	env := newTestEnv(t)
	messages := NewMessageService(env.store.Messages, env.store.Users, env.store.Bookings, env.store.Chefs, nil)

	n, err := messages.UnreadCount(env.ctx, &model.User{ID: 42})
	require.NoError(t, err)
	assert.Zero(t, n)
}
