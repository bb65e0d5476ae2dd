package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/chatter-be/internal/apperrors"
	"github.com/isdelr/chatter-be/internal/media"
	"github.com/isdelr/chatter-be/internal/models"
)

// MessageServiceProvider defines the interface for message services.
type MessageServiceProvider interface {
	Send(ctx context.Context, senderID, receiverID string, input SendInput) (models.Message, error)
	GetConversation(ctx context.Context, userA, userB string) ([]models.Message, error)
	CountMessages(ctx context.Context) (int, error)
}

// SendInput is the content of a new message. At least one field must be set.
type SendInput struct {
	Text  string
	Image string // base64 data URI
}

// MessageService provides business logic for storing and reading chat messages.
type MessageService struct {
	db    *sql.DB
	users UserServiceProvider
	media *media.Store
}

// NewMessageService creates a new MessageService.
func NewMessageService(db *sql.DB, users UserServiceProvider, mediaStore *media.Store) *MessageService {
	return &MessageService{
		db:    db,
		users: users,
		media: mediaStore,
	}
}

// Send validates and persists a new message with a server-assigned timestamp.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID string, input SendInput) (models.Message, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" && input.Image == "" {
		return models.Message{}, apperrors.Validation("Message must contain text or an image")
	}

	if _, err := s.users.GetUserByID(ctx, receiverID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.Message{}, apperrors.NotFound("Recipient not found")
		}
		return models.Message{}, err
	}

	msg := models.Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		CreatedAt:  nowMillis(),
	}

	if input.Image != "" {
		url, err := s.media.SaveMessageImage(input.Image)
		if err != nil {
			return models.Message{}, err
		}
		msg.Image = url
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (id, sender_id, receiver_id, text, image, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Text, msg.Image, msg.CreatedAt.UnixMilli())
	if err != nil {
		if msg.Image != "" {
			s.media.Delete(msg.Image)
		}
		return models.Message{}, apperrors.Internal(err)
	}
	return msg, nil
}

// GetConversation returns every message between two users in either direction,
// oldest first. The result is the same regardless of argument order.
func (s *MessageService) GetConversation(ctx context.Context, userA, userB string) ([]models.Message, error) {
	if _, err := s.users.GetUserByID(ctx, userB); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, text, image, created_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC, rowid ASC`,
		userA, userB, userB, userA)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var msg models.Message
		var createdAt int64
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text, &msg.Image, &createdAt); err != nil {
			return nil, apperrors.Internal(err)
		}
		msg.CreatedAt = time.UnixMilli(createdAt).UTC()
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(err)
	}
	return messages, nil
}

// CountMessages returns the number of stored messages.
func (s *MessageService) CountMessages(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&n); err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}
