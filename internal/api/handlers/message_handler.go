package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/chatter-be/internal/services"
	"github.com/isdelr/chatter-be/internal/websocket"
)

// Pusher delivers realtime events to online users.
type Pusher interface {
	Push(userID, event string, payload interface{})
}

// MessageHandler handles contact listing and message exchange.
type MessageHandler struct {
	users    services.UserServiceProvider
	messages services.MessageServiceProvider
	pusher   Pusher
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(users services.UserServiceProvider, messages services.MessageServiceProvider, pusher Pusher) *MessageHandler {
	return &MessageHandler{users: users, messages: messages, pusher: pusher}
}

// SendPayload defines the structure for send requests.
type SendPayload struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// GetUsers lists every other user for the sidebar.
func (h *MessageHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	users, err := h.users.ListContacts(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// GetMessages returns the conversation between the current user and {userId}.
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	messages, err := h.messages.GetConversation(r.Context(), userID, chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// Send stores a message for {userId} and then notifies the recipient if they
// are online. The notification is best effort and never affects the response.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	senderID, err := currentUserID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var payload SendPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		respondError(w, r, err)
		return
	}

	receiverID := chi.URLParam(r, "userId")
	msg, err := h.messages.Send(r.Context(), senderID, receiverID, services.SendInput{
		Text:  payload.Text,
		Image: payload.Image,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, msg)
	h.pusher.Push(receiverID, websocket.EventNewMessage, msg)
}
