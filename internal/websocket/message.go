package websocket

import "encoding/json"

// Events pushed to clients.
const (
	EventOnlineUsers = "getOnlineUsers"
	EventNewMessage  = "newMessage"
)

// Message defines the structure for websocket messages.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Encode marshals an event frame.
func Encode(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{Event: event, Payload: payload})
}
