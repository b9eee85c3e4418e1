package models

import "time"

// Realtime frame types exchanged over the websocket.
const (
	FrameJoin            = "join"
	FrameSend            = "send"
	FrameJoined          = "joined"
	FrameMessageReceived = "messageReceived"
	FrameError           = "error"
)

// ChatMessage is a chat line as relayed to room subscribers.
type ChatMessage struct {
	ID       uint      `json:"id,omitempty"`
	RoomID   string    `json:"room_id"`
	SenderID string    `json:"sender_id"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

// ClientFrame is a frame sent by a websocket client.
type ClientFrame struct {
	Type         string `json:"type"`
	TargetUserID string `json:"target_user_id"`
	Text         string `json:"text,omitempty"`
}

// ServerFrame is a frame pushed to a websocket client.
type ServerFrame struct {
	Type     string     `json:"type"`
	RoomID   string     `json:"room_id,omitempty"`
	SenderID string     `json:"sender_id,omitempty"`
	Text     string     `json:"text,omitempty"`
	SentAt   *time.Time `json:"sent_at,omitempty"`
	Code     string     `json:"code,omitempty"`
}

// MessageFrame wraps a relayed chat message as a messageReceived frame.
func MessageFrame(msg ChatMessage) ServerFrame {
	sentAt := msg.SentAt
	return ServerFrame{
		Type:     FrameMessageReceived,
		RoomID:   msg.RoomID,
		SenderID: msg.SenderID,
		Text:     msg.Text,
		SentAt:   &sentAt,
	}
}
