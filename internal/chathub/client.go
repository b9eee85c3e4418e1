package chathub

import "devmatch/backend/internal/models"

// Client is one realtime session of a user. A user may hold several
// sessions at once; the hub tracks each independently.
type Client interface {
	// GetUserID returns the authenticated user behind the session.
	GetUserID() string
	// GetRoomID returns the room the session is joined to, or "".
	GetRoomID() string
	// SetRoomID is called by the hub when the session joins a room.
	SetRoomID(string)

	// GetSendChannel returns the channel the hub pushes frames into.
	GetSendChannel() chan<- models.ServerFrame

	// Run starts the session's read and write pumps.
	Run()
	// Close releases the send channel. It is only called by the hub.
	Close()
}
