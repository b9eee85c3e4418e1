package config

const (
	// Pagination
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 50

	// Chat
	MaxChatMessageRunes = 2000
	DefaultRedisChannel = "chat:broadcast"
)
