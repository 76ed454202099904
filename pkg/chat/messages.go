package chat

import (
	"strings"
	"time"
)

// Message is a single entry in a conversation. Content is mutable only
// while a bot message is being streamed; the timestamp is set once.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	RoleUser = "user"
	RoleBot  = "bot"
)

func NewUserMessage(content string) Message {
	return Message{
		Role:      RoleUser,
		Content:   strings.TrimSpace(content),
		Timestamp: time.Now(),
	}
}

func NewBotMessage(content string) Message {
	return Message{
		Role:      RoleBot,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

func (m Message) IsBot() bool {
	return m.Role == RoleBot
}

func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == ""
}

func (m Message) WithContent(content string) Message {
	return Message{
		Role:      m.Role,
		Content:   content,
		Timestamp: m.Timestamp,
	}
}

func (m Message) WithTimestamp(t time.Time) Message {
	return Message{
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: t,
	}
}
