package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is used until a title can be derived from the first message.
const DefaultTitle = "New Conversation"

// titleLimit caps how much of the first message becomes the title.
const titleLimit = 30

// Conversation is an ordered thread of messages between one user and the
// bot. Values are updated copy-on-write; callers never mutate a
// Conversation they did not build themselves.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	Owner     string    `json:"owner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewConversation(owner string) Conversation {
	now := time.Now()
	return Conversation{
		ID:        uuid.NewString(),
		Title:     DefaultTitle,
		Messages:  make([]Message, 0),
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMessage returns a copy of the conversation with msg appended.
// UpdatedAt is refreshed; message order is append order.
func AddMessage(conv Conversation, msg Message) Conversation {
	messages := make([]Message, len(conv.Messages)+1)
	copy(messages, conv.Messages)
	messages[len(conv.Messages)] = msg

	conv.Messages = messages
	conv.UpdatedAt = time.Now()
	return conv
}

// SetMessageContent returns a copy of the conversation with the content of
// the message at index replaced. Used to fold stream snapshots into the
// placeholder bot message.
func SetMessageContent(conv Conversation, index int, content string) Conversation {
	if index < 0 || index >= len(conv.Messages) {
		return conv
	}

	messages := make([]Message, len(conv.Messages))
	copy(messages, conv.Messages)
	messages[index] = messages[index].WithContent(content)

	conv.Messages = messages
	conv.UpdatedAt = time.Now()
	return conv
}

func GetMessages(conv Conversation) []Message {
	result := make([]Message, len(conv.Messages))
	copy(result, conv.Messages)
	return result
}

func GetMessageCount(conv Conversation) int {
	return len(conv.Messages)
}

func GetLastMessage(conv Conversation) (Message, bool) {
	if len(conv.Messages) == 0 {
		return Message{}, false
	}
	return conv.Messages[len(conv.Messages)-1], true
}

func GetLastBotMessage(conv Conversation) (Message, bool) {
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].IsBot() {
			return conv.Messages[i], true
		}
	}
	return Message{}, false
}

func GetLastUserMessage(conv Conversation) (Message, bool) {
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].IsUser() {
			return conv.Messages[i], true
		}
	}
	return Message{}, false
}

func IsEmpty(conv Conversation) bool {
	return len(conv.Messages) == 0
}

// DeriveTitle returns the conversation title, computing one from the
// leading text of the first message when no explicit title was set.
func DeriveTitle(conv Conversation) string {
	if conv.Title != "" && conv.Title != DefaultTitle {
		return conv.Title
	}
	if len(conv.Messages) == 0 {
		return DefaultTitle
	}

	content := strings.TrimSpace(conv.Messages[0].Content)
	if content == "" {
		return DefaultTitle
	}

	runes := []rune(content)
	if len(runes) > titleLimit {
		return string(runes[:titleLimit])
	}
	return content
}

// WithTitle returns a copy of the conversation with the given title.
func WithTitle(conv Conversation, title string) Conversation {
	conv.Title = title
	return conv
}
