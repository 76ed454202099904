package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/smarttype/smarttender/pkg/chat"
	"github.com/smarttype/smarttender/pkg/logger"
)

// ErrUnauthorized is returned when the remote store rejects the request.
// Callers treat it as an opaque failure category.
var ErrUnauthorized = errors.New("unauthorized")

// MessageRecord is the wire form of one persisted message
type MessageRecord struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationRecord is the wire form of one persisted conversation
type ConversationRecord struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Messages  []MessageRecord `json:"messages"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Client talks to the external conversation persistence service
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a persistence client for the given base URL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.WithComponent("persistence_client"),
	}
}

// FetchConversations returns the persisted conversations for an owner
func (c *Client) FetchConversations(ctx context.Context, ownerID string) ([]chat.Conversation, error) {
	url := fmt.Sprintf("%s/conversations/%s", c.baseURL, ownerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	var records []ConversationRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	conversations := make([]chat.Conversation, 0, len(records))
	for _, rec := range records {
		conversations = append(conversations, recordToConversation(rec, ownerID))
	}
	return conversations, nil
}

// UpsertConversation submits a conversation as an idempotent upsert keyed
// by conversation id.
func (c *Client) UpsertConversation(ctx context.Context, ownerID string, conv chat.Conversation) error {
	record := conversationToRecord(conv)

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	url := fmt.Sprintf("%s/conversations/%s", c.baseURL, ownerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		errorBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(errorBody))
	}

	return nil
}

// DeleteConversation removes one conversation by owner and id
func (c *Client) DeleteConversation(ctx context.Context, ownerID, conversationID string) error {
	url := fmt.Sprintf("%s/conversations/%s/%s", c.baseURL, ownerID, conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return nil
}

func conversationToRecord(conv chat.Conversation) ConversationRecord {
	messages := make([]MessageRecord, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		messages = append(messages, MessageRecord{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		})
	}
	return ConversationRecord{
		ID:        conv.ID,
		Title:     conv.Title,
		Messages:  messages,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
}

func recordToConversation(rec ConversationRecord, ownerID string) chat.Conversation {
	messages := make([]chat.Message, 0, len(rec.Messages))
	for _, m := range rec.Messages {
		messages = append(messages, chat.Message{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return chat.Conversation{
		ID:        rec.ID,
		Title:     rec.Title,
		Messages:  messages,
		Owner:     ownerID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
