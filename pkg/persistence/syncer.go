package persistence

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/smarttype/smarttender/pkg/chat"
	"github.com/smarttype/smarttender/pkg/logger"
	"github.com/smarttype/smarttender/pkg/store"
)

// errorMarker prefixes bot messages that recorded a past failure. They
// are filtered on load so stale errors never resurface in the UI.
const errorMarker = "Error:"

// DefaultHistoryLimit caps how many conversations a history load keeps
const DefaultHistoryLimit = 15

// RemoteStore is the persistence collaborator consumed by the syncer
type RemoteStore interface {
	FetchConversations(ctx context.Context, ownerID string) ([]chat.Conversation, error)
	UpsertConversation(ctx context.Context, ownerID string, conv chat.Conversation) error
	DeleteConversation(ctx context.Context, ownerID, conversationID string) error
}

// Syncer reconciles the in-memory conversation store with the remote
// persistence service. Persistence failures are non-fatal: local state
// stays the source of truth for the running session.
type Syncer struct {
	store  *store.Store
	remote RemoteStore
	owner  string
	limit  int
	log    *logger.Logger
}

// NewSyncer creates a syncer for the given owner
func NewSyncer(s *store.Store, remote RemoteStore, owner string) *Syncer {
	return &Syncer{
		store:  s,
		remote: remote,
		owner:  owner,
		limit:  DefaultHistoryLimit,
		log:    logger.WithComponent("conversation_sync"),
	}
}

// WithLimit overrides the history truncation limit
func (s *Syncer) WithLimit(limit int) *Syncer {
	if limit > 0 {
		s.limit = limit
	}
	return s
}

// LoadHistory fetches the owner's persisted conversations, keeps the most
// recently updated ones, filters stale error messages, and replaces the
// store contents. On failure the store falls back to a single fresh empty
// conversation and the error is reported as recoverable.
func (s *Syncer) LoadHistory(ctx context.Context) error {
	conversations, err := s.remote.FetchConversations(ctx, s.owner)
	if err != nil {
		s.log.Warn("Failed to load history, starting fresh", "owner", s.owner, "error", err)
		s.store.Replace(nil)
		s.store.Create(s.owner)
		return fmt.Errorf("failed to load history: %w", err)
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	if len(conversations) > s.limit {
		conversations = conversations[:s.limit]
	}

	for i, conv := range conversations {
		conversations[i] = filterErrorMessages(conv)
	}

	s.store.Replace(conversations)
	if s.store.Len() == 0 {
		s.store.Create(s.owner)
	}

	s.log.Info("Loaded conversation history", "owner", s.owner, "count", len(conversations))
	return nil
}

// Persist upserts one conversation to the remote store, deriving a title
// on first persist when none was set. Failure is logged and surfaced as
// non-fatal; local state is untouched and the caller retries on the next
// exchange.
func (s *Syncer) Persist(ctx context.Context, conversationID string) error {
	conv, ok := s.store.Get(conversationID)
	if !ok {
		return store.ErrNotFound
	}

	title := chat.DeriveTitle(conv)
	if title != conv.Title {
		conv = chat.WithTitle(conv, title)
	}

	if err := s.remote.UpsertConversation(ctx, s.owner, conv); err != nil {
		s.log.Error("Failed to persist conversation", "id", conversationID, "error", err)
		return fmt.Errorf("failed to persist conversation: %w", err)
	}

	s.log.Debug("Persisted conversation", "id", conversationID, "messages", chat.GetMessageCount(conv))
	return nil
}

// Remove deletes the conversation remotely first and only drops it from
// local state when the remote deletion succeeds, so local and backend
// views never diverge.
func (s *Syncer) Remove(ctx context.Context, conversationID string) error {
	if err := s.remote.DeleteConversation(ctx, s.owner, conversationID); err != nil {
		s.log.Error("Remote delete failed, keeping local conversation", "id", conversationID, "error", err)
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	return s.store.Delete(conversationID)
}

// filterErrorMessages drops bot messages whose content records a stale
// failure.
func filterErrorMessages(conv chat.Conversation) chat.Conversation {
	messages := make([]chat.Message, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		if msg.IsBot() && strings.HasPrefix(msg.Content, errorMarker) {
			continue
		}
		messages = append(messages, msg)
	}
	conv.Messages = messages
	return conv
}
