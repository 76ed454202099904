package store

import (
	"errors"
	"sync"

	"github.com/smarttype/smarttender/pkg/chat"
	"github.com/smarttype/smarttender/pkg/logger"
)

// ErrNotFound is returned when a conversation id is absent from the store
var ErrNotFound = errors.New("conversation not found")

// Observer is notified after every mutation so the UI can re-render
type Observer interface {
	OnStoreChanged()
}

// Store owns the ordered collection of conversations and tracks which one
// is active. It is the single source of truth rendered by the UI and
// performs no network or disk I/O. All updates are copy-on-write: slices
// handed out never alias internal state.
type Store struct {
	mu            sync.RWMutex
	conversations []chat.Conversation
	activeID      string
	observers     []Observer
	log           *logger.Logger
}

// New creates an empty store
func New() *Store {
	return &Store{
		conversations: make([]chat.Conversation, 0),
		log:           logger.WithComponent("conversation_store"),
	}
}

// Subscribe registers an observer for change notifications
func (s *Store) Subscribe(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

func (s *Store) notify() {
	s.mu.RLock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.RUnlock()

	for _, obs := range observers {
		obs.OnStoreChanged()
	}
}

// Create allocates a new empty conversation for owner, inserts it at the
// front of the collection and makes it active.
func (s *Store) Create(owner string) chat.Conversation {
	conv := chat.NewConversation(owner)

	s.mu.Lock()
	conversations := make([]chat.Conversation, 0, len(s.conversations)+1)
	conversations = append(conversations, conv)
	conversations = append(conversations, s.conversations...)
	s.conversations = conversations
	s.activeID = conv.ID
	s.mu.Unlock()

	s.log.Debug("Created conversation", "id", conv.ID)
	s.notify()
	return conv
}

// Activate sets the active conversation. Returns ErrNotFound when the id
// is absent; the active conversation is left unchanged in that case.
func (s *Store) Activate(id string) error {
	s.mu.Lock()
	if s.indexOf(id) < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.activeID = id
	s.mu.Unlock()

	s.notify()
	return nil
}

// Append appends a message to the named conversation and refreshes its
// UpdatedAt. Fails with ErrNotFound when the id is absent.
func (s *Store) Append(conversationID string, msg chat.Message) error {
	s.mu.Lock()
	idx := s.indexOf(conversationID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.conversations[idx] = chat.AddMessage(s.conversations[idx], msg)
	s.mu.Unlock()

	s.notify()
	return nil
}

// SetMessageContent replaces the content of one message in the named
// conversation. Used to fold stream snapshots into the placeholder bot
// message while it streams.
func (s *Store) SetMessageContent(conversationID string, msgIndex int, content string) error {
	s.mu.Lock()
	idx := s.indexOf(conversationID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.conversations[idx] = chat.SetMessageContent(s.conversations[idx], msgIndex, content)
	s.mu.Unlock()

	s.notify()
	return nil
}

// Delete removes the conversation from the collection. When the active
// conversation is deleted, the first remaining conversation becomes
// active, or none if the store is empty.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}

	conversations := make([]chat.Conversation, 0, len(s.conversations)-1)
	conversations = append(conversations, s.conversations[:idx]...)
	conversations = append(conversations, s.conversations[idx+1:]...)
	s.conversations = conversations

	if s.activeID == id {
		if len(s.conversations) > 0 {
			s.activeID = s.conversations[0].ID
		} else {
			s.activeID = ""
		}
	}
	s.mu.Unlock()

	s.log.Debug("Deleted conversation", "id", id)
	s.notify()
	return nil
}

// Replace swaps the collection wholesale (history load). The first
// conversation becomes active when the previous active id is gone.
func (s *Store) Replace(conversations []chat.Conversation) {
	s.mu.Lock()
	copied := make([]chat.Conversation, len(conversations))
	copy(copied, conversations)
	s.conversations = copied

	if s.indexOf(s.activeID) < 0 {
		if len(s.conversations) > 0 {
			s.activeID = s.conversations[0].ID
		} else {
			s.activeID = ""
		}
	}
	s.mu.Unlock()

	s.notify()
}

// List returns a read-only snapshot of the collection in insertion order
func (s *Store) List() []chat.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]chat.Conversation, len(s.conversations))
	for i, conv := range s.conversations {
		conv.Messages = chat.GetMessages(conv)
		result[i] = conv
	}
	return result
}

// Get returns a snapshot of one conversation by id
func (s *Store) Get(id string) (chat.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return chat.Conversation{}, false
	}
	conv := s.conversations[idx]
	conv.Messages = chat.GetMessages(conv)
	return conv, true
}

// Active returns a snapshot of the active conversation, if any
func (s *Store) Active() (chat.Conversation, bool) {
	s.mu.RLock()
	id := s.activeID
	s.mu.RUnlock()

	if id == "" {
		return chat.Conversation{}, false
	}
	return s.Get(id)
}

// ActiveID returns the id of the active conversation, or ""
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Len returns the number of conversations
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// indexOf must be called with the lock held
func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, conv := range s.conversations {
		if conv.ID == id {
			return i
		}
	}
	return -1
}
