package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/smarttype/smarttender/pkg/chat"
)

// Snapshot keeps a local JSON copy of the conversation list so a session
// can come back up when the remote store is unreachable.
type Snapshot struct {
	Conversations []chat.Conversation `json:"conversations"`
	mu            sync.Mutex
	filePath      string
}

// NewSnapshot creates a snapshot manager backed by filePath, loading any
// existing file.
func NewSnapshot(filePath string) (*Snapshot, error) {
	s := &Snapshot{
		Conversations: make([]chat.Conversation, 0),
		filePath:      filePath,
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	if _, err := os.Stat(filePath); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
	}

	return s, nil
}

// Save writes the given conversation list to disk
func (s *Snapshot) Save(conversations []chat.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Conversations = conversations

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}

	return nil
}

// Load returns the snapshotted conversations
func (s *Snapshot) Load() []chat.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]chat.Conversation, len(s.Conversations))
	copy(result, s.Conversations)
	return result
}

func (s *Snapshot) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read snapshot file: %w", err)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return nil
}
