package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/smarttype/smarttender/pkg/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	t.Run("should round-trip conversations through disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.json")

		conv := chat.NewConversation("user-1")
		conv = chat.AddMessage(conv, chat.NewUserMessage("What is price of crane?"))
		conv = chat.AddMessage(conv, chat.NewBotMessage("Hello world"))

		first, err := NewSnapshot(path)
		require.NoError(t, err)
		require.NoError(t, first.Save([]chat.Conversation{conv}))

		second, err := NewSnapshot(path)
		require.NoError(t, err)
		loaded := second.Load()

		require.Len(t, loaded, 1)
		assert.Equal(t, conv.ID, loaded[0].ID)
		require.Len(t, loaded[0].Messages, 2)
		assert.Equal(t, "Hello world", loaded[0].Messages[1].Content)
	})

	t.Run("should start empty when no file exists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "history.json")

		s, err := NewSnapshot(path)

		require.NoError(t, err)
		assert.Empty(t, s.Load())
	})

	t.Run("should fail on a corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.json")
		s, err := NewSnapshot(path)
		require.NoError(t, err)
		require.NoError(t, s.Save(nil))

		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		_, err = NewSnapshot(path)
		assert.Error(t, err)
	})
}
