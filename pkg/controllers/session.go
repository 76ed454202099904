package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smarttype/smarttender/pkg/chat"
	"github.com/smarttype/smarttender/pkg/logger"
	"github.com/smarttype/smarttender/pkg/store"
)

// ErrSessionBusy is returned when a submit arrives while a stream is
// already in flight. At most one stream session exists per controller.
var ErrSessionBusy = errors.New("a message is already in flight")

// DefaultStreamTimeout is the wall-clock ceiling for one send-message
// cycle. Exceeding it aborts the stream the same way an explicit cancel
// does.
const DefaultStreamTimeout = 180 * time.Second

// SessionState tracks where the controller is in the send-message cycle
type SessionState int

const (
	StateIdle SessionState = iota
	StateSending
	StateStreaming
	StateFinalizing
	StateCancelled
	StateErrored
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateCancelled:
		return "cancelled"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// ConversationSyncer persists a finished exchange to the remote store
type ConversationSyncer interface {
	Persist(ctx context.Context, conversationID string) error
}

// ChatSessionController orchestrates a full send-message cycle: it pushes
// the user message, opens the stream, folds events into the placeholder
// bot message, and triggers persistence when the stream ends.
//
// Policy on failed streams: partial content already accumulated is kept
// and persisted. A partial answer is more useful than none.
type ChatSessionController struct {
	store   *store.Store
	querier chat.StreamQuerier
	syncer  ConversationSyncer
	owner   string
	timeout time.Duration
	log     *logger.Logger

	mu     sync.Mutex
	state  SessionState
	cancel context.CancelFunc
}

// NewChatSessionController creates a controller bound to one store and
// one query service.
func NewChatSessionController(s *store.Store, querier chat.StreamQuerier, syncer ConversationSyncer, owner string) *ChatSessionController {
	return &ChatSessionController{
		store:   s,
		querier: querier,
		syncer:  syncer,
		owner:   owner,
		timeout: DefaultStreamTimeout,
		log:     logger.WithComponent("chat_session"),
	}
}

// WithTimeout overrides the per-session stream timeout
func (c *ChatSessionController) WithTimeout(d time.Duration) *ChatSessionController {
	if d > 0 {
		c.timeout = d
	}
	return c
}

// State returns the current session state
func (c *ChatSessionController) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a stream session is in flight
func (c *ChatSessionController) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != StateIdle
}

// Cancel aborts the in-flight stream, if any. Cancelling twice, or after
// the stream completed naturally, is a no-op.
func (c *ChatSessionController) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		c.log.Debug("Stream cancelled by user")
		cancel()
	}
}

// Submit runs one send-message cycle for the active conversation. A blank
// query is a silent no-op. Submitting while a session is in flight
// returns ErrSessionBusy without touching any state.
func (c *ChatSessionController) Submit(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	if err := c.begin(); err != nil {
		return err
	}
	defer c.finish()

	conv, ok := c.store.Active()
	if !ok {
		conv = c.store.Create(c.owner)
	}

	if err := c.store.Append(conv.ID, chat.NewUserMessage(query)); err != nil {
		c.setState(StateErrored)
		return err
	}
	if err := c.store.Append(conv.ID, chat.NewBotMessage("")); err != nil {
		c.setState(StateErrored)
		return err
	}

	// The placeholder is the last message appended; the stream session
	// holds the only write reference to it until the session ends.
	current, _ := c.store.Get(conv.ID)
	placeholderIdx := chat.GetMessageCount(current) - 1

	streamCtx, cancel := context.WithTimeout(ctx, c.timeout)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	events, err := c.querier.StreamQuery(streamCtx, query)
	if err != nil {
		c.setState(StateErrored)
		c.log.Error("Failed to open stream", "conversation", conv.ID, "error", err)
		return fmt.Errorf("failed to open stream: %w", err)
	}

	c.setState(StateStreaming)

	acc := chat.NewAccumulator()
	var streamErr error
	for event := range events {
		if event.Err != nil {
			streamErr = event.Err
			break
		}

		content := acc.Apply(event.Payload)
		if err := c.store.SetMessageContent(conv.ID, placeholderIdx, content); err != nil {
			streamErr = err
			break
		}
	}

	if streamErr != nil {
		if errors.Is(streamErr, context.Canceled) || errors.Is(streamErr, context.DeadlineExceeded) {
			c.setState(StateCancelled)
			c.log.Warn("Stream aborted, keeping partial content",
				"conversation", conv.ID, "events", acc.EventCount(), "error", streamErr)
		} else {
			c.setState(StateErrored)
			c.log.Error("Stream failed, keeping partial content",
				"conversation", conv.ID, "events", acc.EventCount(), "error", streamErr)
		}
	} else {
		c.setState(StateFinalizing)
		c.log.Debug("Stream completed", "conversation", conv.ID, "events", acc.EventCount())
	}

	if err := c.syncer.Persist(ctx, conv.ID); err != nil {
		// Non-fatal: local state stays valid, the next exchange retries.
		c.log.Warn("Failed to persist conversation", "conversation", conv.ID, "error", err)
	}

	if streamErr != nil {
		return fmt.Errorf("stream ended early: %w", streamErr)
	}
	return nil
}

// begin claims the single in-flight slot
func (c *ChatSessionController) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return ErrSessionBusy
	}
	c.state = StateSending
	return nil
}

// finish releases the slot and clears the loading state
func (c *ChatSessionController) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateIdle
	c.cancel = nil
}

func (c *ChatSessionController) setState(s SessionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}
