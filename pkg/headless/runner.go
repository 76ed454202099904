package headless

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/smarttype/smarttender/pkg/chat"
	"github.com/smarttype/smarttender/pkg/config"
	"github.com/smarttype/smarttender/pkg/controllers"
	"github.com/smarttype/smarttender/pkg/drive"
	"github.com/smarttype/smarttender/pkg/logger"
	"github.com/smarttype/smarttender/pkg/persistence"
	"github.com/smarttype/smarttender/pkg/store"
)

// runner drives the chat session from a terminal
type runner struct {
	store      *store.Store
	controller *controllers.ChatSessionController
	syncer     *persistence.Syncer
	drive      *drive.Client
	snapshot   *persistence.Snapshot
	output     *Output
	owner      string
	log        *logger.Logger
}

func newRunner() (*runner, error) {
	settings := config.Get()

	st := store.New()
	queryClient := chat.NewQueryClient(settings.Backend.URL)
	remote := persistence.NewClient(settings.Backend.URL)
	syncer := persistence.NewSyncer(st, remote, settings.Owner).
		WithLimit(settings.History.Limit)
	controller := controllers.NewChatSessionController(st, queryClient, syncer, settings.Owner).
		WithTimeout(settings.Backend.Timeout)

	snapshotFile := settings.History.SnapshotFile
	if snapshotFile == "" {
		snapshotFile = config.BuildSettingsPath("conversations.json")
	}
	snapshot, err := persistence.NewSnapshot(snapshotFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open history snapshot: %w", err)
	}

	r := &runner{
		store:      st,
		controller: controller,
		syncer:     syncer,
		drive:      drive.NewClient(settings.Backend.URL),
		snapshot:   snapshot,
		output:     NewOutput(),
		owner:      settings.Owner,
		log:        logger.WithComponent("runner"),
	}

	st.Subscribe(r)
	return r, nil
}

// OnStoreChanged re-renders the in-progress bot line while streaming
func (r *runner) OnStoreChanged() {
	if r.controller.State() != controllers.StateStreaming {
		return
	}
	conv, ok := r.store.Active()
	if !ok {
		return
	}
	if msg, ok := chat.GetLastMessage(conv); ok && msg.IsBot() {
		r.output.StreamUpdate(msg.Content)
	}
}

// loadHistory pulls remote history, falling back to the local snapshot
// when the remote store is unreachable.
func (r *runner) loadHistory(ctx context.Context) {
	if err := r.syncer.LoadHistory(ctx); err != nil {
		if cached := r.snapshot.Load(); len(cached) > 0 {
			r.store.Replace(cached)
			r.output.Info(fmt.Sprintf("Backend unreachable, loaded %d cached chats", len(cached)))
			return
		}
		r.output.Info("Backend unreachable, starting a fresh chat")
	}
}

// saveSnapshot mirrors the current conversation list to disk
func (r *runner) saveSnapshot() {
	if err := r.snapshot.Save(r.store.List()); err != nil {
		r.log.Warn("Failed to save history snapshot", "error", err)
	}
}

// submit runs one exchange and prints its outcome
func (r *runner) submit(ctx context.Context, query string) {
	err := r.controller.Submit(ctx, query)
	r.output.StreamDone()
	if err != nil {
		r.output.Error(fmt.Sprintf("Error: %v", err))
	}
	r.saveSnapshot()
}

// runPrompt executes a single prompt and exits
func (r *runner) runPrompt(ctx context.Context, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	r.loadHistory(ctx)
	if err := r.controller.Submit(ctx, prompt); err != nil {
		r.output.StreamDone()
		return err
	}
	r.output.StreamDone()
	r.saveSnapshot()
	return nil
}

// runInteractive reads queries and commands until EOF or /quit
func (r *runner) runInteractive(ctx context.Context) error {
	r.loadHistory(ctx)

	if conv, ok := r.store.Active(); ok && chat.IsEmpty(conv) {
		r.output.Greeting()
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "/") {
			if quit := r.handleCommand(ctx, line); quit {
				return nil
			}
		} else if line != "" {
			r.output.Message(chat.NewUserMessage(line))
			r.submit(ctx, line)
		}

		fmt.Print("> ")
	}

	return scanner.Err()
}

// handleCommand dispatches slash commands; returns true on /quit
func (r *runner) handleCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	switch parts[0] {
	case "/quit", "/exit":
		return true

	case "/new":
		conv := r.store.Create(r.owner)
		r.output.Info(fmt.Sprintf("Started %s", chat.DeriveTitle(conv)))

	case "/list":
		r.output.ConversationList(r.store.List(), r.store.ActiveID())

	case "/switch":
		if conv, ok := r.conversationArg(parts); ok {
			if err := r.store.Activate(conv.ID); err != nil {
				r.output.Error(fmt.Sprintf("Error: %v", err))
			} else {
				r.output.Info(fmt.Sprintf("Switched to %s", chat.DeriveTitle(conv)))
			}
		}

	case "/delete":
		if conv, ok := r.conversationArg(parts); ok {
			if err := r.syncer.Remove(ctx, conv.ID); err != nil {
				r.output.Error(fmt.Sprintf("Error: %v", err))
			} else {
				r.output.Info("Deleted")
				r.saveSnapshot()
			}
		}

	case "/files":
		files, err := r.drive.FetchProcessedFiles(ctx)
		if err != nil {
			r.output.Error(fmt.Sprintf("Error fetching files: %v", err))
			break
		}
		if len(files) == 0 {
			r.output.Info("No processed files")
			break
		}
		for _, f := range files {
			r.output.Info("  " + f)
		}

	case "/help":
		r.output.Info("/new /list /switch N /delete N /files /quit")

	default:
		r.output.Error(fmt.Sprintf("Unknown command %s", parts[0]))
	}
	return false
}

// conversationArg resolves a 1-based /list index argument
func (r *runner) conversationArg(parts []string) (chat.Conversation, bool) {
	if len(parts) < 2 {
		r.output.Error("Usage: " + parts[0] + " N")
		return chat.Conversation{}, false
	}

	n, err := strconv.Atoi(parts[1])
	conversations := r.store.List()
	if err != nil || n < 1 || n > len(conversations) {
		r.output.Error("No such chat")
		return chat.Conversation{}, false
	}
	return conversations[n-1], true
}
