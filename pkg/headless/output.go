package headless

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/smarttype/smarttender/pkg/chat"
)

var (
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

// Output handles console output for the terminal session
type Output struct {
	w io.Writer
}

// NewOutput creates an output handler writing to stdout
func NewOutput() *Output {
	return &Output{w: os.Stdout}
}

// NewOutputTo creates an output handler writing to w (useful for testing)
func NewOutputTo(w io.Writer) *Output {
	return &Output{w: w}
}

// Message prints one finished message with its role label
func (o *Output) Message(msg chat.Message) {
	label := userStyle.Render("you")
	if msg.IsBot() {
		label = botStyle.Render("bot")
	}
	fmt.Fprintf(o.w, "%s  %s\n", label, msg.Content)
}

// StreamUpdate rewrites the in-progress bot line in place
func (o *Output) StreamUpdate(content string) {
	fmt.Fprintf(o.w, "\r\033[K%s  %s", botStyle.Render("bot"), content)
}

// StreamDone terminates the in-progress line
func (o *Output) StreamDone() {
	fmt.Fprintln(o.w)
}

// Error prints an error line
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.w, errorStyle.Render(msg))
}

// Info prints a muted status line
func (o *Output) Info(msg string) {
	fmt.Fprintln(o.w, mutedStyle.Render(msg))
}

// ConversationList prints the sidebar-equivalent list of conversations
func (o *Output) ConversationList(conversations []chat.Conversation, activeID string) {
	if len(conversations) == 0 {
		o.Info("No chats yet")
		return
	}
	for i, conv := range conversations {
		title := chat.DeriveTitle(conv)
		line := fmt.Sprintf("%2d. %s", i+1, title)
		if conv.ID == activeID {
			line = activeStyle.Render(line + " *")
		}
		fmt.Fprintln(o.w, line)
	}
}

// Greeting prints the empty-conversation greeting
func (o *Output) Greeting() {
	fmt.Fprintln(o.w, "Hi, I am SmartTender.")
	o.Info("Ask about your tender documents, or /help for commands.")
}
