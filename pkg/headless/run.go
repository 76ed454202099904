package headless

import (
	"context"
	"fmt"
)

// RunPrompt executes a single prompt against the active conversation.
// This is the entry point for one-shot CLI execution.
func RunPrompt(prompt string) error {
	runner, err := newRunner()
	if err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}

	if err := runner.runPrompt(context.Background(), prompt); err != nil {
		return fmt.Errorf("failed to execute prompt: %w", err)
	}

	return nil
}

// RunInteractive starts the interactive terminal session
func RunInteractive() error {
	runner, err := newRunner()
	if err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}

	return runner.runInteractive(context.Background())
}
