package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/chatflow/internal/presentation/tui"
	"github.com/aretw0/chatflow/pkg/domain"
)

// REPL commands.
const (
	CmdReset  = "/reset"
	CmdExport = "/export"
	CmdQuit   = "/quit"
)

// Chatter is the subset of the Bot the REPL drives.
type Chatter interface {
	Reply(ctx context.Context, sessionID, text string) (domain.Message, error)
	Export(ctx context.Context, sessionID string) ([]byte, error)
	Delete(ctx context.Context, sessionID string) error
}

// ChatOptions configures RunChat.
type ChatOptions struct {
	SessionID string
	In        io.Reader
	Out       io.Writer
	Renderer  tui.Renderer
	// ExportDir receives /export files. Defaults to the working directory.
	ExportDir string
	// Prompt is printed before each read; empty disables it.
	Prompt string
}

// RunChat reads user lines from opts.In until EOF, /quit or cancellation,
// printing each assistant reply to opts.Out. Turn errors are reported and
// the loop continues.
func RunChat(ctx context.Context, bot Chatter, opts ChatOptions) error {
	if opts.Renderer == nil {
		opts.Renderer = tui.Plain
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	out := opts.Out

	printSystemMessage(out, "Session '%s' active. Commands: %s, %s, %s", opts.SessionID, CmdReset, CmdExport, CmdQuit)

	scanner := bufio.NewScanner(opts.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if opts.Prompt != "" {
			fmt.Fprint(out, opts.Prompt)
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == CmdQuit:
			printSystemMessage(out, "Bye!")
			return nil
		case line == CmdReset:
			if err := bot.Delete(ctx, opts.SessionID); err != nil {
				printSystemMessage(out, "Reset failed: %v", err)
				continue
			}
			printSystemMessage(out, "Conversation cleared.")
			continue
		case line == CmdExport:
			path, err := exportSession(ctx, bot, opts.SessionID, opts.ExportDir)
			if err != nil {
				printSystemMessage(out, "Export failed: %v", err)
				continue
			}
			printSystemMessage(out, "Conversation exported to %s", path)
			continue
		}

		reply, err := bot.Reply(ctx, opts.SessionID, line)
		if err != nil {
			var cancelled *domain.CancelledError
			if errors.As(err, &cancelled) || errors.Is(err, context.Canceled) {
				return nil
			}
			printSystemMessage(out, "Error: %v", err)
			continue
		}

		rendered, err := opts.Renderer(reply.Content)
		if err != nil {
			rendered = reply.Content + "\n"
		}
		fmt.Fprint(out, rendered)
	}
}

func exportSession(ctx context.Context, bot Chatter, sessionID, dir string) (string, error) {
	data, err := bot.Export(ctx, sessionID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("chat_history_%s.json", sessionID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
