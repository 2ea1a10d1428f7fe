// Package process implements ports.Completer by running a local command,
// e.g. a CLI wrapper around a locally hosted model.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
)

// waitDelay bounds how long Complete waits for output pipes after the
// command is killed on cancellation.
const waitDelay = time.Second

// Request is written to the command's stdin as a single JSON document.
type Request struct {
	Messages []domain.Message `json:"messages"`
}

// Response is the structured form a command may print on stdout.
// Plain text output is also accepted and used verbatim.
type Response struct {
	Content string `json:"content"`
}

// Completer runs Command once per completion.
type Completer struct {
	command string
	args    []string
	env     map[string]string
	dir     string
}

// Option configures the completer.
type Option func(*Completer)

// WithArgs sets the command's arguments.
func WithArgs(args ...string) Option {
	return func(c *Completer) {
		c.args = args
	}
}

// WithEnv adds CHATFLOW_-prefixed variables to the command's environment.
func WithEnv(env map[string]string) Option {
	return func(c *Completer) {
		c.env = env
	}
}

// WithDir sets the working directory for executed processes.
func WithDir(dir string) Option {
	return func(c *Completer) {
		c.dir = dir
	}
}

// New creates a completer for command.
func New(command string, opts ...Option) (*Completer, error) {
	if command == "" {
		return nil, errors.New("process: command is required")
	}
	c := &Completer{command: command}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete implements ports.Completer.
func (c *Completer) Complete(ctx context.Context, messages []domain.Message) (domain.Message, error) {
	input, err := json.Marshal(Request{Messages: messages})
	if err != nil {
		return domain.Message{}, fmt.Errorf("process: encoding request: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.command, c.args...)
	cmd.Dir = c.dir
	cmd.WaitDelay = waitDelay
	cmd.Stdin = bytes.NewReader(input)

	// Values are passed through the environment, never as flags.
	env := cmd.Environ()
	for k, v := range c.env {
		env = append(env, fmt.Sprintf("CHATFLOW_%s=%s", strings.ToUpper(k), v))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Message{}, ctxErr
		}
		return domain.Message{}, fmt.Errorf("process: %s failed: %w. Stderr: %s", c.command, err, strings.TrimSpace(stderr.String()))
	}

	content := parseOutput(stdout.String())
	if content == "" {
		return domain.Message{}, ports.ErrEmptyCompletion
	}
	return domain.AssistantMessage(content), nil
}

// parseOutput accepts either a Response JSON object or plain text. JSON
// without a content key is treated as text.
func parseOutput(output string) string {
	trimmed := strings.TrimSpace(output)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &fields); err == nil {
			var resp Response
			if _, ok := fields["content"]; ok && json.Unmarshal([]byte(trimmed), &resp) == nil {
				return strings.TrimSpace(resp.Content)
			}
		}
	}
	return trimmed
}
