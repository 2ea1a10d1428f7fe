package main

import (
	"os"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/internal/cli"
	"github.com/aretw0/chatflow/internal/presentation/tui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Starts a REPL bound to a session. Replies are rendered as markdown when
stdout is a terminal.

Commands:
  /reset   clear the conversation
  /export  write the conversation to chat_history_<session>.json
  /quit    leave`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		bot, err := cli.NewBot(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer bot.Close()

		opts := cli.ChatOptions{
			SessionID: sessionID,
			In:        os.Stdin,
			Out:       os.Stdout,
			Renderer:  tui.Plain,
		}
		if term.IsTerminal(int(os.Stdout.Fd())) {
			width, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				width = 80
			}
			tui.PrintBanner(os.Stdout, chatflow.Version)
			opts.Renderer = tui.NewRenderer(width - 4)
			opts.Prompt = "> "
		}

		return cli.RunChat(ctx, bot, opts)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Session ID to resume (default: a new UUID)")

	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
