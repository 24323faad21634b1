package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keshon/dispatch/internal/logging"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		opts     consoleOptions
		logLevel string
		noColor  bool
	)

	cmd := &cobra.Command{
		Use:   "dispatch-cli [message]",
		Short: "Run bot commands against a simulated guild",
		Long: `dispatch-cli feeds chat messages to the command engine without connecting to Discord.
With arguments it runs them as a single message; without, it starts an interactive console.
Lines starting with "/" are sent as slash commands, e.g. "/role on role=100000000000000007".`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			if _, _, err := logging.Setup(logging.Options{Level: logLevel, Console: cmd.ErrOrStderr(), NoColor: color.NoColor}); err != nil {
				return err
			}
			if opts.StoragePath == "" {
				dir, err := os.MkdirTemp("", "dispatch-cli")
				if err != nil {
					return err
				}
				defer os.RemoveAll(dir)
				opts.StoragePath = defaultStoragePath(dir)
			}

			c, err := newConsole(cmd.OutOrStdout(), opts)
			if err != nil {
				return err
			}
			defer c.Close()

			if len(args) > 0 {
				c.Execute(cmd.Context(), strings.Join(args, " "))
				return nil
			}
			return runREPL(cmd.Context(), c, opts.Prefix)
		},
	}

	cmd.Flags().StringVarP(&opts.Prefix, "prefix", "p", "!", "command prefix")
	cmd.Flags().StringVar(&opts.StoragePath, "storage", "", "datastore file (default is a temporary file)")
	cmd.Flags().BoolVar(&opts.AsGuest, "guest", false, "run as a member without permissions instead of the guild owner")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func runREPL(ctx context.Context, c *console, prefix string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	home, _ := os.UserHomeDir()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            color.GreenString("dispatch> "),
		HistoryFile:       filepath.Join(home, ".dispatch_history"),
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to start console: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(c.out, "Type %shelp for commands, /help for the slash form, 'quit' to exit.\n", prefix)
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					fmt.Fprintln(c.out, "Use 'quit' or 'exit' to exit")
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Warn().Err(err).Msg("failed to read input")
			continue
		}
		switch strings.TrimSpace(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		}
		c.Execute(ctx, line)
	}
}
