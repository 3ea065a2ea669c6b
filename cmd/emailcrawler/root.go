package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/emailcrawler/internal/log"
)

// NewRootCmd creates the root command for emailcrawler.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emailcrawler",
		Short: "Collect email addresses from a website",
		Long: `emailcrawler crawls a website from a seed URL, follows links on the same
host up to a maximum depth, and extracts email addresses from every page.

Newly found addresses are merged into a result table (.xlsx, .csv or SQLite)
that keeps its contents across runs, so each address is stored only once.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")
	cmd.PersistentFlags().Bool("mask-emails", false, "Mask the local part of email addresses in logs")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getBoolFlag retrieves a boolean flag from the command or the root's
// persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return value
}

// newLogger creates the structured logger selected by the global flags.
// Logs go to stderr so that reports on stdout stay machine-readable.
func newLogger(cmd *cobra.Command) *slog.Logger {
	return log.NewLogger(cmd.ErrOrStderr(), log.Options{
		Verbose:    getBoolFlag(cmd, "verbose"),
		JSON:       getBoolFlag(cmd, "log-json"),
		MaskEmails: getBoolFlag(cmd, "mask-emails"),
	})
}
