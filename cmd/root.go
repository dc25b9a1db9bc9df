package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/readlevel/internal/level"
	"github.com/abhisek/readlevel/internal/srs"
	"github.com/abhisek/readlevel/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "readlevel",
	Short: "Graded reading levels and spaced-repetition review",
	Long: "readlevel schedules vocabulary and sentence cards with FSRS, tracks a reader's " +
		"level from ratings, quizzes and XP, and classifies articles by readability.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree and prints any error.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file or DSN (overrides READLEVEL_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default $XDG_CONFIG_HOME/readlevel/config.yaml)")
	rootCmd.PersistentFlags().String("log", "", "Log mode: dev, prod or quiet (overrides config)")

	rootCmd.AddCommand(cardCmd)
	rootCmd.AddCommand(levelCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// describe turns domain errors into messages for the command line.
// Invalid ratings and signals are the caller's fault, so they read as
// usage errors.
func describe(err error) string {
	var srsSig *srs.InvalidSignalError
	var lvlSig *level.InvalidSignalError
	switch {
	case errors.As(err, &srsSig):
		return fmt.Sprintf("bad input: %s %q (use again, hard, good, easy or 1-4)", srsSig.Field, srsSig.Value)
	case errors.As(err, &lvlSig):
		return fmt.Sprintf("bad input: %s %s (want %s)", lvlSig.Field, lvlSig.Value, lvlSig.Want)
	case errors.Is(err, store.ErrNotFound):
		return err.Error()
	case errors.Is(err, store.ErrConflict):
		return "the record changed while it was being updated; try again"
	default:
		return err.Error()
	}
}
