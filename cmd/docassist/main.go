package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func main() {
	var opts rootOptions
	root := &cobra.Command{
		Use:           "docassist",
		Short:         "Extract, summarize, question, chart and speak PDF or image documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = newLogger(opts.verbose)
		},
	}
	root.PersistentFlags().StringVar(&opts.model, "model", "", "chat model (default from GROQ_MODEL)")
	root.PersistentFlags().StringVar(&opts.voice, "voice", "", "speech voice (default from DEEPGRAM_VOICE)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline events to stderr")

	root.AddCommand(
		extractCmd(&opts),
		summarizeCmd(&opts),
		askCmd(&opts),
		chartCmd(&opts),
		speakCmd(&opts),
		imagineCmd(&opts),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	model   string
	voice   string
	verbose bool
	logger  *slog.Logger
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
