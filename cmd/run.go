package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davidbz/promptician/internal/domain"
)

type runOptions struct {
	prompt      string
	model       string
	temperature string
	stopWords   string
	maxTokens   string
	rating      string
	star        bool
	clone       string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Request one completion and save it to the history",
		Example: `  promptician run "Write a haiku about Go"
  promptician run --model echo --stop '\n' --max-tokens 16 'Q: hi\nA:'
  promptician run --clone 1a2b3c4d --temperature 0.2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.prompt = args[0]
			}

			container, err := setup()
			if err != nil {
				return err
			}

			return container.Invoke(func(session *domain.SessionService, history *domain.HistoryService) error {
				return runOnce(cmd, session, history, opts)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.prompt, "prompt", "p", "", `prompt text; "\n" is a newline`)
	flags.StringVarP(&opts.model, "model", "m", "", "model name (default from SESSION_DEFAULT_MODEL)")
	flags.StringVarP(&opts.temperature, "temperature", "t", "", "sampling temperature")
	flags.StringVarP(&opts.stopWords, "stop", "s", "", `space separated stop words; "\n" is a newline`)
	flags.StringVarP(&opts.maxTokens, "max-tokens", "n", "", "maximum completion tokens")
	flags.StringVarP(&opts.rating, "rating", "r", "", "rate the completion: negative, neutral or positive")
	flags.BoolVar(&opts.star, "star", false, "star the completion")
	flags.StringVar(&opts.clone, "clone", "", "start from the parameters of a stored record")

	return cmd
}

func runOnce(cmd *cobra.Command, session *domain.SessionService, history *domain.HistoryService, opts runOptions) error {
	ctx := cmd.Context()

	var rating *domain.Rating
	if opts.rating != "" {
		parsed, err := domain.ParseRating(opts.rating)
		if err != nil {
			return err
		}
		rating = &parsed
	}

	if opts.clone != "" {
		if _, err := history.Open(ctx, opts.clone, false); err != nil {
			return fmt.Errorf("failed to open record %s: %w", opts.clone, err)
		}
	}

	fields := session.Snapshot().Fields
	flags := cmd.Flags()
	if flags.Changed("prompt") || opts.prompt != "" {
		fields.Prompt = opts.prompt
	}
	if flags.Changed("model") {
		fields.Model = opts.model
	}
	if flags.Changed("temperature") {
		fields.Temperature = opts.temperature
	}
	if flags.Changed("stop") {
		fields.StopWords = opts.stopWords
	}
	if flags.Changed("max-tokens") {
		fields.MaxTokens = opts.maxTokens
	}
	session.SetFields(ctx, fields)

	result, err := session.Submit(ctx)
	if err != nil {
		return err
	}

	if rating != nil || opts.star {
		if err := session.SetEvaluation(ctx, rating, opts.star); err != nil {
			return err
		}
	}

	printResult(cmd.OutOrStdout(), result, session.Snapshot())
	return nil
}

func printResult(w io.Writer, result *domain.CompletionResult, snap domain.Snapshot) {
	fmt.Fprintln(w, result.Completion)
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(w, "id: %s  model: %s\n", result.ID, result.RawRequest.Model)
	if snap.Message != "" {
		fmt.Fprintf(w, "warning: %s\n", snap.Message)
	}
}
