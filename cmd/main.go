package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "promptician",
		Short:         "Prompt playground for text completion models",
		Long:          "Compose prompts, request completions, and keep an evaluated history in a local YAML file.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	return rootCmd
}

// setup builds the container and initializes the global logger.
func setup() (*dig.Container, error) {
	container, err := buildContainer()
	if err != nil {
		return nil, err
	}

	if err := container.Invoke(func(*zap.Logger) {}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return container, nil
}
