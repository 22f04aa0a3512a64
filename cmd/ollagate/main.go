// Command ollagate runs an OpenAI-compatible chat completions gateway in
// front of a local Ollama server and manages its bearer tokens.
//
// Usage:
//
//	ollagate serve [--config FILE] [--env-file .env] [--ollama-api URL] [--host H] [--port P]
//	ollagate token add <token>
//	ollagate token list
//	ollagate setup [--token T] [--ollama-api URL] [--start]
//	ollagate models
//
// Configuration is read from defaults, an optional YAML file, the env file
// (API_TOKENS, OLLAMA_API_BASE) and the process environment, in that order.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rhuss/ollagate/pkg/config"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configPath string
	envFile    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("ollagate failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "ollagate",
		Short: "OpenAI-compatible gateway for Ollama",
		Long: `ollagate exposes a local Ollama server through the OpenAI chat
completions API, guarded by bearer tokens.`,
		Version:       fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "Path to environment file holding API_TOKENS and OLLAMA_API_BASE")

	rootCmd.AddCommand(newServeCmd(g))
	rootCmd.AddCommand(newTokenCmd(g))
	rootCmd.AddCommand(newSetupCmd(g))
	rootCmd.AddCommand(newModelsCmd(g))

	return rootCmd
}

// loadConfig loads the layered configuration for the given global options.
func loadConfig(g *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(g.configPath, config.WithEnvFile(g.envFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
