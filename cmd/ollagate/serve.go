package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rhuss/ollagate/pkg/auth"
	"github.com/rhuss/ollagate/pkg/auth/apikey"
	"github.com/rhuss/ollagate/pkg/config"
	"github.com/rhuss/ollagate/pkg/debug"
	"github.com/rhuss/ollagate/pkg/engine"
	"github.com/rhuss/ollagate/pkg/provider/ollama"
	transporthttp "github.com/rhuss/ollagate/pkg/transport/http"
)

// serverOverrides are command-line values that take precedence over the
// loaded configuration. Zero values leave the configuration untouched.
type serverOverrides struct {
	ollamaAPI string
	host      string
	port      int
	logLevel  string
}

func (o serverOverrides) apply(cfg *config.Config) error {
	if o.ollamaAPI != "" {
		cfg.Upstream.BaseURL = o.ollamaAPI
	}
	if o.host != "" {
		cfg.Server.Host = o.host
	}
	if o.port != 0 {
		cfg.Server.Port = o.port
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg.Validate()
}

func newServeCmd(g *globalOptions) *cobra.Command {
	var o serverOverrides

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway",
		Long: `Run the OpenAI-compatible gateway. At least one bearer token must be
configured through API_TOKENS (env file or environment) or auth.tokens.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if err := o.apply(cfg); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	addServerFlags(cmd, &o)
	cmd.Flags().StringVar(&o.logLevel, "log-level", "", "Log level: TRACE, DEBUG, INFO, WARN, ERROR")

	return cmd
}

func addServerFlags(cmd *cobra.Command, o *serverOverrides) {
	cmd.Flags().StringVar(&o.ollamaAPI, "ollama-api", "", "Ollama base URL (overrides OLLAMA_API_BASE)")
	cmd.Flags().StringVar(&o.host, "host", "", "Listen host (default 0.0.0.0)")
	cmd.Flags().IntVar(&o.port, "port", 0, "Listen port (default 8000)")
}

// runServe wires provider, engine, authentication and transport, and blocks
// until ctx is cancelled.
func runServe(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	closer, err := debug.Setup(debug.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Categories: cfg.Logging.Debug,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}, os.Stderr)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer closer.Close()

	prov, err := ollama.New(ollama.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
	})
	if err != nil {
		return fmt.Errorf("creating provider: %w", err)
	}
	defer prov.Close()

	eng, err := engine.New(prov, engine.Config{
		DefaultModel: cfg.Upstream.DefaultModel,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	set := cfg.TokenSet()
	chain := &auth.AuthChain{
		Authenticators:  []auth.Authenticator{apikey.New(set)},
		DefaultDecision: auth.No,
	}

	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv := transporthttp.NewServer(eng, eng,
		transporthttp.WithAddr(addr),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithMetricsPath(metricsPath),
		transporthttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		transporthttp.WithAuth(chain),
		transporthttp.WithLogger(slog.Default()),
	)

	slog.Info("ollagate starting",
		"version", Version,
		"addr", addr,
		"upstream", prov.BaseURL(),
		"timeout", cfg.Upstream.Timeout,
		"tokens", set.Len(),
		"env_file", cfg.Auth.EnvFile,
	)
	checkReachable(ctx, eng, prov.BaseURL())

	return srv.Run(ctx)
}

// checkReachable logs whether the upstream answers. An unreachable upstream
// does not stop the gateway; requests fail with 502 until it comes up.
func checkReachable(ctx context.Context, eng *engine.Engine, upstream string) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := eng.Ping(ctx); err != nil {
		slog.Warn("upstream not reachable", "upstream", upstream, "error", err)
		return
	}
	slog.Info("upstream reachable", "upstream", upstream)
}
