package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rhuss/ollagate/pkg/config"
	"github.com/rhuss/ollagate/pkg/provider/ollama"
	"github.com/rhuss/ollagate/pkg/tokens"
)

// exampleModel is used in the printed curl command when the upstream lists
// no models.
const exampleModel = "llama2"

func newSetupCmd(g *globalOptions) *cobra.Command {
	var (
		o     serverOverrides
		token string
		start bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Prepare the env file and check the Ollama server",
		Long: `Write the given token and Ollama URL to the env file, check that the
Ollama server is reachable, list its models and print an example request.
With --start the gateway is started right away.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if token != "" {
				added, err := tokens.AddToken(g.envFile, token)
				if err != nil {
					return err
				}
				if added {
					fmt.Fprintf(out, "Added token %s to %s\n", tokens.Fingerprint(token), g.envFile)
				}
			}
			if o.ollamaAPI != "" {
				if err := tokens.SetUpstream(g.envFile, o.ollamaAPI); err != nil {
					return err
				}
				fmt.Fprintf(out, "Set %s=%s in %s\n", tokens.UpstreamKey, o.ollamaAPI, g.envFile)
			}

			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if err := o.apply(cfg); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			models := checkUpstream(cmd.Context(), out, cfg.Upstream.BaseURL)
			model := exampleModel
			if len(models) > 0 {
				model = models[0]
			}
			printExample(out, cfg, token, model)

			if cfg.TokenSet().Len() == 0 {
				fmt.Fprintln(out, "\nNo tokens configured yet. Add one with: ollagate token add <token>")
			}

			if !start {
				return nil
			}
			fmt.Fprintln(out, "\nStarting gateway...")
			return runServe(cmd.Context(), cfg)
		},
	}

	addServerFlags(cmd, &o)
	cmd.Flags().StringVar(&token, "token", "", "Bearer token to add to the env file")
	cmd.Flags().BoolVar(&start, "start", false, "Start the gateway after setup")

	return cmd
}

// checkUpstream reports whether the Ollama server answers and returns the
// names of its models. Failures are reported but do not abort setup.
func checkUpstream(ctx context.Context, out io.Writer, baseURL string) []string {
	prov, err := ollama.New(ollama.DefaultConfig(baseURL))
	if err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
		return nil
	}
	defer prov.Close()

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	version, err := prov.Version(ctx)
	if err != nil {
		fmt.Fprintf(out, "Warning: Ollama server at %s is not reachable: %v\n", prov.BaseURL(), err)
		return nil
	}
	fmt.Fprintf(out, "Ollama %s reachable at %s\n", version, prov.BaseURL())

	infos, err := prov.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(out, "Warning: could not list models: %v\n", err)
		return nil
	}
	if len(infos) == 0 {
		fmt.Fprintln(out, "No models installed. Pull one with: ollama pull "+exampleModel)
		return nil
	}

	names := make([]string, 0, len(infos))
	fmt.Fprintln(out, "Available models:")
	for _, m := range infos {
		fmt.Fprintf(out, "  - %s\n", m.ID)
		names = append(names, m.ID)
	}
	return names
}

// printExample prints a curl command against the configured address.
func printExample(out io.Writer, cfg *config.Config, token, model string) {
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	if token == "" {
		token = "$API_TOKEN"
	}
	base := "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port))

	var b strings.Builder
	fmt.Fprintf(&b, "\nExample request:\n")
	fmt.Fprintf(&b, "  curl %s/v1/chat/completions \\\n", base)
	fmt.Fprintf(&b, "    -H \"Authorization: Bearer %s\" \\\n", token)
	fmt.Fprintf(&b, "    -H \"Content-Type: application/json\" \\\n")
	fmt.Fprintf(&b, "    -d '{\"model\":\"%s\",\"messages\":[{\"role\":\"user\",\"content\":\"Hello\"}]}'\n", model)
	io.WriteString(out, b.String())
}
