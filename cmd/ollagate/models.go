package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rhuss/ollagate/pkg/provider/ollama"
)

// probeTimeout bounds the upstream calls made by the admin commands.
const probeTimeout = 5 * time.Second

func newModelsCmd(g *globalOptions) *cobra.Command {
	var ollamaAPI string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models available on the Ollama server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if ollamaAPI != "" {
				cfg.Upstream.BaseURL = ollamaAPI
			}

			prov, err := ollama.New(ollama.DefaultConfig(cfg.Upstream.BaseURL))
			if err != nil {
				return err
			}
			defer prov.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
			defer cancel()

			models, err := prov.ListModels(ctx)
			if err != nil {
				return fmt.Errorf("listing models from %s: %w", prov.BaseURL(), err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODEL\tMODIFIED")
			for _, m := range models {
				modified := "-"
				if m.Created > 0 {
					modified = time.Unix(m.Created, 0).UTC().Format(time.DateTime)
				}
				fmt.Fprintf(tw, "%s\t%s\n", m.ID, modified)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&ollamaAPI, "ollama-api", "", "Ollama base URL (overrides OLLAMA_API_BASE)")
	return cmd
}
