package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rhuss/ollagate/pkg/tokens"
)

func newTokenCmd(g *globalOptions) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage bearer tokens",
		Long: `Manage the bearer tokens stored in the env file. Changes take effect
the next time the gateway starts.`,
	}

	addCmd := &cobra.Command{
		Use:   "add <token>",
		Short: "Add a bearer token to the env file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := args[0]
			added, err := tokens.AddToken(g.envFile, token)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !added {
				fmt.Fprintf(out, "Token %s already present in %s\n", tokens.Fingerprint(token), g.envFile)
				return nil
			}
			fmt.Fprintf(out, "Added token %s to %s\n", tokens.Fingerprint(token), g.envFile)
			fmt.Fprintln(out, "Restart the gateway for the change to take effect.")
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List fingerprints of configured tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			set := cfg.TokenSet()
			if set.Len() == 0 {
				fmt.Fprintln(out, "No tokens configured.")
				return nil
			}
			for _, t := range set.Tokens() {
				fmt.Fprintln(out, tokens.Fingerprint(t))
			}
			return nil
		},
	}

	tokenCmd.AddCommand(addCmd)
	tokenCmd.AddCommand(listCmd)
	return tokenCmd
}
