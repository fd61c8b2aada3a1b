package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pigment/internal/bootstrap"
	"pigment/internal/providers/inspire"
)

func newInspireCmd(root *rootOptions) *cobra.Command {
	var current string
	cmd := &cobra.Command{
		Use:   "inspire",
		Short: "Suggest a prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := root.cliLogger()
			provider, err := bootstrap.InspireProvider(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			svc := inspire.NewService(inspire.Options{Provider: provider, Logger: &logger})
			s := svc.Suggest(cmd.Context(), current)
			fmt.Fprintln(cmd.OutOrStdout(), s.Prompt)
			if s.FallbackReason != "" {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "(%s unavailable: %s, used a local prompt)\n", svc.ProviderName(), s.FallbackReason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "prompt to avoid repeating")
	return cmd
}
