package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pigment/internal/catalog"
)

func newStylesCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "styles [filter]",
		Short: "List the style catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ""
			if len(args) == 1 {
				filter = strings.ToLower(args[0])
			}
			name := color.New(color.FgCyan)
			dim := color.New(color.FgHiBlack)
			out := cmd.OutOrStdout()
			shown := 0
			for _, s := range catalog.DefaultStyles().All() {
				if filter != "" && !strings.Contains(strings.ToLower(s.Name), filter) {
					continue
				}
				shown++
				name.Fprintln(out, s.Name)
				if verbose {
					dim.Fprintf(out, "  %s\n", s.Prompt)
				}
			}
			dim.Fprintf(out, "%d styles\n", shown)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "long", "l", false, "show each style's prompt suffix")
	return cmd
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the generation models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, m := range catalog.Models() {
				marker := " "
				if m.Default {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-10s %s\n", marker, color.CyanString(m.Name), m.Description)
			}
			return nil
		},
	}
}

func newSizesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sizes",
		Short: "List the size presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, s := range catalog.Sizes() {
				marker := " "
				if s.Selected {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-10s %s\n", marker, s.Value(), s.Label)
			}
			return nil
		},
	}
}
