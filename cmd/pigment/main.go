// Command pigment generates images from the terminal with the same pipeline
// the studio server runs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pigment/internal/infra"
)

type rootOptions struct {
	verbose bool
	noColor bool
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "pigment",
		Short:         "Generate images from text prompts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log requests and retries to stderr")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newGenerateCmd(opts),
		newStylesCmd(),
		newModelsCmd(),
		newSizesCmd(),
		newInspireCmd(opts),
	)
	return root
}

// cliLogger stays quiet unless --verbose is set; stdout is reserved for results.
func (o *rootOptions) cliLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if o.verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: color.NoColor}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func loadConfig() (*infra.Config, error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
