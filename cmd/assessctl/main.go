// Command assessctl builds, submits and exports AI maturity assessments.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/config"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/logger"
)

var version = "dev"

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	logFormat  string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "assessctl",
		Short:         "Build, submit and export AI maturity assessments",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries reports and the MCP stream; logs go to stderr.
			if err := logger.Init(logger.WithFormat(opts.logFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(opts.logLevel)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default: $MATURITY_CONFIG)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		newBuildCmd(opts),
		newExportCmd(),
		newSubmitCmd(),
		newMCPCmd(opts),
	)
	return root
}

// loadConfig honours --config, falling back to the standard layering.
func (o *rootOptions) loadConfig(ctx context.Context) (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(ctx, o.configPath)
	}
	return config.Load(ctx)
}
