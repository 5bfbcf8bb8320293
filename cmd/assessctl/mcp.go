package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	service "github.com/SquizAI/humanGLue-brain-sub005/internal/app"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/report"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/mcptool"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the assessment tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			bopts, err := service.BuilderOptions(cfg)
			if err != nil {
				return err
			}
			b, err := report.NewBuilder(bopts...)
			if err != nil {
				return err
			}
			return server.ServeStdio(mcptool.NewServer(b, version))
		},
	}
}
