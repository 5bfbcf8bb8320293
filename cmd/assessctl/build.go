package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	service "github.com/SquizAI/humanGLue-brain-sub005/internal/app"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/benchmark"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/report"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/render"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/logger"
)

// offlineBuilder builds reports locally from configuration, without a
// running service.
type offlineBuilder struct {
	builder    *report.Builder
	benchmarks *benchmark.Registry
}

func newOfflineBuilder(ctx context.Context, opts *rootOptions) (*offlineBuilder, error) {
	cfg, err := opts.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	bopts, err := service.BuilderOptions(cfg)
	if err != nil {
		return nil, err
	}
	b, err := report.NewBuilder(bopts...)
	if err != nil {
		return nil, err
	}
	reg, err := benchmark.NewRegistry(cfg.Benchmarks...)
	if err != nil {
		return nil, err
	}
	return &offlineBuilder{builder: b, benchmarks: reg}, nil
}

// decode reads one document. Configured benchmarks fill in for documents
// that carry none.
func (o *offlineBuilder) decode(r io.Reader) (report.Document, error) {
	doc, err := report.DecodeDocument(r)
	if err != nil {
		return report.Document{}, err
	}
	if doc.Benchmark == nil {
		doc.Benchmark = o.benchmarks.Lookup(doc.Subject.Industry, doc.Subject.SizeBand)
	}
	return doc, nil
}

func newBuildCmd(opts *rootOptions) *cobra.Command {
	var (
		formatName string
		outDir     string
	)
	cmd := &cobra.Command{
		Use:   "build [document.json...]",
		Short: "Build reports locally from JSON build documents",
		Long: `Build one report per JSON document without a running server.

A document holds {subject, evidence, quotes, perceptions, benchmark}. Use "-"
or no argument to read a single document from stdin. With one document the
report is written to stdout unless --out is set; with several, --out is
required and each report is written to <out>/<subject>.<ext>.

Example: assessctl build acme.json --format markdown`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(formatName)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"-"}
			}
			if len(args) > 1 && outDir == "" {
				return fmt.Errorf("--out is required when building %d documents", len(args))
			}

			ctx := cmd.Context()
			ob, err := newOfflineBuilder(ctx, opts)
			if err != nil {
				return err
			}
			for _, path := range args {
				if err := ob.buildOne(ctx, cmd, path, format, outDir); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "json", "Output format: json, markdown, html, xlsx")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to write reports into")
	return cmd
}

func (o *offlineBuilder) buildOne(ctx context.Context, cmd *cobra.Command, path string, format render.Format, outDir string) error {
	var in io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	doc, err := o.decode(in)
	if err != nil {
		return err
	}
	rep, err := o.builder.BuildDocument(ctx, doc)
	if err != nil {
		return err
	}

	if outDir == "" {
		return render.Render(cmd.OutOrStdout(), rep, format)
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return err
	}
	target := filepath.Join(outDir, rep.Subject.ID+"."+format.Extension())
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if err := render.Render(out, rep, format); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	logger.Get().Info(ctx, "report written",
		logger.String("subject_id", rep.Subject.ID),
		logger.String("level", rep.MaturityLevel.Name),
		logger.String("path", target),
	)
	return nil
}
