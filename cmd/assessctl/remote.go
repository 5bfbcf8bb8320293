package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/apiclient"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/report"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/render"
)

const defaultAPIURL = "http://localhost:9080"

func newExportCmd() *cobra.Command {
	var (
		baseURL    string
		formatName string
		outPath    string
	)
	cmd := &cobra.Command{
		Use:   "export <subject-id>",
		Short: "Download the latest stored report of a subject from a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(formatName)
			if err != nil {
				return err
			}
			c, err := apiclient.New(baseURL)
			if err != nil {
				return err
			}
			body, err := c.Report(cmd.Context(), args[0], format)
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			return os.WriteFile(outPath, body, 0o600)
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", defaultAPIURL, "Base URL of the assessment API")
	cmd.Flags().StringVarP(&formatName, "format", "f", "json", "Export format: json, markdown, html, xlsx")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "File to write instead of stdout")
	return cmd
}

func newSubmitCmd() *cobra.Command {
	var (
		baseURL string
		workers int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "submit <document.json>...",
		Short: "Push build documents to a server and wait for their reports",
		Long: `Submit pushes each document through the intake endpoints (profile,
benchmark, evidence, quotes, perceptions), queues an assessment and waits
for the job to finish. Evidence and quote batches carry a content-derived
Idempotency-Key, so resubmitting a document does not duplicate intake.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := make([]report.Document, 0, len(args))
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				doc, err := report.DecodeDocument(f)
				_ = f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				docs = append(docs, doc)
			}

			c, err := apiclient.New(baseURL)
			if err != nil {
				return err
			}
			results, submitErr := c.SubmitAll(cmd.Context(), docs, workers)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
				return submitErr
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SUBJECT\tEVIDENCE\tDUPLICATES\tQUOTES\tJOB\tREPORT\tERROR")
			for _, r := range results {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
					r.SubjectID, r.Evidence.Accepted, r.Evidence.Duplicates, r.Quotes, r.JobID, r.ReportID, r.Error)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			return submitErr
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", defaultAPIURL, "Base URL of the assessment API")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Concurrent submissions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}
