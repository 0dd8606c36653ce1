// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docupload/internal/crm"
	"github.com/pdiddy/docupload/internal/logging"
	"github.com/pdiddy/docupload/internal/report"
	"github.com/pdiddy/docupload/internal/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Rasterize the document and upload each page to the matching accounts",
	Long: `Run pairs each name in the names file with the page of the source document
at the same position, renders those pages to PNG, verifies the CRM session,
and then processes people one at a time: search for their account records,
check each record's status and uploaded flag, upload the image to eligible
records and set the uploaded flag. A report with final counts is printed at
the end and the whole transcript is saved under the log directory.

Missing input files, an empty names file, invalid configuration, a
rasterization failure or a failed session check stop the run before any
record is touched. Per-person and per-record failures are reported and the
run continues.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(viper.GetViper(), cmd, runFlags)
	},
	RunE: runRun,
}

var runFlags = map[string]string{
	"cookie":     keyCookie,
	"csrf":       keyCSRF,
	"base-url":   keyBaseURL,
	"owner-id":   keyOwnerID,
	"names":      keyNamesFile,
	"document":   keyDocumentFile,
	"delay":      keyDelay,
	"timeout":    keyTimeout,
	"backend":    keyBackend,
	"dpi":        keyDPI,
	"output-dir": keyOutputDir,
	"log-dir":    keyLogDir,
	"report":     keyReportFile,
}

func init() {
	f := runCmd.Flags()
	f.String("cookie", "", "Cookie header copied from a logged-in browser")
	f.String("csrf", "", "X-CSRF-Token header copied from a logged-in browser")
	f.String("base-url", "", "CRM origin, e.g. https://acme.myfreshworks.com")
	f.Int64("owner-id", 0, "owner user ID that scopes the account search")
	addInputFlags(runCmd)
	f.Duration("delay", 0, "pause between consecutive records and people (default 2s)")
	f.Duration("timeout", 0, "HTTP request timeout (default 60s)")
	f.String("log-dir", "", "directory for run logs (default log)")
	f.String("report", "", "also export the run report to this .yaml or .xlsx file")

	rootCmd.AddCommand(runCmd)
}

// addInputFlags registers the flags shared by run and rasterize.
func addInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("names", "", "names file, one name per line (default names.txt)")
	f.String("document", "", "scanned source document, one page per name (default document.pdf)")
	f.String("backend", "", "rasterizer backend: imagemagick or pdftoppm (default imagemagick)")
	f.Int("dpi", 0, "rasterization resolution (default 200)")
	f.String("output-dir", "", "directory for page images (default image)")
}

func runRun(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	ctx := cmd.Context()

	cookie, csrf, err := session(v, loadedSecrets)
	if err != nil {
		return err
	}
	cfg := buildConfig(v)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := checkInputs(cfg.Run); err != nil {
		return err
	}
	names, err := loadNames(cfg.Run.NamesFile)
	if err != nil {
		return err
	}

	logFile, err := logging.OpenRunLog(cfg.Run.LogDir, time.Now())
	if err != nil {
		return err
	}
	defer logFile.Close()

	sink := logging.NewSink(os.Stdout, logFile, logging.IsTerminal(os.Stdout))
	log := slog.New(logging.NewHandler(sink, &slog.HandlerOptions{Level: logLevel()}))

	logging.Header(sink, "Document Upload")
	log.InfoContext(ctx, fmt.Sprintf("loaded %d names", len(names)), "file", cfg.Run.NamesFile)

	logging.Header(sink, "Rasterizing Document")
	people, err := rasterizeDocument(ctx, cfg.Raster, cfg.Run.DocumentFile, names, log)
	if err != nil {
		log.ErrorContext(ctx, "rasterization failed", "error", err)
		return err
	}
	logging.Success(ctx, log, fmt.Sprintf("%d images ready", len(people)), "dir", cfg.Raster.OutputDir)

	logging.Header(sink, "Verifying Authentication")
	client := crm.NewClient(nil, cfg.CRM, crm.Session{Cookie: cookie, CSRFToken: csrf})
	if err := probeSession(ctx, client, names[0], log); err != nil {
		return err
	}

	logging.Header(sink, fmt.Sprintf("Processing %d people", len(people)))
	proc := workflow.New(client, cfg.Workflow, log, workflow.WithTranscript(sink))
	summary := proc.Run(ctx, people)
	log.DebugContext(ctx, "run finished", "run_id", summary.RunID, "elapsed", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second))

	report.Render(sink, summary, logFile.Name())

	if cfg.Run.ReportFile != "" {
		if err := report.Export(cfg.Run.ReportFile, summary); err != nil {
			log.ErrorContext(ctx, "report export failed", "file", cfg.Run.ReportFile, "error", err)
			return fmt.Errorf("exporting report: %w", err)
		}
		logging.Success(ctx, log, "report exported", "file", cfg.Run.ReportFile)
	}
	return nil
}
