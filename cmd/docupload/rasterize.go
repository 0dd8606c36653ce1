// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docupload/internal/logging"
	"github.com/pdiddy/docupload/internal/rasterize"
	"github.com/pdiddy/docupload/pkg/types"
)

var rasterizeCmd = &cobra.Command{
	Use:   "rasterize",
	Short: "Render the source document to one PNG per name without contacting the CRM",
	Long: `Rasterize pairs each name in the names file with the page of the source
document at the same position and writes <name>.png into the output
directory. Use it to check the pairing before a run.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(viper.GetViper(), cmd, rasterizeFlags)
	},
	RunE: runRasterize,
}

var rasterizeFlags = map[string]string{
	"names":      keyNamesFile,
	"document":   keyDocumentFile,
	"backend":    keyBackend,
	"dpi":        keyDPI,
	"output-dir": keyOutputDir,
}

func init() {
	addInputFlags(rasterizeCmd)
	rootCmd.AddCommand(rasterizeCmd)
}

func runRasterize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := buildConfig(viper.GetViper())
	if err := types.Validate(cfg.Raster); err != nil {
		return err
	}
	if err := checkInputs(cfg.Run); err != nil {
		return err
	}
	names, err := loadNames(cfg.Run.NamesFile)
	if err != nil {
		return err
	}

	log := consoleLogger()
	people, err := rasterizeDocument(ctx, cfg.Raster, cfg.Run.DocumentFile, names, log)
	if err != nil {
		return err
	}
	for _, p := range people {
		log.InfoContext(ctx, fmt.Sprintf("page %d", p.Page), "name", p.Name, "image", p.Image)
	}
	logging.Success(ctx, log, fmt.Sprintf("%d images ready", len(people)), "dir", cfg.Raster.OutputDir)
	return nil
}

// rasterizeDocument renders pdfPath with the configured backend.
func rasterizeDocument(ctx context.Context, cfg types.RasterConfig, pdfPath string, names []string, log *slog.Logger) ([]types.Person, error) {
	backend, err := rasterize.NewBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	people, err := rasterize.Rasterize(ctx, backend, pdfPath, names, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("rasterizing %s: %w", pdfPath, err)
	}
	return people, nil
}
