// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docupload CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docupload/internal/logging"
	"github.com/pdiddy/docupload/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds session credentials loaded from the secrets directory
// at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the docupload CLI.
var rootCmd = &cobra.Command{
	Use:   "docupload",
	Short: "Attach scanned ID documents to CRM account records",
	Long: `docupload splits a scanned multi-page document into one image per person,
finds each person's account records in the CRM, uploads the image to every
eligible record and marks the record as uploaded.

The CRM session is borrowed from a logged-in browser: pass the Cookie and
X-CSRF-Token headers with --cookie and --csrf, or store them in
.secrets/cookie and .secrets/csrf-token.`,
	SilenceUsage: true,
}

// persistentPreRun loads .env and session secrets before any subcommand runs.
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	dir, _ := cmd.Flags().GetString("secrets-dir")
	s, err := secrets.Load(consoleLogger(), dir)
	if err != nil {
		return err
	}
	loadedSecrets = s
	if len(s) > 0 {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
	}
	return nil
}

func init() {
	rootCmd.PersistentPreRunE = persistentPreRun
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docupload.yaml or ~/.config/docupload/docupload.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory holding cookie and csrf-token files")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug detail")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docupload")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docupload"))
		}
	}

	viper.SetEnvPrefix("DOCUPLOAD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// consoleLogger returns a transcript logger writing to stdout only.
func consoleLogger() *slog.Logger {
	sink := logging.NewSink(os.Stdout, nil, logging.IsTerminal(os.Stdout))
	return slog.New(logging.NewHandler(sink, &slog.HandlerOptions{Level: logLevel()}))
}

func logLevel() slog.Level {
	if v, _ := rootCmd.PersistentFlags().GetBool("verbose"); v {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
