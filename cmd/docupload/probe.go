// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docupload/internal/crm"
	"github.com/pdiddy/docupload/internal/httputil"
	"github.com/pdiddy/docupload/internal/logging"
	"github.com/pdiddy/docupload/pkg/types"
)

var probeCmd = &cobra.Command{
	Use:   "probe [name]",
	Short: "Check that the CRM session is still valid",
	Long: `Probe runs one global search with the configured session and reports whether
the CRM answered with a search response. The search term defaults to the
first name in the names file.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(viper.GetViper(), cmd, probeFlags)
	},
	RunE: runProbe,
}

var probeFlags = map[string]string{
	"cookie":   keyCookie,
	"csrf":     keyCSRF,
	"base-url": keyBaseURL,
	"owner-id": keyOwnerID,
	"names":    keyNamesFile,
	"timeout":  keyTimeout,
}

func init() {
	f := probeCmd.Flags()
	f.String("cookie", "", "Cookie header copied from a logged-in browser")
	f.String("csrf", "", "X-CSRF-Token header copied from a logged-in browser")
	f.String("base-url", "", "CRM origin, e.g. https://acme.myfreshworks.com")
	f.Int64("owner-id", 0, "owner user ID that scopes the search")
	f.String("names", "", "names file whose first name is the default search term (default names.txt)")
	f.Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()

	cookie, csrf, err := session(v, loadedSecrets)
	if err != nil {
		return err
	}
	cfg := buildConfig(v)
	if err := types.Validate(cfg.CRM); err != nil {
		return err
	}

	name, err := probeName(args, cfg.Run.NamesFile)
	if err != nil {
		return err
	}

	client := crm.NewClient(nil, cfg.CRM, crm.Session{Cookie: cookie, CSRFToken: csrf})
	return probeSession(cmd.Context(), client, name, consoleLogger())
}

// probeName picks the search term: the argument when given, otherwise the
// first name in the names file.
func probeName(args []string, namesFile string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	names, err := loadNames(namesFile)
	if err != nil {
		return "", fmt.Errorf("no search term given and %w", err)
	}
	return names[0], nil
}

// probeSession verifies the session with a search for name.
func probeSession(ctx context.Context, client *crm.Client, name string, log *slog.Logger) error {
	log.InfoContext(ctx, "probing session", "query", name)
	if err := client.Probe(ctx, name); err != nil {
		if errors.Is(err, httputil.ErrSessionExpired) {
			log.ErrorContext(ctx, "session expired, refresh --cookie and --csrf from a logged-in browser tab")
		} else {
			log.ErrorContext(ctx, "authentication failed", "error", err)
		}
		return fmt.Errorf("authentication probe failed: %w", err)
	}
	logging.Success(ctx, log, "auth OK")
	return nil
}
