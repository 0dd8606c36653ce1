// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docupload/internal/rasterize"
	"github.com/pdiddy/docupload/internal/secrets"
	"github.com/pdiddy/docupload/pkg/types"
)

// Configuration keys. Each maps to a YAML path in docupload.yaml and to a
// DOCUPLOAD_ environment variable with dots replaced by underscores.
const (
	keyBaseURL       = "crm.base_url"
	keyOwnerID       = "crm.owner_id"
	keyRecordType    = "crm.record_type"
	keyDocumentTag   = "crm.document_tag"
	keyTimeout       = "http.timeout"
	keyUserAgent     = "http.user_agent"
	keyPendingStatus = "workflow.pending_status"
	keyDelay         = "workflow.delay"
	keyBackend       = "raster.backend"
	keyDPI           = "raster.dpi"
	keyOutputDir     = "raster.output_dir"
	keyNamesFile     = "run.names_file"
	keyDocumentFile  = "run.document_file"
	keyLogDir        = "run.log_dir"
	keyReportFile    = "run.report_file"
	keyCookie        = "session.cookie"
	keyCSRF          = "session.csrf"
)

const (
	defaultTimeout       = 60 * time.Second
	defaultDelay         = 2 * time.Second
	defaultRecordType    = "cm_accounts"
	defaultDocumentTag   = "ID Proof"
	defaultPendingStatus = "Pending SAF with DT"
	defaultDPI           = 200
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyRecordType, defaultRecordType)
	v.SetDefault(keyDocumentTag, defaultDocumentTag)
	v.SetDefault(keyTimeout, defaultTimeout)
	v.SetDefault(keyUserAgent, "docupload/"+version)
	v.SetDefault(keyPendingStatus, defaultPendingStatus)
	v.SetDefault(keyDelay, defaultDelay)
	v.SetDefault(keyBackend, rasterize.BackendImageMagick)
	v.SetDefault(keyDPI, defaultDPI)
	v.SetDefault(keyOutputDir, "image")
	v.SetDefault(keyNamesFile, "names.txt")
	v.SetDefault(keyDocumentFile, "document.pdf")
	v.SetDefault(keyLogDir, "log")
}

// bindFlags binds the named flags of cmd to configuration keys. Binding
// happens per invocation so commands sharing a key do not steal each
// other's flags.
func bindFlags(v *viper.Viper, cmd *cobra.Command, flags map[string]string) error {
	for flag, key := range flags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

// buildConfig assembles a Config from v without validating it.
func buildConfig(v *viper.Viper) types.Config {
	recordType := v.GetString(keyRecordType)
	return types.Config{
		CRM: types.CRMConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration(keyTimeout),
				UserAgent: v.GetString(keyUserAgent),
			},
			BaseURL:     v.GetString(keyBaseURL),
			OwnerID:     v.GetInt64(keyOwnerID),
			RecordType:  recordType,
			DocumentTag: v.GetString(keyDocumentTag),
		},
		Workflow: types.WorkflowConfig{
			RecordType:    recordType,
			PendingStatus: v.GetString(keyPendingStatus),
			Delay:         v.GetDuration(keyDelay),
		},
		Raster: types.RasterConfig{
			Backend:   v.GetString(keyBackend),
			DPI:       v.GetInt(keyDPI),
			OutputDir: v.GetString(keyOutputDir),
		},
		Run: types.RunConfig{
			NamesFile:    v.GetString(keyNamesFile),
			DocumentFile: v.GetString(keyDocumentFile),
			LogDir:       v.GetString(keyLogDir),
			ReportFile:   v.GetString(keyReportFile),
		},
	}
}

// session resolves the CRM session from flags, environment, config and the
// secrets directory, in that order. Both values are required.
func session(v *viper.Viper, stored map[string]string) (cookie, csrf string, err error) {
	cookie = secrets.Resolve(v.GetString(keyCookie), stored, secrets.CookieKey)
	csrf = secrets.Resolve(v.GetString(keyCSRF), stored, secrets.CSRFKey)
	switch {
	case cookie == "":
		return "", "", fmt.Errorf("--cookie is required (or store it in .secrets/%s)", secrets.CookieKey)
	case csrf == "":
		return "", "", fmt.Errorf("--csrf is required (or store it in .secrets/%s)", secrets.CSRFKey)
	}
	return cookie, csrf, nil
}

// checkInputs verifies that the name list and source document exist.
func checkInputs(cfg types.RunConfig) error {
	for _, in := range []struct{ label, path string }{
		{"names file", cfg.NamesFile},
		{"document file", cfg.DocumentFile},
	} {
		info, err := os.Stat(in.path)
		if err != nil {
			return fmt.Errorf("%s not found: %s", in.label, in.path)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory: %s", in.label, in.path)
		}
	}
	return nil
}

// readNames returns the trimmed, non-blank lines of path. A leading UTF-8
// byte order mark is ignored.
func readNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening names file: %w", err)
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for first := true; sc.Scan(); first = false {
		line := sc.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading names file: %w", err)
	}
	return names, nil
}

// loadNames reads the name list and fails when it holds no names.
func loadNames(path string) ([]string, error) {
	names, err := readNames(path)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no names loaded from %s", path)
	}
	return names, nil
}
