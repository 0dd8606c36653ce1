// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docupload/internal/secrets"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadNames(t *testing.T) {
	path := writeFile(t, t.TempDir(), "names.txt", "\ufeffALICE ROW\n\n  BOB KHAN  \r\n\t\nCY DEE")

	names, err := readNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ALICE ROW", "BOB KHAN", "CY DEE"}, names)
}

func TestLoadNamesEmpty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "names.txt", "\n  \n")

	_, err := loadNames(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no names loaded")
}

func TestCheckInputs(t *testing.T) {
	dir := t.TempDir()
	names := writeFile(t, dir, "names.txt", "A\n")
	doc := writeFile(t, dir, "document.pdf", "%PDF-1.7")

	cfg := buildConfig(testViper())
	cfg.Run.NamesFile, cfg.Run.DocumentFile = names, doc
	assert.NoError(t, checkInputs(cfg.Run))

	cfg.Run.DocumentFile = filepath.Join(dir, "missing.pdf")
	err := checkInputs(cfg.Run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document file not found")

	cfg.Run.NamesFile = filepath.Join(dir, "missing.txt")
	err = checkInputs(cfg.Run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "names file not found")

	cfg.Run.NamesFile = dir
	err = checkInputs(cfg.Run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func testViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestBuildConfigDefaults(t *testing.T) {
	v := testViper()
	v.Set(keyBaseURL, "https://acme.myfreshworks.com")
	v.Set(keyOwnerID, "403000001694")

	cfg := buildConfig(v)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(403000001694), cfg.CRM.OwnerID)
	assert.Equal(t, "cm_accounts", cfg.CRM.RecordType)
	assert.Equal(t, "cm_accounts", cfg.Workflow.RecordType)
	assert.Equal(t, "ID Proof", cfg.CRM.DocumentTag)
	assert.Equal(t, 60*time.Second, cfg.CRM.Timeout)
	assert.Equal(t, "Pending SAF with DT", cfg.Workflow.PendingStatus)
	assert.Equal(t, 2*time.Second, cfg.Workflow.Delay)
	assert.Equal(t, "imagemagick", cfg.Raster.Backend)
	assert.Equal(t, 200, cfg.Raster.DPI)
	assert.Equal(t, "image", cfg.Raster.OutputDir)
	assert.Equal(t, "names.txt", cfg.Run.NamesFile)
	assert.Equal(t, "document.pdf", cfg.Run.DocumentFile)
	assert.Equal(t, "log", cfg.Run.LogDir)
	assert.Empty(t, cfg.Run.ReportFile)
}

func TestBuildConfigRequiresTenant(t *testing.T) {
	cfg := buildConfig(testViper())
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BaseURL")
}

func TestSession(t *testing.T) {
	stored := map[string]string{secrets.CookieKey: "stored-cookie", secrets.CSRFKey: "stored-csrf"}

	t.Run("flags win over secrets", func(t *testing.T) {
		v := testViper()
		v.Set(keyCookie, "flag-cookie")
		cookie, csrf, err := session(v, stored)
		require.NoError(t, err)
		assert.Equal(t, "flag-cookie", cookie)
		assert.Equal(t, "stored-csrf", csrf)
	})

	t.Run("missing cookie", func(t *testing.T) {
		_, _, err := session(testViper(), map[string]string{secrets.CSRFKey: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--cookie is required")
	})

	t.Run("missing csrf", func(t *testing.T) {
		_, _, err := session(testViper(), map[string]string{secrets.CookieKey: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--csrf is required")
	})
}

func TestProbeName(t *testing.T) {
	path := writeFile(t, t.TempDir(), "names.txt", "\nALICE ROW\nBOB KHAN\n")

	name, err := probeName(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "ALICE ROW", name)

	name, err = probeName([]string{"Someone"}, path)
	require.NoError(t, err)
	assert.Equal(t, "Someone", name)

	_, err = probeName(nil, filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
