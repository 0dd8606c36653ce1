// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docupload/internal/logging"
	"github.com/pdiddy/docupload/pkg/types"
)

func sampleSummary() types.RunSummary {
	people := []types.PersonOutcome{
		{Name: "ALICE ROW", Image: "image/ALICE_ROW.png", Status: types.PersonDone, Succeeded: 1, Accounts: []types.AccountOutcome{
			{AccountID: "101", Status: types.AccountSuccess, DocumentID: "555"},
		}},
		{Name: "BOB KHAN", Image: "image/BOB_KHAN.png", Status: types.PersonNoMatch, Reason: "no matching cm_accounts"},
		{Name: "CY DEE", Status: types.PersonFailed, Reason: "session expired"},
		{Name: "DEE EFF", Status: types.PersonDone, Accounts: []types.AccountOutcome{
			{AccountID: "7", Status: types.AccountSkipped, Reason: "status: Closed"},
			{AccountID: "8", Status: types.AccountPartial, Reason: "HTTP 500", DocumentID: "556"},
		}},
	}
	start := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	return types.RunSummary{
		RunID:      "7d444840-9dc0-11d1-b245-5ffdce74fad2",
		StartedAt:  start,
		FinishedAt: start.Add(time.Minute),
		People:     people,
		Counts:     types.Tally(people),
	}
}

func render(s types.RunSummary, logPath string) string {
	var buf bytes.Buffer
	Render(logging.NewSink(&buf, nil, false), s, logPath)
	return buf.String()
}

func TestRender(t *testing.T) {
	out := render(sampleSummary(), "log/run_20260506_070809.log")

	assert.Contains(t, out, "  [1/4] ALICE ROW - 1 uploaded, 0 skipped\n")
	assert.Contains(t, out, "      SUCCESS Account 101 (doc:555)\n")
	assert.Contains(t, out, "  [2/4] BOB KHAN - No matching accounts\n")
	assert.Contains(t, out, "  [3/4] CY DEE - FAILED: session expired\n")
	assert.Contains(t, out, "  [4/4] DEE EFF - 1 failed, 1 skipped\n")
	assert.Contains(t, out, "      SKIPPED Account 7 (status: Closed)\n")
	assert.Contains(t, out, "      PARTIAL Account 8 (doc:556, HTTP 500)\n")

	assert.Contains(t, out, "FINAL COUNTS")
	assert.Contains(t, out, "Total people processed : 4\n")
	assert.Contains(t, out, "Accounts uploaded      : 1\n")
	assert.Contains(t, out, "Accounts skipped       : 1\n")
	assert.Contains(t, out, "No matching accounts   : 1\n")
	assert.Contains(t, out, "Failed                 : 2\n")
	assert.Contains(t, out, "Log saved to: log/run_20260506_070809.log")
}

func TestRenderWithoutLogPath(t *testing.T) {
	out := render(types.RunSummary{}, "")
	assert.Contains(t, out, "Total people processed : 0")
	assert.NotContains(t, out, "Log saved to")
}

func TestRenderColors(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, sampleSummary(), "")
	out := buf.String()

	assert.Contains(t, out, logging.Green+"[1/4]"+logging.Reset)
	assert.Contains(t, out, logging.Red+"[2/4]"+logging.Reset)
	assert.Contains(t, out, logging.Red+"[3/4]"+logging.Reset)
}

func TestPersonLine(t *testing.T) {
	tests := []struct {
		name                string
		ok, skipped, failed int
		color, text         string
	}{
		{"all uploaded", 2, 1, 0, logging.Green, "2 uploaded, 1 skipped"},
		{"mixed", 1, 0, 1, logging.Yellow, "1 uploaded, 1 failed, 0 skipped"},
		{"all skipped", 0, 3, 0, logging.Yellow, "All 3 skipped"},
		{"failed and skipped", 0, 1, 2, logging.Red, "2 failed, 1 skipped"},
		{"all failed", 0, 0, 2, logging.Red, "2 failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			color, text := personLine(tt.ok, tt.skipped, tt.failed)
			assert.Equal(t, tt.color, color)
			assert.Equal(t, tt.text, string(logging.Strip([]byte(text))))
		})
	}
}

func TestExportYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.yaml")
	s := sampleSummary()
	require.NoError(t, Export(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got types.RunSummary
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, s.RunID, got.RunID)
	assert.Equal(t, s.Counts, got.Counts)
	require.Len(t, got.People, 4)
	assert.Equal(t, types.ID("555"), got.People[0].Accounts[0].DocumentID)
	assert.Equal(t, types.PersonNoMatch, got.People[1].Status)
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.xlsx")
	require.NoError(t, Export(path, sampleSummary()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary, sheetPeople, sheetAccounts}, f.GetSheetList())

	people, err := f.GetRows(sheetPeople)
	require.NoError(t, err)
	require.Len(t, people, 5)
	assert.Equal(t, []string{"ALICE ROW", "image/ALICE_ROW.png", "DONE", "", "1", "0", "0"}, people[1])

	accounts, err := f.GetRows(sheetAccounts)
	require.NoError(t, err)
	require.Len(t, accounts, 4)
	assert.Equal(t, []string{"DEE EFF", "8", "PARTIAL", "HTTP 500", "556"}, accounts[3])

	summary, err := f.GetRows(sheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Failed", "2"}, summary[7])
}

func TestExportUnsupported(t *testing.T) {
	err := Export(filepath.Join(t.TempDir(), "run.csv"), sampleSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported report format")
}
