// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docupload/pkg/types"
)

// Export writes s to path in the format named by its extension: .yaml or
// .yml for YAML, .xlsx for an Excel workbook.
func Export(path string, s types.RunSummary) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return exportYAML(path, s)
	case ".xlsx":
		return exportXLSX(path, s)
	default:
		return fmt.Errorf("unsupported report format %q (use .yaml, .yml or .xlsx)", ext)
	}
}

func exportYAML(path string, s types.RunSummary) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

const (
	sheetSummary  = "Summary"
	sheetPeople   = "People"
	sheetAccounts = "Accounts"
)

func exportXLSX(path string, s types.RunSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	summary := [][]any{
		{"Run ID", s.RunID},
		{"Started", s.StartedAt.Format(time.RFC3339)},
		{"Finished", s.FinishedAt.Format(time.RFC3339)},
		{"People processed", len(s.People)},
		{"Accounts uploaded", s.Counts.Uploaded},
		{"Accounts skipped", s.Counts.Skipped},
		{"No matching accounts", s.Counts.NoMatch},
		{"Failed", s.Counts.Failed},
	}

	people := [][]any{{"Name", "Image", "Status", "Reason", "Uploaded", "Skipped", "Failed"}}
	accounts := [][]any{{"Person", "Account ID", "Status", "Reason", "Document ID"}}
	for _, p := range s.People {
		ok, skipped, failed := p.Tally()
		people = append(people, []any{p.Name, p.Image, string(p.Status), p.Reason, ok, skipped, failed})
		for _, a := range p.Accounts {
			accounts = append(accounts, []any{p.Name, a.AccountID.String(), string(a.Status), a.Reason, a.DocumentID.String()})
		}
	}

	for _, sh := range []struct {
		name string
		rows [][]any
	}{
		{sheetSummary, summary},
		{sheetPeople, people},
		{sheetAccounts, accounts},
	} {
		if err := writeSheet(f, sh.name, sh.rows); err != nil {
			return err
		}
	}

	idx, err := f.GetSheetIndex(sheetSummary)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("xlsx sheet %s: %w", sheet, err)
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("xlsx cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("xlsx %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
