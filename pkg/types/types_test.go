// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ID
	}{
		{"number", `403000123456`, "403000123456"},
		{"string", `"abc-1"`, "abc-1"},
		{"null", `null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ID
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIDUnmarshalJSONRejectsObjects(t *testing.T) {
	var got ID
	assert.Error(t, json.Unmarshal([]byte(`{"id":1}`), &got))
}

func TestIDMarshalJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A ID `json:"a"`
		B ID `json:"b"`
	}{A: "555", B: "doc-9"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":555,"b":"doc-9"}`, string(data))
}

func TestIDMarshalJSONLeadingZero(t *testing.T) {
	tests := []struct {
		id   ID
		want string
	}{
		{"0", `0`},
		{"007", `"007"`},
		{"00", `"00"`},
		{"10", `10`},
	}
	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			data, err := json.Marshal(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			var back ID
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.id, back)
		})
	}
}

func TestTally(t *testing.T) {
	people := []PersonOutcome{
		{Name: "A", Status: PersonDone, Succeeded: 1, Accounts: []AccountOutcome{
			{AccountID: "1", Status: AccountSuccess, DocumentID: "10"},
			{AccountID: "2", Status: AccountSkipped, Reason: "already uploaded"},
			{AccountID: "3", Status: AccountPartial, DocumentID: "11"},
		}},
		{Name: "B", Status: PersonNoMatch},
		{Name: "C", Status: PersonFailed, Reason: "boom"},
		{Name: "D", Status: PersonDone, Accounts: []AccountOutcome{
			{AccountID: "4", Status: AccountFailed, Reason: "timeout"},
		}},
	}

	got := Tally(people)
	assert.Equal(t, Counts{Uploaded: 1, Skipped: 1, NoMatch: 1, Failed: 3}, got)
}

func validConfig() Config {
	return Config{
		CRM: CRMConfig{
			HTTPConfig: HTTPConfig{Timeout: time.Minute},
			BaseURL:    "https://acme.myfreshworks.com",
			OwnerID:    42,
			RecordType: "cm_accounts",
		},
		Workflow: WorkflowConfig{
			RecordType:    "cm_accounts",
			PendingStatus: "Pending SAF with DT",
			Delay:         time.Second,
		},
		Raster: RasterConfig{Backend: "imagemagick", DPI: 200, OutputDir: "image"},
		Run:    RunConfig{NamesFile: "names.txt", DocumentFile: "document.pdf", LogDir: "log"},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing base url", mutate: func(c *Config) { c.CRM.BaseURL = "" }, wantErr: "BaseURL"},
		{name: "owner id zero", mutate: func(c *Config) { c.CRM.OwnerID = 0 }, wantErr: "OwnerID"},
		{name: "unknown backend", mutate: func(c *Config) { c.Raster.Backend = "ghostscript" }, wantErr: "Backend"},
		{name: "dpi too low", mutate: func(c *Config) { c.Raster.DPI = 10 }, wantErr: "DPI"},
		{name: "negative delay", mutate: func(c *Config) { c.Workflow.Delay = -time.Second }, wantErr: "Delay"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidatePart(t *testing.T) {
	cfg := validConfig()
	cfg.CRM.BaseURL = ""

	assert.NoError(t, Validate(cfg.Raster), "raster settings stand alone")
	assert.Error(t, Validate(cfg.CRM))
}
