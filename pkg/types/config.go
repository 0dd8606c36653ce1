package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// HTTPConfig holds shared HTTP settings for requests to the CRM.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"gte=0"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "docupload/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CRMConfig identifies the CRM backend and the custom module the workflow
// operates on.
type CRMConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the CRM origin, e.g. "https://acme.myfreshworks.com".
	BaseURL string `json:"base_url" yaml:"base_url" validate:"required,url"`

	// OwnerID scopes global search to records owned by this user.
	OwnerID int64 `json:"owner_id" yaml:"owner_id" validate:"gt=0"`

	// RecordType is the custom module name of account records (default "cm_accounts").
	RecordType string `json:"record_type" yaml:"record_type" validate:"required"`

	// DocumentTag is the tag attached to uploaded documents (default "ID Proof").
	DocumentTag string `json:"document_tag" yaml:"document_tag"`
}

// WorkflowConfig holds settings for the per-person sequencer.
type WorkflowConfig struct {
	// RecordType is the search result type that counts as an account match.
	RecordType string `json:"record_type" yaml:"record_type" validate:"required"`

	// PendingStatus is the only eligibility status value that permits upload
	// (default "Pending SAF with DT").
	PendingStatus string `json:"pending_status" yaml:"pending_status" validate:"required"`

	// Delay is the pause between consecutive accounts and consecutive people.
	Delay time.Duration `json:"delay" yaml:"delay" validate:"gte=0"`
}

// RasterConfig holds settings for page rasterization.
type RasterConfig struct {
	// Backend selects the renderer: imagemagick or pdftoppm.
	Backend string `json:"backend" yaml:"backend" validate:"oneof=imagemagick pdftoppm"`

	// DPI is the output density (default 200).
	DPI int `json:"dpi" yaml:"dpi" validate:"gte=36,lte=1200"`

	// OutputDir receives one PNG per person.
	OutputDir string `json:"output_dir" yaml:"output_dir" validate:"required"`
}

// RunConfig holds the input and output locations of a run.
type RunConfig struct {
	// NamesFile is the plain-text name list, one name per line.
	NamesFile string `json:"names_file" yaml:"names_file" validate:"required"`

	// DocumentFile is the multi-page source document, one page per person.
	DocumentFile string `json:"document_file" yaml:"document_file" validate:"required"`

	// LogDir receives the plain-text run log.
	LogDir string `json:"log_dir" yaml:"log_dir" validate:"required"`

	// ReportFile, when set, receives a YAML or XLSX export of the run summary.
	ReportFile string `json:"report_file,omitempty" yaml:"report_file,omitempty"`
}

// Config groups all settings of a run.
type Config struct {
	CRM      CRMConfig      `json:"crm" yaml:"crm"`
	Workflow WorkflowConfig `json:"workflow" yaml:"workflow"`
	Raster   RasterConfig   `json:"raster" yaml:"raster"`
	Run      RunConfig      `json:"run" yaml:"run"`
}

// Validate checks the configuration against its field constraints.
func (c *Config) Validate() error {
	return Validate(c)
}

// Validate checks any config struct, or pointer to one, against its
// validate tags. Commands that need only part of the configuration
// validate just that part.
func Validate(v any) error {
	if err := validator.New().Struct(v); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
