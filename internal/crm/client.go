// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crm wraps the four CRM operations the upload workflow needs:
// global search, account detail, document upload, and the uploaded-flag
// update. Authentication is an externally supplied session cookie and
// anti-forgery token sent on every request.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/docupload/internal/httputil"
	"github.com/pdiddy/docupload/pkg/types"
)

const (
	searchPath    = "/crm/sales/global_search"
	documentsPath = "/crm/sales/documents"
	modulePath    = "/crm/sales/custom_module/"

	// Custom fields on account records.
	StatusField   = "cf_saf_status"
	UploadedField = "cf_file_uploaded"

	searchPageSize     = 100
	defaultDocumentTag = "ID Proof"
)

// ErrUnexpectedPayload reports a 2xx response missing a field the workflow
// depends on.
var ErrUnexpectedPayload = errors.New("unexpected response payload")

// Session carries the browser session credentials.
type Session struct {
	Cookie    string
	CSRFToken string
}

// Client talks to one CRM tenant on behalf of one browser session.
type Client struct {
	http    *http.Client
	cfg     types.CRMConfig
	session Session
	baseURL string
}

// NewClient returns a Client for cfg. A nil httpClient gets one with
// cfg.Timeout.
func NewClient(httpClient *http.Client, cfg types.CRMConfig, session Session) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.DocumentTag == "" {
		cfg.DocumentTag = defaultDocumentTag
	}
	return &Client{
		http:    httpClient,
		cfg:     cfg,
		session: session,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// SearchResponse is the decoded global search payload.
type SearchResponse struct {
	Results []types.SearchHit
}

type searchFilter struct {
	Field    string  `json:"field"`
	Value    []int64 `json:"value"`
	Operator string  `json:"operator"`
}

type searchRequest struct {
	Query       string         `json:"q"`
	Include     string         `json:"include"`
	Global      string         `json:"g"`
	PerPage     int            `json:"per_page"`
	FilterRules []searchFilter `json:"filter_rules"`
}

type searchPayload struct {
	SearchResponse *[]types.SearchHit `json:"search_response"`
}

// Search runs a global search for name, scoped to the configured owner.
// Results are returned unfiltered.
func (c *Client) Search(ctx context.Context, name string) (*SearchResponse, error) {
	body, err := json.Marshal(searchRequest{
		Query:   name,
		Include: "all",
		Global:  "1",
		PerPage: searchPageSize,
		FilterRules: []searchFilter{{
			Field:    "owner_id",
			Value:    []int64{c.cfg.OwnerID},
			Operator: "is",
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, searchPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	var payload searchPayload
	if err := c.do(req, &payload); err != nil {
		return nil, fmt.Errorf("search %q: %w", name, err)
	}
	if payload.SearchResponse == nil {
		return nil, fmt.Errorf("search %q: %w: missing search_response", name, ErrUnexpectedPayload)
	}
	return &SearchResponse{Results: *payload.SearchResponse}, nil
}

// Probe verifies the session by running a search for name. It fails when
// the session has expired or the payload is not a search response.
func (c *Client) Probe(ctx context.Context, name string) error {
	_, err := c.Search(ctx, name)
	return err
}

type accountRecord struct {
	ID          types.ID       `json:"id"`
	Name        string         `json:"name"`
	CustomField map[string]any `json:"custom_field"`
}

// GetAccount fetches one account record with its custom fields.
func (c *Client) GetAccount(ctx context.Context, id types.ID) (*types.Account, error) {
	path := modulePath + c.cfg.RecordType + "/" + id.String() + "?include=territory"
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	if err := c.do(req, &payload); err != nil {
		return nil, fmt.Errorf("fetching account %s: %w", id, err)
	}
	rec, err := c.record(payload)
	if err != nil {
		return nil, fmt.Errorf("fetching account %s: %w", id, err)
	}

	acct := &types.Account{ID: rec.ID, Name: rec.Name}
	if acct.ID == "" {
		acct.ID = id
	}
	if s, ok := rec.CustomField[StatusField].(string); ok {
		acct.Status = s
	}
	uploaded, err := uploadedFlag(rec.CustomField[UploadedField])
	if err != nil {
		return nil, fmt.Errorf("fetching account %s: %w", id, err)
	}
	acct.Uploaded = uploaded
	return acct, nil
}

// uploadedFlag interprets the uploaded custom field. The CRM normally sends
// a boolean but some tenants store the field as text or a number. Null is
// false; a value of any other shape is an error so the account is never
// mistaken for one that still needs its document.
func uploadedFlag(v any) (bool, error) {
	switch f := v.(type) {
	case nil:
		return false, nil
	case bool:
		return f, nil
	case float64:
		return f != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "true", "1":
			return true, nil
		case "false", "0", "":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: %s is %v", ErrUnexpectedPayload, UploadedField, v)
}

type documentResponse struct {
	ID types.ID `json:"id"`
}

// UploadDocument attaches the PNG at path to the account as a tagged
// document and returns the new document ID.
func (c *Client) UploadDocument(ctx context.Context, path string, accountID types.ID) (types.ID, error) {
	body, contentType, err := c.documentForm(path, accountID)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", filepath.Base(path), err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, documentsPath, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	var doc documentResponse
	if err := c.do(req, &doc); err != nil {
		return "", fmt.Errorf("uploading %s: %w", filepath.Base(path), err)
	}
	if doc.ID == "" {
		return "", fmt.Errorf("uploading %s: %w: missing document id", filepath.Base(path), ErrUnexpectedPayload)
	}
	return doc.ID, nil
}

func (c *Client) documentForm(path string, accountID types.ID) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	fileName := filepath.Base(path)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("reading image: %w", err)
	}

	for _, field := range [][2]string{
		{"file_name", fileName},
		{"targetable_id", accountID.String()},
		{"targetable_type", c.cfg.RecordType},
		{"is_shared", "false"},
		{"tags", c.cfg.DocumentTag},
	} {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", field[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

// SetUploadedFlag sets the uploaded custom field to true and returns the
// value the CRM confirmed.
func (c *Client) SetUploadedFlag(ctx context.Context, accountID types.ID) (bool, error) {
	body, err := json.Marshal(map[string]any{
		c.cfg.RecordType: map[string]any{
			"custom_field": map[string]any{UploadedField: true},
		},
	})
	if err != nil {
		return false, fmt.Errorf("encoding flag update: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, modulePath+c.cfg.RecordType+"/"+accountID.String(), bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	var payload map[string]json.RawMessage
	if err := c.do(req, &payload); err != nil {
		return false, fmt.Errorf("updating account %s: %w", accountID, err)
	}
	rec, err := c.record(payload)
	if err != nil {
		return false, fmt.Errorf("updating account %s: %w", accountID, err)
	}
	confirmed, _ := uploadedFlag(rec.CustomField[UploadedField])
	return confirmed, nil
}

// record extracts the account record keyed by the configured record type.
func (c *Client) record(payload map[string]json.RawMessage) (*accountRecord, error) {
	raw, ok := payload[c.cfg.RecordType]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrUnexpectedPayload, c.cfg.RecordType)
	}
	var rec accountRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parsing %s record: %w", c.cfg.RecordType, err)
	}
	return &rec, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-CSRF-Token", c.session.CSRFToken)
	req.Header.Set("Cookie", c.session.Cookie)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("CRM request: %w", err)
	}
	return httputil.DecodeJSON(resp, v)
}
