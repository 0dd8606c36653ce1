// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the docupload workflow:
// people and the images paired with them, CRM account records, per-account
// and per-person outcomes, the run summary, and configuration.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID is an opaque CRM identifier. The CRM serializes identifiers as JSON
// numbers, but some endpoints echo them back as strings, so ID accepts both.
type ID string

// UnmarshalJSON decodes a JSON number or string into an ID.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON encodes numeric IDs as JSON numbers and anything else,
// including digit strings with a leading zero, as a string.
func (id ID) MarshalJSON() ([]byte, error) {
	s := string(id)
	if s != "" && strings.Trim(s, "0123456789") == "" && (s == "0" || s[0] != '0') {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

// String returns the identifier text.
func (id ID) String() string { return string(id) }

// Person is one entry of the name list, paired by position with one page
// of the source document.
type Person struct {
	// Name is the name as read from the name list (trimmed).
	Name string `json:"name" yaml:"name"`

	// Image is the path of the rasterized page for this person.
	Image string `json:"image" yaml:"image"`

	// Page is the 1-based page number in the source document.
	Page int `json:"page" yaml:"page"`
}

// SearchHit is one entry of a global search response.
type SearchHit struct {
	ID   ID     `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// Account holds the attributes of an account record that the workflow
// inspects before uploading.
type Account struct {
	ID   ID
	Name string

	// Status is the eligibility status custom field.
	Status string

	// Uploaded reports whether the identity document was already attached.
	Uploaded bool
}
