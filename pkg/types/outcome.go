// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// AccountStatus is the outcome kind for a single matched account.
type AccountStatus string

const (
	AccountSuccess AccountStatus = "SUCCESS"
	AccountSkipped AccountStatus = "SKIPPED"
	AccountFailed  AccountStatus = "FAILED"
	// AccountPartial means the document was uploaded but the uploaded flag
	// could not be set.
	AccountPartial AccountStatus = "PARTIAL"
)

// AccountOutcome records what happened to one matched account.
type AccountOutcome struct {
	AccountID ID            `json:"account_id" yaml:"account_id"`
	Status    AccountStatus `json:"status" yaml:"status"`
	Reason    string        `json:"reason,omitempty" yaml:"reason,omitempty"`

	// DocumentID is set for SUCCESS and PARTIAL outcomes.
	DocumentID ID `json:"document_id,omitempty" yaml:"document_id,omitempty"`
}

// PersonStatus is the outcome kind for one person.
type PersonStatus string

const (
	PersonNoMatch PersonStatus = "NO_MATCH"
	PersonFailed  PersonStatus = "FAILED"
	PersonDone    PersonStatus = "DONE"
)

// PersonOutcome records what happened to one person of the name list.
type PersonOutcome struct {
	Name   string       `json:"name" yaml:"name"`
	Image  string       `json:"image" yaml:"image"`
	Status PersonStatus `json:"status" yaml:"status"`
	Reason string       `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Succeeded counts SUCCESS account outcomes.
	Succeeded int              `json:"succeeded" yaml:"succeeded"`
	Accounts  []AccountOutcome `json:"accounts,omitempty" yaml:"accounts,omitempty"`
}

// Tally returns the number of successful, skipped, and failed account
// outcomes. PARTIAL outcomes count as failed.
func (p PersonOutcome) Tally() (succeeded, skipped, failed int) {
	for _, a := range p.Accounts {
		switch a.Status {
		case AccountSuccess:
			succeeded++
		case AccountSkipped:
			skipped++
		case AccountFailed, AccountPartial:
			failed++
		}
	}
	return succeeded, skipped, failed
}

// Counts are the aggregate numbers reported at the end of a run.
type Counts struct {
	Uploaded int `json:"uploaded" yaml:"uploaded"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	NoMatch  int `json:"no_match" yaml:"no_match"`
	Failed   int `json:"failed" yaml:"failed"`
}

// RunSummary is the ordered record of a whole run.
type RunSummary struct {
	RunID      string          `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time       `json:"finished_at" yaml:"finished_at"`
	People     []PersonOutcome `json:"people" yaml:"people"`
	Counts     Counts          `json:"counts" yaml:"counts"`
}

// Tally computes aggregate counts over people. Failed includes people whose
// search failed as well as FAILED and PARTIAL accounts.
func Tally(people []PersonOutcome) Counts {
	var c Counts
	for _, p := range people {
		switch p.Status {
		case PersonNoMatch:
			c.NoMatch++
		case PersonFailed:
			c.Failed++
		case PersonDone:
			s, sk, f := p.Tally()
			c.Uploaded += s
			c.Skipped += sk
			c.Failed += f
		}
	}
	return c
}
