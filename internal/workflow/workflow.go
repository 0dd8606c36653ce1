// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow runs the per-person upload sequence: search the CRM for
// the person's account records, check each record's eligibility, upload the
// person's image and mark the record as uploaded. Every person and every
// matched account ends in exactly one outcome; nothing is retried.
package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/docupload/internal/crm"
	"github.com/pdiddy/docupload/internal/logging"
	"github.com/pdiddy/docupload/pkg/types"
)

// Client is the subset of the CRM client the sequencer needs.
type Client interface {
	Search(ctx context.Context, name string) (*crm.SearchResponse, error)
	GetAccount(ctx context.Context, id types.ID) (*types.Account, error)
	UploadDocument(ctx context.Context, path string, accountID types.ID) (types.ID, error)
	SetUploadedFlag(ctx context.Context, accountID types.ID) (bool, error)
}

// Pause blocks for the given duration between consecutive requests.
type Pause func(time.Duration)

// Option configures a Processor.
type Option func(*Processor)

// WithPause replaces time.Sleep as the pacing primitive.
func WithPause(p Pause) Option {
	return func(pr *Processor) { pr.pause = p }
}

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(pr *Processor) { pr.now = now }
}

// WithTranscript sets the writer that receives the per-person banners.
func WithTranscript(w io.Writer) Option {
	return func(pr *Processor) { pr.transcript = w }
}

// Processor sequences the workflow for each person.
type Processor struct {
	client     Client
	log        *slog.Logger
	pause      Pause
	now        func() time.Time
	transcript io.Writer
	cfg        types.WorkflowConfig
}

// New returns a Processor that talks to client.
func New(client Client, cfg types.WorkflowConfig, log *slog.Logger, opts ...Option) *Processor {
	p := &Processor{
		client:     client,
		log:        log,
		pause:      time.Sleep,
		now:        time.Now,
		transcript: io.Discard,
		cfg:        cfg,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run processes people in order, pausing between consecutive people, and
// returns the run summary. A cancelled context stops the run before the
// next person; people already processed stay in the summary.
func (p *Processor) Run(ctx context.Context, people []types.Person) types.RunSummary {
	summary := types.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: p.now(),
		People:    make([]types.PersonOutcome, 0, len(people)),
	}

	for i, person := range people {
		if i > 0 {
			p.wait()
		}
		if err := ctx.Err(); err != nil {
			p.log.WarnContext(ctx, "run interrupted", "processed", i, "remaining", len(people)-i, "error", err)
			break
		}
		summary.People = append(summary.People, p.ProcessPerson(ctx, person, i+1, len(people)))
	}

	summary.FinishedAt = p.now()
	summary.Counts = types.Tally(summary.People)
	return summary
}

// ProcessPerson runs the sequence for one person. index is 1-based and,
// with total, only feeds the transcript.
func (p *Processor) ProcessPerson(ctx context.Context, person types.Person, index, total int) types.PersonOutcome {
	log := p.log.With("person", person.Name)
	logging.Header(p.transcript, fmt.Sprintf("[%d/%d] %s", index, total, person.Name))

	out := types.PersonOutcome{Name: person.Name, Image: person.Image}

	found := p.search(ctx, log, person)
	if found.terminal != nil {
		out.Status = found.terminal.status
		out.Reason = found.terminal.reason
		return out
	}

	for i, id := range found.accounts {
		if i > 0 {
			p.wait()
		}
		outcome := p.processAccount(ctx, log.With("account", id.String()), person, id)
		out.Accounts = append(out.Accounts, outcome)
	}

	out.Status = types.PersonDone
	out.Succeeded, _, _ = out.Tally()
	return out
}

func (p *Processor) wait() {
	if p.cfg.Delay > 0 {
		p.pause(p.cfg.Delay)
	}
}

// personStop ends a person's sequence before any account is touched.
type personStop struct {
	status types.PersonStatus
	reason string
}

// searchStep is the result of the search step: either the matched account
// IDs in response order or a terminal person outcome.
type searchStep struct {
	accounts []types.ID
	terminal *personStop
}

func (p *Processor) search(ctx context.Context, log *slog.Logger, person types.Person) searchStep {
	log.InfoContext(ctx, "Searching CRM", logging.StepKey, 1)

	resp, err := p.client.Search(ctx, person.Name)
	if err != nil {
		log.ErrorContext(ctx, "search failed", "error", err)
		return searchStep{terminal: &personStop{status: types.PersonFailed, reason: err.Error()}}
	}

	ids := matchAccounts(resp.Results, p.cfg.RecordType, person.Name)
	if len(ids) == 0 {
		reason := "no matching " + p.cfg.RecordType
		log.WarnContext(ctx, reason, "results", len(resp.Results))
		return searchStep{terminal: &personStop{status: types.PersonNoMatch, reason: reason}}
	}

	logging.Success(ctx, log, fmt.Sprintf("found %d matching account(s)", len(ids)))
	return searchStep{accounts: ids}
}

// matchAccounts keeps hits of recordType whose name equals name ignoring
// case and surrounding space. Repeated IDs are kept once.
func matchAccounts(hits []types.SearchHit, recordType, name string) []types.ID {
	want := strings.TrimSpace(name)
	seen := make(map[types.ID]bool)
	var ids []types.ID
	for _, h := range hits {
		if h.Type != recordType || !strings.EqualFold(strings.TrimSpace(h.Name), want) {
			continue
		}
		if seen[h.ID] {
			continue
		}
		seen[h.ID] = true
		ids = append(ids, h.ID)
	}
	return ids
}

// eligibilityStep carries either an account eligible for upload or the
// terminal outcome that ends this account.
type eligibilityStep struct {
	account  *types.Account
	terminal *types.AccountOutcome
}

// uploadStep carries either the new document ID or the terminal outcome.
type uploadStep struct {
	documentID types.ID
	terminal   *types.AccountOutcome
}

func (p *Processor) processAccount(ctx context.Context, log *slog.Logger, person types.Person, id types.ID) types.AccountOutcome {
	elig := p.checkEligibility(ctx, log, id)
	if elig.terminal != nil {
		return *elig.terminal
	}

	up := p.upload(ctx, log, person, id)
	if up.terminal != nil {
		return *up.terminal
	}

	return p.markUploaded(ctx, log, id, up.documentID)
}

func (p *Processor) checkEligibility(ctx context.Context, log *slog.Logger, id types.ID) eligibilityStep {
	log.InfoContext(ctx, "Checking eligibility", logging.StepKey, 2)

	acct, err := p.client.GetAccount(ctx, id)
	if err != nil {
		log.ErrorContext(ctx, "fetching account failed", "error", err)
		return eligibilityStep{terminal: &types.AccountOutcome{AccountID: id, Status: types.AccountFailed, Reason: err.Error()}}
	}

	if acct.Status != p.cfg.PendingStatus {
		reason := "status: " + acct.Status
		log.WarnContext(ctx, "skipped", "reason", reason)
		return eligibilityStep{terminal: &types.AccountOutcome{AccountID: id, Status: types.AccountSkipped, Reason: reason}}
	}
	if acct.Uploaded {
		reason := "already uploaded"
		log.WarnContext(ctx, "skipped", "reason", reason)
		return eligibilityStep{terminal: &types.AccountOutcome{AccountID: id, Status: types.AccountSkipped, Reason: reason}}
	}

	logging.Success(ctx, log, "eligible", "status", acct.Status)
	return eligibilityStep{account: acct}
}

func (p *Processor) upload(ctx context.Context, log *slog.Logger, person types.Person, id types.ID) uploadStep {
	log.InfoContext(ctx, "Uploading document", logging.StepKey, 3, "image", person.Image)

	docID, err := p.client.UploadDocument(ctx, person.Image, id)
	if err != nil {
		log.ErrorContext(ctx, "upload failed", "error", err)
		return uploadStep{terminal: &types.AccountOutcome{AccountID: id, Status: types.AccountFailed, Reason: err.Error()}}
	}

	logging.Success(ctx, log, "document uploaded", "document", docID.String())
	return uploadStep{documentID: docID}
}

func (p *Processor) markUploaded(ctx context.Context, log *slog.Logger, id, docID types.ID) types.AccountOutcome {
	log.InfoContext(ctx, "Setting uploaded flag", logging.StepKey, 4)

	confirmed, err := p.client.SetUploadedFlag(ctx, id)
	if err != nil {
		log.ErrorContext(ctx, "flag update failed, document is attached", "document", docID.String(), "error", err)
		return types.AccountOutcome{AccountID: id, Status: types.AccountPartial, Reason: err.Error(), DocumentID: docID}
	}

	if !confirmed {
		log.WarnContext(ctx, "flag update accepted but not echoed back", "document", docID.String())
	} else {
		logging.Success(ctx, log, "uploaded flag set")
	}
	return types.AccountOutcome{AccountID: id, Status: types.AccountSuccess, DocumentID: docID}
}
