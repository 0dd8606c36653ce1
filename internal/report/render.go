// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report presents a finished run: a colored per-person summary with
// aggregate counts for the transcript, and file exports of the run summary.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/docupload/internal/logging"
	"github.com/pdiddy/docupload/pkg/types"
)

const ruleWidth = 70

// Render writes the run report to w. Colors are always emitted; a
// logging.Sink removes them where they do not belong. logPath, when not
// empty, is printed at the end.
func Render(w io.Writer, s types.RunSummary, logPath string) {
	const (
		R = logging.Red
		G = logging.Green
		Y = logging.Yellow
		B = logging.Bold
		X = logging.Reset
	)

	logging.Header(w, "RUN REPORT")
	for i, p := range s.People {
		idx := fmt.Sprintf("[%d/%d]", i+1, len(s.People))
		switch p.Status {
		case types.PersonNoMatch:
			fmt.Fprintf(w, "  %s%s%s %s%s%s - %sNo matching accounts%s\n", R, idx, X, B, p.Name, X, R, X)
		case types.PersonFailed:
			fmt.Fprintf(w, "  %s%s%s %s%s%s - %sFAILED: %s%s\n", R, idx, X, B, p.Name, X, R, p.Reason, X)
		default:
			ok, skipped, failed := p.Tally()
			color, detail := personLine(ok, skipped, failed)
			fmt.Fprintf(w, "  %s%s%s %s%s%s - %s\n", color, idx, X, B, p.Name, X, detail)
			for _, a := range p.Accounts {
				writeAccount(w, a)
			}
		}
	}

	rule := strings.Repeat("=", ruleWidth)
	c := s.Counts
	fmt.Fprintf(w, "\n%s\n  %sFINAL COUNTS%s\n%s\n", rule, B, X, rule)
	fmt.Fprintf(w, "  Total people processed : %d\n", len(s.People))
	fmt.Fprintf(w, "  %sAccounts uploaded      : %d%s\n", G, c.Uploaded, X)
	fmt.Fprintf(w, "  %sAccounts skipped       : %d%s\n", Y, c.Skipped, X)
	fmt.Fprintf(w, "  %sNo matching accounts   : %d%s\n", R, c.NoMatch, X)
	fmt.Fprintf(w, "  %sFailed                 : %d%s\n", R, c.Failed, X)
	fmt.Fprintln(w, rule)
	if logPath != "" {
		fmt.Fprintf(w, "  Log saved to: %s\n%s\n", logPath, rule)
	}
}

// personLine picks the color and detail text for a person whose accounts
// were all processed.
func personLine(ok, skipped, failed int) (string, string) {
	G, Y, R, X := logging.Green, logging.Yellow, logging.Red, logging.Reset
	switch {
	case ok > 0 && failed == 0:
		return G, fmt.Sprintf("%s%d uploaded%s, %d skipped", G, ok, X, skipped)
	case ok > 0:
		return Y, fmt.Sprintf("%s%d uploaded%s, %s%d failed%s, %d skipped", G, ok, X, R, failed, X, skipped)
	case failed == 0:
		return Y, fmt.Sprintf("%sAll %d skipped%s", Y, skipped, X)
	case skipped > 0:
		return R, fmt.Sprintf("%s%d failed%s, %d skipped", R, failed, X, skipped)
	default:
		return R, fmt.Sprintf("%s%d failed%s", R, failed, X)
	}
}

func writeAccount(w io.Writer, a types.AccountOutcome) {
	switch a.Status {
	case types.AccountSuccess:
		fmt.Fprintf(w, "      %sSUCCESS%s Account %s (doc:%s)\n", logging.Green, logging.Reset, a.AccountID, a.DocumentID)
	case types.AccountSkipped:
		fmt.Fprintf(w, "      %sSKIPPED%s Account %s (%s)\n", logging.Yellow, logging.Reset, a.AccountID, a.Reason)
	case types.AccountPartial:
		fmt.Fprintf(w, "      %sPARTIAL%s Account %s (doc:%s, %s)\n", logging.Red, logging.Reset, a.AccountID, a.DocumentID, a.Reason)
	default:
		fmt.Fprintf(w, "      %s%s%s Account %s (%s)\n", logging.Red, a.Status, logging.Reset, a.AccountID, a.Reason)
	}
}
