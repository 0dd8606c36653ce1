// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging renders the run transcript. A Handler formats slog
// records as indented, colored console lines; a Sink duplicates everything
// written to it onto the console and into a plain-text run log with ANSI
// escape sequences removed.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// ANSI styles used in the transcript.
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[91m"
	Green  = "\033[92m"
	Yellow = "\033[93m"
	Cyan   = "\033[96m"
)

// LevelSuccess sits between Info and Warn and marks a completed step.
const LevelSuccess = slog.Level(2)

// StepKey is the attribute key that turns a record into a step heading.
const StepKey = "step"

const ruleWidth = 70

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Strip removes ANSI color sequences from p.
func Strip(p []byte) []byte {
	return ansiPattern.ReplaceAll(p, nil)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Sink writes to the console and, when set, to a log file. The file always
// receives stripped text; the console receives colors only when color is true.
type Sink struct {
	mu      sync.Mutex
	console io.Writer
	file    io.Writer
	color   bool
}

// NewSink returns a Sink. file may be nil.
func NewSink(console, file io.Writer, color bool) *Sink {
	return &Sink{console: console, file: file, color: color}
}

// Write implements io.Writer. It reports len(p) on success so callers such
// as fmt.Fprintf see the colored length they wrote.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plain := Strip(p)
	out := plain
	if s.color {
		out = p
	}
	if _, err := s.console.Write(out); err != nil {
		return 0, err
	}
	if s.file != nil {
		if _, err := s.file.Write(plain); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Header writes a ruled section heading.
func Header(w io.Writer, title string) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintf(w, "\n%s\n  %s%s%s%s\n%s\n", rule, Bold, Cyan, title, Reset, rule)
}

// OpenRunLog creates dir and a log file named after now inside it.
func OpenRunLog(dir string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, "run_"+now.Format("20060102_150405")+".log")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating run log: %w", err)
	}
	return f, nil
}

// Success logs msg at LevelSuccess.
func Success(ctx context.Context, log *slog.Logger, msg string, args ...any) {
	log.Log(ctx, LevelSuccess, msg, args...)
}

// Handler is a slog.Handler producing transcript lines.
type Handler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

// NewHandler returns a Handler writing to w. Only opts.Level is honored;
// nil opts log at Info and above.
func NewHandler(w io.Writer, opts *slog.HandlerOptions) *Handler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &Handler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var (
		b    strings.Builder
		step string
		kv   []string
	)

	// h.attrs already carry their group prefix.
	appendAttr := func(prefix string, a slog.Attr) {
		a.Value = a.Value.Resolve()
		if a.Equal(slog.Attr{}) {
			return
		}
		if a.Key == StepKey && prefix == "" {
			step = a.Value.String()
			return
		}
		kv = append(kv, prefix+a.Key+"="+formatValue(a.Value))
	}
	for _, a := range h.attrs {
		appendAttr("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(h.prefix, a)
		return true
	})

	if step != "" {
		fmt.Fprintf(&b, "\n  %s[Step %s]%s %s", Bold, step, Reset, r.Message)
	} else {
		fmt.Fprintf(&b, "    %s %s", marker(r.Level), r.Message)
	}
	for _, s := range kv {
		fmt.Fprintf(&b, " %s%s%s", Dim, s, Reset)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		c.attrs = append(c.attrs, a)
	}
	return &c
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func marker(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return Red + "[ERR]" + Reset
	case l >= slog.LevelWarn:
		return Yellow + "[WARN]" + Reset
	case l >= LevelSuccess:
		return Green + "[OK]" + Reset
	case l >= slog.LevelInfo:
		return Dim + ">" + Reset
	default:
		return Dim + "." + Reset
	}
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " =\"\t\n") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		return v.String()
	}
}
