package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"image-audit/internal/compress"
	"image-audit/internal/history"
	"image-audit/internal/mediatypes"
	"image-audit/internal/organize"
)

// Printer writes console reports.
type Printer struct {
	out   io.Writer
	in    *bufio.Reader
	color bool
}

// New creates a Printer, enabling colors when out is a terminal.
func New(out io.Writer) *Printer {
	return &Printer{out: out, color: ColorEnabled(out)}
}

// NewPlain creates a Printer that never colors its output.
func NewPlain(out io.Writer) *Printer {
	return &Printer{out: out}
}

type section struct {
	title string
	lines []string
}

func (p *Printer) c(s style, text string) string {
	return paint(p.color, s, text)
}

func (p *Printer) line(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) stat(label string, value int) {
	p.line("%s %s", p.c(styleOK, label), p.c(styleCyan, strconv.Itoa(value)))
}

func (p *Printer) errorStat(label string, value int, always bool) {
	switch {
	case value > 0:
		p.line("%s %s", p.c(styleError, label), p.c(styleCyan, strconv.Itoa(value)))
	case always:
		p.line("%s %s", p.c(styleOK, label), p.c(styleDim, "0"))
	}
}

func (p *Printer) sections(secs []section) {
	for _, sec := range secs {
		if len(sec.lines) == 0 {
			continue
		}
		p.line("\n%s:", p.c(styleOK, sec.title))
		for _, l := range sec.lines {
			p.line("%s", p.c(styleCyan, l))
		}
	}
}

// ScanSummary prints the scan counters.
func (p *Printer) ScanSummary(r *mediatypes.ScanResult) {
	p.line("%s %s", p.c(styleOK, "Scanned:"), p.c(styleCyan, fmt.Sprintf("%d images", r.Total)))
	p.stat("Too big:", len(r.Oversized))
	p.stat("Duplicate name groups:", len(r.Duplicates))
	p.stat("Similiars:", len(r.Similar))
	p.stat("Day groups:", len(r.Days))
	p.errorStat("Errors:", len(r.Errors), false)
	if r.Stats.CacheHits+r.Stats.CacheMisses > 0 {
		p.line("%s %s", p.c(styleDim, "Cache:"),
			p.c(styleDim, fmt.Sprintf("%d hit, %d miss, %d tool call(s) in %v",
				r.Stats.CacheHits, r.Stats.CacheMisses, r.Stats.ToolCalls, r.Stats.Duration.Round(time.Millisecond))))
	}
}

// ScanReport prints the full per-file scan listing.
func (p *Printer) ScanReport(r *mediatypes.ScanResult) {
	var oversized []string
	for _, f := range r.Oversized {
		oversized = append(oversized, "- "+f.Path)
		oversized = append(oversized, fmt.Sprintf("  size=%s dims=%s", humanize.IBytes(uint64(f.Bytes)), f.Dimensions()))
	}

	var errs []string
	for _, e := range r.Errors {
		errs = append(errs, fmt.Sprintf("- %s: %s", e.Path, e.Error))
	}

	p.sections([]section{
		{"Too big images", oversized},
		{"Duplicate names", groupLines(r.Duplicates)},
		{"Day groups", groupLines(r.Days)},
		{"Similiars", groupLines(r.Similar)},
		{"Errors", errs},
	})
}

func groupLines(groups []mediatypes.FileGroup) []string {
	var lines []string
	for _, g := range groups {
		lines = append(lines, fmt.Sprintf("- %s (%d)", g.Name, len(g.Paths)))
		for _, path := range g.Paths {
			lines = append(lines, "  "+path)
		}
	}
	return lines
}

// CompressSummary prints the compression counters.
func (p *Printer) CompressSummary(r *compress.Result) {
	p.stat("Candidates:", r.Candidates)
	p.stat("Compressed:", r.Compressed)
	p.stat("Skipped:", len(r.Skipped))
	if r.BytesSaved > 0 {
		p.line("%s %s", p.c(styleOK, "Saved:"), p.c(styleCyan, humanize.IBytes(uint64(r.BytesSaved))))
	}
	p.errorStat("Errors:", len(r.Errors), true)
}

// CompressReport prints every changed and skipped file.
func (p *Printer) CompressReport(r *compress.Result) {
	var changed []string
	for _, c := range r.Changed {
		changed = append(changed, "- "+c.Path)
		changed = append(changed, fmt.Sprintf("  %s -> %s",
			humanize.IBytes(uint64(c.BeforeBytes)), humanize.IBytes(uint64(c.AfterBytes))))
	}

	var skipped []string
	for _, s := range r.Skipped {
		note := ""
		if s.Error != "" {
			note = ": " + s.Error
		}
		skipped = append(skipped, fmt.Sprintf("- %s (%s)%s", s.Path, s.Reason, note))
	}

	var errs []string
	for _, e := range r.Errors {
		errs = append(errs, fmt.Sprintf("- %s: %s", e.Path, e.Error))
	}

	p.sections([]section{
		{"Changed files", changed},
		{"Skipped files", skipped},
		{"Errors", errs},
	})
}

// MoveSummary prints the move counters.
func (p *Printer) MoveSummary(r *organize.MoveResult) {
	p.stat("Moved:", len(r.Moved))
	p.errorStat("Failed:", len(r.Failed), true)
}

// MoveReport prints every moved and failed file.
func (p *Printer) MoveReport(r *organize.MoveResult) {
	var moved []string
	for _, m := range r.Moved {
		moved = append(moved, "- "+m.From, "  -> "+m.To)
	}

	var failed []string
	for _, m := range r.Failed {
		failed = append(failed, "- "+m.From, "  -> "+m.To, "  Error: "+m.Err)
	}

	p.sections([]section{
		{"Moved files", moved},
		{"Failed moves", failed},
	})
}

// History prints a table of runs.
func (p *Printer) History(runs []history.Run) {
	if len(runs) == 0 {
		p.line("%s", p.c(styleDim, "No runs recorded"))
		return
	}
	for _, r := range runs {
		mode := r.Mode
		if mode == "" {
			mode = "-"
		}
		p.line("%s  %s  %-8s %-14s %s",
			p.c(styleCyan, r.ID),
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Command, mode, r.Root)
		p.line("    total=%d oversized=%d groups=%d errors=%d (%s, %v)",
			r.Total, r.Oversized, r.Groups, r.Errors,
			humanize.Time(r.StartedAt), r.Duration.Round(time.Millisecond))
	}
}

// RunDetail prints one run with its recorded moves and compressions.
func (p *Printer) RunDetail(run *history.Run, moves []organize.FileMove, comps []history.Compression) {
	p.History([]history.Run{*run})

	var moved []string
	for _, m := range moves {
		l := fmt.Sprintf("- %s -> %s", m.From, m.To)
		if m.Err != "" {
			l += " (" + m.Err + ")"
		}
		moved = append(moved, l)
	}

	var compressed []string
	for _, c := range comps {
		l := fmt.Sprintf("- %s (%s)", c.Path, c.Outcome)
		if c.AfterBytes > 0 {
			l += fmt.Sprintf(" %s -> %s", humanize.IBytes(uint64(c.BeforeBytes)), humanize.IBytes(uint64(c.AfterBytes)))
		}
		if c.Error != "" {
			l += ": " + c.Error
		}
		compressed = append(compressed, l)
	}

	p.sections([]section{
		{"Moves", moved},
		{"Compressions", compressed},
	})
}

// Notice prints a highlighted one-line message.
func (p *Printer) Notice(format string, args ...any) {
	p.line("%s", p.c(styleCyan, fmt.Sprintf(format, args...)))
}

// Failure prints an error label followed by a dimmed message.
func (p *Printer) Failure(label string, err error) {
	p.line("%s %s", p.c(styleError, label), p.c(styleDim, err.Error()))
}

// JSON writes v as indented JSON.
func JSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// SetInput sets where Confirm reads answers from. The reader is buffered
// once so consecutive prompts share it.
func (p *Printer) SetInput(in io.Reader) {
	p.in = bufio.NewReader(in)
}

// Confirm asks a yes/no question and reads the answer. Only "y" or "yes"
// (any case) count as yes; an empty answer, EOF or no input at all is no.
func (p *Printer) Confirm(question string) bool {
	_, _ = fmt.Fprintf(p.out, "\n%s%s (y/N) ", p.c(styleCyan, "? "), question)

	if p.in == nil {
		p.line("")
		return false
	}

	answer, err := p.in.ReadString('\n')
	if err != nil {
		// no newline was echoed by the terminal
		p.line("")
	}

	s := strings.ToLower(strings.TrimSpace(answer))
	return s == "y" || s == "yes"
}
