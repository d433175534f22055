package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"image-audit/internal/compress"
	"image-audit/internal/history"
	"image-audit/internal/mediatypes"
	"image-audit/internal/organize"
)

func intPtr(v int) *int { return &v }

func sampleScan() *mediatypes.ScanResult {
	return &mediatypes.ScanResult{
		Root:  "/photos",
		Mode:  mediatypes.ModeAll,
		Total: 3,
		Oversized: []mediatypes.ImageInfo{
			{Path: "/photos/big.jpg", Name: "big.jpg", Bytes: 3 * 1024 * 1024, Width: intPtr(4000), Height: intPtr(3000)},
		},
		Duplicates: []mediatypes.FileGroup{{Name: "img.jpg", Paths: []string{"/photos/a/img.jpg", "/photos/b/img.jpg"}}},
		Days:       []mediatypes.FileGroup{},
		Similar:    []mediatypes.FileGroup{},
		Errors:     []mediatypes.FileError{{Path: "/photos/bad.jpg", Error: "command timed out"}},
	}
}

func TestScanSummary(t *testing.T) {
	var buf bytes.Buffer
	NewPlain(&buf).ScanSummary(sampleScan())

	want := []string{
		"Scanned: 3 images",
		"Too big: 1",
		"Duplicate name groups: 1",
		"Similiars: 0",
		"Day groups: 0",
		"Errors: 1",
	}
	got := buf.String()
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("ScanSummary() missing %q in:\n%s", w, got)
		}
	}
	if strings.Contains(got, "\x1b[") {
		t.Error("plain printer emitted ANSI codes")
	}
}

func TestScanSummaryOmitsZeroErrors(t *testing.T) {
	r := sampleScan()
	r.Errors = []mediatypes.FileError{}

	var buf bytes.Buffer
	NewPlain(&buf).ScanSummary(r)
	if strings.Contains(buf.String(), "Errors:") {
		t.Errorf("ScanSummary() printed Errors line with no errors:\n%s", buf.String())
	}
}

func TestScanReport(t *testing.T) {
	var buf bytes.Buffer
	NewPlain(&buf).ScanReport(sampleScan())
	got := buf.String()

	for _, w := range []string{
		"Too big images:",
		"- /photos/big.jpg",
		"size=3.0 MiB dims=4000x3000",
		"Duplicate names:",
		"- img.jpg (2)",
		"  /photos/b/img.jpg",
		"Errors:",
		"- /photos/bad.jpg: command timed out",
	} {
		if !strings.Contains(got, w) {
			t.Errorf("ScanReport() missing %q in:\n%s", w, got)
		}
	}
	// empty sections are not printed
	if strings.Contains(got, "Day groups:") || strings.Contains(got, "Similiars:") {
		t.Errorf("ScanReport() printed empty sections:\n%s", got)
	}
}

func TestCompressOutput(t *testing.T) {
	r := &compress.Result{
		Candidates: 2,
		Compressed: 1,
		Changed:    []compress.FileChange{{Path: "/p/a.jpg", BeforeBytes: 2048, AfterBytes: 1024}},
		Skipped:    []compress.FileSkip{{Path: "/p/b.jpg", Reason: compress.ReasonError, Error: "boom"}},
		Errors:     []mediatypes.FileError{{Path: "/p/b.jpg", Error: "boom"}},
		BytesSaved: 1024,
	}

	var buf bytes.Buffer
	p := NewPlain(&buf)
	p.CompressSummary(r)
	p.CompressReport(r)
	got := buf.String()

	for _, w := range []string{
		"Candidates: 2",
		"Compressed: 1",
		"Skipped: 1",
		"Saved: 1.0 KiB",
		"Errors: 1",
		"  2.0 KiB -> 1.0 KiB",
		"- /p/b.jpg (error): boom",
	} {
		if !strings.Contains(got, w) {
			t.Errorf("compress output missing %q in:\n%s", w, got)
		}
	}
}

func TestCompressSummaryZeroErrors(t *testing.T) {
	var buf bytes.Buffer
	NewPlain(&buf).CompressSummary(&compress.Result{})
	if !strings.Contains(buf.String(), "Errors: 0") {
		t.Errorf("CompressSummary() = %q, want Errors: 0", buf.String())
	}
}

func TestMoveOutput(t *testing.T) {
	r := &organize.MoveResult{
		Moved:  []organize.FileMove{{From: "/r/a.jpg", To: "/r/_days_/2023-05-01/a.jpg"}},
		Failed: []organize.FileMove{{From: "/r/b.jpg", To: "/r/_days_/2023-05-01/b.jpg", Err: "denied"}},
	}

	var buf bytes.Buffer
	p := NewPlain(&buf)
	p.MoveSummary(r)
	p.MoveReport(r)
	got := buf.String()

	for _, w := range []string{
		"Moved: 1",
		"Failed: 1",
		"Moved files:",
		"  -> /r/_days_/2023-05-01/a.jpg",
		"Failed moves:",
		"  Error: denied",
	} {
		if !strings.Contains(got, w) {
			t.Errorf("move output missing %q in:\n%s", w, got)
		}
	}
}

func TestHistory(t *testing.T) {
	var buf bytes.Buffer
	NewPlain(&buf).History(nil)
	if !strings.Contains(buf.String(), "No runs recorded") {
		t.Errorf("History(nil) = %q", buf.String())
	}

	buf.Reset()
	run := history.Run{ID: "abc", Command: "scan", Root: "/r", StartedAt: time.Now(), Total: 4, Errors: 1}
	NewPlain(&buf).RunDetail(&run,
		[]organize.FileMove{{From: "/r/a", To: "/r/b"}},
		[]history.Compression{{Path: "/r/c.jpg", Outcome: "compressed", BeforeBytes: 2048, AfterBytes: 1024}})
	got := buf.String()
	for _, w := range []string{"abc", "scan", "-  ", "total=4", "errors=1", "- /r/a -> /r/b", "- /r/c.jpg (compressed) 2.0 KiB -> 1.0 KiB"} {
		if !strings.Contains(got, w) {
			t.Errorf("RunDetail() missing %q in:\n%s", w, got)
		}
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleScan()); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	days, ok := decoded["days"].([]any)
	if !ok || len(days) != 0 {
		t.Errorf("days = %#v, want empty array", decoded["days"])
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"y", "y\n", true},
		{"yes upper", "YES\n", true},
		{"padded", "  yes  \n", true},
		{"no", "n\n", false},
		{"empty", "\n", false},
		{"eof", "", false},
		{"no newline", "y", true},
		{"other", "sure\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPlain(&out)
			p.SetInput(strings.NewReader(tt.input))
			if got := p.Confirm("Proceed?"); got != tt.want {
				t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if !strings.Contains(out.String(), "Proceed? (y/N)") {
				t.Errorf("prompt = %q, want question with (y/N)", out.String())
			}
		})
	}
}

func TestConfirmSequential(t *testing.T) {
	var out bytes.Buffer
	p := NewPlain(&out)
	p.SetInput(strings.NewReader("y\nn\ny\n"))

	got := []bool{p.Confirm("one"), p.Confirm("two"), p.Confirm("three"), p.Confirm("four")}
	want := []bool{true, false, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Confirm #%d = %v, want %v", i+1, got[i], want[i])
		}
	}
}

func TestConfirmWithoutInput(t *testing.T) {
	var out bytes.Buffer
	if NewPlain(&out).Confirm("Proceed?") {
		t.Error("Confirm() without input = true, want false")
	}
}

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	if ColorEnabled(&buf) {
		t.Error("ColorEnabled(buffer) = true, want false")
	}

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}
	defer f.Close()
	if ColorEnabled(f) {
		t.Error("ColorEnabled(regular file) = true, want false")
	}

	t.Setenv("NO_COLOR", "1")
	if ColorEnabled(os.Stdout) {
		t.Error("ColorEnabled() with NO_COLOR = true, want false")
	}
}

func TestPaint(t *testing.T) {
	if got := paint(false, styleError, "x"); got != "x" {
		t.Errorf("paint(disabled) = %q, want %q", got, "x")
	}
	if got := paint(true, styleError, "x"); got != ansiBold+ansiRed+"x"+ansiReset {
		t.Errorf("paint(error) = %q", got)
	}
}

func TestFailure(t *testing.T) {
	var buf bytes.Buffer
	NewPlain(&buf).Failure("Backup failed:", errors.New("exists"))
	if got := buf.String(); got != "Backup failed: exists\n" {
		t.Errorf("Failure() = %q", got)
	}
}
