package filesystem

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

type countingObserver struct {
	attempts, successes, failures, stale int
}

func (o *countingObserver) ObserveRetryAttempt(string) { o.attempts++ }
func (o *countingObserver) ObserveRetrySuccess(string) { o.successes++ }
func (o *countingObserver) ObserveRetryFailure(string) { o.failures++ }
func (o *countingObserver) ObserveStaleError(string)   { o.stale++ }

func fastConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "ESTALE error", err: syscall.ESTALE, want: true},
		{name: "wrapped ESTALE", err: &os.PathError{Op: "stat", Path: "x", Err: syscall.ESTALE}, want: true},
		{name: "ENOENT error", err: syscall.ENOENT, want: false},
		{name: "generic error", err: os.ErrNotExist, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatWithRetryExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := StatWithRetry(path, fastConfig())
	if err != nil {
		t.Fatalf("StatWithRetry() error = %v", err)
	}
	if info.Size() != 3 {
		t.Errorf("Size() = %d, want 3", info.Size())
	}
}

func TestStatWithRetryMissingFileFailsFast(t *testing.T) {
	obs := &countingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	_, err := StatWithRetry(filepath.Join(t.TempDir(), "missing.jpg"), fastConfig())
	if !os.IsNotExist(err) {
		t.Fatalf("StatWithRetry() error = %v, want not-exist", err)
	}
	if obs.attempts != 0 || obs.stale != 0 {
		t.Errorf("non-stale error was retried: %+v", obs)
	}
}

func TestStatWithRetryRecoversFromStaleHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	calls := 0
	stat = func(name string) (os.FileInfo, error) {
		calls++
		if calls < 3 {
			return nil, &os.PathError{Op: "stat", Path: name, Err: syscall.ESTALE}
		}
		return os.Stat(name)
	}
	defer func() { stat = os.Stat }()

	obs := &countingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	if _, err := StatWithRetry(path, fastConfig()); err != nil {
		t.Fatalf("StatWithRetry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("stat calls = %d, want 3", calls)
	}
	if obs.stale != 2 || obs.attempts != 2 || obs.successes != 1 {
		t.Errorf("observer = %+v, want 2 stale, 2 attempts, 1 success", obs)
	}
}

func TestStatWithRetryGivesUp(t *testing.T) {
	stat = func(name string) (os.FileInfo, error) {
		return nil, &os.PathError{Op: "stat", Path: name, Err: syscall.ESTALE}
	}
	defer func() { stat = os.Stat }()

	obs := &countingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	_, err := StatWithRetry("/nfs/a.jpg", fastConfig())
	if !isNFSStaleError(err) {
		t.Fatalf("StatWithRetry() error = %v, want ESTALE", err)
	}
	if obs.failures != 1 {
		t.Errorf("failures = %d, want 1", obs.failures)
	}
	if obs.stale != 4 {
		t.Errorf("stale = %d, want 4", obs.stale)
	}
}
