package organize

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"image-audit/internal/mediatypes"
)

func seed(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll(%s) error = %v", path, err)
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", path, err)
		}
	}
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	return string(b)
}

func TestBackupCopiesTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{
		"/photos/a.jpg":       "aaa",
		"/photos/sub/b.png":   "bb",
		"/photos/sub/x/c.jpg": "c",
	})

	dest, err := Backup(fs, "/photos/")
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if dest != "/photos_backup" {
		t.Errorf("Backup() = %q, want %q", dest, "/photos_backup")
	}

	for path, want := range map[string]string{
		"/photos_backup/a.jpg":       "aaa",
		"/photos_backup/sub/b.png":   "bb",
		"/photos_backup/sub/x/c.jpg": "c",
	} {
		if got := readFile(t, fs, path); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}

	// originals untouched
	if got := readFile(t, fs, "/photos/a.jpg"); got != "aaa" {
		t.Errorf("original = %q, want %q", got, "aaa")
	}
}

func TestBackupRefusesExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{
		"/photos/a.jpg":        "new",
		"/photos_backup/a.jpg": "old",
	})

	_, err := Backup(fs, "/photos")
	if err == nil {
		t.Fatal("Backup() error = nil, want error for existing backup")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Backup() error = %v, want already exists", err)
	}
	if got := readFile(t, fs, "/photos_backup/a.jpg"); got != "old" {
		t.Errorf("existing backup modified: %q", got)
	}
}

func TestBackupMissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := Backup(fs, "/nope"); err == nil {
		t.Error("Backup() error = nil, want error for missing source")
	}
}

func TestDestinations(t *testing.T) {
	tests := []struct {
		name   string
		mode   mediatypes.GroupMode
		groups []mediatypes.FileGroup
		want   []string
	}{
		{
			name: "duplicate names numbered per group",
			mode: mediatypes.ModeDuplicateName,
			groups: []mediatypes.FileGroup{
				{Name: "img.jpg", Paths: []string{"/r/a/img.jpg", "/r/b/img.jpg"}},
				{Name: "x.png", Paths: []string{"/r/x.png", "/r/c/x.png"}},
			},
			want: []string{
				"/r/_duplicates_/img.jpg/img_0.jpg",
				"/r/_duplicates_/img.jpg/img_1.jpg",
				"/r/_duplicates_/x.png/x_0.png",
				"/r/_duplicates_/x.png/x_1.png",
			},
		},
		{
			name: "days keep base name",
			mode: mediatypes.ModeDay,
			groups: []mediatypes.FileGroup{
				{Name: "2023-05-01", Paths: []string{"/r/c.png"}},
			},
			want: []string{"/r/_days_/2023-05-01/c.png"},
		},
		{
			name: "similar numbered globally from one",
			mode: mediatypes.ModeSimilar,
			groups: []mediatypes.FileGroup{
				{Name: "group-1", Paths: []string{"/r/a.jpg", "/r/b.jpg"}},
				{Name: "group-2", Paths: []string{"/r/c.jpg", "/r/d.jpg"}},
			},
			want: []string{
				"/r/_similiars_/group-1/a__1.jpg",
				"/r/_similiars_/group-1/b__2.jpg",
				"/r/_similiars_/group-2/c__3.jpg",
				"/r/_similiars_/group-2/d__4.jpg",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			moves, err := Destinations("/r", tt.mode, tt.groups)
			if err != nil {
				t.Fatalf("Destinations() error = %v", err)
			}
			var got []string
			for _, m := range moves {
				got = append(got, m.To)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Destinations() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDestinationsRejectsAll(t *testing.T) {
	groups := []mediatypes.FileGroup{{Name: "x.jpg", Paths: []string{"/r/a/x.jpg", "/r/b/x.jpg"}}}

	for _, g := range [][]mediatypes.FileGroup{nil, groups} {
		if _, err := Destinations("/r", mediatypes.ModeAll, g); err == nil {
			t.Errorf("Destinations(all, %d groups) error = nil, want error", len(g))
		}
		if _, err := Move(afero.NewMemMapFs(), "/r", mediatypes.ModeAll, g); err == nil {
			t.Errorf("Move(all, %d groups) error = nil, want error", len(g))
		}
	}
}

func TestMoveDuplicates(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{
		"/r/a/img.jpg": "first",
		"/r/b/img.jpg": "second",
	})
	groups := []mediatypes.FileGroup{{Name: "img.jpg", Paths: []string{"/r/a/img.jpg", "/r/b/img.jpg"}}}

	result, err := Move(fs, "/r", mediatypes.ModeDuplicateName, groups)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if len(result.Moved) != 2 || result.HasErrors() {
		t.Fatalf("Move() = %+v, want 2 moved and no failures", result)
	}
	if got := readFile(t, fs, "/r/_duplicates_/img.jpg/img_0.jpg"); got != "first" {
		t.Errorf("img_0.jpg = %q, want first", got)
	}
	if got := readFile(t, fs, "/r/_duplicates_/img.jpg/img_1.jpg"); got != "second" {
		t.Errorf("img_1.jpg = %q, want second", got)
	}
	if ok, _ := afero.Exists(fs, "/r/a/img.jpg"); ok {
		t.Error("source still exists after move")
	}
}

func TestMoveAvoidsOverwrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{
		"/r/c.png":                   "new",
		"/r/_days_/2023-05-01/c.png": "existing",
	})
	groups := []mediatypes.FileGroup{{Name: "2023-05-01", Paths: []string{"/r/c.png"}}}

	result, err := Move(fs, "/r", mediatypes.ModeDay, groups)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	want := []FileMove{{From: "/r/c.png", To: "/r/_days_/2023-05-01/c-1.png"}}
	if !reflect.DeepEqual(result.Moved, want) {
		t.Errorf("Moved = %+v, want %+v", result.Moved, want)
	}
	if got := readFile(t, fs, "/r/_days_/2023-05-01/c.png"); got != "existing" {
		t.Errorf("existing file overwritten: %q", got)
	}
}

func TestMoveContinuesAfterFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{"/r/b.jpg": "b"})
	groups := []mediatypes.FileGroup{{Name: "group-1", Paths: []string{"/r/missing.jpg", "/r/b.jpg"}}}

	result, err := Move(fs, "/r", mediatypes.ModeSimilar, groups)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if len(result.Failed) != 1 || result.Failed[0].From != "/r/missing.jpg" || result.Failed[0].Err == "" {
		t.Errorf("Failed = %+v, want missing.jpg with error", result.Failed)
	}
	want := []FileMove{{From: "/r/b.jpg", To: "/r/_similiars_/group-1/b__2.jpg"}}
	if !reflect.DeepEqual(result.Moved, want) {
		t.Errorf("Moved = %+v, want %+v", result.Moved, want)
	}
}
