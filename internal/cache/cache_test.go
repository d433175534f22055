package cache

import (
	"errors"
	"sync"
	"testing"

	"image-audit/internal/mediatypes"

	"github.com/spf13/afero"
)

const cachePath = "/home/u/.cache/image-audit/cache.json"

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func sample(path string) mediatypes.ImageInfo {
	return mediatypes.ImageInfo{
		Path:   path,
		Name:   "a.jpg",
		Bytes:  2048,
		MTime:  1700000000000,
		Width:  intPtr(640),
		Height: intPtr(480),
		Date:   strPtr("2023-11-14"),
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := Load(afero.NewMemMapFs(), cachePath)

	if len(s.entries) != 0 {
		t.Errorf("entries = %d, want 0", len(s.entries))
	}
	if s.LoadErr() != nil {
		t.Errorf("LoadErr() = %v, want nil for a missing file", s.LoadErr())
	}
}

func TestLoadMalformedFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, cachePath, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := Load(fs, cachePath)
	if len(s.entries) != 0 {
		t.Errorf("entries = %d, want 0", len(s.entries))
	}
	var ioErr *IOError
	if !errors.As(s.LoadErr(), &ioErr) || ioErr.Op != "parse" {
		t.Errorf("LoadErr() = %v, want parse IOError", s.LoadErr())
	}
}

func TestLoadEmptyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, cachePath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if s := Load(fs, cachePath); len(s.entries) != 0 || s.LoadErr() != nil {
		t.Errorf("empty file: entries = %d, LoadErr() = %v", len(s.entries), s.LoadErr())
	}
}

func TestLoadDropsInvalidEntries(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := `{
		"/photos/good.jpg": {"path": "/photos/good.jpg", "name": "good.jpg", "bytes": 10, "mTime": 5, "phash": "00ff"},
		"/photos/hash.jpg": {"path": "/photos/hash.jpg", "name": "hash.jpg", "bytes": 10, "mTime": 5, "phash": "zz"},
		"/photos/upper.jpg": {"path": "/photos/upper.jpg", "name": "upper.jpg", "bytes": 10, "mTime": 5, "phash": "00FF"},
		"/photos/size.jpg": {"path": "/photos/size.jpg", "name": "size.jpg", "bytes": -1, "mTime": 5},
		"/photos/dims.jpg": {"path": "/photos/dims.jpg", "name": "dims.jpg", "bytes": 10, "mTime": 5, "width": -3, "height": 4}
	}`
	if err := afero.WriteFile(fs, cachePath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	s := Load(fs, cachePath)
	if len(s.entries) != 1 {
		t.Errorf("entries = %d, want 1", len(s.entries))
	}
	if _, ok := s.Get("/photos/good.jpg", 10, 5); !ok {
		t.Error("valid entry was dropped")
	}
	for _, p := range []string{"/photos/hash.jpg", "/photos/upper.jpg", "/photos/size.jpg", "/photos/dims.jpg"} {
		if _, ok := s.entries[p]; ok {
			t.Errorf("invalid entry %s was kept", p)
		}
	}

	var ioErr *IOError
	if !errors.As(s.LoadErr(), &ioErr) || ioErr.Op != "validate" {
		t.Errorf("LoadErr() = %v, want validate IOError", s.LoadErr())
	}
}

func TestLoadKeyIsAuthoritative(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := `{"/r/a.jpg": {"path": "/r/b.jpg", "name": "b.jpg", "bytes": 10, "mTime": 5}}`
	if err := afero.WriteFile(fs, cachePath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	got, ok := Load(fs, cachePath).Get("/r/a.jpg", 10, 5)
	if !ok {
		t.Fatal("entry missing")
	}
	if got.Path != "/r/a.jpg" || got.Name != "a.jpg" {
		t.Errorf("Get() = %s (%s), want /r/a.jpg (a.jpg)", got.Path, got.Name)
	}
}

func TestGetFingerprint(t *testing.T) {
	s := Load(afero.NewMemMapFs(), cachePath)
	s.Put(sample("/photos/a.jpg"))

	tests := []struct {
		name  string
		path  string
		size  int64
		mtime int64
		hit   bool
	}{
		{"exact match", "/photos/a.jpg", 2048, 1700000000000, true},
		{"size changed", "/photos/a.jpg", 2049, 1700000000000, false},
		{"mtime changed", "/photos/a.jpg", 2048, 1700000000001, false},
		{"unknown path", "/photos/b.jpg", 2048, 1700000000000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.Get(tt.path, tt.size, tt.mtime)
			if ok != tt.hit {
				t.Fatalf("Get() hit = %v, want %v", ok, tt.hit)
			}
			if ok && got.Path != tt.path {
				t.Errorf("Get().Path = %q, want %q", got.Path, tt.path)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := Load(fs, cachePath)

	info := sample("/photos/a.jpg")
	info.PHash = strPtr("a1b2c3")
	s.Put(info)

	if !s.dirty {
		t.Fatal("store not dirty after Put")
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if s.dirty {
		t.Error("store still dirty after Save")
	}
	if ok, _ := afero.Exists(fs, cachePath+".tmp"); ok {
		t.Error("temporary file left behind")
	}

	reloaded := Load(fs, cachePath)
	got, ok := reloaded.Get("/photos/a.jpg", info.Bytes, info.MTime)
	if !ok {
		t.Fatal("entry missing after reload")
	}
	if got.Width == nil || *got.Width != 640 || got.PHash == nil || *got.PHash != "a1b2c3" {
		t.Errorf("reloaded entry = %+v", got)
	}
}

func TestSaveSkipsCleanStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := Load(fs, cachePath)

	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if ok, _ := afero.Exists(fs, cachePath); ok {
		t.Error("Save() wrote a file although nothing changed")
	}
}

func TestSaveReadOnlyFs(t *testing.T) {
	s := Load(afero.NewReadOnlyFs(afero.NewMemMapFs()), cachePath)
	s.Put(sample("/photos/a.jpg"))

	var ioErr *IOError
	if err := s.Save(); !errors.As(err, &ioErr) {
		t.Errorf("Save() error = %v, want *IOError", err)
	}
}

func TestDisabledStore(t *testing.T) {
	s := Disabled()
	s.Put(sample("/photos/a.jpg"))
	if err := s.Save(); err != nil {
		t.Errorf("Save() on disabled store error = %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := Load(afero.NewMemMapFs(), cachePath)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			info := sample("/photos/x.jpg")
			info.Bytes = int64(i)
			s.Put(info)
			s.Get("/photos/x.jpg", int64(i), info.MTime)
		}(i)
	}
	wg.Wait()

	if len(s.entries) != 1 {
		t.Errorf("entries = %d, want 1", len(s.entries))
	}
}
