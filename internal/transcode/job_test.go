package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"go.uber.org/zap"

	"github.com/videoflix/vod/internal/domain"
	"github.com/videoflix/vod/internal/hls"
	"github.com/videoflix/vod/internal/store"
)

type fakeStore struct {
	videos map[int64]*domain.Video
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*domain.Video, error) {
	v, ok := f.videos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

// fakeEncoder writes a manifest and two segments per successful encode, and
// fails for labels listed in failing. Files are truncated on rewrite, the way
// a full-overwrite encode behaves.
type fakeEncoder struct {
	failing map[string]bool
	calls   []string
}

func (f *fakeEncoder) EncodeRendition(_ context.Context, _ string, r domain.Rendition, paths hls.RenditionPaths) error {
	f.calls = append(f.calls, r.Label)
	if f.failing[r.Label] {
		return fmt.Errorf("encode failed for %s", r.Label)
	}

	if err := os.MkdirAll(paths.Dir, 0o755); err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		name := fmt.Sprintf(hls.SegmentPattern, i)
		if err := os.WriteFile(filepath.Join(paths.Dir, name), []byte("segment"), 0o644); err != nil {
			return err
		}
	}
	manifest := "#EXTM3U\n#EXT-X-TARGETDURATION:6\n#EXTINF:6.0,\n000.ts\n#EXTINF:6.0,\n001.ts\n#EXT-X-ENDLIST\n"
	return os.WriteFile(paths.Manifest, []byte(manifest), 0o644)
}

func newTestRunner(t *testing.T, videos map[int64]*domain.Video, failing map[string]bool) (*Runner, *fakeEncoder, hls.Layout) {
	t.Helper()
	layout := hls.NewLayout(t.TempDir())
	enc := &fakeEncoder{failing: failing}
	r := NewRunner(&fakeStore{videos: videos}, enc, layout, zap.NewNop(), nil)
	return r, enc, layout
}

func withSource(t *testing.T, layout hls.Layout, id int64) *domain.Video {
	t.Helper()
	if err := os.MkdirAll(layout.SourceDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	rel := filepath.Join("videos", fmt.Sprintf("%d.mp4", id))
	if err := os.WriteFile(layout.Abs(rel), []byte("media"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &domain.Video{ID: id, Title: "test", SourcePath: &rel}
}

func TestRunMissingRecord(t *testing.T) {
	r, enc, _ := newTestRunner(t, map[int64]*domain.Video{}, nil)

	_, err := r.Run(context.Background(), 99)
	if !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("expected ErrVideoNotFound, got %v", err)
	}
	if len(enc.calls) != 0 {
		t.Errorf("no encode must be attempted on failed precondition, got %v", enc.calls)
	}
}

func TestRunNoSourceFile(t *testing.T) {
	videos := map[int64]*domain.Video{7: {ID: 7, Title: "no source"}}
	r, enc, _ := newTestRunner(t, videos, nil)

	_, err := r.Run(context.Background(), 7)
	if !errors.Is(err, ErrNoSourceFile) {
		t.Fatalf("expected ErrNoSourceFile, got %v", err)
	}
	if len(enc.calls) != 0 {
		t.Errorf("no encode must be attempted, got %v", enc.calls)
	}
}

func TestRunSourceMissingOnDisk(t *testing.T) {
	rel := "videos/gone.mp4"
	videos := map[int64]*domain.Video{7: {ID: 7, SourcePath: &rel}}
	r, enc, _ := newTestRunner(t, videos, nil)

	_, err := r.Run(context.Background(), 7)
	if !errors.Is(err, ErrSourceMissing) {
		t.Fatalf("expected ErrSourceMissing, got %v", err)
	}
	if len(enc.calls) != 0 {
		t.Errorf("no encode must be attempted, got %v", enc.calls)
	}
}

func TestRunAllRenditionsSucceed(t *testing.T) {
	r, enc, layout := newTestRunner(t, map[int64]*domain.Video{}, nil)
	video := withSource(t, layout, 1)
	r.store.(*fakeStore).videos[1] = video

	report, err := r.Run(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}

	if got := report.Succeeded(); len(got) != 3 {
		t.Errorf("expected 3 successful renditions, got %v", got)
	}
	if len(report.Failed()) != 0 {
		t.Errorf("expected no failures, got %v", report.Failed())
	}
	if want := []string{"480p", "720p", "1080p"}; !equalStrings(enc.calls, want) {
		t.Errorf("renditions attempted in order %v, want %v", enc.calls, want)
	}

	for _, label := range []string{"480p", "720p", "1080p"} {
		if _, err := os.Stat(layout.ManifestPath(1, label)); err != nil {
			t.Errorf("manifest missing for %s: %v", label, err)
		}
	}
}

// A failing rendition must not abort its siblings, and the failure must be
// carried in the report rather than returned.
func TestRunPartialFailure(t *testing.T) {
	r, enc, layout := newTestRunner(t, map[int64]*domain.Video{}, map[string]bool{"1080p": true})
	video := withSource(t, layout, 2)
	r.store.(*fakeStore).videos[2] = video

	report, err := r.Run(context.Background(), 2)
	if err != nil {
		t.Fatalf("per-rendition failure must not be returned as an error: %v", err)
	}

	if got := report.Succeeded(); !equalStrings(got, []string{"480p", "720p"}) {
		t.Errorf("succeeded = %v, want [480p 720p]", got)
	}

	failed := report.Failed()
	if len(failed) != 1 || failed[0].Label != "1080p" {
		t.Fatalf("failed = %v, want exactly 1080p", failed)
	}
	if failed[0].Err == nil {
		t.Error("failed result must carry the encode error")
	}

	if len(enc.calls) != 3 {
		t.Errorf("all 3 renditions must be attempted, got %v", enc.calls)
	}

	// The surviving renditions are independently servable.
	for _, label := range []string{"480p", "720p"} {
		if _, err := os.Stat(layout.ManifestPath(2, label)); err != nil {
			t.Errorf("manifest for %s should exist: %v", label, err)
		}
	}
	if _, err := os.Stat(layout.ManifestPath(2, "1080p")); err == nil {
		t.Error("no manifest should exist for the failed 1080p rendition")
	}
}

func TestRunAllFailed(t *testing.T) {
	failing := map[string]bool{"480p": true, "720p": true, "1080p": true}
	r, _, layout := newTestRunner(t, map[int64]*domain.Video{}, failing)
	video := withSource(t, layout, 3)
	r.store.(*fakeStore).videos[3] = video

	report, err := r.Run(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if !report.AllFailed() {
		t.Error("expected AllFailed report")
	}
}

// Re-running the job for the same video and source leaves the directory
// contents unchanged.
func TestRunIdempotent(t *testing.T) {
	r, _, layout := newTestRunner(t, map[int64]*domain.Video{}, nil)
	video := withSource(t, layout, 4)
	r.store.(*fakeStore).videos[4] = video

	if _, err := r.Run(context.Background(), 4); err != nil {
		t.Fatal(err)
	}
	first := treeListing(t, layout.VideoDir(4))

	if _, err := r.Run(context.Background(), 4); err != nil {
		t.Fatal(err)
	}
	second := treeListing(t, layout.VideoDir(4))

	if !equalStrings(first, second) {
		t.Errorf("directory contents changed on re-run\nfirst:  %v\nsecond: %v", first, second)
	}
}

func treeListing(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(root, path)
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(files)
	return files
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
