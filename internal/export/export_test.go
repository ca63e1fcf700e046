package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"slidedeck-cli/internal/artifact"
	"slidedeck-cli/internal/deck"
	"slidedeck-cli/internal/model"

	"github.com/klauspost/compress/zip"
)

func deckWithHeadings(t *testing.T, headings ...string) *deck.Deck {
	t.Helper()
	d := deck.New()
	for _, h := range headings {
		d.AddSlide()
		heading := h
		d.UpdateCurrentSlide(model.SlidePatch{MainHeading: &heading})
	}
	return d
}

func waitArchive(t *testing.T, ch <-chan ArchiveResult) ArchiveResult {
	t.Helper()
	select {
	case res, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without result")
		}
		return res
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for archive")
	}
	return ArchiveResult{}
}

func TestExportAll_NamesByCurrentPosition(t *testing.T) {
	d := deckWithHeadings(t, "A", "B")
	if !d.Reorder(1, 0) {
		t.Fatalf("Reorder failed")
	}
	sink := &artifact.MemorySink{}
	files, err := New(d, sink, nil).ExportAll(context.Background())
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	first := string(sink.Files["slide-1.html"])
	second := string(sink.Files["slide-2.html"])
	if !strings.Contains(first, `<div class="main-heading">B</div>`) {
		t.Fatalf("slide-1 should contain B:\n%s", first)
	}
	if !strings.Contains(second, `<div class="main-heading">A</div>`) {
		t.Fatalf("slide-2 should contain A:\n%s", second)
	}
}

func TestExportAll_UsesPositionNotNumber(t *testing.T) {
	d := deckWithHeadings(t, "one", "two", "three")
	d.DeleteSlide(0, deck.Confirmed)
	sink := &artifact.MemorySink{}
	if _, err := New(d, sink, nil).ExportAll(context.Background()); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if len(sink.Order) != 2 || sink.Order[0] != "slide-1.html" || sink.Order[1] != "slide-2.html" {
		t.Fatalf("unexpected files: %v", sink.Order)
	}
	if !strings.Contains(string(sink.Files["slide-1.html"]), ">two<") {
		t.Fatalf("expected slide numbered 2 exported as slide-1")
	}
}

func TestExportAll_InlinesStylesheet(t *testing.T) {
	d := deckWithHeadings(t, "A")
	sink := &artifact.MemorySink{}
	if _, err := New(d, sink, nil).ExportAll(context.Background()); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	doc := string(sink.Files["slide-1.html"])
	if !strings.Contains(doc, "<style>") || !strings.Contains(doc, ".character-box") {
		t.Fatalf("expected inline stylesheet:\n%s", doc)
	}
	if strings.Contains(doc, `href="styles.css"`) {
		t.Fatalf("standalone document must not link the shared stylesheet")
	}
	if !strings.Contains(doc, "<title>Slide 1</title>") {
		t.Fatalf("expected title:\n%s", doc)
	}
}

func TestExport_EmptyDeckIsUserActionError(t *testing.T) {
	ex := New(deck.New(), &artifact.MemorySink{}, nil)
	ctx := context.Background()

	if _, err := ex.ExportAll(ctx); !errors.Is(err, deck.ErrNoSlides) {
		t.Fatalf("ExportAll: expected ErrNoSlides, got %v", err)
	}
	if _, err := ex.ExportArchive(ctx); !errors.Is(err, deck.ErrNoSlides) {
		t.Fatalf("ExportArchive: expected ErrNoSlides, got %v", err)
	}
	var uae deck.UserActionError
	if _, err := ex.ExportCurrent(ctx); !errors.As(err, &uae) || !errors.Is(err, deck.ErrNoSelection) {
		t.Fatalf("ExportCurrent: expected ErrNoSelection, got %v", err)
	}
}

func TestExportSingle_OutOfRange(t *testing.T) {
	d := deckWithHeadings(t, "A")
	sink := &artifact.MemorySink{}
	if _, err := New(d, sink, nil).ExportSingle(context.Background(), 3); !errors.Is(err, deck.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if len(sink.Files) != 0 {
		t.Fatalf("expected nothing written")
	}
}

func TestExportArchive_Contents(t *testing.T) {
	d := deckWithHeadings(t, "Intro", "", "Outro")
	sink := &artifact.MemorySink{}
	ex := New(d, sink, nil)
	ex.SetClock(func() time.Time { return time.Date(2025, 1, 2, 23, 0, 0, 0, time.UTC) })

	ch, err := ex.ExportArchive(context.Background())
	if err != nil {
		t.Fatalf("ExportArchive: %v", err)
	}
	res := waitArchive(t, ch)
	if res.Err != nil {
		t.Fatalf("archive: %v", res.Err)
	}
	if res.File.Name != "slides-2025-01-02.zip" {
		t.Fatalf("unexpected archive name %q", res.File.Name)
	}

	data := sink.Files[res.File.Name]
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	contents := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, _ := io.ReadAll(rc)
		_ = rc.Close()
		contents[f.Name] = string(b)
	}
	want := []string{"slide-1.html", "slide-2.html", "slide-3.html", "styles.css", "index.html"}
	if len(contents) != len(want) {
		t.Fatalf("unexpected entries: %v", zr.File)
	}
	for _, name := range want {
		if _, ok := contents[name]; !ok {
			t.Fatalf("missing %s", name)
		}
	}

	for _, name := range want[:3] {
		doc := contents[name]
		if !strings.Contains(doc, `<link rel="stylesheet" href="styles.css">`) {
			t.Fatalf("%s should link the shared stylesheet:\n%s", name, doc)
		}
		if strings.Contains(doc, "<style>") {
			t.Fatalf("%s should not inline styles", name)
		}
	}

	index := contents["index.html"]
	for _, want := range []string{
		`<a href="slide-1.html" target="_blank"><strong>Slide 1</strong>: Intro</a>`,
		`<strong>Slide 2</strong>: Untitled Slide`,
		`<strong>Slide 3</strong>: Outro`,
	} {
		if !strings.Contains(index, want) {
			t.Fatalf("manifest missing %q:\n%s", want, index)
		}
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after result")
	}
}

func TestExportAll_ExistingTargetWritesNothing(t *testing.T) {
	d := deckWithHeadings(t, "A", "B", "C")
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "slide-3.html"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := New(d, artifact.DirSink{Dir: dir}, nil).ExportAll(context.Background())
	var exists *artifact.ExistsError
	if !errors.As(err, &exists) || len(files) != 0 {
		t.Fatalf("expected ExistsError and no files, got %v %v", files, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the existing file, got %d entries", len(entries))
	}
	b, _ := os.ReadFile(filepath.Join(dir, "slide-3.html"))
	if string(b) != "old" {
		t.Fatalf("existing file changed: %q", b)
	}

	files, err = New(d, artifact.DirSink{Dir: dir, Overwrite: true}, nil).ExportAll(context.Background())
	if err != nil || len(files) != 3 {
		t.Fatalf("expected overwrite export of 3 files, got %v %v", files, err)
	}
}

func TestExportArchive_ExistingTargetFailsBeforeStarting(t *testing.T) {
	d := deckWithHeadings(t, "A")
	dir := t.TempDir()
	ex := New(d, artifact.DirSink{Dir: dir}, nil)
	ex.SetClock(func() time.Time { return time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC) })
	if err := os.WriteFile(filepath.Join(dir, "slides-2025-01-02.zip"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	ch, err := ex.ExportArchive(context.Background())
	var exists *artifact.ExistsError
	if ch != nil || !errors.As(err, &exists) {
		t.Fatalf("expected ExistsError before the archive starts, got %v", err)
	}
}

type failingSink struct{ err error }

func (s failingSink) Put(context.Context, string, string, []byte) (artifact.File, error) {
	return artifact.File{}, s.err
}

func TestExportArchive_ReportsTerminalError(t *testing.T) {
	d := deckWithHeadings(t, "A")
	boom := errors.New("disk full")
	ch, err := New(d, failingSink{err: boom}, nil).ExportArchive(context.Background())
	if err != nil {
		t.Fatalf("ExportArchive: %v", err)
	}
	res := waitArchive(t, ch)
	if !errors.Is(res.Err, boom) {
		t.Fatalf("expected sink error, got %v", res.Err)
	}
}

func TestExportArchive_CanceledContextWritesNothing(t *testing.T) {
	d := deckWithHeadings(t, "A", "B")
	sink := &artifact.MemorySink{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch, err := New(d, sink, nil).ExportArchive(ctx)
	if err != nil {
		t.Fatalf("ExportArchive: %v", err)
	}
	res := waitArchive(t, ch)
	if res.Err == nil {
		t.Fatalf("expected cancellation error")
	}
	if len(sink.Files) != 0 {
		t.Fatalf("expected no partial archive, got %v", sink.Order)
	}
}

func TestManifest_EscapesHeadings(t *testing.T) {
	b, err := Manifest([]model.Slide{{MainHeading: "<b>x</b>"}})
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if strings.Contains(string(b), "<b>x</b>") {
		t.Fatalf("heading not escaped:\n%s", b)
	}
}
