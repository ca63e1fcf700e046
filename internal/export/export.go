// Package export turns the deck into downloadable HTML documents.
package export

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"slidedeck-cli/internal/artifact"
	"slidedeck-cli/internal/deck"
	"slidedeck-cli/internal/model"
	"slidedeck-cli/internal/render"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	StylesheetName = "styles.css"
	ManifestName   = "index.html"

	htmlType = "text/html; charset=utf-8"
	zipType  = "application/zip"

	untitled = "Untitled Slide"
)

//go:embed templates/*.html
var templatesFS embed.FS

var tmpl = template.Must(template.New("export").ParseFS(templatesFS, "templates/*.html"))

// Source is the read side of the slide store.
type Source interface {
	Snapshot() []model.Slide
	CurrentIndex() int
}

type Exporter struct {
	src  Source
	sink artifact.Sink
	log  logrus.FieldLogger
	now  func() time.Time
}

func New(src Source, sink artifact.Sink, log logrus.FieldLogger) *Exporter {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Exporter{src: src, sink: sink, log: log, now: time.Now}
}

// SetClock replaces the clock used for archive names.
func (e *Exporter) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// SlideFileName is the exported file name for the slide at a 0-based position.
func SlideFileName(index int) string {
	return fmt.Sprintf("slide-%d.html", index+1)
}

// ArchiveName is the archive file name for the given day.
func ArchiveName(t time.Time) string {
	return "slides-" + t.Format("2006-01-02") + ".zip"
}

type slideDoc struct {
	Title          string
	Inline         bool
	Stylesheet     template.CSS
	StylesheetHref string
	Body           template.HTML
}

// Document renders the standalone page for a slide at a 0-based position. With
// inline set the stylesheet is embedded; otherwise the page links StylesheetName.
func Document(s model.Slide, index int, inline bool) ([]byte, error) {
	doc := slideDoc{
		Title: fmt.Sprintf("Slide %d", index+1),
		// Fragment escapes free text and sanitizes content fields itself.
		Body:   template.HTML(render.Fragment(s)),
		Inline: inline,
	}
	if inline {
		doc.Stylesheet = template.CSS(render.Stylesheet())
	} else {
		doc.StylesheetHref = StylesheetName
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "slide.html", doc); err != nil {
		return nil, fmt.Errorf("render slide %d: %w", index+1, err)
	}
	return buf.Bytes(), nil
}

type manifestEntry struct {
	Position int
	File     string
	Heading  string
}

// Manifest renders the archive table of contents.
func Manifest(slides []model.Slide) ([]byte, error) {
	entries := make([]manifestEntry, 0, len(slides))
	for i, s := range slides {
		h := strings.TrimSpace(s.MainHeading)
		if h == "" {
			h = untitled
		}
		entries = append(entries, manifestEntry{Position: i + 1, File: SlideFileName(i), Heading: h})
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "index.html", struct{ Entries []manifestEntry }{entries}); err != nil {
		return nil, fmt.Errorf("render manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportSingle writes one self-contained document for the slide at index.
func (e *Exporter) ExportSingle(ctx context.Context, index int) (artifact.File, error) {
	slides := e.src.Snapshot()
	if index < 0 || index >= len(slides) {
		return artifact.File{}, deck.ErrNoSelection
	}
	if err := e.check(SlideFileName(index)); err != nil {
		return artifact.File{}, err
	}
	b, err := Document(slides[index], index, true)
	if err != nil {
		return artifact.File{}, err
	}
	f, err := e.sink.Put(ctx, SlideFileName(index), htmlType, b)
	if err != nil {
		return artifact.File{}, err
	}
	e.log.WithFields(logrus.Fields{"file": f.Name, "bytes": f.Size}).Info("exported slide")
	return f, nil
}

// ExportCurrent exports the selected slide.
func (e *Exporter) ExportCurrent(ctx context.Context) (artifact.File, error) {
	return e.ExportSingle(ctx, e.src.CurrentIndex())
}

// ExportAll writes one self-contained document per slide, named by position.
// Every name is checked before the first write, so a refused target leaves the
// output untouched. A write that fails midway still keeps earlier files.
func (e *Exporter) ExportAll(ctx context.Context) ([]artifact.File, error) {
	slides := e.src.Snapshot()
	if len(slides) == 0 {
		return nil, deck.ErrNoSlides
	}
	names := make([]string, len(slides))
	for i := range slides {
		names[i] = SlideFileName(i)
	}
	if err := e.check(names...); err != nil {
		return nil, err
	}
	out := make([]artifact.File, 0, len(slides))
	for i, s := range slides {
		b, err := Document(s, i, true)
		if err != nil {
			return out, err
		}
		f, err := e.sink.Put(ctx, SlideFileName(i), htmlType, b)
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
	e.log.WithField("slides", len(out)).Info("exported all slides")
	return out, nil
}

// ArchiveResult is delivered once per ExportArchive call.
type ArchiveResult struct {
	File artifact.File
	Err  error
}

// ExportArchive bundles every slide, the shared stylesheet and a manifest into a
// zip. The snapshot is taken before returning; the work runs on its own goroutine
// and the result arrives on the returned channel, which is then closed. Nothing
// reaches the sink unless the whole archive was built.
func (e *Exporter) ExportArchive(ctx context.Context) (<-chan ArchiveResult, error) {
	slides := e.src.Snapshot()
	if len(slides) == 0 {
		return nil, deck.ErrNoSlides
	}
	name := ArchiveName(e.now())
	if err := e.check(name); err != nil {
		return nil, err
	}

	ch := make(chan ArchiveResult, 1)
	go func() {
		defer close(ch)
		f, err := e.buildArchive(ctx, name, slides)
		if err != nil {
			e.log.WithError(err).Warn("archive export failed")
			ch <- ArchiveResult{Err: err}
			return
		}
		e.log.WithFields(logrus.Fields{"file": f.Name, "bytes": f.Size, "slides": len(slides)}).Info("exported archive")
		ch <- ArchiveResult{File: f}
	}()
	return ch, nil
}

// Archive builds the zip bytes for slides.
func Archive(ctx context.Context, slides []model.Slide) ([]byte, error) {
	docs := make([][]byte, len(slides))
	g, gctx := errgroup.WithContext(ctx)
	for i := range slides {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := Document(slides[i], i, false)
			if err != nil {
				return err
			}
			docs[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	manifest, err := Manifest(slides)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	add := func(name string, b []byte) error {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: time.Now()})
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}
	for i, b := range docs {
		if err := add(SlideFileName(i), b); err != nil {
			return nil, fmt.Errorf("zip %s: %w", SlideFileName(i), err)
		}
	}
	if err := add(StylesheetName, []byte(render.Stylesheet())); err != nil {
		return nil, fmt.Errorf("zip %s: %w", StylesheetName, err)
	}
	if err := add(ManifestName, manifest); err != nil {
		return nil, fmt.Errorf("zip %s: %w", ManifestName, err)
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Exporter) check(names ...string) error {
	c, ok := e.sink.(artifact.Checker)
	if !ok {
		return nil
	}
	for _, n := range names {
		if err := c.Check(n); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) buildArchive(ctx context.Context, name string, slides []model.Slide) (artifact.File, error) {
	b, err := Archive(ctx, slides)
	if err != nil {
		return artifact.File{}, err
	}
	return e.sink.Put(ctx, name, zipType, b)
}
