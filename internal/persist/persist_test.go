package persist

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"slidedeck-cli/internal/artifact"
	"slidedeck-cli/internal/deck"
	"slidedeck-cli/internal/model"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
}

func deckOf(t *testing.T, headings ...string) *deck.Deck {
	t.Helper()
	d := deck.New()
	for _, h := range headings {
		d.AddSlide()
		heading := h
		boxes := []model.Box{{Type: model.BoxTypeDescription, Heading: h + " box", Content: "<em>c</em>"}}
		d.UpdateCurrentSlide(model.SlidePatch{MainHeading: &heading, Boxes: &boxes})
	}
	return d
}

type memSlot struct {
	mu   sync.Mutex
	data []byte
	puts int
	err  error
}

func (s *memSlot) Get(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), s.data...), nil
}

func (s *memSlot) Put(_ context.Context, b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.data = append([]byte(nil), b...)
	s.puts++
	return nil
}

func (s *memSlot) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}

func (s *memSlot) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := deckOf(t, "One", "Two")
	sink := &artifact.MemorySink{}
	slot := &memSlot{}
	p := NewPersister(src, slot, sink, nil)
	p.SetClock(fixedClock)

	f, err := p.Save(ctx)
	require.NoError(t, err)
	require.Equal(t, "slide-project-2025-03-04-05-06-07.json", f.Name)
	require.Equal(t, 1, slot.count())

	dst := deck.New()
	proj, err := NewPersister(dst, &memSlot{}, sink, nil).Load(ctx, sink.Files[f.Name])
	require.NoError(t, err)
	require.Equal(t, model.ProjectVersion, proj.Version)
	require.Equal(t, "2025-03-04T05:06:07.000Z", proj.Timestamp)
	require.Equal(t, src.Snapshot(), dst.Snapshot())
	require.Equal(t, 0, dst.CurrentIndex())
}

func TestSave_EmptyDeck(t *testing.T) {
	slot := &memSlot{}
	sink := &artifact.MemorySink{}
	_, err := NewPersister(deck.New(), slot, sink, nil).Save(context.Background())
	require.ErrorIs(t, err, deck.ErrNoSlides)
	require.Empty(t, sink.Files)
	require.Zero(t, slot.count())
}

func TestLoad_InvalidPayloadLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	for _, payload := range []string{
		`{"foo":1}`,
		`{"slides":{}}`,
		`{"slides":"x"}`,
		`{"slides":null}`,
		`[1,2]`,
		`not json`,
	} {
		t.Run(payload, func(t *testing.T) {
			d := deckOf(t, "a", "b", "c")
			before := d.Snapshot()
			slot := &memSlot{data: []byte("previous")}
			_, err := NewPersister(d, slot, &artifact.MemorySink{}, nil).Load(ctx, []byte(payload))

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, before, d.Snapshot())
			require.Equal(t, 3, d.Count())
			require.Equal(t, "previous", string(slot.data))
		})
	}
}

func TestLoad_ReplacesAndMirrors(t *testing.T) {
	ctx := context.Background()
	d := deckOf(t, "old")
	slot := &memSlot{}
	payload := `{"version":"1.0.0","timestamp":"x","slides":[
		{"id":"slide_a","number":4,"bannerTitle":"B","mainHeading":"H","description":"","boxes":[]},
		{"id":"slide_b","number":9,"mainHeading":"H2"}
	]}`
	_, err := NewPersister(d, slot, &artifact.MemorySink{}, nil).Load(ctx, []byte(payload))
	require.NoError(t, err)

	got := d.Snapshot()
	require.Len(t, got, 2)
	require.Equal(t, "slide_a", got[0].ID)
	require.NotNil(t, got[1].Boxes)
	require.Equal(t, 1, slot.count())

	// Counter continues after the highest stored number.
	d.AddSlide()
	require.Equal(t, 10, d.Snapshot()[2].Number)
}

func TestLoad_MirrorFailureLeavesDeck(t *testing.T) {
	d := deckOf(t, "keep")
	slot := &memSlot{err: errors.New("read-only")}
	_, err := NewPersister(d, slot, &artifact.MemorySink{}, nil).Load(context.Background(), []byte(`{"slides":[]}`))
	require.Error(t, err)
	require.Equal(t, 1, d.Count())
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("empty slot", func(t *testing.T) {
		n, err := NewPersister(deck.New(), &memSlot{}, nil, nil).Restore(ctx)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("valid slot", func(t *testing.T) {
		slot := &memSlot{}
		src := deckOf(t, "x", "y")
		b, err := Encode(model.NewProject(src.Snapshot(), fixedClock()), false)
		require.NoError(t, err)
		slot.data = b

		d := deck.New()
		n, err := NewPersister(d, slot, nil, nil).Restore(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, n)
		require.Equal(t, src.Snapshot(), d.Snapshot())
	})

	t.Run("corrupt slot is cleared", func(t *testing.T) {
		slot := &memSlot{data: []byte(`{"slides":`)}
		d := deck.New()
		_, err := NewPersister(d, slot, nil, nil).Restore(ctx)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Nil(t, slot.data)
		require.Zero(t, d.Count())
	})
}

func testSlotContract(t *testing.T, s Slot) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx)
	require.ErrorIs(t, err, ErrSlotEmpty)

	require.NoError(t, s.Put(ctx, []byte(`{"slides":[]}`)))
	require.NoError(t, s.Put(ctx, []byte(`{"slides":[1]}`)))
	b, err := s.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, `{"slides":[1]}`, string(b))

	require.NoError(t, s.Clear(ctx))
	_, err = s.Get(ctx)
	require.ErrorIs(t, err, ErrSlotEmpty)
	require.NoError(t, s.Clear(ctx))
}

func TestFileSlot_Contract(t *testing.T) {
	testSlotContract(t, FileSlot{Path: filepath.Join(t.TempDir(), "nested", "project.json")})
}

func TestSQLiteSlot_Contract(t *testing.T) {
	s, err := OpenSQLiteSlot(context.Background(), filepath.Join(t.TempDir(), "slidedeck.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	testSlotContract(t, s)
}

func TestRedisSlot_Contract(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisSlot(client, "")
	testSlotContract(t, s)

	require.NoError(t, s.Put(context.Background(), []byte("v")))
	require.True(t, mr.Exists(SlotKey))
	require.Zero(t, mr.TTL(SlotKey))
}

func TestDialRedisSlot(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	s, err := DialRedisSlot(context.Background(), mr.Addr(), "custom")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Put(context.Background(), []byte("v")))
	require.True(t, mr.Exists("custom"))
}

func TestAutosave_BurstYieldsOneWrite(t *testing.T) {
	const window = 80 * time.Millisecond
	d := deck.New()
	slot := &memSlot{}
	a := NewAutosaver(d, slot, window, nil)
	t.Cleanup(a.Stop)
	unsub := a.Attach(d)
	t.Cleanup(unsub)

	d.AddSlide()
	for i := 0; i < 5; i++ {
		time.Sleep(window / 8)
		h := "edit"
		d.UpdateCurrentSlide(model.SlidePatch{MainHeading: &h})
	}
	require.Zero(t, slot.count(), "no write may happen inside the burst")

	require.Eventually(t, func() bool { return slot.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(3 * window)
	require.Equal(t, 1, slot.count())

	b, err := slot.Get(context.Background())
	require.NoError(t, err)
	stored, err := Decode(b)
	require.NoError(t, err)
	require.Len(t, stored.Slides, 1)
	require.Equal(t, "edit", stored.Slides[0].MainHeading)
}

func TestAutosave_RearmsForLaterBursts(t *testing.T) {
	const window = 40 * time.Millisecond
	d := deck.New()
	slot := &memSlot{}
	a := NewAutosaver(d, slot, window, nil)
	t.Cleanup(a.Stop)
	t.Cleanup(a.Attach(d))

	d.AddSlide()
	require.Eventually(t, func() bool { return slot.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	d.AddSlide()
	require.Eventually(t, func() bool { return slot.count() == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestAutosave_FlushAndStop(t *testing.T) {
	d := deck.New()
	slot := &memSlot{}
	a := NewAutosaver(d, slot, time.Hour, nil)
	t.Cleanup(a.Attach(d))

	require.NoError(t, a.Flush(context.Background()))
	require.Zero(t, slot.count(), "flush without changes writes nothing")

	d.AddSlide()
	require.True(t, a.Pending())
	require.NoError(t, a.Flush(context.Background()))
	require.Equal(t, 1, slot.count())
	require.False(t, a.Pending())

	a.Stop()
	d.AddSlide()
	require.False(t, a.Pending())
	require.NoError(t, a.Flush(context.Background()))
	require.Equal(t, 1, slot.count())
}
