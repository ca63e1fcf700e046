package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"slidedeck-cli/internal/artifact"
)

// SlotKey names the single durable slot the project lives in.
const SlotKey = "slidedeck.project"

// ErrSlotEmpty is returned by Slot.Get when nothing has been stored.
var ErrSlotEmpty = errors.New("storage slot is empty")

// Slot is single-key durable storage with last-writer-wins semantics.
type Slot interface {
	Get(ctx context.Context) ([]byte, error)
	Put(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// FileSlot keeps the payload in one JSON file, replaced atomically on every write.
type FileSlot struct {
	Path string
}

func (s FileSlot) Get(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil, ErrSlotEmpty
	}
	return b, nil
}

func (s FileSlot) Put(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(s.Path) == "" {
		return errors.New("file slot: missing path")
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	return artifact.WriteFileAtomic(s.Path, data, 0o644)
}

func (s FileSlot) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
