package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"slidedeck-cli/internal/artifact"
	"slidedeck-cli/internal/config"
	"slidedeck-cli/internal/deck"
	"slidedeck-cli/internal/export"
	"slidedeck-cli/internal/form"
	"slidedeck-cli/internal/persist"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Session is one process worth of editor state: the deck restored from the storage
// slot plus everything bound to it.
type Session struct {
	Dir    string
	Config config.Config
	Log    *logrus.Logger

	Deck      *deck.Deck
	Form      *form.Form
	Sink      artifact.Sink
	Persister *persist.Persister
	Autosaver *persist.Autosaver
	Exporter  *export.Exporter

	slot   persist.Slot
	closer io.Closer
	unsubs []func()
}

func resolveConfig(app *App) (string, config.Config, error) {
	dir := strings.TrimSpace(app.ConfigDir)
	if dir == "" {
		d, err := config.Dir()
		if err != nil {
			return "", config.Config{}, err
		}
		dir = d
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return "", config.Config{}, err
	}
	if v := strings.TrimSpace(app.OutDir); v != "" {
		cfg.Export.OutDir = v
	}
	if app.Overwrite {
		cfg.Export.Overwrite = true
	}
	if v := strings.TrimSpace(app.LogLevel); v != "" {
		cfg.Log.Level = v
	}
	return dir, cfg, nil
}

func newLogger(cfg config.Config, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(out)
	lvl, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	return log, nil
}

func openSlot(ctx context.Context, cfg config.Config, dir string) (persist.Slot, io.Closer, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case config.BackendFile:
		return persist.FileSlot{Path: cfg.StoragePath(dir)}, nil, nil
	case config.BackendRedis:
		s, err := persist.DialRedisSlot(ctx, cfg.Storage.RedisAddr, cfg.Storage.RedisKey)
		if err != nil {
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.Storage.RedisAddr, err)
		}
		return s, s, nil
	default:
		s, err := persist.OpenSQLiteSlot(ctx, cfg.StoragePath(dir))
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
}

// openSession loads config, opens storage and restores the last session. logOut
// receives log output.
func openSession(ctx context.Context, app *App, logOut io.Writer) (*Session, error) {
	dir, cfg, err := resolveConfig(app)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg, logOut)
	if err != nil {
		return nil, err
	}
	window, err := cfg.QuietWindow()
	if err != nil {
		return nil, err
	}
	slot, closer, err := openSlot(ctx, cfg, dir)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Dir:    dir,
		Config: cfg,
		Log:    log,
		Deck:   deck.New(),
		Sink:   artifact.DirSink{Dir: cfg.Export.OutDir, Overwrite: cfg.Export.Overwrite},
		slot:   slot,
		closer: closer,
	}
	s.Form = form.New(s.Deck)
	s.unsubs = append(s.unsubs, s.Form.Attach(s.Deck))
	s.Persister = persist.NewPersister(s.Deck, slot, s.Sink, log.WithField("backend", cfg.Storage.Backend))
	s.Exporter = export.New(s.Deck, s.Sink, log)

	n, err := s.Persister.Restore(ctx)
	var verr *persist.ValidationError
	switch {
	case errors.As(err, &verr):
		log.WithError(err).Warn("saved session was unreadable and has been cleared")
	case err != nil:
		s.closeSlot()
		return nil, err
	default:
		log.WithField("slides", n).Debug("session restored")
	}

	// Attached after restore so that loading the slot does not schedule a write back.
	s.Autosaver = persist.NewAutosaver(s.Deck, slot, window, log)
	s.unsubs = append(s.unsubs, s.Autosaver.Attach(s.Deck))
	return s, nil
}

// Close flushes pending changes and releases storage.
func (s *Session) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	err := s.Autosaver.Flush(ctx)
	s.Autosaver.Stop()
	for i := len(s.unsubs) - 1; i >= 0; i-- {
		s.unsubs[i]()
	}
	s.unsubs = nil
	return errors.Join(err, s.closeSlot())
}

func (s *Session) closeSlot() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// withSession runs fn against a restored session and flushes the autosaver
// afterwards, whether or not fn failed.
func withSession(cmd *cobra.Command, app *App, fn func(s *Session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, app, cmd.ErrOrStderr())
	if err != nil {
		return writeErr(cmd, err)
	}
	runErr := fn(s)
	if err := s.Close(ctx); err != nil && runErr == nil {
		return writeErr(cmd, err)
	}
	if runErr != nil {
		return writeErr(cmd, runErr)
	}
	return nil
}

// logFile opens <dir>/slidedeck.log for the interactive editor.
func logFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "slidedeck.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
