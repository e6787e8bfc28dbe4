package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Handler processes one media file. It is never called concurrently.
type Handler func(ctx context.Context, path string) error

var mediaExts = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".webm": true, ".m4v": true,
	".mp3": true, ".wav": true, ".m4a": true,
}

func IsMedia(path string) bool {
	return mediaExts[strings.ToLower(filepath.Ext(path))]
}

type Watcher struct {
	dir     string
	handler Handler
	log     zerolog.Logger
	fsw     *fsnotify.Watcher

	// Settle is how long to wait after CREATE before handing the file over,
	// so writers have a chance to finish.
	Settle time.Duration
}

func New(dir string, h Handler, log zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	return &Watcher{
		dir:     dir,
		handler: h,
		log:     log.With().Str("component", "watch").Logger(),
		fsw:     fsw,
		Settle:  500 * time.Millisecond,
	}, nil
}

// Start blocks until ctx is done or the watcher is closed. Files are
// handled one at a time in arrival order; a failing file is logged and
// does not stop the loop.
func (w *Watcher) Start(ctx context.Context) error {
	w.log.Info().Str("dir", w.dir).Msg("watching")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			if !IsMedia(ev.Name) {
				w.log.Debug().Str("file", ev.Name).Msg("ignoring non-media file")
				continue
			}
			w.log.Info().Str("file", ev.Name).Msg("new media detected")
			select {
			case <-time.After(w.Settle):
			case <-ctx.Done():
				return ctx.Err()
			}
			if err := w.handler(ctx, ev.Name); err != nil {
				w.log.Error().Err(err).Str("file", ev.Name).Msg("batch failed")
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.log.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) Close() error { return w.fsw.Close() }
