// Package watch notices changes to the LevelDB table files so that cached
// decodes can be refreshed.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dvloznov/copilot-ledger/internal/decoder"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reports bursts of table file changes in one directory.
type Watcher struct {
	fw       *fsnotify.Watcher
	dir      string
	debounce time.Duration
	log      zerolog.Logger
}

// New starts watching dir. Changes are reported by Run once no further
// event has arrived for debounce.
func New(dir string, debounce time.Duration, log zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch.New: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch.New: add %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = time.Second
	}
	return &Watcher{fw: fw, dir: dir, debounce: debounce, log: log}, nil
}

// Run calls onChange after each debounced burst of table file events and
// returns when ctx is done. The underlying watcher is closed on return.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, events int)) error {
	defer w.fw.Close()

	w.log.Info().Str("dir", w.dir).Dur("debounce", w.debounce).Msg("Watching database")

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending int
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			w.log.Debug().Str("file", filepath.Base(ev.Name)).Str("op", ev.Op.String()).Msg("Table file changed")
			pending++
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("Watcher error")

		case <-fire:
			fire = nil
			w.log.Info().Int("events", pending).Msg("Database changed")
			onChange(ctx, pending)
			pending = 0
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if filepath.Ext(ev.Name) != decoder.TableFileExt {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
