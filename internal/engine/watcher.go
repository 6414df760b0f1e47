package engine

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"heatmap/internal/models"
)

// Watch reloads path into store whenever the file is written or recreated,
// then calls onReload (if set) with the new rows. It blocks until ctx is
// done. A failed reload keeps the previous data.
func Watch(ctx context.Context, path string, store *Store, onReload func([]models.Record)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory so editors that replace the file are still seen.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			records, err := LoadFile(path)
			if err != nil {
				log.Error().Err(err).Str("file", ev.Name).Msg("dataset reload failed, keeping previous data")
				continue
			}
			store.Replace(records)
			log.Info().Str("file", ev.Name).Int("rows", len(records)).Msg("dataset reloaded")
			if onReload != nil {
				onReload(records)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("dataset watcher error")
		}
	}
}
