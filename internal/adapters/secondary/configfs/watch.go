package configfs

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// DefaultDebounce collapses the burst of events an editor emits on save.
const DefaultDebounce = 200 * time.Millisecond

// Watch calls onChange once per burst of changes to record files in dirs,
// until ctx is done. Directories that do not exist yet are skipped.
func Watch(ctx context.Context, dirs []string, debounce time.Duration, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := 0
	for _, d := range dirs {
		if _, err := os.Stat(d); err != nil {
			log.WithField("dir", d).Warn("not watching missing directory")
			continue
		}
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("no directory to watch among %v", dirs)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !IsRecordFile(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			log.WithFields(log.Fields{"file": event.Name, "op": event.Op.String()}).Debug("record changed")
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("file watcher error")
		case <-timer.C:
			onChange()
		}
	}
}
