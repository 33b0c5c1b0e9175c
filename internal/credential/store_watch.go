package credential

import (
	"context"
	"path/filepath"
	"time"

	"geminicli2api-go/internal/monitoring"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const watchDebounceInterval = 300 * time.Millisecond

// WatchFile enables hot-reload of the credential file. Writes performed by
// the store itself also land here; reloading them is a harmless no-op.
func (s *Store) WatchFile(ctx context.Context) {
	if s.path == "" || s.inline != "" {
		return
	}
	s.watchOnce.Do(func() {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			log.WithError(err).Warn("credential store: failed to start file watcher")
			return
		}
		dir := filepath.Dir(s.path)
		if err := watcher.Add(dir); err != nil {
			log.WithError(err).Warnf("credential store: failed to watch %s", dir)
			_ = watcher.Close()
			return
		}
		s.watcher = watcher
		go s.reloadLoop(ctx)
		go s.watchLoop(ctx, watcher)
		log.Infof("credential store: watching %s for changes", s.path)
	})
}

func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	target := filepath.Clean(s.path)
	for {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) == target {
				s.requestReload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("credential watcher error")
		case <-ctx.Done():
			return
		}
	}
}

func (s *Store) reloadLoop(ctx context.Context) {
	var timer *time.Timer
	var timerCh <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-s.reloadCh:
			if timer == nil {
				timer = time.NewTimer(watchDebounceInterval)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(watchDebounceInterval)
			}
		case <-timerCh:
			s.reloadFromFile()
			timerCh = nil
			timer.Stop()
			timer = nil
		}
	}
}

func (s *Store) requestReload() {
	select {
	case s.reloadCh <- struct{}{}:
	default:
	}
}

func (s *Store) reloadFromFile() {
	rec, err := s.loadFile()
	if err != nil {
		log.WithError(err).Warnf("credential store: reload of %s failed", s.path)
		return
	}
	s.setRecord(rec, false)
	monitoring.CredentialReloadsTotal.Inc()
	log.Infof("credential store: reloaded %s", s.path)
}
