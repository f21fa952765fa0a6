package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventCallback is called after a watcher-driven vault change.
// kind is one of "created", "updated", "deleted"; path is relative to the vault root.
type EventCallback func(kind string, path string)

// Handler receives file events for note files. Each method reports whether
// the vault changed.
type Handler interface {
	IsNote(path string) bool
	OnFileCreated(path string) bool
	OnMetadataChanged(path string) bool
	OnFileDeleted(path string) bool
	// Reconcile compares the vault with the disk and applies the difference,
	// calling cb for each change.
	Reconcile(cb EventCallback)
}

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the vault root and dispatches note file
// events to h until ctx is cancelled. It calls cb (if non-nil) after each
// change h reports.
//
// The vault is flat, so only the root directory is watched. Rename events
// delete the old name and trigger a debounced reconciliation pass, which
// picks up the new name even when no Create event arrives for it.
func Watch(ctx context.Context, vaultRoot string, h Handler, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	notify := func(kind, path string) {
		logger.Debug("watcher: applied", slog.String("path", path), slog.String("op", kind))
		if cb != nil {
			cb(kind, path)
		}
	}

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			h.Reconcile(notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			rel, relErr := filepath.Rel(vaultRoot, ev.Name)
			if relErr != nil || !h.IsNote(rel) {
				continue
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				if h.OnFileCreated(rel) {
					notify("created", rel)
				}

			case ev.Op&fsnotify.Write != 0:
				// A write to a file the tree has not seen yet counts as a create.
				if h.OnMetadataChanged(rel) {
					notify("updated", rel)
				} else if h.OnFileCreated(rel) {
					notify("created", rel)
				}

			case ev.Op&fsnotify.Remove != 0:
				if h.OnFileDeleted(rel) {
					notify("deleted", rel)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new
				// path arrives as a separate Create event when it stays in
				// the vault root; reconciliation catches the rest.
				if h.OnFileDeleted(rel) {
					notify("deleted", rel)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
