package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/annowatch/internal/annotation"
)

// RegenFunc rebuilds the overlay for the record at recordPath and
// returns the artifact path. It is invoked on a timer goroutine after
// the record's debounce window has elapsed.
type RegenFunc func(ctx context.Context, recordPath string) (string, error)

// Options configures the watch behaviour.
type Options struct {
	// Dir is the record directory to watch. Only files matching the
	// record suffix convention are considered; subdirectories are not
	// watched.
	Dir string

	// Debounce is the quiet period before a changed record triggers
	// regeneration.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status lines.
	Out io.Writer
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 500 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Loop is an active filesystem subscription on one record directory.
// Create it with NewLoop and drive it with Run.
type Loop struct {
	opts    Options
	watcher *fsnotify.Watcher

	prevMu sync.Mutex
	prev   map[string]*annotation.Record
}

// NewLoop subscribes to change notifications for the record directory.
// A subscription failure is returned immediately and leaves nothing
// running.
func NewLoop(opts Options) (*Loop, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	if err := watcher.Add(opts.Dir); err != nil {
		_ = watcher.Close()

		return nil, fmt.Errorf("watching record directory %q: %w", opts.Dir, err)
	}

	return &Loop{
		opts:    opts,
		watcher: watcher,
		prev:    make(map[string]*annotation.Record),
	}, nil
}

// Run processes filesystem events until the context is cancelled or a
// SIGINT/SIGTERM signal is received. Regeneration failures for single
// records are reported and never terminate the loop.
func Run(ctx context.Context, opts Options, regenFn RegenFunc) error {
	loop, err := NewLoop(opts)
	if err != nil {
		return err
	}

	return loop.Run(ctx, regenFn)
}

// Run drives the event loop. It closes the filesystem subscription and
// cancels all pending debounce timers on the way out.
func (l *Loop) Run(ctx context.Context, regenFn RegenFunc) error {
	defer l.watcher.Close()

	// Trap SIGINT / SIGTERM for graceful shutdown.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(l.opts.Out, "watching %s (debounce=%s)\n", l.opts.Dir, l.opts.Debounce)

	debouncer := NewDebouncer(l.opts.Debounce, func(key string) {
		l.regenerate(sigCtx, regenFn, key)
	})
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(l.opts.Out, "\nshutting down watcher")
			return nil

		case event, ok := <-l.watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event) {
				l.opts.Logger.Debug("ignoring event",
					slog.String("path", event.Name), slog.String("op", event.Op.String()))

				continue
			}

			// A record moved away or deleted: drop any pending timer;
			// a later re-create starts a fresh cycle.
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				debouncer.Cancel(event.Name)
				l.forget(event.Name)
				l.opts.Logger.Info("record removed", slog.String("path", event.Name))

				continue
			}

			debouncer.Notify(event.Name)

		case watchErr, ok := <-l.watcher.Errors:
			if !ok {
				return nil
			}

			l.opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// regenerate executes one debounced regeneration and prints the status
// line. Errors are reported, never propagated: a bad edit must not kill
// the watcher.
func (l *Loop) regenerate(ctx context.Context, regenFn RegenFunc, recordPath string) {
	now := time.Now().Format("15:04:05")
	name := filepath.Base(recordPath)

	outputPath, err := regenFn(ctx, recordPath)
	if err != nil {
		fmt.Fprintf(l.opts.Out, "[%s] %s → ERROR: %v\n", now, name, err)
		return
	}

	rec, loadErr := annotation.Load(recordPath)
	if loadErr != nil {
		// The record changed or vanished between regeneration and this
		// read-back; the artifact is already written, so just report it.
		fmt.Fprintf(l.opts.Out, "[%s] %s → OK %s\n", now, name, outputPath)
		return
	}

	fmt.Fprintf(l.opts.Out, "[%s] %s → OK (%d detection(s)) %s\n",
		now, name, len(rec.Detections), outputPath)

	l.reportChanges(recordPath, rec)
}

// reportChanges prints the detection changes since the previous
// regeneration of the same record, and logs a full unified diff at
// debug level.
func (l *Loop) reportChanges(recordPath string, rec *annotation.Record) {
	l.prevMu.Lock()
	prev := l.prev[recordPath]
	l.prev[recordPath] = rec
	l.prevMu.Unlock()

	if prev == nil {
		return
	}

	changes := DetectionDiff(prev.Detections, rec.Detections)
	if len(changes) > 0 {
		fmt.Fprintf(l.opts.Out, "  detections: %s\n", DetectionDiffSummary(changes))
	}

	if l.opts.Logger.Enabled(context.Background(), slog.LevelDebug) {
		if diff, err := annotation.UnifiedDiff(prev, rec); err == nil && diff != "" {
			l.opts.Logger.Debug("record diff", slog.String("path", recordPath), slog.String("diff", diff))
		}
	}
}

// forget drops the cached previous record state for a removed file.
func (l *Loop) forget(recordPath string) {
	l.prevMu.Lock()
	delete(l.prev, recordPath)
	l.prevMu.Unlock()
}

// isRelevant filters events down to content changes on record files.
func isRelevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	// Only care about write, create, remove, rename.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	// Ignore editor temporary files and hidden files.
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	return annotation.IsRecordPath(event.Name)
}
