// Package watch implements WatchService (§5): a filesystem watcher that
// keeps a compiled network in sync with its source files. Per watched
// network it runs three cooperating tasks — a debounced filesystem
// watcher, a batching stage, and a committing stage — that exit together
// on a shared context cancellation, mirroring the teacher's
// debounce-timer discipline in lsp/workspace.go generalized from editor
// keystrokes to real filesystem events.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/codec"
	"github.com/beliefgraph/core/compiler"
)

const (
	defaultDebounce       = 500 * time.Millisecond
	defaultBatchSize      = 100
	defaultBatchWindow    = 5 * time.Second
	defaultRetryBaseDelay = 200 * time.Millisecond
	defaultRetryMaxDelay  = 30 * time.Second
)

// Network describes one directory tree to keep compiled.
type Network struct {
	// BID identifies the network, as minted by bid.NewNetworkBID(Root).
	BID bid.BID
	// Root is the directory to watch, recursively.
	Root string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a logger; the zero value logs nothing.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithDebounce overrides the ~500ms default debounce window for
// coalescing repeated filesystem events on the same path.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithBatch overrides the default "100 events or 5 seconds" batching
// window the transaction stage flushes on.
func WithBatch(size int, window time.Duration) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
		if window > 0 {
			s.batchWindow = window
		}
	}
}

// Service watches a set of networks and keeps each compiled via a shared
// [compiler.Compiler].
type Service struct {
	compiler *compiler.Compiler
	codecs   *codec.Registry
	logger   *slog.Logger

	debounce    time.Duration
	batchSize   int
	batchWindow time.Duration
}

// New builds a Service that compiles changed files through comp, filtering
// filesystem events to the extensions codecs has registered.
func New(comp *compiler.Compiler, codecs *codec.Registry, opts ...Option) *Service {
	s := &Service{
		compiler:    comp,
		codecs:      codecs,
		debounce:    defaultDebounce,
		batchSize:   defaultBatchSize,
		batchWindow: defaultBatchWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch runs every network's three cooperating tasks until ctx is
// cancelled, then returns nil once all of them have exited. A task
// returning a non-shutdown error cancels the others via the shared
// errgroup context, per §5's "all three exit cleanly on a shared shutdown
// signal."
func (s *Service) Watch(ctx context.Context, networks []Network) error {
	group, groupCtx := errgroup.WithContext(ctx)
	for _, n := range networks {
		n := n
		group.Go(func() error { return s.watchNetwork(groupCtx, n) })
	}
	if err := group.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func (s *Service) watchNetwork(ctx context.Context, n Network) error {
	logger := s.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("network", n.BID.String()), slog.String("root", n.Root))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addRecursive(watcher, n.Root); err != nil {
		return err
	}

	pending := make(chan string, 256)
	batches := make(chan []string, 8)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return s.watchLoop(groupCtx, watcher, n, logger, pending) })
	group.Go(func() error { return s.batchLoop(groupCtx, pending, batches) })
	group.Go(func() error { return s.commitLoop(groupCtx, n, logger, batches) })

	return group.Wait()
}

// watchLoop is the filesystem watcher task: it debounces fsnotify events
// per path (coalescing rapid repeats the way the teacher's debounceEntry
// coalesces rapid edits to the same document) and forwards each settled
// path onto pending, after filtering out unregistered extensions and
// dot-prefixed paths.
func (s *Service) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, n Network, logger *slog.Logger, pending chan<- string) error {
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if evt.Has(fsnotify.Create) {
				if info, statErr := os.Stat(evt.Name); statErr == nil && info.IsDir() {
					_ = addRecursive(watcher, evt.Name)
				}
			}
			if !s.accepts(evt.Name) {
				continue
			}
			path := evt.Name
			if existing, ok := timers[path]; ok {
				existing.Stop()
			}
			timers[path] = time.AfterFunc(s.debounce, func() {
				select {
				case pending <- path:
				case <-ctx.Done():
				}
			})
		}
	}
}

// batchLoop is the transaction-staging task: it accumulates settled paths
// from pending and flushes a batch either once batchSize paths have
// accumulated or batchWindow has elapsed since the first unflushed path
// arrived, per §5's "batches up to 100 events or a 5-second window."
func (s *Service) batchLoop(ctx context.Context, pending <-chan string, batches chan<- []string) error {
	var buf []string
	seen := make(map[string]bool)
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(buf) == 0 {
			return
		}
		out := buf
		buf = nil
		seen = make(map[string]bool)
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
		select {
		case batches <- out:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-pending:
			if !ok {
				flush()
				close(batches)
				return nil
			}
			if seen[path] {
				continue
			}
			seen[path] = true
			buf = append(buf, path)
			if timer == nil {
				timer = time.NewTimer(s.batchWindow)
				timerC = timer.C
			}
			if len(buf) >= s.batchSize {
				flush()
			}
		case <-timerC:
			flush()
		}
	}
}

// commitLoop is the transaction task: it compiles each batch through the
// shared compiler and, on failure, retries with exponential backoff up to
// a cap rather than dropping the batch, per §5.
func (s *Service) commitLoop(ctx context.Context, n Network, logger *slog.Logger, batches <-chan []string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-batches:
			if !ok {
				return nil
			}
			s.commitWithRetry(ctx, n, logger, batch)
		}
	}
}

func (s *Service) commitWithRetry(ctx context.Context, n Network, logger *slog.Logger, batch []string) {
	delay := defaultRetryBaseDelay
	for {
		result, err := s.compiler.Run(ctx, n.BID, compiler.ParseOptions{Paths: batch})
		if err == nil {
			if result.HasErrors() {
				logger.Warn("batch compiled with diagnostics", slog.Int("paths", len(batch)))
			}
			return
		}
		logger.Error("batch commit failed, retrying", slog.String("error", err.Error()), slog.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > defaultRetryMaxDelay {
			delay = defaultRetryMaxDelay
		}
	}
}

// accepts reports whether path should be forwarded for compilation: its
// extension (case-insensitive) is registered with a codec, and no path
// segment starts with a dot.
func (s *Service) accepts(path string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.HasPrefix(segment, ".") {
			return false
		}
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	_, ok := s.codecs.New(ext)
	return ok
}
