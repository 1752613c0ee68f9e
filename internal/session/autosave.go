package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultAutosaveInterval is how often the autosaver checks the dirty flag.
const DefaultAutosaveInterval = 30 * time.Second

// Autosaver periodically pushes a live engine's snapshot to persistence.
//
// Each tick checks the engine's dirty flag and, if set, takes a snapshot and
// pushes it. The push runs on the autosaver goroutine, so learner actions
// never block on it; if a mutation lands while a push is in flight the dirty
// flag is simply set again and the next tick pushes the newer state. A failed
// push re-arms the dirty flag instead of retrying immediately - transient
// persistence trouble self-heals on a later tick.
type Autosaver struct {
	engine   *Engine
	interval time.Duration
	logger   *slog.Logger

	// wg tracks the autosave goroutine for clean shutdown
	wg sync.WaitGroup

	// cancel stops the autosave loop
	cancel context.CancelFunc
}

// NewAutosaver creates an autosaver for the given engine. A non-positive
// interval falls back to DefaultAutosaveInterval.
func NewAutosaver(engine *Engine, interval time.Duration, logger *slog.Logger) *Autosaver {
	if engine == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("engine cannot be nil")
	}
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Autosaver{
		engine:   engine,
		interval: interval,
		logger:   logger.With(slog.String("component", "session_autosaver")),
	}
}

// Start launches the autosave loop. It returns immediately.
func (a *Autosaver) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.wg.Add(1)
	go a.run(ctx)
}

// Stop halts the loop and waits for any in-flight push to finish. It makes
// one final flush attempt so a cleanly closed process loses nothing.
func (a *Autosaver) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	a.Flush(context.Background())
}

// Flush pushes the current snapshot now if the engine is dirty.
func (a *Autosaver) Flush(ctx context.Context) {
	if !a.engine.Dirty() {
		return
	}

	snap := a.engine.Snapshot()
	if err := a.engine.pushSnapshot(ctx, snap); err != nil {
		// Leave it for the next tick (or the next explicit flush).
		a.engine.MarkDirty()
		a.logger.Warn("autosave push failed",
			slog.String("session_id", snap.SessionID.String()),
			slog.String("error", err.Error()))
		return
	}

	a.logger.Debug("autosaved session snapshot",
		slog.String("session_id", snap.SessionID.String()),
		slog.Int("card_index", snap.CurrentIndex),
		slog.Int("answers", len(snap.Answers)))
}

// run is the autosave loop body.
func (a *Autosaver) run(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Flush(ctx)
		}
	}
}
