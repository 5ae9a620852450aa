// Package indicator owns the player snapshot. A single goroutine applies
// presence transitions, initial-fetch results and signal-driven updates, so
// the snapshot needs no coordination beyond that loop.
package indicator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sonath21/spotify-controls/internal/domain"
	"go.uber.org/zap"
)

type phase int

const (
	phaseIdle      phase = iota // no player on the bus
	phaseAppearing              // presence confirmed, initial fetch in flight
	phaseLive                   // steady state, subscription active
)

// fetchResult carries an initial-fetch value back to the reconcile loop,
// tagged with the generation it was issued in so results from a session
// that has since ended are dropped.
type fetchResult struct {
	gen    uint64
	status *domain.PlaybackStatus
	track  *domain.TrackMetadata
}

// Options tunes the initial metadata retry policy.
type Options struct {
	// MetadataAttempts bounds the initial metadata fetch loop.
	MetadataAttempts int
	// MetadataRetryDelay is the fixed backoff between attempts.
	MetadataRetryDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.MetadataAttempts <= 0 {
		o.MetadataAttempts = 3
	}
	if o.MetadataRetryDelay <= 0 {
		o.MetadataRetryDelay = 500 * time.Millisecond
	}
	return o
}

// Indicator reconciles watcher, fetcher and subscriber input into a
// PlayerSnapshot and fans settled snapshots out to the presentation layer.
type Indicator struct {
	logger     *zap.Logger
	watcher    domain.Watcher
	fetcher    domain.Fetcher
	subscriber domain.Subscriber
	opts       Options

	mu       sync.RWMutex // guards snapshot for outside readers, and running/cancel
	snapshot domain.PlayerSnapshot
	running  bool
	cancel   context.CancelFunc

	// Owned by the reconcile loop.
	phase           phase
	gen             uint64
	lastDropWarning time.Time

	results chan fetchResult
	out     chan domain.PlayerSnapshot
	wg      sync.WaitGroup
}

// New creates an indicator. It does nothing until Start is called.
func New(logger *zap.Logger, w domain.Watcher, f domain.Fetcher, s domain.Subscriber, opts Options) *Indicator {
	return &Indicator{
		logger:     logger,
		watcher:    w,
		fetcher:    f,
		subscriber: s,
		opts:       opts.withDefaults(),
		snapshot:   domain.DefaultSnapshot(),
		results:    make(chan fetchResult, 8),
		out:        make(chan domain.PlayerSnapshot, 10),
	}
}

// Start registers the bus watch and launches the reconcile loop. It does
// not block. A watch registration failure is returned and is fatal: the
// bus itself is unreachable.
func (i *Indicator) Start(ctx context.Context) error {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	i.running = true
	i.cancel = cancel
	i.mu.Unlock()

	if err := i.watcher.Start(); err != nil {
		i.mu.Lock()
		i.running = false
		i.cancel = nil
		i.mu.Unlock()
		cancel()
		return fmt.Errorf("starting bus watch: %w", err)
	}

	i.wg.Add(1)
	go i.reconcileLoop(loopCtx)

	i.logger.Info("Indicator started")
	return nil
}

// Stop tears down the watch and subscription and waits for in-flight work
// to drain. Safe to call more than once.
func (i *Indicator) Stop() {
	i.mu.Lock()
	if !i.running {
		i.mu.Unlock()
		return
	}
	i.running = false
	cancel := i.cancel
	i.cancel = nil
	i.mu.Unlock()

	i.watcher.Stop()
	cancel()
	i.wg.Wait()
	i.subscriber.Unsubscribe()
	close(i.out)

	i.logger.Info("Indicator stopped")
}

// Snapshots emits a copy of the snapshot after every applied change. The
// channel is closed by Stop.
func (i *Indicator) Snapshots() <-chan domain.PlayerSnapshot {
	return i.out
}

// Snapshot returns the current snapshot.
func (i *Indicator) Snapshot() domain.PlayerSnapshot {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.snapshot
}

func (i *Indicator) reconcileLoop(ctx context.Context) {
	defer i.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-i.watcher.Events():
			if !ok {
				return
			}
			i.handlePresence(ctx, p)
		case upd, ok := <-i.subscriber.Updates():
			if !ok {
				return
			}
			i.handleUpdate(upd)
		case res := <-i.results:
			i.handleFetchResult(res)
		}
	}
}

func (i *Indicator) handlePresence(ctx context.Context, p domain.Presence) {
	switch p {
	case domain.PresencePresent:
		i.handleAppeared(ctx)
	case domain.PresenceAbsent:
		i.handleVanished()
	}
}

// handleAppeared drives Idle -> Appearing. The subscription is armed before
// the initial fetch: a change signal racing the fetch is then at worst
// double-applied (which is idempotent) instead of silently lost.
func (i *Indicator) handleAppeared(ctx context.Context) {
	if i.phase != phaseIdle {
		// Restart without an observed vanish; invalidate the old session.
		i.handleVanished()
	}
	i.phase = phaseAppearing
	i.setSnapshot(domain.PlayerSnapshot{
		Presence: domain.PresencePresent,
		Status:   domain.StatusUnknown,
	})
	i.logger.Info("Player appeared", zap.Uint64("generation", i.gen))

	if err := i.subscriber.Subscribe(); err != nil {
		// The initial fetch still runs; the snapshot just will not track
		// later changes until the next appearance.
		i.logger.Error("Subscribing to property changes failed", zap.Error(err))
	}

	i.wg.Add(1)
	go i.fetchInitial(ctx, i.gen)
}

// handleVanished drives any phase back to Idle. Bumping the generation
// orphans in-flight fetches from the session that just ended.
func (i *Indicator) handleVanished() {
	i.gen++
	i.subscriber.Unsubscribe()
	i.phase = phaseIdle
	i.setSnapshot(domain.DefaultSnapshot())
	i.logger.Info("Player vanished", zap.Uint64("generation", i.gen))
}

// fetchInitial reads PlaybackStatus once and Metadata with a bounded retry.
// Players frequently own their bus name before Metadata is populated, so a
// successful-but-empty reply is retried with a fixed backoff. Exhausting
// the attempts is not an error: the snapshot keeps its default track and
// the subscription supplies it eventually.
func (i *Indicator) fetchInitial(ctx context.Context, gen uint64) {
	defer i.wg.Done()

	if status, err := i.fetcher.PlaybackStatus(ctx); err != nil {
		i.logger.Warn("Initial playback status fetch failed", zap.Error(err))
	} else {
		i.deliver(ctx, fetchResult{gen: gen, status: &status})
	}

	for attempt := 1; attempt <= i.opts.MetadataAttempts; attempt++ {
		track, err := i.fetcher.Metadata(ctx)
		if err != nil {
			// A failed call is not retried; only empty replies are.
			i.logger.Warn("Initial metadata fetch failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			return
		}
		if !track.Empty() {
			i.deliver(ctx, fetchResult{gen: gen, track: &track})
			return
		}
		if attempt < i.opts.MetadataAttempts {
			select {
			case <-time.After(i.opts.MetadataRetryDelay):
			case <-ctx.Done():
				return
			}
		}
	}
	i.logger.Debug("Metadata still empty after retries",
		zap.Int("attempts", i.opts.MetadataAttempts))
}

func (i *Indicator) deliver(ctx context.Context, res fetchResult) {
	select {
	case i.results <- res:
	case <-ctx.Done():
	}
}

// handleFetchResult applies an initial-fetch value, unless it belongs to a
// generation that has since been torn down. A stale result is an expected
// race, not a fault.
func (i *Indicator) handleFetchResult(res fetchResult) {
	if res.gen != i.gen {
		i.logger.Debug("Dropping fetch result from a stale generation",
			zap.Uint64("resultGeneration", res.gen),
			zap.Uint64("currentGeneration", i.gen))
		return
	}
	i.apply(domain.PropertyUpdate{Status: res.status, Track: res.track})
}

// handleUpdate applies a signal-driven partial update. Updates arriving
// after the player vanished (subscription teardown races late signals) are
// dropped.
func (i *Indicator) handleUpdate(upd domain.PropertyUpdate) {
	if i.phase == phaseIdle {
		i.logger.Debug("Dropping property update with no player present")
		return
	}
	i.apply(upd)
}

// apply merges a partial update into the snapshot field by field. A
// status-only update never clobbers the track, and vice versa. Any applied
// value moves the indicator to the live phase.
func (i *Indicator) apply(upd domain.PropertyUpdate) {
	if upd.Status == nil && upd.Track == nil {
		return
	}
	snap := i.Snapshot()
	if upd.Status != nil {
		snap.Status = *upd.Status
	}
	if upd.Track != nil {
		snap.Track = *upd.Track
	}
	i.phase = phaseLive
	i.setSnapshot(snap)
}

// setSnapshot stores and publishes a snapshot copy. The fan-out send never
// blocks the reconcile loop; if the channel is full the update is dropped
// and the next publish carries the current state anyway.
func (i *Indicator) setSnapshot(snap domain.PlayerSnapshot) {
	i.mu.Lock()
	i.snapshot = snap
	i.mu.Unlock()

	select {
	case i.out <- snap:
	default:
		i.warnDropped()
	}
}

// warnDropped is rate limited to avoid log spam during rapid track
// skipping.
func (i *Indicator) warnDropped() {
	const warningInterval = 5 * time.Second
	now := time.Now()
	if now.Sub(i.lastDropWarning) >= warningInterval {
		i.logger.Warn("Snapshot channel full, dropping update (consumer may be slow)")
		i.lastDropWarning = now
	}
}
