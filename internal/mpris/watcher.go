package mpris

import (
	"fmt"
	"sync"

	"github.com/Sonath21/spotify-controls/internal/domain"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

// NameWatcher watches a single well-known name on the session bus and
// reports ownership changes as presence transitions. The bus pushes
// NameOwnerChanged signals, so no polling is involved.
type NameWatcher struct {
	logger  *zap.Logger
	conn    BusClient
	name    string
	events  chan domain.Presence
	signals chan *dbus.Signal

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewNameWatcher creates a watcher for the given well-known bus name.
func NewNameWatcher(logger *zap.Logger, conn BusClient, name string) *NameWatcher {
	return &NameWatcher{
		logger:  logger,
		conn:    conn,
		name:    name,
		events:  make(chan domain.Presence, 8),
		signals: make(chan *dbus.Signal, 16),
		done:    make(chan struct{}),
	}
}

// Start registers the NameOwnerChanged match and probes whether the player
// is already running. A registration failure is returned to the caller and
// is fatal: without the watch the indicator can never learn about the
// player.
func (w *NameWatcher) Start() error {
	if err := w.conn.AddMatchSignal(w.matchOptions()...); err != nil {
		return fmt.Errorf("registering name watch for %s: %w", w.name, err)
	}
	w.conn.Signal(w.signals)

	// The player may have registered before we did.
	if has, err := w.conn.NameHasOwner(w.name); err != nil {
		w.logger.Warn("Initial name probe failed",
			zap.String("name", w.name),
			zap.Error(err))
	} else if has {
		w.emit(domain.PresencePresent)
	}

	w.wg.Add(1)
	go w.watchSignals()

	w.logger.Info("Name watch registered", zap.String("name", w.name))
	return nil
}

// Stop unregisters the watch. Safe to call more than once; no further
// events are emitted after the first call returns.
func (w *NameWatcher) Stop() {
	w.stopOnce.Do(func() {
		w.conn.RemoveSignal(w.signals)
		if err := w.conn.RemoveMatchSignal(w.matchOptions()...); err != nil {
			// The connection may already be gone on shutdown.
			w.logger.Debug("Removing name watch match failed", zap.Error(err))
		}
		close(w.done)
		w.wg.Wait()
	})
}

// Events emits the player's presence whenever its name ownership changes.
func (w *NameWatcher) Events() <-chan domain.Presence {
	return w.events
}

func (w *NameWatcher) matchOptions() []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchInterface(dbusInterface),
		dbus.WithMatchMember(nameOwnerChangedMember),
		dbus.WithMatchArg(0, w.name),
	}
}

func (w *NameWatcher) watchSignals() {
	defer w.wg.Done()
	defer close(w.events)

	for {
		select {
		case <-w.done:
			return
		case sig := <-w.signals:
			if sig == nil {
				continue
			}
			w.handleOwnerChange(sig)
		}
	}
}

// handleOwnerChange decodes a NameOwnerChanged signal for the watched name.
// An ownership transfer (both owners set) is reported as a vanish followed
// by an appearance so the consumer invalidates state held for the old
// owner.
func (w *NameWatcher) handleOwnerChange(sig *dbus.Signal) {
	if sig.Name != nameOwnerChangedSignal || len(sig.Body) < 3 {
		return
	}

	name, ok := sig.Body[0].(string)
	if !ok || name != w.name {
		return
	}
	oldOwner, _ := sig.Body[1].(string)
	newOwner, _ := sig.Body[2].(string)

	switch {
	case oldOwner == "" && newOwner != "":
		w.logger.Info("Player appeared on the bus",
			zap.String("name", w.name),
			zap.String("owner", newOwner))
		w.emit(domain.PresencePresent)

	case oldOwner != "" && newOwner == "":
		w.logger.Info("Player vanished from the bus",
			zap.String("name", w.name),
			zap.String("owner", oldOwner))
		w.emit(domain.PresenceAbsent)

	case oldOwner != "" && newOwner != "":
		w.logger.Debug("Player bus name changed owner",
			zap.String("name", w.name),
			zap.String("oldOwner", oldOwner),
			zap.String("newOwner", newOwner))
		w.emit(domain.PresenceAbsent)
		w.emit(domain.PresencePresent)
	}
}

func (w *NameWatcher) emit(p domain.Presence) {
	select {
	case w.events <- p:
	case <-w.done:
	}
}
