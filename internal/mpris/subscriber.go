package mpris

import (
	"fmt"
	"sync"

	"github.com/Sonath21/spotify-controls/internal/domain"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

// ChangeSubscriber forwards PropertiesChanged signals from the watched
// player as typed partial updates. Decoding happens on a dedicated
// goroutine so the signal-delivery path is never blocked by consumers.
type ChangeSubscriber struct {
	logger  *zap.Logger
	conn    BusClient
	busName string
	updates chan domain.PropertyUpdate

	mu      sync.Mutex
	signals chan *dbus.Signal
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewChangeSubscriber creates a subscriber for the given player bus name.
func NewChangeSubscriber(logger *zap.Logger, conn BusClient, busName string) *ChangeSubscriber {
	return &ChangeSubscriber{
		logger:  logger,
		conn:    conn,
		busName: busName,
		updates: make(chan domain.PropertyUpdate, 16),
	}
}

// Subscribe arms the signal match. The caller must have confirmed the
// player is present. Subscribing while already subscribed is a no-op.
func (s *ChangeSubscriber) Subscribe() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.signals != nil {
		return nil
	}
	if err := s.conn.AddMatchSignal(s.matchOptions()...); err != nil {
		return fmt.Errorf("subscribing to %s from %s: %w", propsChangedSignal, s.busName, err)
	}

	signals := make(chan *dbus.Signal, 16)
	done := make(chan struct{})
	s.conn.Signal(signals)
	s.signals = signals
	s.done = done

	s.wg.Add(1)
	go s.decodeLoop(signals, done)

	s.logger.Debug("Subscribed to property changes", zap.String("name", s.busName))
	return nil
}

// Unsubscribe disarms the match. Safe to call more than once and after the
// underlying connection is gone: failures are logged and swallowed.
func (s *ChangeSubscriber) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.signals == nil {
		return
	}
	s.conn.RemoveSignal(s.signals)
	if err := s.conn.RemoveMatchSignal(s.matchOptions()...); err != nil {
		s.logger.Debug("Removing property change match failed", zap.Error(err))
	}
	close(s.done)
	s.wg.Wait()
	s.signals = nil
	s.done = nil

	s.logger.Debug("Unsubscribed from property changes", zap.String("name", s.busName))
}

// Updates emits decoded partial updates. The channel stays valid across
// Subscribe/Unsubscribe cycles.
func (s *ChangeSubscriber) Updates() <-chan domain.PropertyUpdate {
	return s.updates
}

func (s *ChangeSubscriber) matchOptions() []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchSender(s.busName),
		dbus.WithMatchObjectPath(ObjectPath),
		dbus.WithMatchInterface(propsInterface),
		dbus.WithMatchMember(propsChangedMember),
	}
}

func (s *ChangeSubscriber) decodeLoop(signals chan *dbus.Signal, done chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-done:
			return
		case sig := <-signals:
			if sig == nil {
				continue
			}
			upd, ok := s.decodeSignal(sig)
			if !ok {
				continue
			}
			select {
			case s.updates <- upd:
			case <-done:
				return
			}
		}
	}
}

// decodeSignal turns a PropertiesChanged signal into a partial update.
// Signals for interfaces other than the player interface are ignored, and a
// field that fails to decode is skipped without discarding the rest of the
// signal.
func (s *ChangeSubscriber) decodeSignal(sig *dbus.Signal) (domain.PropertyUpdate, bool) {
	var upd domain.PropertyUpdate

	if sig.Name != propsChangedSignal || len(sig.Body) < 2 {
		return upd, false
	}
	iface, ok := sig.Body[0].(string)
	if !ok || iface != PlayerInterface {
		return upd, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		s.logger.Warn("Malformed PropertiesChanged payload",
			zap.String("sender", sig.Sender))
		return upd, false
	}

	if v, ok := changed[PropPlaybackStatus]; ok {
		if status, err := decodeStatus(v); err != nil {
			s.logger.Warn("Skipping undecodable PlaybackStatus", zap.Error(err))
		} else {
			upd.Status = &status
		}
	}
	if v, ok := changed[PropMetadata]; ok {
		if track, err := decodeMetadata(v); err != nil {
			s.logger.Warn("Skipping undecodable Metadata", zap.Error(err))
		} else {
			upd.Track = &track
		}
	}

	if upd.Status == nil && upd.Track == nil {
		return upd, false
	}
	return upd, true
}
