package mpris

import (
	"testing"
	"time"

	"github.com/Sonath21/spotify-controls/internal/domain"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

func propertiesChangedSignal(iface string, changed map[string]dbus.Variant) *dbus.Signal {
	return &dbus.Signal{
		Name:   propsChangedSignal,
		Sender: ":1.100",
		Body:   []interface{}{iface, changed, []string{}},
	}
}

func nextUpdate(t *testing.T, updates <-chan domain.PropertyUpdate) domain.PropertyUpdate {
	t.Helper()
	select {
	case upd := <-updates:
		return upd
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a property update")
		return domain.PropertyUpdate{}
	}
}

func expectNoUpdate(t *testing.T, updates <-chan domain.PropertyUpdate) {
	t.Helper()
	select {
	case upd := <-updates:
		t.Errorf("unexpected update: %+v", upd)
	case <-time.After(50 * time.Millisecond):
	}
}

func startSubscriber(t *testing.T) (*ChangeSubscriber, *fakeBusClient) {
	t.Helper()
	conn := newFakeBusClient()
	s := NewChangeSubscriber(zap.NewNop(), conn, testBusName)
	if err := s.Subscribe(); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	t.Cleanup(s.Unsubscribe)
	return s, conn
}

func TestChangeSubscriber_DecodesBothFields(t *testing.T) {
	s, conn := startSubscriber(t)

	conn.emit(propertiesChangedSignal(PlayerInterface, map[string]dbus.Variant{
		"PlaybackStatus": dbus.MakeVariant("Playing"),
		"Metadata": dbus.MakeVariant(map[string]dbus.Variant{
			"xesam:artist": dbus.MakeVariant([]string{"Radiohead"}),
			"xesam:title":  dbus.MakeVariant("Karma Police"),
		}),
	}))

	upd := nextUpdate(t, s.Updates())
	if upd.Status == nil || *upd.Status != domain.StatusPlaying {
		t.Errorf("status: want Playing pointer, got %v", upd.Status)
	}
	if upd.Track == nil || *upd.Track != (domain.TrackMetadata{Artist: "Radiohead", Title: "Karma Police"}) {
		t.Errorf("track: want Radiohead/Karma Police, got %v", upd.Track)
	}
}

func TestChangeSubscriber_StatusOnlySignal(t *testing.T) {
	s, conn := startSubscriber(t)

	conn.emit(propertiesChangedSignal(PlayerInterface, map[string]dbus.Variant{
		"PlaybackStatus": dbus.MakeVariant("Paused"),
	}))

	upd := nextUpdate(t, s.Updates())
	if upd.Status == nil || *upd.Status != domain.StatusPaused {
		t.Errorf("status: want Paused pointer, got %v", upd.Status)
	}
	if upd.Track != nil {
		t.Errorf("track must be nil for a status-only signal, got %+v", *upd.Track)
	}
}

func TestChangeSubscriber_IgnoredSignals(t *testing.T) {
	tests := []struct {
		name   string
		signal *dbus.Signal
	}{
		{
			name: "Foreign interface",
			signal: propertiesChangedSignal("org.mpris.MediaPlayer2", map[string]dbus.Variant{
				"PlaybackStatus": dbus.MakeVariant("Playing"),
			}),
		},
		{
			name: "Short body",
			signal: &dbus.Signal{
				Name: propsChangedSignal,
				Body: []interface{}{PlayerInterface},
			},
		},
		{
			name: "Changed properties is not a map",
			signal: &dbus.Signal{
				Name: propsChangedSignal,
				Body: []interface{}{PlayerInterface, "junk", []string{}},
			},
		},
		{
			name:   "Irrelevant properties",
			signal: propertiesChangedSignal(PlayerInterface, map[string]dbus.Variant{"Volume": dbus.MakeVariant(0.5)}),
		},
		{
			name:   "Wrong signal name",
			signal: &dbus.Signal{Name: nameOwnerChangedSignal, Body: []interface{}{testBusName, "", ":1.1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, conn := startSubscriber(t)
			conn.emit(tt.signal)
			expectNoUpdate(t, s.Updates())
		})
	}
}

// A field that fails to decode is skipped; the other fields of the same
// signal still apply.
func TestChangeSubscriber_PartialDecodeFailure(t *testing.T) {
	s, conn := startSubscriber(t)

	conn.emit(propertiesChangedSignal(PlayerInterface, map[string]dbus.Variant{
		"PlaybackStatus": dbus.MakeVariant(12345), // undecodable
		"Metadata": dbus.MakeVariant(map[string]dbus.Variant{
			"xesam:title": dbus.MakeVariant("Hysteria"),
		}),
	}))

	upd := nextUpdate(t, s.Updates())
	if upd.Status != nil {
		t.Errorf("status must be skipped, got %v", *upd.Status)
	}
	if upd.Track == nil || upd.Track.Title != "Hysteria" {
		t.Errorf("track: want Hysteria, got %v", upd.Track)
	}
}

func TestChangeSubscriber_SubscribeTwiceIsNoop(t *testing.T) {
	s, conn := startSubscriber(t)

	if err := s.Subscribe(); err != nil {
		t.Fatalf("second Subscribe failed: %v", err)
	}
	conn.mu.Lock()
	added := conn.addedMatches
	conn.mu.Unlock()
	if added != 1 {
		t.Errorf("match rule added %d times, want exactly once", added)
	}
}

func TestChangeSubscriber_UnsubscribeIsIdempotent(t *testing.T) {
	s, conn := startSubscriber(t)

	s.Unsubscribe()
	s.Unsubscribe()

	conn.mu.Lock()
	removedMatches, removedSignals := conn.removedMatches, conn.removedSignals
	conn.mu.Unlock()
	if removedMatches != 1 {
		t.Errorf("match rule removed %d times, want exactly once", removedMatches)
	}
	if removedSignals != 1 {
		t.Errorf("signal channel removed %d times, want exactly once", removedSignals)
	}
}

// The updates channel must survive an unsubscribe/resubscribe cycle, since
// the reconciler keeps selecting on it across player sessions.
func TestChangeSubscriber_Resubscribe(t *testing.T) {
	s, conn := startSubscriber(t)

	s.Unsubscribe()
	if err := s.Subscribe(); err != nil {
		t.Fatalf("resubscribe failed: %v", err)
	}

	conn.emit(propertiesChangedSignal(PlayerInterface, map[string]dbus.Variant{
		"PlaybackStatus": dbus.MakeVariant("Stopped"),
	}))

	upd := nextUpdate(t, s.Updates())
	if upd.Status == nil || *upd.Status != domain.StatusStopped {
		t.Errorf("status: want Stopped pointer, got %v", upd.Status)
	}
}
