// Package mpris talks to an MPRIS-compliant media player over the session
// bus: presence watching, property fetching, change subscription and
// transport commands.
package mpris

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	// BusNamePrefix is the namespace every MPRIS player name lives under.
	BusNamePrefix = "org.mpris.MediaPlayer2"
	// ObjectPath is the fixed object path MPRIS players export.
	ObjectPath = "/org/mpris/MediaPlayer2"
	// PlayerInterface exposes transport methods and playback properties.
	PlayerInterface = BusNamePrefix + ".Player"

	// PropPlaybackStatus and PropMetadata are the two player properties
	// this module cares about.
	PropPlaybackStatus = "PlaybackStatus"
	PropMetadata       = "Metadata"

	metadataKeyArtist = "xesam:artist"
	metadataKeyTitle  = "xesam:title"

	dbusInterface          = "org.freedesktop.DBus"
	nameOwnerChangedMember = "NameOwnerChanged"
	nameOwnerChangedSignal = dbusInterface + "." + nameOwnerChangedMember
	nameHasOwnerMethod     = dbusInterface + ".NameHasOwner"

	propsInterface     = "org.freedesktop.DBus.Properties"
	propsChangedMember = "PropertiesChanged"
	propsChangedSignal = propsInterface + "." + propsChangedMember
	propsGetMethod     = propsInterface + ".Get"

	methodPrevious  = PlayerInterface + ".Previous"
	methodPlayPause = PlayerInterface + ".PlayPause"
	methodNext      = PlayerInterface + ".Next"
)

// ValidateBusName checks that name is a plausible MPRIS player bus name.
func ValidateBusName(name string) error {
	if name == "" {
		return errors.New("empty bus name")
	}
	if !strings.HasPrefix(name, BusNamePrefix+".") {
		return fmt.Errorf("bus name %q must start with %s.", name, BusNamePrefix)
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, "/\x00\r\n") {
		return fmt.Errorf("bus name %q contains illegal characters", name)
	}
	return nil
}

// BusClient defines the bus operations the package needs.
// The abstraction exists so D-Bus interactions can be mocked in tests.
//
//go:generate mockgen -destination=mocks/bus_client_mock.go -package=mocks github.com/Sonath21/spotify-controls/internal/mpris BusClient
type BusClient interface {
	// Close closes the bus connection.
	Close() error

	// AddMatchSignal adds a signal match rule.
	AddMatchSignal(options ...dbus.MatchOption) error

	// RemoveMatchSignal removes a previously added match rule.
	RemoveMatchSignal(options ...dbus.MatchOption) error

	// Signal registers a channel to receive matched signals.
	Signal(ch chan<- *dbus.Signal)

	// RemoveSignal unregisters a channel registered with Signal.
	RemoveSignal(ch chan<- *dbus.Signal)

	// NameHasOwner reports whether the well-known name currently has an
	// owner on the bus.
	NameHasOwner(name string) (bool, error)

	// GetProperty performs org.freedesktop.DBus.Properties.Get against the
	// object at dest/path.
	GetProperty(ctx context.Context, dest, path, iface, prop string) (dbus.Variant, error)

	// Call invokes a no-argument, no-result method on the object at
	// dest/path.
	Call(ctx context.Context, dest, path, method string) error
}

// StdBusClient is the real implementation backed by godbus.
type StdBusClient struct {
	conn *dbus.Conn
}

// NewStdBusClient connects to the session bus.
func NewStdBusClient() (*StdBusClient, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return &StdBusClient{conn: conn}, nil
}

// Close closes the bus connection.
func (c *StdBusClient) Close() error {
	return c.conn.Close()
}

// AddMatchSignal adds a signal match rule.
func (c *StdBusClient) AddMatchSignal(options ...dbus.MatchOption) error {
	return c.conn.AddMatchSignal(options...)
}

// RemoveMatchSignal removes a previously added match rule.
func (c *StdBusClient) RemoveMatchSignal(options ...dbus.MatchOption) error {
	return c.conn.RemoveMatchSignal(options...)
}

// Signal registers a channel to receive matched signals.
func (c *StdBusClient) Signal(ch chan<- *dbus.Signal) {
	c.conn.Signal(ch)
}

// RemoveSignal unregisters a signal channel.
func (c *StdBusClient) RemoveSignal(ch chan<- *dbus.Signal) {
	c.conn.RemoveSignal(ch)
}

// NameHasOwner reports whether name currently has an owner.
func (c *StdBusClient) NameHasOwner(name string) (bool, error) {
	var has bool
	err := c.conn.BusObject().Call(nameHasOwnerMethod, 0, name).Store(&has)
	return has, err
}

// GetProperty fetches a single property as a variant.
func (c *StdBusClient) GetProperty(ctx context.Context, dest, path, iface, prop string) (dbus.Variant, error) {
	var v dbus.Variant
	obj := c.conn.Object(dest, dbus.ObjectPath(path))
	err := obj.CallWithContext(ctx, propsGetMethod, 0, iface, prop).Store(&v)
	return v, err
}

// Call invokes a no-argument method and waits for the reply.
func (c *StdBusClient) Call(ctx context.Context, dest, path, method string) error {
	obj := c.conn.Object(dest, dbus.ObjectPath(path))
	return obj.CallWithContext(ctx, method, 0).Err
}
