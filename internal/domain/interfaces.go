package domain

import "context"

// Watcher reports appearance and disappearance of the watched player's
// well-known bus name. The underlying bus notifies on owner changes, so
// implementations never poll.
type Watcher interface {
	// Start registers the name watch and begins emitting events. A failure
	// to register against the bus is fatal to the indicator.
	Start() error

	// Stop unregisters the watch. Safe to call more than once; no events
	// are emitted after the first call returns.
	Stop()

	// Events emits the player's presence whenever it changes. The channel
	// is closed by Stop.
	Events() <-chan Presence
}

// Fetcher reads player properties with a suspending bus call.
type Fetcher interface {
	// PlaybackStatus fetches the player's current transport state.
	PlaybackStatus(ctx context.Context) (PlaybackStatus, error)

	// Metadata fetches the current track fields. An empty or partial
	// metadata mapping is a success with zero fields, not an error.
	Metadata(ctx context.Context) (TrackMetadata, error)
}

// Subscriber delivers decoded property-change updates from the player.
type Subscriber interface {
	// Subscribe arms the signal match. It must be called only while the
	// player's presence is confirmed.
	Subscribe() error

	// Unsubscribe disarms the match. Safe to call more than once, and after
	// the underlying connection may already be gone.
	Unsubscribe()

	// Updates emits partial updates. The channel stays valid across
	// Subscribe/Unsubscribe cycles.
	Updates() <-chan PropertyUpdate
}

// Dispatcher sends transport commands to the player.
type Dispatcher interface {
	// Invoke sends cmd and waits for the player's reply.
	Invoke(ctx context.Context, cmd Command) error

	// Send is fire-and-forget: completion or failure is logged, never
	// surfaced to the caller, and a dropped command is not resent.
	Send(cmd Command)
}
