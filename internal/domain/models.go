package domain

// Presence reports whether the watched player currently owns its well-known
// bus name.
type Presence string

const (
	// PresenceAbsent means nobody owns the name.
	PresenceAbsent Presence = "Absent"
	// PresencePresent means the player is registered on the bus.
	PresencePresent Presence = "Present"
)

// PlaybackStatus represents the player's transport state.
type PlaybackStatus string

const (
	// StatusPlaying indicates the player is playing a track.
	StatusPlaying PlaybackStatus = "Playing"
	// StatusPaused indicates playback is paused.
	StatusPaused PlaybackStatus = "Paused"
	// StatusStopped indicates playback is stopped.
	StatusStopped PlaybackStatus = "Stopped"
	// StatusUnknown is the initial value and the fallback when a fetch or
	// decode fails.
	StatusUnknown PlaybackStatus = "Unknown"
)

// TrackMetadata holds the now-playing fields read from the player.
//
// The decode boundary collapses empty strings and empty artist lists into
// the zero value, so a zero field means "not known". Display fallbacks
// ("Unknown Artist", "Unknown Title") belong to the presentation layer and
// are never stored here.
type TrackMetadata struct {
	Artist string
	Title  string
}

// Empty reports whether neither artist nor title is known.
func (m TrackMetadata) Empty() bool {
	return m.Artist == "" && m.Title == ""
}

// PlayerSnapshot is the single consistent view of the watched player that
// the presentation layer renders.
type PlayerSnapshot struct {
	Presence Presence
	Status   PlaybackStatus
	Track    TrackMetadata
}

// DefaultSnapshot returns the no-player state: absent, unknown status, no
// track.
func DefaultSnapshot() PlayerSnapshot {
	return PlayerSnapshot{
		Presence: PresenceAbsent,
		Status:   StatusUnknown,
	}
}

// PropertyUpdate is a partial update decoded from a PropertiesChanged
// signal. A nil field was not carried by the signal and must leave the
// corresponding snapshot field untouched.
type PropertyUpdate struct {
	Status *PlaybackStatus
	Track  *TrackMetadata
}

// Command is a transport command, mapped 1:1 to the MPRIS player method of
// the same name.
type Command string

const (
	CommandPrevious  Command = "Previous"
	CommandPlayPause Command = "PlayPause"
	CommandNext      Command = "Next"
)
