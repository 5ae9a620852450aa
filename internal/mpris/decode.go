package mpris

import (
	"fmt"

	"github.com/Sonath21/spotify-controls/internal/domain"
	"github.com/godbus/dbus/v5"
)

// decodeStatus validates a PlaybackStatus variant. A non-string payload is
// a decode error; an unexpected string degrades to StatusUnknown since only
// non-compliant players send anything beyond the three standard values.
func decodeStatus(v dbus.Variant) (domain.PlaybackStatus, error) {
	s, ok := v.Value().(string)
	if !ok {
		return domain.StatusUnknown, fmt.Errorf("playback status is %T, want string", v.Value())
	}
	switch s {
	case "Playing":
		return domain.StatusPlaying, nil
	case "Paused":
		return domain.StatusPaused, nil
	case "Stopped":
		return domain.StatusStopped, nil
	default:
		return domain.StatusUnknown, nil
	}
}

// decodeMetadata validates a Metadata variant. An empty or partial mapping
// is a success with zero fields. Empty strings and empty artist lists are
// collapsed to "not known" here so the stored model never carries them.
func decodeMetadata(v dbus.Variant) (domain.TrackMetadata, error) {
	var track domain.TrackMetadata
	if v.Value() == nil {
		// Some players return an empty variant before the first track.
		return track, nil
	}
	meta, ok := v.Value().(map[string]dbus.Variant)
	if !ok {
		return track, fmt.Errorf("metadata is %T, want map[string]dbus.Variant", v.Value())
	}

	if titleVar, ok := meta[metadataKeyTitle]; ok {
		if title, ok := titleVar.Value().(string); ok {
			track.Title = title
		}
	}

	if artistVar, ok := meta[metadataKeyArtist]; ok {
		switch artists := artistVar.Value().(type) {
		case []string:
			// Ordered list; only the first entry is displayed.
			if len(artists) > 0 {
				track.Artist = artists[0]
			}
		case string:
			// Non-compliant players send a bare string.
			track.Artist = artists
		}
	}

	return track, nil
}
