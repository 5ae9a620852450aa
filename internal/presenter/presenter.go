// Package presenter renders player snapshots to the terminal and feeds
// typed transport commands to the dispatcher. It is the only layer that
// turns missing track fields into display fallbacks.
package presenter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Sonath21/spotify-controls/internal/domain"
	"go.uber.org/zap"
)

const (
	fallbackArtist = "Unknown Artist"
	fallbackTitle  = "Unknown Title"
	idleLine       = "No player running"
)

// Terminal renders settled snapshots as single now-playing lines.
type Terminal struct {
	logger   *zap.Logger
	out      io.Writer
	debounce time.Duration
}

// NewTerminal creates a terminal renderer writing to out.
func NewTerminal(logger *zap.Logger, out io.Writer, debounce time.Duration) *Terminal {
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	return &Terminal{
		logger:   logger,
		out:      out,
		debounce: debounce,
	}
}

// Run consumes snapshots until ctx is done or the channel closes. Rapid
// updates (track skipping) are debounced so only the settled state is
// rendered.
func (t *Terminal) Run(ctx context.Context, snapshots <-chan domain.PlayerSnapshot) {
	timer := time.NewTimer(t.debounce)
	timer.Stop()

	var pending *domain.PlayerSnapshot

	for {
		select {
		case <-ctx.Done():
			t.logger.Debug("Renderer stopped")
			return

		case snap, ok := <-snapshots:
			if !ok {
				t.logger.Debug("Snapshot channel closed")
				return
			}
			pending = &snap
			timer.Reset(t.debounce)

		case <-timer.C:
			if pending != nil {
				fmt.Fprintln(t.out, Format(*pending))
				pending = nil
			}
		}
	}
}

// Format renders a snapshot as a one-line status. Display fallbacks for
// missing track fields are applied here, at the presentation boundary; the
// stored model stays raw.
func Format(snap domain.PlayerSnapshot) string {
	if snap.Presence != domain.PresencePresent {
		return idleLine
	}
	if snap.Track.Empty() {
		return fmt.Sprintf("%s  (no track)", statusTag(snap.Status))
	}

	artist := snap.Track.Artist
	if artist == "" {
		artist = fallbackArtist
	}
	title := snap.Track.Title
	if title == "" {
		title = fallbackTitle
	}
	return fmt.Sprintf("%s  %s - %s", statusTag(snap.Status), artist, title)
}

func statusTag(status domain.PlaybackStatus) string {
	switch status {
	case domain.StatusPlaying:
		return "[playing]"
	case domain.StatusPaused:
		return "[paused]"
	case domain.StatusStopped:
		return "[stopped]"
	default:
		return "[unknown]"
	}
}
