package mpris

import (
	"context"
	"fmt"

	"github.com/Sonath21/spotify-controls/internal/domain"
	"go.uber.org/zap"
)

// PropertyFetcher reads player properties from the bus. Every read is a
// suspending call: the caller yields until the reply arrives or ctx is
// done.
type PropertyFetcher struct {
	logger  *zap.Logger
	conn    BusClient
	busName string
}

// NewPropertyFetcher creates a fetcher for the given player bus name.
func NewPropertyFetcher(logger *zap.Logger, conn BusClient, busName string) *PropertyFetcher {
	return &PropertyFetcher{
		logger:  logger,
		conn:    conn,
		busName: busName,
	}
}

// PlaybackStatus fetches the player's current transport state.
func (f *PropertyFetcher) PlaybackStatus(ctx context.Context) (domain.PlaybackStatus, error) {
	v, err := f.conn.GetProperty(ctx, f.busName, ObjectPath, PlayerInterface, PropPlaybackStatus)
	if err != nil {
		return domain.StatusUnknown, fmt.Errorf("fetching %s: %w", PropPlaybackStatus, err)
	}
	status, err := decodeStatus(v)
	if err != nil {
		return domain.StatusUnknown, fmt.Errorf("decoding %s: %w", PropPlaybackStatus, err)
	}
	f.logger.Debug("Fetched playback status", zap.String("status", string(status)))
	return status, nil
}

// Metadata fetches the current track fields. An empty or partial metadata
// mapping is a success with zero fields: players routinely register their
// bus name before populating the property.
func (f *PropertyFetcher) Metadata(ctx context.Context) (domain.TrackMetadata, error) {
	v, err := f.conn.GetProperty(ctx, f.busName, ObjectPath, PlayerInterface, PropMetadata)
	if err != nil {
		return domain.TrackMetadata{}, fmt.Errorf("fetching %s: %w", PropMetadata, err)
	}
	track, err := decodeMetadata(v)
	if err != nil {
		return domain.TrackMetadata{}, fmt.Errorf("decoding %s: %w", PropMetadata, err)
	}
	f.logger.Debug("Fetched metadata",
		zap.String("artist", track.Artist),
		zap.String("title", track.Title))
	return track, nil
}
