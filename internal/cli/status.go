package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/Sonath21/spotify-controls/internal/config"
	"github.com/Sonath21/spotify-controls/internal/domain"
	"github.com/Sonath21/spotify-controls/internal/mpris"
	"github.com/Sonath21/spotify-controls/internal/presenter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current playback state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

// runStatus assembles a one-shot snapshot: presence probe first, then the
// two property fetches. Fetch failures degrade to the default values
// rather than aborting, matching the daemon's behavior.
func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	client, err := mpris.NewStdBusClient()
	if err != nil {
		return fmt.Errorf("session bus connection failed: %w", err)
	}
	defer client.Close()

	logger := cliLogger()

	snap := domain.DefaultSnapshot()
	present, err := client.NameHasOwner(cfg.Player.BusName)
	if err != nil {
		return fmt.Errorf("probing %s: %w", cfg.Player.BusName, err)
	}

	if present {
		snap.Presence = domain.PresencePresent

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fetcher := mpris.NewPropertyFetcher(logger, client, cfg.Player.BusName)
		if status, err := fetcher.PlaybackStatus(ctx); err != nil {
			logger.Warn("Playback status fetch failed", zap.Error(err))
		} else {
			snap.Status = status
		}
		if track, err := fetcher.Metadata(ctx); err != nil {
			logger.Warn("Metadata fetch failed", zap.Error(err))
		} else {
			snap.Track = track
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), presenter.Format(snap))
	return nil
}
