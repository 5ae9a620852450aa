package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/Sonath21/spotify-controls/internal/config"
	"github.com/Sonath21/spotify-controls/internal/domain"
	"github.com/Sonath21/spotify-controls/internal/mpris"
	"github.com/spf13/cobra"
)

const controlTimeout = 5 * time.Second

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Skip to the next track",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(domain.CommandNext)
	},
}

var previousCmd = &cobra.Command{
	Use:   "previous",
	Short: "Skip to the previous track",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(domain.CommandPrevious)
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle between playing and paused",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(domain.CommandPlayPause)
	},
}

// runControl sends a single transport command synchronously. Unlike the
// daemon's fire-and-forget path, a one-shot invocation reports its failure
// to the terminal.
func runControl(command domain.Command) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	client, err := mpris.NewStdBusClient()
	if err != nil {
		return fmt.Errorf("session bus connection failed: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()

	dispatcher := mpris.NewCommandDispatcher(cliLogger(), client, cfg.Player.BusName)
	if err := dispatcher.Invoke(ctx, command); err != nil {
		return fmt.Errorf("%s failed: %w", command, err)
	}
	return nil
}
