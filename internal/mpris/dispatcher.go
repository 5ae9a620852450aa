package mpris

import (
	"context"
	"fmt"
	"time"

	"github.com/Sonath21/spotify-controls/internal/domain"
	"go.uber.org/zap"
)

const commandTimeout = 5 * time.Second

// CommandDispatcher sends transport commands to the player.
type CommandDispatcher struct {
	logger  *zap.Logger
	conn    BusClient
	busName string
}

// NewCommandDispatcher creates a dispatcher for the given player bus name.
func NewCommandDispatcher(logger *zap.Logger, conn BusClient, busName string) *CommandDispatcher {
	return &CommandDispatcher{
		logger:  logger,
		conn:    conn,
		busName: busName,
	}
}

// Invoke sends cmd and waits for the player's reply.
func (d *CommandDispatcher) Invoke(ctx context.Context, cmd domain.Command) error {
	method, err := methodFor(cmd)
	if err != nil {
		return err
	}
	if err := d.conn.Call(ctx, d.busName, ObjectPath, method); err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	return nil
}

// Send is fire-and-forget: the call completes in the background and a
// failure is logged, never surfaced. Commands are not retried; Next and
// PlayPause are not idempotent, so a blind resend could double-apply.
func (d *CommandDispatcher) Send(cmd domain.Command) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		if err := d.Invoke(ctx, cmd); err != nil {
			d.logger.Warn("Transport command failed",
				zap.String("command", string(cmd)),
				zap.Error(err))
			return
		}
		d.logger.Debug("Transport command delivered", zap.String("command", string(cmd)))
	}()
}

func methodFor(cmd domain.Command) (string, error) {
	switch cmd {
	case domain.CommandPrevious:
		return methodPrevious, nil
	case domain.CommandPlayPause:
		return methodPlayPause, nil
	case domain.CommandNext:
		return methodNext, nil
	default:
		return "", fmt.Errorf("unknown transport command %q", cmd)
	}
}
