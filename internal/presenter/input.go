package presenter

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/Sonath21/spotify-controls/internal/domain"
	"go.uber.org/zap"
)

// CommandReader maps lines typed on the daemon's input to transport
// commands. Commands are dispatched fire-and-forget: a failed send is
// logged by the dispatcher and the user simply types again.
type CommandReader struct {
	logger     *zap.Logger
	in         io.Reader
	dispatcher domain.Dispatcher
}

// NewCommandReader creates a reader consuming lines from in.
func NewCommandReader(logger *zap.Logger, in io.Reader, dispatcher domain.Dispatcher) *CommandReader {
	return &CommandReader{
		logger:     logger,
		in:         in,
		dispatcher: dispatcher,
	}
}

// Run reads until ctx is done or the input closes.
func (r *CommandReader) Run(ctx context.Context) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				r.logger.Debug("Command input closed")
				return
			}
			r.handle(strings.TrimSpace(line))
		}
	}
}

func (r *CommandReader) handle(line string) {
	if line == "" {
		return
	}
	cmd, ok := commandFor(line)
	if !ok {
		r.logger.Info("Unknown command (use next, prev or toggle)",
			zap.String("input", line))
		return
	}
	r.dispatcher.Send(cmd)
}

func commandFor(line string) (domain.Command, bool) {
	switch strings.ToLower(line) {
	case "next", "n":
		return domain.CommandNext, true
	case "previous", "prev", "p":
		return domain.CommandPrevious, true
	case "toggle", "playpause", "t":
		return domain.CommandPlayPause, true
	default:
		return "", false
	}
}
