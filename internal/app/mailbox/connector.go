package mailbox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avirtanen/trainmail/internal/app/config"
)

// Connector owns the lifecycle of mailbox sessions: one session is
// opened per call, handed to the operation, and torn down on every
// exit path. Sessions are never shared or reused across calls.
type Connector struct {
	cfg    config.Mailbox
	dialer Dialer
	logger *slog.Logger
}

func NewConnector(cfg config.Mailbox, dialer Dialer, logger *slog.Logger) *Connector {
	return &Connector{
		cfg:    cfg,
		dialer: dialer,
		logger: logger,
	}
}

// WithSession connects and authenticates to the configured IMAP
// server, invokes op with the authenticated session, and logs out
// regardless of op's outcome. A logout failure is logged and never
// replaces op's result. Dial and authentication failures are returned
// as *ConnectionError.
func (c *Connector) WithSession(ctx context.Context, op func(Session) error) error {
	client, err := c.dialer.Dial(c.cfg.Address())
	if err != nil {
		return &ConnectionError{Err: fmt.Errorf("dial TLS: %w", err)}
	}
	defer func() {
		if logoutErr := client.Logout(); logoutErr != nil {
			c.logger.WarnContext(ctx, "mailbox logout failed", slog.Any("error", logoutErr))
		}
	}()

	if err = client.Login(c.cfg.Login, c.cfg.Password); err != nil {
		return &ConnectionError{Err: fmt.Errorf("login: %w", err)}
	}

	c.logger.DebugContext(ctx, "mailbox session opened", slog.String("host", c.cfg.Host))

	return op(client)
}
