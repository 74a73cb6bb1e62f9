package role

import (
	"context"
	"errors"
	"log/slog"
)

// ErrRoleNotFound indicates the configured role does not exist on the chat
// platform. This is an operator misconfiguration, not a user error.
var ErrRoleNotFound = errors.New("role not found")

// Granter attaches a platform role to an identity. The chat platform
// integration supplies the real implementation.
type Granter interface {
	Grant(ctx context.Context, identity, roleName string) error
}

// LoggerGranter is a stub implementation that records grants in the logger.
type LoggerGranter struct {
	logger *slog.Logger
}

// NewLoggerGranter constructs a logging granter stub.
func NewLoggerGranter(logger *slog.Logger) *LoggerGranter {
	return &LoggerGranter{logger: logger}
}

// Grant writes the grant to the structured logger.
func (g *LoggerGranter) Grant(_ context.Context, identity, roleName string) error {
	if g == nil || g.logger == nil {
		return nil
	}
	g.logger.Info("role granted", slog.String("identity", identity), slog.String("role", roleName))
	return nil
}
