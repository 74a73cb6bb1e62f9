package member

import (
	"context"
	"errors"
)

// ErrEmailTaken occurs when an append would bind an email hash that a
// confirmed record already holds. The check that raises it runs under the
// store's own lock, so it holds even when two requests race past the
// advisory pre-check in the verification protocol.
var ErrEmailTaken = errors.New("email already registered to a member")

// Store persists confirmed members. Implementations serialize all reads and
// writes internally and must not expose a record until it is durable: a
// mutation either completes fully or is not observable at all.
type Store interface {
	Exists(ctx context.Context, emailHash string) (bool, error)
	Append(ctx context.Context, rec Record) error
	Remove(ctx context.Context, name string) (bool, error)
	All(ctx context.Context) ([]Record, error)
}
