// Package confidential is the boundary to the confidential-computation layer. The settlement core
// only ever holds opaque handles; plaintext lives behind a Boundary implementation.
package confidential

import (
	"context"
	"errors"
)

// Handle is an opaque reference to a confidential value.
type Handle string

func (h Handle) String() string { return string(h) }

var (
	ErrUnknownHandle = errors.New("confidential: unknown handle")
	ErrNotAuthorized = errors.New("confidential: identity not authorized for handle")
)

// Boundary wraps plaintext into handles and combines them without revealing values.
type Boundary interface {
	Wrap(ctx context.Context, value int64) (Handle, error)
	// Combine returns a new handle for a+b.
	Combine(ctx context.Context, a, b Handle) (Handle, error)
	// Authorize grants identity the right to have h disclosed to it.
	Authorize(ctx context.Context, h Handle, identity string) error
}

// Revealer is implemented by the oracle side only.
type Revealer interface {
	Reveal(ctx context.Context, h Handle) (int64, error)
}
