// Package refdir tracks which subsystem objects still claim media entries.
package refdir

import (
	"context"
	"errors"
)

// Directory is a claim registry consulted before unreferenced media is
// swept: subsystems (a message envelope, a session transcript, a workflow
// run) bind the media ids they still need, and the sweeper skips anything
// a live subsystem claims. It is advisory for sweeps only; an explicit
// delete always wins.
type Directory interface {
	// Bind records that subsystem still needs mediaID.
	Bind(ctx context.Context, subsystem, mediaID string) error

	// Unbind drops one claim. Unbinding a pair that was never bound is
	// not an error.
	Unbind(ctx context.Context, subsystem, mediaID string) error

	// Subsystems returns the subsystems currently claiming mediaID.
	Subsystems(ctx context.Context, mediaID string) ([]string, error)

	// MediaFor returns the media ids a subsystem claims.
	MediaFor(ctx context.Context, subsystem string) ([]string, error)

	// InUse reports whether any subsystem claims mediaID.
	InUse(ctx context.Context, mediaID string) (bool, error)

	// Release drops every claim a subsystem holds and returns the media
	// ids that are no longer claimed by anyone as a result.
	Release(ctx context.Context, subsystem string) ([]string, error)
}

// ErrInvalidKey is returned when a subsystem name or media ID is empty.
var ErrInvalidKey = errors.New("invalid directory key")
