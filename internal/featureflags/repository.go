package featureflags

import (
	"context"
	"errors"
)

// ErrFlagNotFound is returned when no override is stored for a flag.
var ErrFlagNotFound = errors.New("feature flag not found")

// Repository stores operator overrides. Flags without an override fall
// back to DefaultFlags in the Service.
type Repository interface {
	GetFlag(ctx context.Context, key string) (*Flag, error)
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)
	SetFlag(ctx context.Context, flag *Flag) error

	// SetFlags applies every override or none of them.
	SetFlags(ctx context.Context, flags []*Flag) error

	// DeleteFlag removes an override. It returns ErrFlagNotFound if none
	// was stored.
	DeleteFlag(ctx context.Context, key string) error
}
