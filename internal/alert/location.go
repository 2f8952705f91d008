package alert

import (
	"context"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
)

// LocationProvider reports the device position. A nil position with a nil
// error means the position is unavailable.
type LocationProvider interface {
	CurrentPosition(ctx context.Context) (*domain.Position, error)
}

// StaticLocation always reports the same position.
type StaticLocation domain.Position

// CurrentPosition implements LocationProvider.
func (s StaticLocation) CurrentPosition(context.Context) (*domain.Position, error) {
	p := domain.Position(s)
	return &p, nil
}

// NoLocation never has a position.
type NoLocation struct{}

// CurrentPosition implements LocationProvider.
func (NoLocation) CurrentPosition(context.Context) (*domain.Position, error) {
	return nil, nil
}
