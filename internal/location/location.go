// Package location resolves the user's coordinates once at startup.
//
// Acquisition never blocks chatting: it runs on its own goroutine and the
// session carries a nil location until (and unless) it succeeds.
package location

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"travelbot/internal/chat"
)

// ErrUnavailable is returned by locators that cannot produce coordinates
var ErrUnavailable = errors.New("location unavailable")

// Locator is the platform capability that yields the current position
type Locator interface {
	Locate(ctx context.Context) (chat.Location, error)
}

// Acquirer asks its Locator exactly once and records the result in the
// session
type Acquirer struct {
	locator Locator
	session *chat.Session
	logger  *zap.Logger
	once    sync.Once
}

// NewAcquirer creates an acquirer for session
func NewAcquirer(locator Locator, session *chat.Session, logger *zap.Logger) *Acquirer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Acquirer{
		locator: locator,
		session: session,
		logger:  logger,
	}
}

// Acquire resolves the location. Later calls are no-ops; failures store
// nil and are never retried.
func (a *Acquirer) Acquire(ctx context.Context) {
	a.once.Do(func() {
		loc, err := a.locator.Locate(ctx)
		if err != nil {
			a.logger.Warn("geolocation failed", zap.Error(err))
			a.session.ResolveLocation(nil)
			return
		}

		a.logger.Debug("geolocation resolved",
			zap.Float64("latitude", loc.Latitude),
			zap.Float64("longitude", loc.Longitude))
		a.session.ResolveLocation(&loc)
	})
}

// Static always reports the same coordinates
type Static chat.Location

// Locate returns the fixed coordinates
func (s Static) Locate(context.Context) (chat.Location, error) {
	return chat.Location(s), nil
}

// Disabled never yields a location
type Disabled struct{}

// Locate always fails
func (Disabled) Locate(context.Context) (chat.Location, error) {
	return chat.Location{}, ErrUnavailable
}
