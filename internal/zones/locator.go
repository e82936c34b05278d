package zones

import (
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// ErrUnknownZone is returned for names outside the registry.
var ErrUnknownZone = errors.New("unknown time zone")

// Locator loads *time.Location values for registry members and keeps them
// for the life of the process.
type Locator struct {
	registry *Registry
	cache    *cache.Cache
}

// NewLocator returns a Locator that only admits names in registry.
func NewLocator(registry *Registry) *Locator {
	return &Locator{
		registry: registry,
		cache:    cache.New(cache.NoExpiration, 0),
	}
}

// Load returns the location for name.
func (l *Locator) Load(name string) (*time.Location, error) {
	if v, ok := l.cache.Get(name); ok {
		return v.(*time.Location), nil
	}
	if !l.registry.Contains(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, name)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnknownZone, name, err)
	}
	l.cache.Set(name, loc, cache.NoExpiration)
	return loc, nil
}
