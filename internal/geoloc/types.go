// Package geoloc queries public IP geolocation services for the caller's
// timezone.
package geoloc

import (
	"context"
	"time"
)

// Lookup is the outcome of one request to a provider. A non-200 status or
// an empty Timezone is still a Lookup; only transport failures are errors.
type Lookup struct {
	ProviderName string        `json:"provider_name"`
	StatusCode   int           `json:"status_code"`
	Timezone     string        `json:"timezone"`
	Latency      time.Duration `json:"latency"`
	Error        string        `json:"error,omitempty"`
}

// Provider is one geolocation service.
type Provider interface {
	Name() string
	Endpoint() string
	Lookup(ctx context.Context) (*Lookup, error)
}
