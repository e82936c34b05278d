package geoloc

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DefaultIPAPIURL is the ipapi.co endpoint that answers with the bare zone
// name. It is rate limited more strictly than GeoJS.
const DefaultIPAPIURL = "https://ipapi.co/timezone"

// IPAPIService reads the zone name from the ipapi.co timezone endpoint.
type IPAPIService struct {
	url    string
	client *http.Client
}

// NewIPAPIService creates an ipapi.co provider. An empty url uses
// DefaultIPAPIURL; a nil client gets a 5s timeout.
func NewIPAPIService(url string, client *http.Client) *IPAPIService {
	if url == "" {
		url = DefaultIPAPIURL
	}
	if client == nil {
		client = NewHTTPClient(5 * time.Second)
	}
	return &IPAPIService{url: url, client: client}
}

func (s *IPAPIService) Name() string {
	return "ipapi"
}

func (s *IPAPIService) Endpoint() string {
	return s.url
}

func (s *IPAPIService) Lookup(ctx context.Context) (*Lookup, error) {
	return lookup(ctx, s.client, s.Name(), s.url, func(body []byte) string {
		return strings.TrimSpace(string(body))
	})
}
