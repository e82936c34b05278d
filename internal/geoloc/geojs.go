package geoloc

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DefaultGeoJSURL is the GeoJS plain-text endpoint.
const DefaultGeoJSURL = "https://get.geojs.io"

// GeoJSService reads the "Timezone: " line of the GeoJS text page.
type GeoJSService struct {
	url    string
	client *http.Client
}

// NewGeoJSService creates a GeoJS provider. An empty url uses
// DefaultGeoJSURL; a nil client gets a 5s timeout.
func NewGeoJSService(url string, client *http.Client) *GeoJSService {
	if url == "" {
		url = DefaultGeoJSURL
	}
	if client == nil {
		client = NewHTTPClient(5 * time.Second)
	}
	return &GeoJSService{url: url, client: client}
}

func (s *GeoJSService) Name() string {
	return "geojs"
}

func (s *GeoJSService) Endpoint() string {
	return s.url
}

func (s *GeoJSService) Lookup(ctx context.Context) (*Lookup, error) {
	return lookup(ctx, s.client, s.Name(), s.url, parseGeoJS)
}

// parseGeoJS takes the text after the last "Timezone: " marker up to the end
// of that line. Without a marker the first line of the body is used.
func parseGeoJS(body []byte) string {
	text := string(body)
	const marker = "Timezone: "
	if i := strings.LastIndex(text, marker); i >= 0 {
		text = text[i+len(marker):]
	}
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(line)
}
