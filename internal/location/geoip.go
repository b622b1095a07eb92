package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"travelbot/internal/chat"
)

// DefaultGeoIPURL is a free geo-IP lookup that answers with the caller's
// approximate coordinates
const DefaultGeoIPURL = "http://ip-api.com/json/"

// IPLocator estimates the position from the public IP address
type IPLocator struct {
	url        string
	httpClient *http.Client
}

// geoIPResponse is the subset of the lookup body we use
type geoIPResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

// NewIPLocator creates a geo-IP locator
func NewIPLocator(url string, timeout time.Duration) *IPLocator {
	if url == "" {
		url = DefaultGeoIPURL
	}
	return &IPLocator{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Locate performs the lookup
func (l *IPLocator) Locate(ctx context.Context) (chat.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return chat.Location{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return chat.Location{}, fmt.Errorf("geo-ip lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return chat.Location{}, fmt.Errorf("%w: geo-ip returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var body geoIPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return chat.Location{}, fmt.Errorf("failed to parse geo-ip response: %w", err)
	}

	if body.Status != "success" {
		return chat.Location{}, fmt.Errorf("%w: geo-ip status %q %s", ErrUnavailable, body.Status, body.Message)
	}
	if body.Lat == nil || body.Lon == nil {
		return chat.Location{}, fmt.Errorf("%w: geo-ip response without coordinates", ErrUnavailable)
	}

	return chat.Location{Latitude: *body.Lat, Longitude: *body.Lon}, nil
}
