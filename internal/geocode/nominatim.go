// Package geocode resolves free-text locations to coordinates and back through a
// Nominatim-compatible provider.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"greendrake/estates/internal/config"
)

const maxResults = 10

var (
	// ErrUnavailable wraps every provider failure: transport errors, non-200 answers and bodies that do not parse.
	ErrUnavailable = errors.New("Geocoding provider unavailable")
	ErrNoResult    = errors.New("No matching location")
)

// Place is one geocoding answer.
type Place struct {
	DisplayName string  `json:"displayName"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

type IGeocoder interface {
	Search(ctx context.Context, query string) ([]Place, error)
	Reverse(ctx context.Context, lat, lng float64) (*Place, error)
}

// nominatimPlace is the provider's shape; coordinates arrive as strings.
type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Error       string `json:"error"`
}

func (p nominatimPlace) place() (Place, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("bad lat %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("bad lon %q: %w", p.Lon, err)
	}
	return Place{DisplayName: p.DisplayName, Lat: lat, Lng: lng}, nil
}

type nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewNominatim creates a geocoder against cfg.GeocoderURL. Failures are reported immediately; nothing is retried.
func NewNominatim(cfg *config.Config, logger *zap.Logger) IGeocoder {
	timeout := cfg.GeocoderTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &nominatim{
		baseURL:    cfg.GeocoderURL,
		userAgent:  cfg.AppName,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (g *nominatim) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("format", "jsonv2")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Warn("geocoder request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("geocoder returned non-OK status", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (g *nominatim) Search(ctx context.Context, query string) ([]Place, error) {
	var raw []nominatimPlace
	params := url.Values{"q": {query}, "limit": {strconv.Itoa(maxResults)}}
	if err := g.get(ctx, "/search", params, &raw); err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		p, err := r.place()
		if err != nil {
			g.logger.Debug("skipping unparsable geocoder result", zap.Error(err))
			continue
		}
		places = append(places, p)
	}
	return places, nil
}

func (g *nominatim) Reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	var raw nominatimPlace
	params := url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(lng, 'f', -1, 64)},
	}
	if err := g.get(ctx, "/reverse", params, &raw); err != nil {
		return nil, err
	}
	if raw.Error != "" {
		return nil, ErrNoResult
	}

	p, err := raw.place()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &p, nil
}
