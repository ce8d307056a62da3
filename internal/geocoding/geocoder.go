package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultEndpoint = "https://nominatim.openstreetmap.org/search"
	cacheFileName   = "geocode_cache.json"
	userAgent       = "EstateHub Listings/1.0"
)

type Options struct {
	// Country is appended to every query
	Country string
	// CountryCodes restricts results, comma separated ISO codes
	CountryCodes string
	CacheDir     string
	Endpoint     string
	// Interval between outbound requests; Nominatim allows one per second
	Interval time.Duration
}

type Geocoder struct {
	logger    *logrus.Logger
	opts      Options
	cache     map[string][]float64
	cacheLock sync.RWMutex
	client    *http.Client
	limiter   *rate.Limiter
}

func NewGeocoder(logger *logrus.Logger, opts Options) *Geocoder {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}

	g := &Geocoder{
		logger:  logger,
		opts:    opts,
		cache:   make(map[string][]float64),
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(opts.Interval), 1),
	}

	if opts.CacheDir != "" {
		if err := os.MkdirAll(opts.CacheDir, 0755); err != nil {
			logger.WithError(err).Warn("Could not create geocode cache directory")
		}
		g.loadCache()
	}

	return g
}

func (g *Geocoder) cacheFile() string {
	return filepath.Join(g.opts.CacheDir, cacheFileName)
}

func (g *Geocoder) loadCache() {
	data, err := os.ReadFile(g.cacheFile())
	if err != nil {
		g.logger.Warnf("Could not load geocode cache: %v", err)
		return
	}

	if err := json.Unmarshal(data, &g.cache); err != nil {
		g.logger.Errorf("Failed to parse geocode cache: %v", err)
		return
	}

	g.logger.Infof("Loaded %d cached locations", len(g.cache))
}

func (g *Geocoder) saveCache() {
	if g.opts.CacheDir == "" {
		return
	}

	g.cacheLock.RLock()
	data, err := json.Marshal(g.cache)
	g.cacheLock.RUnlock()
	if err != nil {
		g.logger.Errorf("Failed to marshal geocode cache: %v", err)
		return
	}

	if err := os.WriteFile(g.cacheFile(), data, 0644); err != nil {
		g.logger.Errorf("Failed to save geocode cache: %v", err)
		return
	}

	g.logger.Debug("Saved geocode cache to disk")
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Query builds the free-form search text for an area
func (g *Geocoder) Query(location, city string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{location, city, g.opts.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// GeocodeLocation resolves a neighbourhood and city to coordinates
func (g *Geocoder) GeocodeLocation(location, city string) (float64, float64, error) {
	return g.GeocodeLocationContext(context.Background(), location, city)
}

func (g *Geocoder) GeocodeLocationContext(ctx context.Context, location, city string) (float64, float64, error) {
	cacheKey := strings.ToLower(fmt.Sprintf("%s|%s", strings.TrimSpace(location), strings.TrimSpace(city)))
	query := g.Query(location, city)

	// Check cache first
	g.cacheLock.RLock()
	if coords, ok := g.cache[cacheKey]; ok {
		g.cacheLock.RUnlock()
		if len(coords) == 2 {
			g.logger.WithFields(logrus.Fields{
				"query":     query,
				"latitude":  coords[0],
				"longitude": coords[1],
				"source":    "cache",
			}).Debug("Found coordinates in cache")
			return coords[0], coords[1], nil
		}
		return 0, 0, fmt.Errorf("invalid cached coordinates")
	}
	g.cacheLock.RUnlock()

	if strings.TrimSpace(location) == "" && strings.TrimSpace(city) == "" {
		return 0, 0, fmt.Errorf("nothing to geocode")
	}

	// Respect Nominatim's usage policy
	if err := g.limiter.Wait(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	params := url.Values{
		"q":      []string{query},
		"format": []string{"json"},
		"limit":  []string{"1"},
	}
	if g.opts.CountryCodes != "" {
		params.Set("countrycodes", g.opts.CountryCodes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.opts.Endpoint, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-UG,en;q=0.9")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).WithField("query", query).Error("Geocoding request failed")
		return 0, 0, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocoding request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read response: %w", err)
	}

	var result nominatimResponse
	if err := json.Unmarshal(body, &result); err != nil {
		g.logger.WithError(err).WithField("query", query).Error("Failed to parse response")
		return 0, 0, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result) == 0 {
		g.logger.WithField("query", query).Warn("No results found")
		return 0, 0, fmt.Errorf("no results found for: %s", query)
	}

	lat, err := strconv.ParseFloat(result[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q: %w", result[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(result[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q: %w", result[0].Lon, err)
	}

	g.logger.WithFields(logrus.Fields{
		"query":     query,
		"latitude":  lat,
		"longitude": lon,
		"source":    "nominatim",
	}).Info("Successfully geocoded location")

	g.cacheLock.Lock()
	g.cache[cacheKey] = []float64{lat, lon}
	g.cacheLock.Unlock()

	g.saveCache()

	return lat, lon, nil
}
