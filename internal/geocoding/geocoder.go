package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"househunt/internal/metrics"
)

// ErrNoResults is returned when Nominatim knows no match for an address
var ErrNoResults = errors.New("no geocoding results")

type Options struct {
	BaseURL      string
	Country      string
	UserAgent    string
	CacheFile    string
	RequestDelay time.Duration
}

type Geocoder struct {
	logger  *logrus.Logger
	opts    Options
	cache   *cache.Cache
	client  *http.Client
	metrics *metrics.Metrics

	// serializes live requests so the delay between them holds
	requestLock sync.Mutex
	lastRequest time.Time
	saveLock    sync.Mutex
}

func NewGeocoder(logger *logrus.Logger, opts Options, m *metrics.Metrics) *Geocoder {
	g := &Geocoder{
		logger:  logger,
		opts:    opts,
		cache:   cache.New(cache.NoExpiration, 0),
		client:  &http.Client{Timeout: 10 * time.Second},
		metrics: m,
	}
	g.loadCache()
	return g
}

type coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (g *Geocoder) loadCache() {
	if g.opts.CacheFile == "" {
		return
	}

	data, err := os.ReadFile(g.opts.CacheFile)
	if err != nil {
		if !os.IsNotExist(err) {
			g.logger.WithError(err).Warn("Could not load geocode cache")
		}
		return
	}

	var stored map[string]coordinates
	if err := json.Unmarshal(data, &stored); err != nil {
		g.logger.WithError(err).Error("Failed to parse geocode cache")
		return
	}

	for key, c := range stored {
		g.cache.Set(key, c, cache.NoExpiration)
	}
	g.logger.Infof("Loaded %d cached addresses", len(stored))
}

// SaveCache writes the in-memory cache to the cache file
func (g *Geocoder) SaveCache() error {
	if g.opts.CacheFile == "" {
		return nil
	}
	g.saveLock.Lock()
	defer g.saveLock.Unlock()

	stored := make(map[string]coordinates, g.cache.ItemCount())
	for key, item := range g.cache.Items() {
		if c, ok := item.Object.(coordinates); ok {
			stored[key] = c
		}
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal geocode cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(g.opts.CacheFile), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(g.opts.CacheFile, data, 0644); err != nil {
		return fmt.Errorf("failed to save geocode cache: %w", err)
	}
	return nil
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func cacheKey(street, postalCode, city string) string {
	return strings.ToLower(fmt.Sprintf("%s|%s|%s", strings.TrimSpace(street), strings.ReplaceAll(postalCode, " ", ""), strings.TrimSpace(city)))
}

// GeocodeAddress resolves an address to latitude and longitude, answering
// from the cache when possible.
func (g *Geocoder) GeocodeAddress(ctx context.Context, street, postalCode, city string) (float64, float64, error) {
	key := cacheKey(street, postalCode, city)
	parts := []string{street}
	if postalCode != "" {
		parts = append(parts, postalCode)
	}
	parts = append(parts, city)
	fullAddress := strings.Join(parts, ", ")

	if cached, ok := g.cache.Get(key); ok {
		c := cached.(coordinates)
		g.logger.WithFields(logrus.Fields{
			"address":   fullAddress,
			"latitude":  c.Lat,
			"longitude": c.Lon,
			"source":    "cache",
		}).Debug("Found coordinates in cache")
		g.record("cache")
		return c.Lat, c.Lon, nil
	}

	c, err := g.lookup(ctx, fullAddress)
	if err != nil {
		if errors.Is(err, ErrNoResults) {
			g.record("not_found")
		} else {
			g.record("error")
		}
		return 0, 0, err
	}

	g.logger.WithFields(logrus.Fields{
		"address":   fullAddress,
		"latitude":  c.Lat,
		"longitude": c.Lon,
		"source":    "nominatim",
	}).Info("Successfully geocoded address")
	g.record("nominatim")

	g.cache.Set(key, c, cache.NoExpiration)
	if err := g.SaveCache(); err != nil {
		g.logger.WithError(err).Error("Failed to persist geocode cache")
	}
	return c.Lat, c.Lon, nil
}

func (g *Geocoder) lookup(ctx context.Context, fullAddress string) (coordinates, error) {
	g.requestLock.Lock()
	defer g.requestLock.Unlock()

	// Respect Nominatim's usage policy
	if wait := g.opts.RequestDelay - time.Since(g.lastRequest); wait > 0 {
		select {
		case <-ctx.Done():
			return coordinates{}, ctx.Err()
		case <-time.After(wait):
		}
	}
	defer func() { g.lastRequest = time.Now() }()

	params := url.Values{
		"q":      []string{fullAddress},
		"format": []string{"json"},
		"limit":  []string{"1"},
	}
	if g.opts.Country != "" {
		params.Set("countrycodes", g.opts.Country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(g.opts.BaseURL, "/")+"/search", nil)
	if err != nil {
		return coordinates{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", g.opts.UserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).WithField("address", fullAddress).Error("Geocoding request failed")
		return coordinates{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return coordinates{}, fmt.Errorf("geocoding request failed with status %d", resp.StatusCode)
	}

	var result nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return coordinates{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result) == 0 {
		g.logger.WithField("address", fullAddress).Warn("No results found")
		return coordinates{}, fmt.Errorf("%w for address: %s", ErrNoResults, fullAddress)
	}

	lat, err := strconv.ParseFloat(result[0].Lat, 64)
	if err != nil {
		return coordinates{}, fmt.Errorf("invalid latitude %q: %w", result[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(result[0].Lon, 64)
	if err != nil {
		return coordinates{}, fmt.Errorf("invalid longitude %q: %w", result[0].Lon, err)
	}
	return coordinates{Lat: lat, Lon: lon}, nil
}

func (g *Geocoder) record(result string) {
	if g.metrics != nil {
		g.metrics.GeocodeResult(result)
	}
}
