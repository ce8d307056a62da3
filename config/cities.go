package config

import (
	"regexp"
	"strings"
)

// City represents a city configuration
type City struct {
	Name      string    `json:"name"`
	Center    []float64 `json:"center"`
	ZoomLevel int       `json:"zoom_level"`
}

// CityReader exposes the cities present in the listings
type CityReader interface {
	GetDistinctCities() ([]string, error)
}

// SupportedCities is a list of cities with a configured map view
var SupportedCities = []City{
	{
		Name:      "Kampala",
		Center:    []float64{0.3476, 32.5825},
		ZoomLevel: 12,
	},
	{
		Name:      "Entebbe",
		Center:    []float64{0.0512, 32.4637},
		ZoomLevel: 13,
	},
	{
		Name:      "Mukono",
		Center:    []float64{0.3533, 32.7553},
		ZoomLevel: 13,
	},
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// GetCityNames returns the configured cities followed by any other city found in the listings
func GetCityNames(reader CityReader) ([]string, error) {
	seen := make(map[string]struct{})
	names := make([]string, 0, len(SupportedCities))

	add := func(name string) {
		key := NormalizeCity(name)
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}

	for _, city := range SupportedCities {
		add(city.Name)
	}

	cities, err := reader.GetDistinctCities()
	if err != nil {
		return nil, err
	}
	for _, city := range cities {
		add(strings.TrimSpace(city))
	}

	return names, nil
}

// GetCityConfig returns the map configuration of a city, falling back to the Kampala view
func GetCityConfig(name string) *City {
	if city := GetCityByName(name); city != nil {
		return city
	}
	fallback := SupportedCities[0]
	return &City{
		Name:      name,
		Center:    fallback.Center,
		ZoomLevel: fallback.ZoomLevel,
	}
}

// GetCityByName returns a city configuration by name, ignoring case and spacing
func GetCityByName(name string) *City {
	key := NormalizeCity(name)
	for _, city := range SupportedCities {
		if NormalizeCity(city.Name) == key {
			c := city
			return &c
		}
	}
	return nil
}

// NormalizeCity turns a display name into a lowercase dash-separated key.
// It is also used to build slugs for projects and blog posts.
func NormalizeCity(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "'", "")
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
