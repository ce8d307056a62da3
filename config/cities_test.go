package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockCityReader is a mock implementation of the CityReader interface
type MockCityReader struct {
	mock.Mock
}

func (m *MockCityReader) GetDistinctCities() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}

func TestGetCityNames(t *testing.T) {
	tests := []struct {
		name           string
		dbCities       []string
		dbErr          error
		expectedCities []string
		expectError    bool
	}{
		{
			name:           "Only configured cities",
			dbCities:       []string{},
			expectedCities: []string{"Kampala", "Entebbe", "Mukono"},
		},
		{
			name:           "Listing cities are appended",
			dbCities:       []string{"Jinja", "Wakiso"},
			expectedCities: []string{"Kampala", "Entebbe", "Mukono", "Jinja", "Wakiso"},
		},
		{
			name:           "Duplicates ignore case and spacing",
			dbCities:       []string{"kampala", " Entebbe ", "Jinja", "JINJA"},
			expectedCities: []string{"Kampala", "Entebbe", "Mukono", "Jinja"},
		},
		{
			name:           "Empty names are skipped",
			dbCities:       []string{"", "   "},
			expectedCities: []string{"Kampala", "Entebbe", "Mukono"},
		},
		{
			name:        "Reader error",
			dbCities:    []string{},
			dbErr:       errors.New("db down"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &MockCityReader{}
			reader.On("GetDistinctCities").Return(tt.dbCities, tt.dbErr)

			cities, err := GetCityNames(reader)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedCities, cities)
			}

			reader.AssertExpectations(t)
		})
	}
}

func TestGetCityConfig(t *testing.T) {
	tests := []struct {
		name           string
		cityName       string
		expectedConfig City
	}{
		{
			name:     "Configured city",
			cityName: "Entebbe",
			expectedConfig: City{
				Name:      "Entebbe",
				Center:    []float64{0.0512, 32.4637},
				ZoomLevel: 13,
			},
		},
		{
			name:     "Configured city in lowercase",
			cityName: "mukono",
			expectedConfig: City{
				Name:      "Mukono",
				Center:    []float64{0.3533, 32.7553},
				ZoomLevel: 13,
			},
		},
		{
			name:     "Unknown city uses Kampala view",
			cityName: "Gulu",
			expectedConfig: City{
				Name:      "Gulu",
				Center:    []float64{0.3476, 32.5825},
				ZoomLevel: 12,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetCityConfig(tt.cityName)

			assert.Equal(t, tt.expectedConfig.Name, cfg.Name)
			assert.Equal(t, tt.expectedConfig.ZoomLevel, cfg.ZoomLevel)
			assert.InDelta(t, tt.expectedConfig.Center[0], cfg.Center[0], 0.0001)
			assert.InDelta(t, tt.expectedConfig.Center[1], cfg.Center[1], 0.0001)
		})
	}
}

func TestNormalizeCity(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple city name",
			input:    "Kampala",
			expected: "kampala",
		},
		{
			name:     "Name with spaces",
			input:    "Kololo Hill",
			expected: "kololo-hill",
		},
		{
			name:     "Name with apostrophe",
			input:    "Buyer's Guide",
			expected: "buyers-guide",
		},
		{
			name:     "Punctuation collapses",
			input:    "VR Tours: A 2024 Review!",
			expected: "vr-tours-a-2024-review",
		},
		{
			name:     "Already normalized",
			input:    "entebbe",
			expected: "entebbe",
		},
		{
			name:     "Multiple spaces",
			input:    "Muyenga  Tank  Hill",
			expected: "muyenga-tank-hill",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeCity(tt.input)
			assert.Equal(t, tt.expected, result,
				"NormalizeCity(%q) = %q, want %q", tt.input, result, tt.expected)
		})
	}
}
