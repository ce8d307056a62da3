package recommend

import (
	"testing"
	"time"

	"estatehub/server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func intPtr(v int) *int { return &v }

func ids(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Property.ID
	}
	return out
}

func TestScore_SimilarListingRanksFirst(t *testing.T) {
	current := models.Property{
		ID:           "current",
		Location:     "Nakasero",
		City:         "Kampala",
		PropertyType: "Villa",
		Bedrooms:     intPtr(3),
		Price:        "$200,000",
		Featured:     true,
	}
	a := models.Property{
		ID:           "a",
		Location:     "Nakasero",
		PropertyType: "Villa",
		Bedrooms:     intPtr(3),
		Price:        "$210,000",
	}
	b := models.Property{
		ID:           "b",
		City:         "Kampala",
		PropertyType: "Apartment",
		Price:        "$50,000",
	}

	scorer := NewScorer(0, clock)
	recs := scorer.Score(current, []models.Property{b, current, a}, Preferences{}, nil)

	require.Len(t, recs, 2)
	assert.Equal(t, []string{"a", "b"}, ids(recs))

	assert.GreaterOrEqual(t, recs[0].Score, 90)
	assert.Equal(t, 90, recs[0].MatchPercentage)
	assert.Equal(t, []string{
		"Same area: Nakasero",
		"Similar price range",
		"Same property type: Villa",
	}, recs[0].Reasons)

	assert.Equal(t, 20, recs[1].Score)
	assert.Equal(t, []string{"Same city: Kampala"}, recs[1].Reasons)
}

func TestScore_ExcludesCurrent(t *testing.T) {
	current := models.Property{ID: "p1", Location: "Kololo"}
	catalog := []models.Property{
		current,
		{ID: "p2", Location: "Kololo"},
		{ID: "p3", Location: "Ntinda"},
	}

	recs := NewScorer(10, clock).Score(current, catalog, Preferences{}, nil)
	for _, r := range recs {
		assert.NotEqual(t, "p1", r.Property.ID)
	}
	assert.Len(t, recs, 2)
}

func TestScore_EmptyCatalog(t *testing.T) {
	recs := NewScorer(0, clock).Score(models.Property{ID: "x"}, nil, Preferences{}, nil)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestScore_MatchPercentageCapped(t *testing.T) {
	current := models.Property{
		ID: "c", Location: "Kololo", City: "Kampala", PropertyType: "Villa",
		Bedrooms: intPtr(4), Bathrooms: intPtr(3), Price: "UGX 1,000,000",
	}
	candidate := models.Property{
		ID: "max", Location: "Kololo", City: "Kampala", PropertyType: "Villa",
		Bedrooms: intPtr(4), Bathrooms: intPtr(3), Price: "UGX 1,050,000",
		Featured:  true,
		Images:    datatypes.JSONSlice[string]{"1", "2", "3", "4", "5"},
		UpdatedAt: fixedNow.Add(-24 * time.Hour),
	}
	prefs := Preferences{Location: "kololo", PropertyType: "VILLA"}

	recs := NewScorer(0, clock).Score(current, []models.Property{candidate}, prefs, NewLikedSet("max"))
	require.Len(t, recs, 1)

	// 30+25+20+15+10+20+15+25+10+8+5
	assert.Equal(t, 183, recs[0].Score)
	assert.Equal(t, 100, recs[0].MatchPercentage)
	assert.Len(t, recs[0].Reasons, 3)
}

func TestScore_PriceBands(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		price    string
		expected int
	}{
		{"Within 20 percent", "$100,000", "$119,000", weightSimilarPrice},
		{"Exactly 20 percent is comparable", "$100,000", "$120,000", weightComparablePrice},
		{"Within 50 percent", "$100,000", "$60,000", weightComparablePrice},
		{"Exactly 50 percent scores nothing", "$100,000", "$150,000", 0},
		{"Far apart", "$100,000", "$400,000", 0},
		{"Candidate without digits", "$100,000", "Price on request", 0},
		{"Current without digits", "Contact us", "$100,000", 0},
		{"Current price zero", "$0", "$0", 0},
		{"Digits with suffix", "150,000 USD/month", "$160,000", weightSimilarPrice},
	}

	scorer := NewScorer(0, clock)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := models.Property{ID: "c", Price: tt.current}
			candidate := models.Property{ID: "x", Price: tt.price}
			recs := scorer.Score(current, []models.Property{candidate}, Preferences{}, nil)
			require.Len(t, recs, 1)
			assert.Equal(t, tt.expected, recs[0].Score)
		})
	}
}

func TestScore_EmptyFieldsNeverMatch(t *testing.T) {
	current := models.Property{ID: "c"}
	candidate := models.Property{ID: "x"}

	recs := NewScorer(0, clock).Score(current, []models.Property{candidate}, Preferences{}, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, 0, recs[0].Score)
	assert.Equal(t, []string{}, recs[0].Reasons)
}

func TestScore_PreferencesOnly(t *testing.T) {
	catalog := []models.Property{
		{ID: "1", Location: "Muyenga Hill", PropertyType: "Apartment"},
		{ID: "2", Location: "Bukoto", PropertyType: "Townhouse"},
		{ID: "3", Location: "muyenga", PropertyType: "Villa"},
	}
	prefs := Preferences{Location: "Muyenga", PropertyType: "apartment"}

	recs := NewScorer(0, clock).Score(models.Property{}, catalog, prefs, nil)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"1", "3", "2"}, ids(recs))
	assert.Equal(t, 35, recs[0].Score)
	assert.Equal(t, []string{"In your preferred location", "Matches your preferred property type"}, recs[0].Reasons)
	assert.Equal(t, 20, recs[1].Score)
	assert.Equal(t, 0, recs[2].Score)
}

func TestScore_RecentlyUpdatedUsesClock(t *testing.T) {
	catalog := []models.Property{
		{ID: "old", UpdatedAt: fixedNow.Add(-31 * 24 * time.Hour)},
		{ID: "fresh", UpdatedAt: fixedNow.Add(-10 * 24 * time.Hour)},
		{ID: "unset"},
	}

	recs := NewScorer(0, clock).Score(models.Property{ID: "c"}, catalog, Preferences{}, nil)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"fresh", "old", "unset"}, ids(recs))
	assert.Equal(t, []string{"Recently updated"}, recs[0].Reasons)

	// a month later the same listing is no longer fresh
	later := NewScorer(0, func() time.Time { return fixedNow.Add(30 * 24 * time.Hour) })
	recs = later.Score(models.Property{ID: "c"}, catalog, Preferences{}, nil)
	for _, r := range recs {
		assert.Equal(t, 0, r.Score)
	}
}

func TestScore_StableTies(t *testing.T) {
	catalog := []models.Property{
		{ID: "d"}, {ID: "b", Featured: true}, {ID: "a"}, {ID: "c", Featured: true}, {ID: "e"},
	}

	recs := NewScorer(10, clock).Score(models.Property{ID: "x"}, catalog, Preferences{}, nil)
	assert.Equal(t, []string{"b", "c", "d", "a", "e"}, ids(recs))
}

func TestScore_Limit(t *testing.T) {
	catalog := make([]models.Property, 0, 20)
	for i := 0; i < 20; i++ {
		catalog = append(catalog, models.Property{ID: string(rune('a' + i))})
	}

	scorer := NewScorer(0, clock)
	assert.Equal(t, DefaultLimit, scorer.Limit())
	assert.Len(t, scorer.Score(models.Property{}, catalog, Preferences{}, nil), DefaultLimit)

	assert.Len(t, scorer.ScoreTop(models.Property{}, catalog, Preferences{}, nil, 3), 3)
	assert.Len(t, scorer.ScoreTop(models.Property{}, catalog, Preferences{}, nil, 0), DefaultLimit)
	assert.Len(t, NewScorer(50, clock).Score(models.Property{}, catalog, Preferences{}, nil), 20)
}

func TestScore_Deterministic(t *testing.T) {
	current := models.Property{ID: "c", City: "Entebbe", Price: "$90,000", PropertyType: "Bungalow"}
	catalog := []models.Property{
		{ID: "1", City: "Entebbe", Price: "$95,000"},
		{ID: "2", City: "Entebbe", PropertyType: "Bungalow"},
		{ID: "3", Price: "$120,000", Featured: true},
	}
	liked := NewLikedSet("3")

	scorer := NewScorer(0, clock)
	first := scorer.Score(current, catalog, Preferences{}, liked)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, scorer.Score(current, catalog, Preferences{}, liked))
	}
}

func TestMatchPercentage(t *testing.T) {
	assert.Equal(t, 0, MatchPercentage(0))
	assert.Equal(t, 0, MatchPercentage(-5))
	assert.Equal(t, 73, MatchPercentage(73))
	assert.Equal(t, 100, MatchPercentage(100))
	assert.Equal(t, 100, MatchPercentage(140))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		ok       bool
	}{
		{"$150,000", 150000, true},
		{"UGX 850,000,000", 850000000, true},
		{"1200 per month", 1200, true},
		{"Price on request", 0, false},
		{"", 0, false},
		{",,,", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParsePrice(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}
