package recommend

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"estatehub/server/internal/models"
)

// DefaultLimit is the number of recommendations returned when no limit is given
const DefaultLimit = 6

// maxReasons is how many reasons are reported per recommendation
const maxReasons = 3

// recentWindow is how fresh a listing must be to earn the "recently updated" bonus
const recentWindow = 30 * 24 * time.Hour

// Weights of each scoring condition
const (
	weightSameLocation      = 30
	weightSameCity          = 20
	weightSimilarPrice      = 25
	weightComparablePrice   = 15
	weightSameType          = 20
	weightSameBedrooms      = 15
	weightSameBathrooms     = 10
	weightPreferredLocation = 20
	weightPreferredType     = 15
	weightLiked             = 25
	weightFeatured          = 10
	weightLargeGallery      = 8
	weightRecentlyUpdated   = 5
)

const largeGallerySize = 5

var priceDigits = regexp.MustCompile(`[\d,]+`)

// Preferences are the optional signals a visitor states on the listings page
type Preferences struct {
	PriceRange   string `json:"price_range" form:"price_range"`
	Bedrooms     *int   `json:"bedrooms" form:"bedrooms"`
	Bathrooms    *int   `json:"bathrooms" form:"bathrooms"`
	Location     string `json:"location" form:"location"`
	PropertyType string `json:"property_type" form:"type"`
}

// Recommendation is a scored candidate; it is recomputed on every request
type Recommendation struct {
	Property        models.Property `json:"property"`
	Score           int             `json:"score"`
	Reasons         []string        `json:"reasons"`
	MatchPercentage int             `json:"match_percentage"`
}

// Scorer ranks candidate properties against a reference listing
type Scorer struct {
	limit int
	now   func() time.Time
}

// NewScorer creates a scorer returning at most limit results.
// A nil clock uses time.Now.
func NewScorer(limit int, now func() time.Time) *Scorer {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if now == nil {
		now = time.Now
	}
	return &Scorer{limit: limit, now: now}
}

// Limit returns the maximum number of results
func (s *Scorer) Limit() int {
	return s.limit
}

// Score ranks candidates by similarity to current and the visitor's signals.
// current itself is never part of the result; ties keep input order.
func (s *Scorer) Score(current models.Property, candidates []models.Property, prefs Preferences, liked LikedSet) []Recommendation {
	return s.ScoreTop(current, candidates, prefs, liked, s.limit)
}

// ScoreTop is Score with an explicit result limit
func (s *Scorer) ScoreTop(current models.Property, candidates []models.Property, prefs Preferences, liked LikedSet, limit int) []Recommendation {
	if limit <= 0 {
		limit = s.limit
	}
	results := s.scoreAll(current, candidates, prefs, liked)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (s *Scorer) scoreAll(current models.Property, candidates []models.Property, prefs Preferences, liked LikedSet) []Recommendation {
	now := s.now()
	currentPrice, currentPriceOK := ParsePrice(current.Price)

	results := make([]Recommendation, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ID == current.ID {
			continue
		}

		score := 0
		var reasons []string
		fire := func(weight int, reason string) {
			score += weight
			reasons = append(reasons, reason)
		}

		if sameText(current.Location, candidate.Location) {
			fire(weightSameLocation, "Same area: "+candidate.Location)
		} else if sameText(current.City, candidate.City) {
			fire(weightSameCity, "Same city: "+candidate.City)
		}

		if currentPriceOK && currentPrice > 0 {
			if price, ok := ParsePrice(candidate.Price); ok {
				diff := math.Abs(float64(price-currentPrice)) / float64(currentPrice)
				switch {
				case diff < 0.2:
					fire(weightSimilarPrice, "Similar price range")
				case diff < 0.5:
					fire(weightComparablePrice, "Comparable pricing")
				}
			}
		}

		if sameText(current.PropertyType, candidate.PropertyType) {
			fire(weightSameType, "Same property type: "+candidate.PropertyType)
		}
		if sameCount(current.Bedrooms, candidate.Bedrooms) {
			fire(weightSameBedrooms, strconv.Itoa(*candidate.Bedrooms)+" bedrooms, like this one")
		}
		if sameCount(current.Bathrooms, candidate.Bathrooms) {
			fire(weightSameBathrooms, strconv.Itoa(*candidate.Bathrooms)+" bathrooms, like this one")
		}

		if containsFold(candidate.Location, prefs.Location) {
			fire(weightPreferredLocation, "In your preferred location")
		}
		if containsFold(candidate.PropertyType, prefs.PropertyType) {
			fire(weightPreferredType, "Matches your preferred property type")
		}

		if liked.Has(candidate.ID) {
			fire(weightLiked, "One of your liked properties")
		}
		if candidate.Featured {
			fire(weightFeatured, "Featured property")
		}
		if len(candidate.Images) >= largeGallerySize {
			fire(weightLargeGallery, "Extensive photo gallery")
		}
		if !candidate.UpdatedAt.IsZero() && now.Sub(candidate.UpdatedAt) <= recentWindow {
			fire(weightRecentlyUpdated, "Recently updated")
		}

		if len(reasons) > maxReasons {
			reasons = reasons[:maxReasons]
		}
		if reasons == nil {
			reasons = []string{}
		}

		results = append(results, Recommendation{
			Property:        candidate,
			Score:           score,
			Reasons:         reasons,
			MatchPercentage: MatchPercentage(score),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// MatchPercentage caps a raw score at 100. Scores are not normalised against the maximum.
func MatchPercentage(score int) int {
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// ParsePrice reads the first run of digits and commas from a price string like "$150,000"
func ParsePrice(price string) (int64, bool) {
	run := priceDigits.FindString(price)
	if run == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(run, ",", ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func sameText(a, b string) bool {
	return a != "" && a == b
}

func sameCount(a, b *int) bool {
	return a != nil && b != nil && *a == *b
}

func containsFold(value, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return false
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(want))
}
