package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	counts map[string]int64
	from   time.Time
	err    error
}

func (f *fakeCounter) CountInquiriesByDay(from time.Time) (map[string]int64, error) {
	f.from = from
	return f.counts, f.err
}

func TestBuild(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 4, 0, 0, time.UTC)
	counter := &fakeCounter{counts: map[string]int64{"2026-03-10": 2, "2026-03-08": 1, "2026-01-01": 9}}

	summary, err := Build(counter, 7, now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), counter.from)
	require.Len(t, summary.Series, 7)
	assert.Equal(t, "2026-03-04", summary.Series[0].Date)
	assert.Equal(t, "2026-03-10", summary.Series[6].Date)
	assert.Equal(t, int64(2), summary.Series[6].Inquiries)
	assert.Equal(t, int64(1), summary.Series[4].Inquiries)
	assert.Equal(t, int64(3), summary.TotalInquiries)

	var visits int64
	for _, p := range summary.Series {
		assert.Greater(t, p.Visits, int64(0))
		assert.Greater(t, p.PropertyViews, p.Visits)
		visits += p.Visits
	}
	assert.Equal(t, visits, summary.TotalVisits)
	assert.InDelta(t, float64(3)/float64(visits), summary.ConversionRate, 1e-9)
}

func TestBuild_Deterministic(t *testing.T) {
	now := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	a, err := Build(&fakeCounter{}, 14, now)
	require.NoError(t, err)
	b, err := Build(&fakeCounter{}, 14, now.Add(20*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuild_DayBounds(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	summary, err := Build(&fakeCounter{}, 0, now)
	require.NoError(t, err)
	assert.Len(t, summary.Series, DefaultDays)

	summary, err = Build(&fakeCounter{}, 1000, now)
	require.NoError(t, err)
	assert.Len(t, summary.Series, MaxDays)
}

func TestBuild_CounterError(t *testing.T) {
	_, err := Build(&fakeCounter{err: errors.New("boom")}, 7, time.Now())
	assert.Error(t, err)
}
