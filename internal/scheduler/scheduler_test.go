package scheduler

import (
	"errors"
	"testing"
	"time"

	"estatehub/server/internal/database"
	"estatehub/server/internal/imagery"
	"estatehub/server/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetAllProperties() ([]models.Property, error) {
	args := m.Called()
	props, _ := args.Get(0).([]models.Property)
	return props, args.Error(1)
}

func (m *MockStore) GetInquiriesSince(since time.Time) ([]models.Inquiry, error) {
	args := m.Called(since)
	inquiries, _ := args.Get(0).([]models.Inquiry)
	return inquiries, args.Error(1)
}

func (m *MockStore) UpdateMissingCoordinates(geocoder database.Geocoder) error {
	return m.Called(geocoder).Error(0)
}

type MockDigest struct {
	mock.Mock
}

func (m *MockDigest) SendDigest(inquiries []models.Inquiry, since time.Time) error {
	return m.Called(inquiries, since).Error(0)
}

type stubGeocoder struct{}

func (stubGeocoder) GeocodeLocation(location, city string) (float64, float64, error) {
	return 0.3, 32.5, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestJobTypeString(t *testing.T) {
	assert.Equal(t, "image_audit", JobTypeImageAudit.String())
	assert.Equal(t, "coordinates", JobTypeCoordinates.String())
	assert.Equal(t, "digest", JobTypeDigest.String())
	assert.Equal(t, "unknown", JobType(42).String())
}

func TestScheduler_ImageAudit(t *testing.T) {
	store := &MockStore{}
	store.On("GetAllProperties").Return([]models.Property{
		{ID: "1", Images: []string{"https://jiji.ug/listing/1.jpg", "https://cdn.example.com/a.jpg"}},
		{ID: "2"},
	}, nil)

	s := NewScheduler(store, nil, nil, Options{ImageAuditInterval: time.Hour, DigestHour: -1}, quietLogger())
	now := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)
	s.runStartupJobs(now)

	report := s.LastAudit()
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.ByRule[imagery.RulePassThrough])
	assert.Equal(t, 1, report.ByRule[imagery.RuleDomainHash])
	assert.Equal(t, []string{"https://jiji.ug/listing/1.jpg"}, report.Broken)
	assert.Equal(t, 1, report.ByRule[imagery.RuleEmpty])
	store.AssertNotCalled(t, "UpdateMissingCoordinates", mock.Anything)

	// interval has not elapsed yet
	s.executeScheduledJobs(now.Add(30 * time.Minute))
	store.AssertNumberOfCalls(t, "GetAllProperties", 1)

	s.executeScheduledJobs(now.Add(time.Hour))
	store.AssertNumberOfCalls(t, "GetAllProperties", 2)
}

func TestScheduler_AuditStoreError(t *testing.T) {
	store := &MockStore{}
	store.On("GetAllProperties").Return(nil, errors.New("db down"))

	s := NewScheduler(store, nil, nil, Options{DigestHour: -1}, quietLogger())
	s.runStartupJobs(time.Now())

	assert.Equal(t, 0, s.LastAudit().Total)
}

func TestScheduler_CoordinateBackfillOnTheHour(t *testing.T) {
	geocoder := stubGeocoder{}
	store := &MockStore{}
	store.On("GetAllProperties").Return([]models.Property{}, nil)
	store.On("UpdateMissingCoordinates", geocoder).Return(nil)

	s := NewScheduler(store, geocoder, nil, Options{ImageAuditInterval: 24 * time.Hour, DigestHour: -1}, quietLogger())
	start := time.Date(2026, 5, 1, 10, 15, 0, 0, time.UTC)
	s.runStartupJobs(start)
	store.AssertNumberOfCalls(t, "UpdateMissingCoordinates", 1)

	s.executeScheduledJobs(start.Add(10 * time.Minute))
	store.AssertNumberOfCalls(t, "UpdateMissingCoordinates", 1)

	s.executeScheduledJobs(time.Date(2026, 5, 1, 11, 0, 0, 0, time.UTC))
	store.AssertNumberOfCalls(t, "UpdateMissingCoordinates", 2)
}

func TestScheduler_Digest(t *testing.T) {
	inquiries := []models.Inquiry{{ID: "a", Kind: models.InquiryContact}}
	at := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	since := at.Add(-24 * time.Hour)

	store := &MockStore{}
	store.On("GetAllProperties").Return([]models.Property{}, nil)
	store.On("GetInquiriesSince", since).Return(inquiries, nil)

	digest := &MockDigest{}
	digest.On("SendDigest", inquiries, since).Return(nil).Once()

	s := NewScheduler(store, nil, digest, Options{ImageAuditInterval: 24 * time.Hour, DigestHour: 8}, quietLogger())
	s.runStartupJobs(at.Add(-time.Hour))

	s.executeScheduledJobs(at.Add(time.Minute))
	digest.AssertNotCalled(t, "SendDigest", mock.Anything, mock.Anything)

	s.executeScheduledJobs(at)
	digest.AssertExpectations(t)
}

func TestScheduler_StartStop(t *testing.T) {
	called := make(chan struct{}, 1)
	store := &MockStore{}
	store.On("GetAllProperties").Run(func(mock.Arguments) {
		select {
		case called <- struct{}{}:
		default:
		}
	}).Return([]models.Property{}, nil)

	s := NewScheduler(store, nil, nil, Options{DigestHour: -1}, quietLogger())
	s.Start()

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("startup audit did not run")
	}
	s.Stop()
}
