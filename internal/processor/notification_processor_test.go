package processor

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"estatehub/server/config"
	"estatehub/server/internal/models"
	"estatehub/server/internal/queue"
)

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) ShouldNotify(inquiry *models.Inquiry) bool {
	return m.Called(inquiry).Bool(0)
}

func (m *MockNotifier) NotifyInquiry(inquiry *models.Inquiry) error {
	return m.Called(inquiry).Error(0)
}

func testConfig(maxRetries int) *config.Config {
	cfg := &config.Config{}
	cfg.Notifications.MaxRetries = maxRetries
	cfg.Notifications.RetryDelay = 0
	return cfg
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestNewNotificationProcessor(t *testing.T) {
	notifier := &MockNotifier{}
	q := queue.NewInquiryQueue(10, quietLogger())
	cfg := testConfig(3)
	logger := quietLogger()

	processor := NewNotificationProcessor(notifier, q, cfg, logger)

	assert.NotNil(t, processor)
	assert.Equal(t, notifier, processor.notifier)
	assert.Equal(t, q, processor.queue)
	assert.Equal(t, cfg, processor.config)
	assert.Equal(t, logger, processor.logger)
}

func TestNotificationProcessor_ProcessInquiry(t *testing.T) {
	inquiry := &models.Inquiry{ID: "1", Kind: models.InquiryContact}

	t.Run("Success", func(t *testing.T) {
		notifier := &MockNotifier{}
		notifier.On("ShouldNotify", inquiry).Return(true)
		notifier.On("NotifyInquiry", inquiry).Return(nil).Once()

		p := NewNotificationProcessor(notifier, queue.NewInquiryQueue(1, nil), testConfig(3), quietLogger())
		assert.NoError(t, p.processInquiry(inquiry))
		notifier.AssertExpectations(t)
	})

	t.Run("Retries then succeeds", func(t *testing.T) {
		notifier := &MockNotifier{}
		notifier.On("ShouldNotify", inquiry).Return(true)
		notifier.On("NotifyInquiry", inquiry).Return(errors.New("timeout")).Twice()
		notifier.On("NotifyInquiry", inquiry).Return(nil).Once()

		p := NewNotificationProcessor(notifier, queue.NewInquiryQueue(1, nil), testConfig(3), quietLogger())
		assert.NoError(t, p.processInquiry(inquiry))
		notifier.AssertNumberOfCalls(t, "NotifyInquiry", 3)
	})

	t.Run("Gives up after max retries", func(t *testing.T) {
		notifier := &MockNotifier{}
		notifier.On("ShouldNotify", inquiry).Return(true)
		notifier.On("NotifyInquiry", inquiry).Return(errors.New("telegram down"))

		p := NewNotificationProcessor(notifier, queue.NewInquiryQueue(1, nil), testConfig(3), quietLogger())
		err := p.processInquiry(inquiry)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to notify inquiry after 3 retries")
		notifier.AssertNumberOfCalls(t, "NotifyInquiry", 4)
	})

	t.Run("Filtered inquiries are not sent", func(t *testing.T) {
		notifier := &MockNotifier{}
		notifier.On("ShouldNotify", inquiry).Return(false)

		p := NewNotificationProcessor(notifier, queue.NewInquiryQueue(1, nil), testConfig(3), quietLogger())
		assert.NoError(t, p.processInquiry(inquiry))
		notifier.AssertNotCalled(t, "NotifyInquiry", inquiry)
	})
}

func TestNotificationProcessor_StopAbortsRetries(t *testing.T) {
	inquiry := &models.Inquiry{ID: "1"}
	notifier := &MockNotifier{}
	notifier.On("ShouldNotify", inquiry).Return(true)
	notifier.On("NotifyInquiry", inquiry).Return(errors.New("down"))

	cfg := testConfig(5)
	cfg.Notifications.RetryDelay = 60
	p := NewNotificationProcessor(notifier, queue.NewInquiryQueue(1, nil), cfg, quietLogger())
	p.Stop()

	err := p.processInquiry(inquiry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
	notifier.AssertNumberOfCalls(t, "NotifyInquiry", 1)
}

func TestNotificationProcessor_FromQueue(t *testing.T) {
	q := queue.NewInquiryQueue(10, quietLogger())
	notifier := &MockNotifier{}
	notifier.On("ShouldNotify", mock.Anything).Return(true)
	notifier.On("NotifyInquiry", mock.Anything).Return(nil)

	p := NewNotificationProcessor(notifier, q, testConfig(1), quietLogger())
	p.Start()
	defer p.Stop()
	q.Start()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Push(&models.Inquiry{ID: id}))
	}

	// Close waits until queued inquiries have been handled
	require.NoError(t, q.Close())
	notifier.AssertNumberOfCalls(t, "NotifyInquiry", 3)
	assert.Equal(t, 0, q.Len())
}
