package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"estatehub/server/config"
	"estatehub/server/internal/metrics"
	"estatehub/server/internal/models"
	"estatehub/server/internal/queue"
)

// Notifier delivers inquiry notifications to the team
type Notifier interface {
	ShouldNotify(inquiry *models.Inquiry) bool
	NotifyInquiry(inquiry *models.Inquiry) error
}

// NotificationProcessor forwards queued inquiries to the notifier with retries
type NotificationProcessor struct {
	notifier Notifier
	logger   *logrus.Logger
	config   *config.Config
	queue    *queue.InquiryQueue
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewNotificationProcessor creates a new processor instance
func NewNotificationProcessor(notifier Notifier, queue *queue.InquiryQueue, config *config.Config, logger *logrus.Logger) *NotificationProcessor {
	if logger == nil {
		logger = logrus.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &NotificationProcessor{
		notifier: notifier,
		queue:    queue,
		config:   config,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes the processor to the queue
func (p *NotificationProcessor) Start() {
	p.queue.Subscribe(p.processInquiry)
}

// Stop aborts pending retries
func (p *NotificationProcessor) Stop() {
	p.cancel()
}

// processInquiry handles a single inquiry with retry logic
func (p *NotificationProcessor) processInquiry(inquiry *models.Inquiry) error {
	if !p.notifier.ShouldNotify(inquiry) {
		metrics.NotificationsSent.WithLabelValues("filtered").Inc()
		return nil
	}

	maxRetries := p.config.Notifications.MaxRetries
	delay := time.Duration(p.config.Notifications.RetryDelay) * time.Second

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying inquiry notification, attempt %d of %d", attempt, maxRetries)
			select {
			case <-p.ctx.Done():
				return fmt.Errorf("notification cancelled after %d attempts: %w", attempt, err)
			case <-time.After(delay):
			}
		}

		err = p.notifier.NotifyInquiry(inquiry)
		if err == nil {
			metrics.NotificationsSent.WithLabelValues("sent").Inc()
			p.logger.WithFields(logrus.Fields{
				"inquiry_id": inquiry.ID,
				"kind":       inquiry.Kind,
			}).Info("Sent inquiry notification")
			return nil
		}

		p.logger.WithError(err).WithField("inquiry_id", inquiry.ID).Error("Inquiry notification failed")
	}

	metrics.NotificationsSent.WithLabelValues("failed").Inc()
	return fmt.Errorf("failed to notify inquiry after %d retries: %w", maxRetries, err)
}
