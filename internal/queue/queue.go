package queue

import (
	"errors"
	"sync"

	"estatehub/server/internal/models"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Handler receives every inquiry pushed to the queue
type Handler func(*models.Inquiry) error

// InquiryQueue decouples accepting a form submission from notifying the team about it
type InquiryQueue struct {
	items    chan *models.Inquiry
	done     chan struct{}
	wg       sync.WaitGroup
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []Handler
}

// NewInquiryQueue creates a queue with the specified buffer size
func NewInquiryQueue(bufferSize int, logger *logrus.Logger) *InquiryQueue {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &InquiryQueue{
		items:    make(chan *models.Inquiry, bufferSize),
		done:     make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]Handler, 0),
	}
}

// Push adds an inquiry without blocking the request that produced it
func (q *InquiryQueue) Push(inquiry *models.Inquiry) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- inquiry:
		q.logger.WithFields(logrus.Fields{
			"inquiry_id": inquiry.ID,
			"kind":       inquiry.Kind,
		}).Debug("Pushed inquiry to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each inquiry
func (q *InquiryQueue) Subscribe(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing items in the queue
func (q *InquiryQueue) Start() {
	q.wg.Add(1)
	go q.process()
}

func (q *InquiryQueue) process() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			// deliver what was accepted before Close
			for {
				select {
				case inquiry := <-q.items:
					q.dispatch(inquiry)
				default:
					return
				}
			}
		case inquiry := <-q.items:
			q.dispatch(inquiry)
		}
	}
}

// dispatch sends the inquiry to all subscribed handlers
func (q *InquiryQueue) dispatch(inquiry *models.Inquiry) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(inquiry); err != nil {
			q.logger.WithError(err).WithField("inquiry_id", inquiry.ID).Error("Handler failed to process inquiry")
		}
	}
}

// Close stops accepting inquiries and waits for queued ones to be handled
func (q *InquiryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}

// Len returns the number of inquiries waiting
func (q *InquiryQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *InquiryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
