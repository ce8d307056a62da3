package queue

import (
	"errors"
	"sync"
	"testing"
	"time"

	"estatehub/server/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInquiryQueue(t *testing.T) {
	q := NewInquiryQueue(10, logrus.New())
	assert.NotNil(t, q)
	assert.Equal(t, 10, q.maxSize)
	assert.False(t, q.IsClosed())
}

func TestInquiryQueue_Push(t *testing.T) {
	q := NewInquiryQueue(2, logrus.New())

	// Test successful push
	err := q.Push(&models.Inquiry{ID: "1"})
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	// Test queue full
	_ = q.Push(&models.Inquiry{ID: "2"})
	err = q.Push(&models.Inquiry{ID: "3"})
	assert.Equal(t, ErrQueueFull, err)

	// Test closed queue
	require.NoError(t, q.Close())
	err = q.Push(&models.Inquiry{ID: "4"})
	assert.Equal(t, ErrQueueClosed, err)
}

func TestInquiryQueue_Subscribe(t *testing.T) {
	q := NewInquiryQueue(10, logrus.New())

	var processed []string
	var mu sync.Mutex

	q.Subscribe(func(inquiry *models.Inquiry) error {
		mu.Lock()
		processed = append(processed, inquiry.ID)
		mu.Unlock()
		return nil
	})

	q.Start()

	require.NoError(t, q.Push(&models.Inquiry{ID: "first"}))
	require.NoError(t, q.Push(&models.Inquiry{ID: "second"}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(processed) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"first", "second"}, processed)
	mu.Unlock()

	require.NoError(t, q.Close())
}

func TestInquiryQueue_CloseDrains(t *testing.T) {
	q := NewInquiryQueue(10, logrus.New())

	var mu sync.Mutex
	count := 0
	q.Subscribe(func(*models.Inquiry) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(&models.Inquiry{}))
	}
	q.Start()
	require.NoError(t, q.Close())

	mu.Lock()
	assert.Equal(t, 5, count)
	mu.Unlock()

	// Test second close (should be no-op)
	assert.NoError(t, q.Close())
	assert.True(t, q.IsClosed())
}

func TestInquiryQueue_AllHandlersCalled(t *testing.T) {
	q := NewInquiryQueue(10, logrus.New())

	var wg sync.WaitGroup
	calls := 0
	var mu sync.Mutex

	for i := 0; i < 3; i++ {
		wg.Add(1)
		fail := i == 0
		q.Subscribe(func(*models.Inquiry) error {
			mu.Lock()
			calls++
			mu.Unlock()
			wg.Done()
			if fail {
				return errors.New("handler failed")
			}
			return nil
		})
	}

	q.Start()
	require.NoError(t, q.Push(&models.Inquiry{ID: "x"}))
	wg.Wait()

	// a failing handler does not stop the others
	mu.Lock()
	assert.Equal(t, 3, calls)
	mu.Unlock()
	require.NoError(t, q.Close())
}
