package metrics

import (
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(logrus.New())

	m.IncrementIssued()
	m.IncrementIssued()
	m.IncrementVerified()
	m.IncrementInvalid()
	m.IncrementExpired()
	m.IncrementAttemptsExceeded()
	m.IncrementDeliveryFailures()
	m.IncrementNotificationsSent()

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.ChallengesIssued)
	assert.Equal(t, int64(1), stats.ChallengesVerified)
	assert.Equal(t, int64(1), stats.CodesInvalid)
	assert.Equal(t, int64(1), stats.CodesExpired)
	assert.Equal(t, int64(1), stats.AttemptsExceeded)
	assert.Equal(t, int64(1), stats.DeliveryFailures)
	assert.Equal(t, int64(1), stats.NotificationsSent)
	assert.Equal(t, int64(4), stats.TotalRequests)
	assert.NotZero(t, stats.StartTime)
}

func TestMetrics_ConcurrentIncrements(t *testing.T) {
	m := NewMetrics(logrus.New())

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementIssued()
			m.IncrementInvalid()
		}()
	}
	wg.Wait()

	stats := m.GetStats()
	assert.Equal(t, int64(workers), stats.ChallengesIssued)
	assert.Equal(t, int64(workers), stats.CodesInvalid)
}
