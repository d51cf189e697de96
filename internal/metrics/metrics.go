// internal/metrics/metrics.go

package metrics

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Stats represents a snapshot of current metrics
type Stats struct {
	ChallengesIssued   int64 `json:"challenges_issued"`
	ChallengesVerified int64 `json:"challenges_verified"`
	CodesInvalid       int64 `json:"codes_invalid"`
	CodesExpired       int64 `json:"codes_expired"`
	AttemptsExceeded   int64 `json:"attempts_exceeded"`
	DeliveryFailures   int64 `json:"delivery_failures"`
	NotificationsSent  int64 `json:"notifications_sent"`
	TotalRequests      int64 `json:"total_requests"`
	StartTime          int64 `json:"start_time"`
}

// Metrics holds application metrics
type Metrics struct {
	challengesIssued   int64
	challengesVerified int64
	codesInvalid       int64
	codesExpired       int64
	attemptsExceeded   int64
	deliveryFailures   int64
	notificationsSent  int64
	totalRequests      int64
	startTime          int64
	logger             *logrus.Logger
}

// NewMetrics creates a new metrics instance
func NewMetrics(logger *logrus.Logger) *Metrics {
	return &Metrics{
		startTime: time.Now().Unix(),
		logger:    logger,
	}
}

func (m *Metrics) IncrementIssued() {
	atomic.AddInt64(&m.challengesIssued, 1)
	atomic.AddInt64(&m.totalRequests, 1)
}

func (m *Metrics) IncrementVerified() {
	atomic.AddInt64(&m.challengesVerified, 1)
	atomic.AddInt64(&m.totalRequests, 1)
}

func (m *Metrics) IncrementInvalid() {
	atomic.AddInt64(&m.codesInvalid, 1)
}

func (m *Metrics) IncrementExpired() {
	atomic.AddInt64(&m.codesExpired, 1)
}

func (m *Metrics) IncrementAttemptsExceeded() {
	atomic.AddInt64(&m.attemptsExceeded, 1)
}

func (m *Metrics) IncrementDeliveryFailures() {
	atomic.AddInt64(&m.deliveryFailures, 1)
}

func (m *Metrics) IncrementNotificationsSent() {
	atomic.AddInt64(&m.notificationsSent, 1)
	atomic.AddInt64(&m.totalRequests, 1)
}

// GetStats returns current metrics as Stats struct
func (m *Metrics) GetStats() Stats {
	return Stats{
		ChallengesIssued:   atomic.LoadInt64(&m.challengesIssued),
		ChallengesVerified: atomic.LoadInt64(&m.challengesVerified),
		CodesInvalid:       atomic.LoadInt64(&m.codesInvalid),
		CodesExpired:       atomic.LoadInt64(&m.codesExpired),
		AttemptsExceeded:   atomic.LoadInt64(&m.attemptsExceeded),
		DeliveryFailures:   atomic.LoadInt64(&m.deliveryFailures),
		NotificationsSent:  atomic.LoadInt64(&m.notificationsSent),
		TotalRequests:      atomic.LoadInt64(&m.totalRequests),
		StartTime:          m.startTime,
	}
}

// GetUptime returns the uptime duration
func (m *Metrics) GetUptime() time.Duration {
	return time.Since(time.Unix(m.startTime, 0))
}

// LogMetrics logs current metrics
func (m *Metrics) LogMetrics() {
	stats := m.GetStats()
	m.logger.WithFields(logrus.Fields{
		"challenges_issued":   stats.ChallengesIssued,
		"challenges_verified": stats.ChallengesVerified,
		"codes_invalid":       stats.CodesInvalid,
		"codes_expired":       stats.CodesExpired,
		"attempts_exceeded":   stats.AttemptsExceeded,
		"delivery_failures":   stats.DeliveryFailures,
		"notifications_sent":  stats.NotificationsSent,
		"total_requests":      stats.TotalRequests,
		"uptime_seconds":      int64(m.GetUptime().Seconds()),
	}).Info("Application metrics")
}
