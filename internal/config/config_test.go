package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		expected logrus.Level
	}{
		{
			name:     "Release mode",
			mode:     "release",
			expected: logrus.InfoLevel,
		},
		{
			name:     "Debug mode",
			mode:     "debug",
			expected: logrus.TraceLevel,
		},
		{
			name:     "Test mode",
			mode:     "test",
			expected: logrus.TraceLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := SetupLogger(tt.mode)
			assert.NotNil(t, logger)
			assert.Equal(t, tt.expected, logger.Level)
			assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
		})
	}
}

func TestDurationDefaults(t *testing.T) {
	cfg := &Config{}

	assert.Equal(t, 10*time.Minute, cfg.Validity())
	assert.Equal(t, 5*time.Minute, cfg.Grace())
	assert.Equal(t, 15*time.Second, cfg.DeliveryTimeout())
	assert.Equal(t, 5, cfg.MaxAttempts())
}

func TestDurationParsing(t *testing.T) {
	cfg := &Config{}
	cfg.OTP.Validity = "3m"
	cfg.OTP.Grace = "0s"
	cfg.OTP.MaxAttempts = 3
	cfg.Delivery.Timeout = "5s"

	assert.Equal(t, 3*time.Minute, cfg.Validity())
	assert.Equal(t, time.Duration(0), cfg.Grace())
	assert.Equal(t, 5*time.Second, cfg.DeliveryTimeout())
	assert.Equal(t, 3, cfg.MaxAttempts())
}

func TestDurationGarbageFallsBack(t *testing.T) {
	cfg := &Config{}
	cfg.OTP.Validity = "soon"
	cfg.Delivery.Timeout = "-1s"

	assert.Equal(t, 10*time.Minute, cfg.Validity())
	assert.Equal(t, 15*time.Second, cfg.DeliveryTimeout())
}
