// internal/config/config.go

package config

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds server, store, OTP policy and delivery transport settings.
type Config struct {
	Server struct {
		Host    string `mapstructure:"host"`
		Port    string `mapstructure:"port"`
		Mode    string `mapstructure:"mode"`
		Timeout struct {
			Read  int `mapstructure:"read"`
			Write int `mapstructure:"write"`
			Idle  int `mapstructure:"idle"`
		} `mapstructure:"timeout"`
	} `mapstructure:"server"`
	Store struct {
		Backend string `mapstructure:"backend"` // "redis" or "memory"
	} `mapstructure:"store"`
	Redis struct {
		Host      string `mapstructure:"host"`
		Port      string `mapstructure:"port"`
		Password  string `mapstructure:"password"`
		DB        int    `mapstructure:"db"`
		KeyPrefix string `mapstructure:"key_prefix"`
		Timeout   int    `mapstructure:"timeout"`
	} `mapstructure:"redis"`
	OTP struct {
		CodeLength  int    `mapstructure:"code_length"`
		Validity    string `mapstructure:"validity"`
		MaxAttempts int    `mapstructure:"max_attempts"`
		Grace       string `mapstructure:"grace"`
	} `mapstructure:"otp"`
	SMTP struct {
		Host           string `mapstructure:"host"`
		Port           int    `mapstructure:"port"`
		UseImplicitTLS bool   `mapstructure:"use_implicit_tls"`
		AuthUser       string `mapstructure:"auth_user"`
		AuthSecret     string `mapstructure:"auth_secret"`
		From           string `mapstructure:"from"`
	} `mapstructure:"smtp"`
	Delivery struct {
		Timeout string `mapstructure:"timeout"`
	} `mapstructure:"delivery"`
	Security struct {
		HeadersEnabled bool `mapstructure:"headers_enabled"`
	} `mapstructure:"security"`
}

// LoadConfig reads the configuration from the config file and environment variables
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}
	viper.AutomaticEnv()

	// Bind environment variables to specific keys in the config
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "SERVER_MODE")
	viper.BindEnv("server.timeout.read", "SERVER_TIMEOUT_READ")
	viper.BindEnv("server.timeout.write", "SERVER_TIMEOUT_WRITE")
	viper.BindEnv("server.timeout.idle", "SERVER_TIMEOUT_IDLE")
	viper.BindEnv("store.backend", "STORE_BACKEND")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("redis.key_prefix", "REDIS_KEY_PREFIX")
	viper.BindEnv("redis.timeout", "REDIS_TIMEOUT")
	viper.BindEnv("otp.code_length", "OTP_CODE_LENGTH")
	viper.BindEnv("otp.validity", "OTP_VALIDITY")
	viper.BindEnv("otp.max_attempts", "OTP_MAX_ATTEMPTS")
	viper.BindEnv("otp.grace", "OTP_GRACE")
	viper.BindEnv("smtp.host", "SMTP_HOST")
	viper.BindEnv("smtp.port", "SMTP_PORT")
	viper.BindEnv("smtp.use_implicit_tls", "SMTP_USE_IMPLICIT_TLS")
	viper.BindEnv("smtp.auth_user", "SMTP_AUTH_USER")
	viper.BindEnv("smtp.auth_secret", "SMTP_AUTH_SECRET")
	viper.BindEnv("smtp.from", "SMTP_FROM")
	viper.BindEnv("delivery.timeout", "DELIVERY_TIMEOUT")
	viper.BindEnv("security.headers_enabled", "SECURITY_HEADERS_ENABLED")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validity parses the configured OTP validity window, defaulting to 10 minutes.
func (c *Config) Validity() time.Duration {
	d, err := time.ParseDuration(c.OTP.Validity)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// Grace parses the post-expiry retention window, defaulting to 5 minutes.
// Expired records are kept around for it so verification can report OTP_EXPIRED
// instead of OTP_NOT_FOUND.
func (c *Config) Grace() time.Duration {
	d, err := time.ParseDuration(c.OTP.Grace)
	if err != nil || d < 0 {
		return 5 * time.Minute
	}
	return d
}

// DeliveryTimeout parses the outbound delivery timeout, defaulting to 15 seconds.
func (c *Config) DeliveryTimeout() time.Duration {
	d, err := time.ParseDuration(c.Delivery.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// MaxAttempts returns the verification attempt cap, defaulting to 5.
func (c *Config) MaxAttempts() int {
	if c.OTP.MaxAttempts < 1 {
		return 5
	}
	return c.OTP.MaxAttempts
}

// SetupLogger configures the logger based on server mode
func SetupLogger(mode string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	if mode != "release" {
		logger.SetLevel(logrus.TraceLevel)
	}

	return logger
}
