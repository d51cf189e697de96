// internal/middleware/middleware.go

package middleware

import (
	"sync"

	"golang.org/x/time/rate"

	"twofactor-service/internal/config"
)

type Middleware struct {
	config  *config.Config
	clients map[string]*rate.Limiter
	mu      sync.Mutex
}

func NewMiddleware(cfg *config.Config) *Middleware {
	return &Middleware{
		config:  cfg,
		clients: make(map[string]*rate.Limiter),
	}
}
