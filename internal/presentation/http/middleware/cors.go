package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/backoffice-api/internal/config"
)

// operatorHeaders are sent by the POS terminals on every write
var operatorHeaders = []string{"Authorization", "Content-Type", IdempotencyKeyHeader, RequestIDHeader}

// exposedHeaders are read back by the terminals
var exposedHeaders = []string{
	RequestIDHeader,
	IdempotencyReplayedHeader,
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
	"Retry-After",
}

var defaultOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

var defaultMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodOptions,
}

// CORSMiddleware allows the back-office terminals to call the API from the browser
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	return cors.New(corsConfig(cfg))
}

func corsConfig(cfg *config.CORSConfig) cors.Config {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = defaultMethods
	}

	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     methods,
		AllowHeaders:     mergeHeaders(cfg.AllowedHeaders, append([]string{"Accept", "Origin"}, operatorHeaders...)),
		ExposeHeaders:    exposedHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// mergeHeaders appends every required header missing from configured, ignoring case
func mergeHeaders(configured, required []string) []string {
	merged := append([]string{}, configured...)
	for _, header := range required {
		found := false
		for _, existing := range merged {
			if strings.EqualFold(existing, header) {
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, header)
		}
	}
	return merged
}
