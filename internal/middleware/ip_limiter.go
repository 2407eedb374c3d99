package middleware

import (
	"time"

	"golang.org/x/time/rate"
)

// ipIdleThreshold: IP limiters unused for this long are dropped by Cleanup
const ipIdleThreshold = 1 * time.Hour

// IPRateLimit: limits new WebSocket connections per IP address
type IPRateLimit struct {
	limiters *KeyedLimiter
}

// NewIPRateLimit: 10 connections per minute per IP, burst of 5
func NewIPRateLimit() *IPRateLimit {
	return &IPRateLimit{
		limiters: newKeyedLimiter(rate.Every(6*time.Second), 5),
	}
}

// Allow: checks if an IP is allowed to open another connection
func (iprl *IPRateLimit) Allow(ip string) bool {
	return iprl.limiters.Allow(ip)
}

// Cleanup: removes old IP limiters that haven't been used recently
func (iprl *IPRateLimit) Cleanup() int {
	return iprl.limiters.Cleanup(ipIdleThreshold)
}
