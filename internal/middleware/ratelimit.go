package middleware

import (
	"fmt"
	"unicode/utf8"
)

// ObjectCounter interface for counting objects (avoids import cycle with whiteboard)
type ObjectCounter interface {
	ObjectCount() int
}

// RateLimit: size and rate limits shared by the classroom client and the store host
type RateLimit struct {
	MaxObjects        int
	MaxMessageSize    int
	MaxChatLength     int
	MaxFieldDepth     int
	MaxFieldKeys      int
	MessagesPerSecond float64
	BurstSize         int
}

// DefaultRateLimit: limits used when nothing is configured
func DefaultRateLimit() RateLimit {
	return RateLimit{
		MaxObjects:        10000,
		MaxMessageSize:    1 << 20,
		MaxChatLength:     500,
		MaxFieldDepth:     10,
		MaxFieldKeys:      1000,
		MessagesPerSecond: 30,
		BurstSize:         60,
	}
}

// CanAddObject: checks if a whiteboard has space for more objects
func (rl RateLimit) CanAddObject(counter ObjectCounter) bool {
	return counter.ObjectCount() < rl.MaxObjects
}

// ValidateMessageSize: checks if a message is within the size limit
func (rl RateLimit) ValidateMessageSize(msgSize int) bool {
	return msgSize <= rl.MaxMessageSize
}

// ValidateChatLength: body length in characters, not bytes
func (rl RateLimit) ValidateChatLength(body string) bool {
	return utf8.RuneCountInString(body) <= rl.MaxChatLength
}

// ValidateFieldComplexity: validates document field complexity
// Checks nesting depth and unique key count (not array lengths)
func (rl RateLimit) ValidateFieldComplexity(fields map[string]any) error {
	depth, keys := validateComplexity(fields, 0)

	if depth > rl.MaxFieldDepth {
		return fmt.Errorf("fields nested too deep: %d levels (max %d)", depth, rl.MaxFieldDepth)
	}

	if keys > rl.MaxFieldKeys {
		return fmt.Errorf("fields too complex: %d keys (max %d)", keys, rl.MaxFieldKeys)
	}

	return nil
}

// validateComplexity: recursively checks depth and counts unique keys
func validateComplexity(data any, currentDepth int) (int, int) {
	maxDepth := currentDepth
	keyCount := 0

	walk := func(val any) {
		subDepth, subKeys := validateComplexity(val, currentDepth+1)
		if subDepth > maxDepth {
			maxDepth = subDepth
		}
		keyCount += subKeys
	}

	switch v := data.(type) {
	case map[string]any:
		keyCount = len(v)
		for _, val := range v {
			walk(val)
		}
	case []any:
		// Don't count array length
		for _, val := range v {
			walk(val)
		}
	}

	return maxDepth, keyCount
}
