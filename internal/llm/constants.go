// In file: internal/llm/constants.go
package llm

import "time"

// Shared by every client in the package.
const (
	defaultTimeout         = 60 * time.Second
	maxRetries             = 3
	initialRetryDelay      = 2 * time.Second
	defaultMaxOutputTokens = 2048
	defaultTemperature     = float32(0.7)
)
