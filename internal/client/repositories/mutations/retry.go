package mutations

import "time"

// DefaultBaseDelay is the backoff base between upload attempts.
const DefaultBaseDelay = time.Second

// RetryDelay returns the exponential backoff delay before a mutation with
// the given retry count should be attempted again: base * 2^retryCount.
func RetryDelay(base time.Duration, retryCount int) time.Duration {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	return base * time.Duration(1<<retryCount)
}
