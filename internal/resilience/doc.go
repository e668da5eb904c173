// Package resilience provides fault tolerance patterns for calls to model providers.
//
// The package supports:
//   - Circuit breakers that stop calling a provider that keeps failing
//   - Retry logic with exponential backoff and jitter for transient failures
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.ProviderConfig("deepseek"))
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return callProvider()
//	})
//
//	err := retry.WithBackoff(ctx, retry.CompletionConfig(3, 500*time.Millisecond), func() error {
//	    return performOperation()
//	})
package resilience
