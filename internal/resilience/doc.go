// Package resilience provides reliability and fault tolerance patterns for
// the harvesting pipeline.
//
// The package supports:
//   - Circuit breakers for the lookup API, brochure downloads, and local
//     disk writes (a systemic local fault aborts the run early instead of
//     failing every remaining unit one by one)
//   - Retry logic with exponential backoff, jitter, and category-first
//     failure classification
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.LookupConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return callLookupAPI()
//	})
//
//	err := retry.WithBackoff(ctx, retry.LookupConfig(), "lookup", func() error {
//	    return performOperation()
//	})
package resilience
