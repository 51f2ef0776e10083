package fetch

import (
	"time"

	"golang.org/x/time/rate"
)

// MinRequestInterval is the minimum spacing between fresh (non-cached)
// requests against the provider. Cache hits bypass it entirely.
const MinRequestInterval = 7 * time.Second

// sharedThrottle is the process-wide request gate. One limiter per process
// keeps the spacing guarantee across every pipeline instance; under
// multi-process fan-out the guarantee degrades to best-effort per process.
var sharedThrottle = rate.NewLimiter(rate.Every(MinRequestInterval), 1)

// SharedThrottle returns the process-wide request limiter.
func SharedThrottle() *rate.Limiter {
	return sharedThrottle
}
