// Package globaltime is the process clock. Production code reads time
// through it so tests can pin "now" for recency scoring and run timestamps.
package globaltime

import (
	"sync"
	"time"
)

var (
	mu    sync.RWMutex
	clock func() time.Time = time.Now
)

func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return clock()
}

func UTC() time.Time {
	return Now().UTC()
}

// Since reports elapsed time against the mockable clock.
func Since(t time.Time) time.Duration {
	return UTC().Sub(t.UTC())
}

// SetMockTime freezes the clock at t until ResetTime. Test-only.
func SetMockTime(t time.Time) {
	mu.Lock()
	defer mu.Unlock()
	clock = func() time.Time { return t }
}

func ResetTime() {
	mu.Lock()
	defer mu.Unlock()
	clock = time.Now
}
