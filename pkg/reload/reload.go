package reload

import (
	"context"
	"sync"
)

// Func performs one relaunch.
type Func func(ctx context.Context) error

// Serialize returns a Func that runs fn with at most one call in flight.
func Serialize(fn Func) Func {
	var mu sync.Mutex
	return func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		return fn(ctx)
	}
}
