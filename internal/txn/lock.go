package txn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("another run is in progress")

const (
	lockTimeout    = 2 * time.Second
	lockRetryDelay = 100 * time.Millisecond
)

type UnlockFunc func()

// Lock takes the exclusive run lock at path, retrying until ctx is done or
// the lock timeout passes.
func Lock(ctx context.Context, path string) (UnlockFunc, error) {
	fl := flock.New(path)
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	unlock := func() {
		cancel()
		_ = fl.Unlock()
	}

	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if errors.Is(err, context.DeadlineExceeded) || (err == nil && !locked) {
		unlock()
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	if err != nil {
		unlock()
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	return unlock, nil
}
