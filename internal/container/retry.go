// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"time"
)

// RetryWithBackoff invokes op up to maxAttempts times, doubling the wait
// between attempts starting from baseBackoff. Engine daemons take a few
// seconds to answer after being started, so callers probe with a short
// base and a handful of attempts.
//
// op reports whether its failure is worth another attempt. A false report
// returns the error as-is; exhausting the attempts returns the last error.
// Cancelling ctx interrupts the wait between attempts.
func RetryWithBackoff(
	ctx context.Context,
	maxAttempts int,
	baseBackoff time.Duration,
	op func(attempt int) (retry bool, err error),
) error {
	delay := baseBackoff
	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-timer.C:
			}
			delay *= 2
		}

		retry, err := op(attempt)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return lastErr
}
