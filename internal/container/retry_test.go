// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryWithBackoff_Outcomes(t *testing.T) {
	t.Parallel()

	errTransient := errors.New("daemon not ready")
	errPermanent := errors.New("binary not found")

	tests := []struct {
		name      string
		attempts  int
		op        func(calls *int) func(int) (bool, error)
		wantErr   error
		wantCalls int
	}{
		{
			name:     "immediate success",
			attempts: 3,
			op: func(calls *int) func(int) (bool, error) {
				return func(int) (bool, error) { *calls++; return false, nil }
			},
			wantErr:   nil,
			wantCalls: 1,
		},
		{
			name:     "transient then success",
			attempts: 5,
			op: func(calls *int) func(int) (bool, error) {
				return func(attempt int) (bool, error) {
					*calls++
					if attempt < 2 {
						return true, errTransient
					}
					return false, nil
				}
			},
			wantErr:   nil,
			wantCalls: 3,
		},
		{
			name:     "exhaustion returns last error",
			attempts: 3,
			op: func(calls *int) func(int) (bool, error) {
				return func(int) (bool, error) { *calls++; return true, errTransient }
			},
			wantErr:   errTransient,
			wantCalls: 3,
		},
		{
			name:     "permanent failure stops immediately",
			attempts: 5,
			op: func(calls *int) func(int) (bool, error) {
				return func(int) (bool, error) { *calls++; return false, errPermanent }
			},
			wantErr:   errPermanent,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			err := RetryWithBackoff(context.Background(), tt.attempts, time.Millisecond, tt.op(&calls))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RetryWithBackoff() error = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Fatalf("op called %d times, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoff_CancelInterruptsWait(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryWithBackoff(ctx, 5, time.Hour, func(attempt int) (bool, error) {
		calls++
		cancel()
		return true, errors.New("daemon not ready")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RetryWithBackoff() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("op called %d times, want 1", calls)
	}
}

func TestRetryWithBackoff_DelayDoubles(t *testing.T) {
	t.Parallel()

	start := time.Now()
	_ = RetryWithBackoff(context.Background(), 3, 40*time.Millisecond, func(int) (bool, error) {
		return true, errors.New("daemon not ready")
	})
	// Two waits: 40ms then 80ms.
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("expected at least 100ms of backoff, got %v", elapsed)
	}
}
