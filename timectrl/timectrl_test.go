package timectrl

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTimeControllerSetTime(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start)

	newNow := start.Add(42 * time.Second)
	tc.SetTime(newNow)

	if got := tc.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestTimeControllerSleepAdvancesAndNotifies(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start)

	var seen []time.Time
	tc.AddListener(func(now time.Time) { seen = append(seen, now) })

	if err := tc.Sleep(context.Background(), 15*time.Second); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if err := tc.Sleep(context.Background(), 15*time.Second); err != nil {
		t.Fatalf("Sleep: %v", err)
	}

	expected := start.Add(30 * time.Second)
	if got := tc.Now(); !got.Equal(expected) {
		t.Fatalf("Now() = %v, want %v", got, expected)
	}
	if len(seen) != 2 || !seen[1].Equal(expected) {
		t.Fatalf("listener saw %v, want two ticks ending at %v", seen, expected)
	}
}

func TestTimeControllerSleepCancelled(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tc.Sleep(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep error = %v, want context.Canceled", err)
	}
	if got := tc.Now(); !got.Equal(start) {
		t.Fatalf("cancelled Sleep moved time to %v", got)
	}
}

func TestRealClockSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Real().Sleep(ctx, time.Hour)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Sleep error = %v, want context.DeadlineExceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("Sleep did not return promptly on cancellation")
	}
}

func TestRealClockSleepElapses(t *testing.T) {
	start := time.Now()
	if err := Real().Sleep(context.Background(), 5*time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Fatalf("Sleep returned before the duration elapsed")
	}
}
