// internal/magnet/wait_test.go
package magnet

import (
	"context"
	"errors"
	"testing"
	"time"
)

func spec(timeout time.Duration) waitSpec {
	return waitSpec{
		Initial:  time.Millisecond,
		Interval: time.Millisecond,
		Timeout:  timeout,
	}
}

func TestWaitWhile_FinishesWhenCondClears(t *testing.T) {
	remaining := 3
	err := waitWhile(context.Background(), spec(time.Second), func() (bool, error) {
		remaining--
		return remaining > 0, nil
	})
	if err != nil {
		t.Fatalf("waitWhile err=%v", err)
	}
	if remaining != 0 {
		t.Fatalf("cond called wrong number of times, remaining=%d", remaining)
	}
}

func TestWaitWhile_Timeout(t *testing.T) {
	err := waitWhile(context.Background(), spec(10*time.Millisecond), func() (bool, error) {
		return true, nil
	})
	if !errors.Is(err, errWaitTimeout) {
		t.Fatalf("expected errWaitTimeout, got %v", err)
	}
}

func TestWaitWhile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waitWhile(ctx, spec(time.Second), func() (bool, error) {
		return true, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitWhile_CondErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	err := waitWhile(context.Background(), spec(time.Second), func() (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected cond error, got %v", err)
	}
}

func TestSleepCtx_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sleepCtx(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
