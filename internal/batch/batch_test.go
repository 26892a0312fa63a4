package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inputs(n int) []int {
	in := make([]int, n)
	for i := range in {
		in[i] = i
	}
	return in
}

// jitter makes later inputs finish first.
func jitter(n int) func(context.Context, int) (string, error) {
	return func(_ context.Context, i int) (string, error) {
		time.Sleep(time.Duration(n-i) * 50 * time.Microsecond)
		return fmt.Sprintf("file-%d", i), nil
	}
}

func TestRun_OrderPreservation(t *testing.T) {
	var got []string
	err := Run(context.Background(), inputs(200), 8, jitter(200), func(r Result[int, string]) error {
		require.NoError(t, r.Err)
		assert.Equal(t, r.Seq, r.Input)
		got = append(got, r.Value)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 200)
	for i, v := range got {
		assert.Equal(t, fmt.Sprintf("file-%d", i), v, "result %d out of order", i)
	}
}

func TestRun_SingleWorker(t *testing.T) {
	res := Collect(context.Background(), inputs(50), 1, jitter(50))
	require.Len(t, res, 50)
	for i, r := range res {
		assert.Equal(t, i, r.Seq)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	count := 0
	err := Run(context.Background(), nil, 4, jitter(0), func(Result[int, string]) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRun_JobErrorsAreIsolated(t *testing.T) {
	boom := errors.New("unreadable")
	res := Collect(context.Background(), inputs(10), 4, func(_ context.Context, i int) (int, error) {
		if i%3 == 0 {
			return 0, boom
		}
		return i * i, nil
	})

	require.Len(t, res, 10)
	for i, r := range res {
		if i%3 == 0 {
			assert.ErrorIs(t, r.Err, boom)
			continue
		}
		assert.NoError(t, r.Err)
		assert.Equal(t, i*i, r.Value)
	}
}

func TestRun_BoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	res := Collect(context.Background(), inputs(40), 3, func(_ context.Context, i int) (int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return i, nil
	})

	assert.Len(t, res, 40)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRun_EmitErrorStops(t *testing.T) {
	count := 0
	err := Run(context.Background(), inputs(100), 4, jitter(100), func(Result[int, string]) error {
		count++
		if count == 5 {
			return fmt.Errorf("stop at 5")
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 5, count)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	res := Collect(ctx, inputs(5), 2, func(context.Context, int) (int, error) {
		calls.Add(1)
		return 0, nil
	})

	require.Len(t, res, 5)
	for _, r := range res {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Zero(t, calls.Load())
}
