package hotseq

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestToAsyncDeliversAll(t *testing.T) {
	for name, mk := range allBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := testCtx(t)
			seq := ToAsync(mk(t), FromSlice(rangeInts(1, 100)), WithLogger(zaptest.NewLogger(t)))

			var rec recorder[int]
			require.NoError(t, seq.Consume(ctx, rec.add))
			require.NoError(t, seq.Join(ctx))
			assert.Equal(t, rangeInts(1, 100), rec.values())
		})
	}
}

func TestToAsyncConsumeReturnsImmediately(t *testing.T) {
	ctx := testCtx(t)
	release := make(chan struct{})
	src := Source[int](func(yield func(int) Signal) {
		<-release
		yield(1)
	})

	seq := ToAsync(NewThreadScheduler(), src)
	var rec recorder[int]
	require.NoError(t, seq.Consume(ctx, rec.add))
	assert.Zero(t, rec.len(), "Consume must not wait for the producer")
	require.NotNil(t, seq.Task())

	close(release)
	require.NoError(t, seq.Join(ctx))
	assert.Equal(t, []int{1}, rec.values())
}

func TestAsyncConsumeTwiceFails(t *testing.T) {
	ctx := testCtx(t)
	var runs atomic.Int32
	src := Source[int](func(yield func(int) Signal) {
		runs.Add(1)
		yield(1)
	})

	seq := ToAsync(NewThreadScheduler(), src)
	require.NoError(t, seq.Consume(ctx, func(int) {}))
	require.ErrorIs(t, seq.Consume(ctx, func(int) {}), ErrAlreadyConsumed)
	require.NoError(t, seq.Join(ctx))
	assert.Equal(t, int32(1), runs.Load(), "the producer must never run twice")
}

func TestAsyncConsumeTwiceRace(t *testing.T) {
	ctx := testCtx(t)
	seq := ToAsync(NewThreadScheduler(), FromSlice([]int{1, 2, 3}))

	const callers = 16
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		failures  atomic.Int32
	)
	for range callers {
		wg.Go(func() {
			if err := seq.Consume(ctx, func(int) {}); err != nil {
				assert.ErrorIs(t, err, ErrAlreadyConsumed)
				failures.Add(1)
				return
			}
			successes.Add(1)
		})
	}
	wg.Wait()
	require.NoError(t, seq.Join(ctx))
	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(callers-1), failures.Load())
}

func TestAsyncCancelStopsDelivery(t *testing.T) {
	for name, mk := range hotBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := testCtx(t)
			seq := ToAsync(mk(t), Generate(func(i int) int { return i }))

			var rec recorder[int]
			require.NoError(t, seq.Consume(ctx, rec.add))
			require.Eventually(t, func() bool { return rec.len() >= 10 }, time.Second, time.Millisecond)

			require.NoError(t, seq.Cancel(ctx))
			assert.True(t, seq.Cancelled())
			n := rec.len()

			time.Sleep(10 * time.Millisecond)
			assert.Equal(t, n, rec.len(), "nothing is delivered after Cancel returns")

			got := rec.values()
			assert.Equal(t, rangeInts(0, len(got)-1), got, "delivered values are an unbroken prefix")
		})
	}
}

func TestAsyncCancelCompletesInFlightValue(t *testing.T) {
	ctx := testCtx(t)
	seq := ToAsync(NewThreadScheduler(), Generate(func(i int) int { return i }))

	entered := make(chan struct{})
	release := make(chan struct{})
	var rec recorder[int]
	require.NoError(t, seq.Consume(ctx, func(v int) {
		if v == 0 {
			close(entered)
			<-release
		}
		rec.add(v)
	}))

	<-entered
	cancelled := make(chan error, 1)
	go func() { cancelled <- seq.Cancel(ctx) }()

	select {
	case <-cancelled:
		t.Fatal("Cancel returned while a value was still being delivered")
	case <-time.After(10 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-cancelled)
	assert.Equal(t, []int{0}, rec.values())
}

func TestAsyncCancelBeforeConsume(t *testing.T) {
	ctx := testCtx(t)
	seq := ToAsync(NewThreadScheduler(), FromSlice([]int{1, 2, 3}))
	require.NoError(t, seq.Cancel(ctx), "cancelling an unconsumed sequence is a no-op join")

	var rec recorder[int]
	require.NoError(t, seq.Consume(ctx, rec.add))
	require.NoError(t, seq.Join(ctx))
	assert.Empty(t, rec.values())
}

func TestAsyncProducerPanicSurfacesOnJoin(t *testing.T) {
	ctx := testCtx(t)
	src := Source[int](func(yield func(int) Signal) {
		yield(1)
		panic("source broke")
	})
	seq := ToAsync(NewThreadScheduler(), src)
	require.NoError(t, seq.Consume(ctx, func(int) {}))

	err := seq.Join(ctx)
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "source broke", pe.Value)
}

func TestAsyncOnStartOnCompletion(t *testing.T) {
	ctx := testCtx(t)
	var (
		mu    sync.Mutex
		order []string
	)
	note := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	release := make(chan struct{})
	src := Source[int](func(yield func(int) Signal) {
		<-release
		yield(1)
	})
	base := ToAsync(NewThreadScheduler(), src)
	seq := base.
		OnStart(func() { note("start") }).
		OnCompletion(func() { note("completion") })

	require.NoError(t, seq.Consume(ctx, func(int) { note("value") }))
	close(release)
	require.NoError(t, seq.Join(ctx))

	assert.Equal(t, []string{"start", "completion", "value"}, order,
		"OnCompletion runs when Consume returns, before the producer delivers")

	require.ErrorIs(t, base.Consume(ctx, func(int) {}), ErrAlreadyConsumed,
		"derived sequences share the single consumption")
}

func TestAsyncOnCompletionWithChannel(t *testing.T) {
	ctx := testCtx(t)
	var (
		rec  recorder[int]
		done atomic.Bool
	)
	seq := ToChannel(NewThreadScheduler(), FromSlice([]int{1, 2, 3})).
		OnCompletion(func() {
			done.Store(true)
			assert.Equal(t, []int{1, 2, 3}, rec.values(), "channel consume returns after draining")
		})

	require.NoError(t, seq.Consume(ctx, rec.add))
	assert.True(t, done.Load())
}

func TestAsyncMap(t *testing.T) {
	ctx := testCtx(t)
	base := ToAsync(newFuture(t), FromSlice([]int{1, 2, 3}))
	mapped := Map(base, strconv.Itoa)

	var rec recorder[string]
	require.NoError(t, mapped.Consume(ctx, rec.add))
	require.NoError(t, mapped.Join(ctx))
	assert.Equal(t, []string{"1", "2", "3"}, rec.values())
	assert.Same(t, base.Scheduler(), mapped.Scheduler())

	assert.Equal(t, []string{"1", "2", "3"}, Collect(mapped.Source()),
		"the mapped root source applies the transform when driven directly")
	assert.Equal(t, []int{1, 2, 3}, Collect(base.Source()), "the root source is untouched")
}

func TestAsyncMapCancelSharesState(t *testing.T) {
	ctx := testCtx(t)
	base := ToAsync(NewThreadScheduler(), Generate(func(i int) int { return i }))
	mapped := Map(base, func(v int) int { return -v })

	var rec recorder[int]
	require.NoError(t, mapped.Consume(ctx, rec.add))
	require.Eventually(t, func() bool { return rec.len() > 0 }, time.Second, time.Millisecond)

	require.NoError(t, base.Cancel(ctx), "cancelling the base cancels what was derived from it")
	assert.True(t, mapped.Cancelled())
	require.NoError(t, mapped.Join(ctx))
}

func TestToAsyncUnwrapsAsyncSource(t *testing.T) {
	ctx := testCtx(t)
	inner := ToAsync(newFuture(t), FromSlice([]int{1, 2}))
	outer := ToAsync(NewThreadScheduler(), inner)

	var rec recorder[int]
	require.NoError(t, outer.Consume(ctx, rec.add))
	require.NoError(t, outer.Join(ctx))
	assert.Equal(t, []int{1, 2}, rec.values())
	assert.Nil(t, inner.Task(), "the inner async wrapper is bypassed, not consumed")
	require.NoError(t, inner.Consume(ctx, func(int) {}))
}

func TestToChannelDrainsInOrderOnCaller(t *testing.T) {
	for name, mk := range allBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := testCtx(t)
			seq := ToChannel(mk(t), FromSlice(rangeInts(1, 500)))

			var got []int
			require.NoError(t, seq.Consume(ctx, func(v int) { got = append(got, v) }))
			assert.Equal(t, rangeInts(1, 500), got)
			require.NoError(t, seq.Join(ctx))
		})
	}
}

func TestToChannelCancel(t *testing.T) {
	ctx := testCtx(t)
	seq := ToChannel(NewThreadScheduler(), Generate(func(i int) int { return i }))

	var (
		rec      recorder[int]
		consumed = make(chan error, 1)
	)
	go func() {
		consumed <- seq.Consume(ctx, rec.add)
	}()

	require.Eventually(t, func() bool { return rec.len() >= 5 }, time.Second, time.Millisecond)
	require.NoError(t, seq.Cancel(ctx))
	require.NoError(t, <-consumed, "the drain loop ends once the producer closes")

	got := rec.values()
	assert.Equal(t, rangeInts(0, len(got)-1), got)
}

func TestToChannelInterrupted(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	src := Source[int](func(yield func(int) Signal) {
		yield(1)
		<-release
	})
	seq := ToChannel(NewThreadScheduler(), src)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var rec recorder[int]
	err := seq.Consume(ctx, rec.add)
	require.ErrorIs(t, err, ErrInterrupted)
	assert.True(t, seq.Cancelled(), "an interrupted drain cancels the producer")
	assert.Equal(t, []int{1}, rec.values())
}

func TestAsyncPanicsOnMisuse(t *testing.T) {
	mustPanic(t, "ToAsync requires non-nil scheduler", func() {
		ToAsync[int](nil, FromSlice([]int{1}))
	})
	mustPanic(t, "Consume requires non-nil callback", func() {
		_ = ToAsync(NewThreadScheduler(), FromSlice([]int{1})).Consume(context.Background(), nil)
	})
	mustPanic(t, "Map requires non-nil function", func() {
		Map[int, int](ToAsync(NewThreadScheduler(), FromSlice([]int{1})), nil)
	})
}

func TestToChannelProducerWaitsForConsumer(t *testing.T) {
	ctx := testCtx(t)
	var generated atomic.Int64
	src := Generate(func(i int) int {
		generated.Store(int64(i + 1))
		return i
	}).Take(100)

	var maxAhead int64
	err := ToChannel(NewThreadScheduler(), src).Consume(ctx, func(v int) {
		// One value may wait in the slot and one more be blocked on offer.
		if ahead := generated.Load() - int64(v+1); ahead > maxAhead {
			maxAhead = ahead
		}
		time.Sleep(100 * time.Microsecond)
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, maxAhead, int64(2), "the handoff never buffers ahead of the consumer")
}

func TestToChannelInterruptedWithInfiniteSource(t *testing.T) {
	seq := ToChannel(NewThreadScheduler(), Generate(func(i int) int { return i }))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- seq.Consume(ctx, func(int) { time.Sleep(time.Millisecond) })
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrInterrupted)
	case <-time.After(time.Second):
		t.Fatal("Consume ignored the deadline while values kept arriving")
	}
	require.NoError(t, seq.Join(testCtx(t)), "the producer stops once the consumer is gone")
}
