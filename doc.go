// Package hotseq turns cold, single-pass sequences into hot streams that are
// produced in the background and read by one or more consumers.
//
// A [Source] is a function that pushes values to a callback until it is
// exhausted or the callback returns [Stop]. It runs once, on the goroutine
// that calls it. This package moves that call onto a [Scheduler] and
// connects it to consumers through one of several transports.
//
// # Schedulers
//
// A [Scheduler] submits [Work], returns a [*Task] handle and can join one
// task or a whole batch:
//
//   - [PoolScheduler]: a fixed number of workers sharing a bounded queue.
//     [PoolScheduler.JoinAll] joins in submission order.
//   - [FutureScheduler]: futures over any [Executor], by default an
//     unbounded pool from github.com/sourcegraph/conc that
//     [FutureScheduler.Close] releases. JoinAll awaits the futures in an
//     errgroup that stops waiting as soon as the context ends.
//   - [ThreadScheduler]: one goroutine per submission. JoinAll waits on a
//     latch sized to the batch.
//
// A panic inside work is recovered and returned from [Task.Wait] as a
// [*PanicError]. Every task failure is wrapped in a [*TaskError]; use
// [IsTaskError], [TaskOf], [CauseOf], [FindTaskError] and [AllTaskErrors]
// to inspect it.
//
// # Async Sequences
//
// [ToAsync] wraps a source so that [AsyncSeq.Consume] runs it on a task and
// returns immediately:
//
//	seq := hotseq.ToAsync(sched, hotseq.FromSlice(items))
//	if err := seq.Consume(ctx, handle); err != nil {
//	    return err // hotseq.ErrAlreadyConsumed
//	}
//	err := seq.Join(ctx)
//
// An AsyncSeq is consumed at most once. [AsyncSeq.Cancel] stops the
// producer at the next value it observes and waits for it to finish.
// [ToChannel] is the variant that drains values on the consuming goroutine
// through a single-slot handoff, so the producer is never more than one
// value ahead of the consumer.
//
// # Live Streams
//
// [ToShared] broadcasts a source to any number of subscribers through a
// fixed-capacity ring that overwrites its oldest element when full. Every
// subscriber keeps its own cursor; one that lags more than the capacity
// skips forward to the oldest retained element.
//
// [ToState] keeps only the latest distinct value. Subscribers slower than
// the producer see conflated updates: the newest value, never the same
// value twice in a row, and always the final one.
//
// Both hold their producer task for as long as the source runs, so they
// reject a [*PoolScheduler] with [ErrHotOnPool]. With [WithLazyStart] the
// producer starts on the first subscription, exactly once.
//
// # Cancellation and Interruption
//
// Cancellation is cooperative. Blocking waits accept a [context.Context];
// when it ends the wait returns an error wrapping [ErrInterrupted].
// Exhausting a source is never an error.
//
// # Observability
//
// All constructors accept a *zap.Logger through [WithLogger] or
// [WithSchedulerLogger]. The [github.com/baxromumarov/hotseq/hotmetrics]
// subpackage exports [PoolStats] and [SharedStats] as Prometheus metrics.
package hotseq
