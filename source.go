package hotseq

import (
	"context"
	"iter"
)

// Signal tells a [Source] whether to keep pushing values.
type Signal int

const (
	// Continue asks the source for the next value.
	Continue Signal = iota

	// Stop asks the source to return without pushing anything else.
	// Stopping is not an error.
	Stop
)

// Source is a cold, single-pass sequence. Calling it drives the sequence,
// pushing every value to yield on the calling goroutine until the sequence is
// exhausted or yield returns [Stop].
//
// A Source may be infinite. It must return promptly once yield returns Stop.
type Source[T any] func(yield func(T) Signal)

// Producer is anything that can hand out a cold [Source]. Both [Source] and
// [*AsyncSeq] implement it; an AsyncSeq returns its unwrapped root source so
// chained async operators never nest schedulers.
type Producer[T any] interface {
	Source() Source[T]
}

// Source returns s itself.
func (s Source[T]) Source() Source[T] { return s }

// Seq adapts s to a range-over-func iterator.
func (s Source[T]) Seq() iter.Seq[T] {
	return func(yield func(T) bool) {
		s(func(v T) Signal {
			if !yield(v) {
				return Stop
			}
			return Continue
		})
	}
}

// FromSlice returns a Source that pushes the items of a slice in order.
func FromSlice[T any](items []T) Source[T] {
	return func(yield func(T) Signal) {
		for _, v := range items {
			if yield(v) == Stop {
				return
			}
		}
	}
}

// FromSeq adapts a range-over-func iterator.
func FromSeq[T any](seq iter.Seq[T]) Source[T] {
	return func(yield func(T) Signal) {
		for v := range seq {
			if yield(v) == Stop {
				return
			}
		}
	}
}

// FromChan returns a Source that pushes values received from ch until ch is
// closed or ctx is done.
func FromChan[T any](ctx context.Context, ch <-chan T) Source[T] {
	return func(yield func(T) Signal) {
		for {
			select {
			case v, ok := <-ch:
				if !ok {
					return
				}
				if yield(v) == Stop {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

// Generate returns an infinite Source of next(0), next(1), ...
// It only ends when the consumer stops it.
func Generate[T any](next func(i int) T) Source[T] {
	if next == nil {
		panic("hotseq: Generate requires non-nil function")
	}
	return func(yield func(T) Signal) {
		for i := 0; ; i++ {
			if yield(next(i)) == Stop {
				return
			}
		}
	}
}

// Transform returns a Source that applies fn to every value of src.
func Transform[T, R any](src Source[T], fn func(T) R) Source[R] {
	return func(yield func(R) Signal) {
		src(func(v T) Signal {
			return yield(fn(v))
		})
	}
}

// Filter returns a Source that only pushes values for which fn returns true.
func (s Source[T]) Filter(fn func(T) bool) Source[T] {
	return func(yield func(T) Signal) {
		s(func(v T) Signal {
			if !fn(v) {
				return Continue
			}
			return yield(v)
		})
	}
}

// Take returns a Source that stops s after at most n values.
// Non-positive n yields nothing and never drives s.
func (s Source[T]) Take(n int) Source[T] {
	return func(yield func(T) Signal) {
		if n <= 0 {
			return
		}
		taken := 0
		s(func(v T) Signal {
			taken++
			if yield(v) == Stop || taken >= n {
				return Stop
			}
			return Continue
		})
	}
}

// Drive pushes every value of p to fn.
func Drive[T any](p Producer[T], fn func(T)) {
	p.Source()(func(v T) Signal {
		fn(v)
		return Continue
	})
}

// DriveCancellable pushes values of p to fn until fn returns [Stop].
func DriveCancellable[T any](p Producer[T], fn func(T) Signal) {
	p.Source()(fn)
}

// Collect drives p and returns every value it pushed.
func Collect[T any](p Producer[T]) []T {
	var out []T
	Drive(p, func(v T) { out = append(out, v) })
	return out
}
