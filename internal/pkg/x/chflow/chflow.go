// Package chflow holds context-aware channel helpers shared by the pipeline
// goroutines.
package chflow

import "context"

// Receive blocks until a value arrives on ch or ctx is done.
// ok is false when ctx ended first or ch was closed.
func Receive[T any](ctx context.Context, ch <-chan T) (value T, ok bool) {
	select {
	case <-ctx.Done():
		return value, false
	case value, ok = <-ch:
		return value, ok
	}
}

// Send blocks until value is delivered on ch or ctx is done.
// It reports whether the value was delivered.
func Send[T any](ctx context.Context, ch chan<- T, value T) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- value:
		return true
	}
}
