package local

import (
	"context"
	"fmt"
)

// Awaitable is a deferred computation returned by a suspending tool.
// Await runs it and blocks until it resolves or ctx ends.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// Future is an Awaitable wrapping a function. The function does not start
// until Await is called and then runs on its own goroutine.
type Future[T any] struct {
	fn func(ctx context.Context) (T, error)
}

// Suspend wraps fn as a Future.
func Suspend[T any](fn func(ctx context.Context) (T, error)) *Future[T] {
	return &Future[T]{fn: fn}
}

type outcome[T any] struct {
	val T
	err error
}

// Await starts the wrapped function and waits for it. When ctx ends first
// Await returns ctx.Err(); the function is expected to observe the same
// context and return on its own.
func (f *Future[T]) Await(ctx context.Context) (any, error) {
	done := make(chan outcome[T], 1)
	go func() {
		var o outcome[T]
		defer func() {
			if r := recover(); r != nil {
				o.err = fmt.Errorf("panic: %v", r)
			}
			done <- o
		}()
		o.val, o.err = f.fn(ctx)
	}()
	select {
	case o := <-done:
		if o.err != nil {
			return nil, o.err
		}
		return o.val, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
