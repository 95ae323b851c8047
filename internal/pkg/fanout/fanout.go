// Package fanout runs one operation across a list of independent items,
// producing exactly one result per item. A failing item records its error
// and never aborts its siblings.
package fanout

import (
	"context"
	"sync"
)

// maxInFlight caps concurrent provider calls issued by a single
// multi-item tool invocation.
const maxInFlight = 4

// Result pairs an item's output with the error that produced it, if any.
type Result[O any] struct {
	Value O
	Err   error
}

// Run applies fn to every item and returns results positionally aligned
// with items, regardless of completion order. Items run concurrently up
// to maxInFlight. When ctx is cancelled, items not yet started report the
// context error; every slot is always filled.
func Run[I, O any](ctx context.Context, items []I, fn func(context.Context, I) (O, error)) []Result[O] {
	results := make([]Result[O], len(items))
	sem := make(chan struct{}, maxInFlight)
	var wg sync.WaitGroup
	for i := range items {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = Result[O]{Err: ctx.Err()}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			v, err := fn(ctx, items[i])
			results[i] = Result[O]{Value: v, Err: err}
		}()
	}
	wg.Wait()
	return results
}
