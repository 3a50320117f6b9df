package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	dErrors "leadgate/pkg/domain-errors"
)

// BurstResult tallies one Burst. Limited counts errors carrying
// dErrors.CodeRateLimited; everything else non-nil lands in Failed, and the
// first of those is kept in FirstErr for assertion messages.
type BurstResult struct {
	Allowed  int32
	Limited  int32
	Failed   int32
	FirstErr error
}

func (r *BurstResult) Total() int32 {
	return r.Allowed + r.Limited + r.Failed
}

// Burst runs fn from n goroutines released at the same instant, so a
// limiter or counter sees the calls as one concurrent burst.
func Burst(ctx context.Context, n int, fn func(ctx context.Context, idx int) error) *BurstResult {
	var (
		wg                      sync.WaitGroup
		allowed, limited, fails atomic.Int32
		once                    sync.Once
		firstErr                error
	)
	start := make(chan struct{})

	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			<-start
			err := fn(ctx, i)
			switch {
			case err == nil:
				allowed.Add(1)
			case dErrors.HasCode(err, dErrors.CodeRateLimited):
				limited.Add(1)
			default:
				fails.Add(1)
				once.Do(func() { firstErr = err })
			}
		}()
	}
	close(start)
	wg.Wait()

	return &BurstResult{
		Allowed:  allowed.Load(),
		Limited:  limited.Load(),
		Failed:   fails.Load(),
		FirstErr: firstErr,
	}
}
