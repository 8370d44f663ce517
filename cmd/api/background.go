package main

import (
	"context"
	"time"
)

// prunePushTokens drops device tokens that have not been refreshed within
// staleAfter, once at start and then every interval until ctx is done.
func (app *application) prunePushTokens(ctx context.Context, every, staleAfter time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			n, err := app.store.Repos().PushTokens.PruneStale(ctx, staleAfter)
			if err != nil {
				app.logger.Errorw("pruning push tokens", "error", err)
			} else if n > 0 {
				app.logger.Infow("pruned stale push tokens", "removed", n)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return done
}
