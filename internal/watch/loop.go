package watch

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Run calls sync once per burst of events: each event restarts a debounce
// timer and sync runs when the timer fires. sync is never called
// concurrently with itself. Run returns when ctx is done or events closes.
func Run(ctx context.Context, events <-chan Event, clock clockwork.Clock, debounce time.Duration, sync func(context.Context)) {
	var timer clockwork.Timer
	var fire <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case _, ok := <-events:
			if !ok {
				return
			}
			if timer != nil {
				timer.Stop()
			}
			timer = clock.NewTimer(debounce)
			fire = timer.Chan()

		case <-fire:
			timer = nil
			fire = nil
			sync(ctx)
		}
	}
}
