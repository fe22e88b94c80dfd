package planner

import (
	"context"
	"sync"
	"time"
)

// ProgressInterval is how often the status message changes while a plan is
// being prepared.
const ProgressInterval = 600 * time.Millisecond

// StatusMessages cycle while a plan is being prepared.
var StatusMessages = []string{
	"Analyse rapide...",
	"Création du menu...",
	"Adaptation diététique...",
	"Estimation des prix...",
	"Calcul des calories...",
}

// Progress reports the first status message right away, then the next one
// every interval, wrapping around, until ctx is done or stop is called.
// report is never called after stop returns.
func Progress(ctx context.Context, interval time.Duration, report func(msg string)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		i := 0
		report(StatusMessages[i])
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				i = (i + 1) % len(StatusMessages)
				report(StatusMessages[i])
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}
