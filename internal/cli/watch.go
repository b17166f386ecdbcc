package cli

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/twolc/pkg/ports"
)

// settle is how long the watcher waits for a burst of changes to end.
const settle = 100 * time.Millisecond

// CompileFunc compiles one grammar by ID.
type CompileFunc func(ctx context.Context, id string) error

// RunWatch recompiles every grammar that changes until ctx is done.
// Changes arriving within the settle window are batched; each grammar in a
// batch is compiled once. Compile failures are reported and watching goes on.
func RunWatch(ctx context.Context, w ports.Watchable, compile CompileFunc, out io.Writer, logger *slog.Logger) error {
	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	PrintSystemMessage(out, "Watching for changes...")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping watcher")
			return nil
		case id, ok := <-events:
			if !ok {
				return nil
			}
			batch := map[string]bool{id: true}
			open := collect(ctx, events, batch)
			runBatch(ctx, batch, compile, out, logger)
			if !open {
				return nil
			}
		}
	}
}

// collect drains events into batch until the settle window passes quietly.
// It reports whether the channel is still open.
func collect(ctx context.Context, events <-chan string, batch map[string]bool) bool {
	timer := time.NewTimer(settle)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return true
		case <-timer.C:
			return true
		case id, ok := <-events:
			if !ok {
				return false
			}
			batch[id] = true
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(settle)
		}
	}
}

func runBatch(ctx context.Context, batch map[string]bool, compile CompileFunc, out io.Writer, logger *slog.Logger) {
	ids := make([]string, 0, len(batch))
	for id := range batch {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		logger.Info("Change detected, recompiling", "grammar", id)
		if err := compile(ctx, id); err != nil {
			PrintSystemMessage(out, "'%s' failed: %v", id, err)
			continue
		}
		PrintSystemMessage(out, "'%s' compiled.", id)
	}
}
