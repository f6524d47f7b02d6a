package guest

import (
	"context"
	"log/slog"
	"time"
)

const DefaultSyncInterval = 5 * time.Minute

// StartSync runs SynchronizeGuestState every interval until ctx is done, and
// once more on the way out to mirror a page-exit sync. It never blocks the
// caller and never surfaces a failure.
func (m *Manager) StartSync(ctx context.Context, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !m.SynchronizeGuestState(ctx) {
					slog.Debug("guest sync skipped, no guest identity")
				}
			case <-ctx.Done():
				m.SynchronizeGuestState(context.Background())
				return
			}
		}
	}()
	return stopped
}
