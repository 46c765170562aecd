package preflight

import (
	"context"
	"fmt"

	"fieldsync/internal/queue"
)

// QueueProbe reports the current pending upload snapshot for status UIs.
type QueueProbe struct {
	Pending   int
	Exhausted int
	ByType    map[queue.Type]int
}

// ProbeQueue summarizes the queue against the configured retry budget.
func ProbeQueue(ctx context.Context, store *queue.Store, maxRetries int) (QueueProbe, error) {
	if store == nil {
		return QueueProbe{}, fmt.Errorf("upload store unavailable")
	}
	stats, err := store.Stats(ctx, maxRetries)
	if err != nil {
		return QueueProbe{}, err
	}
	return QueueProbe{
		Pending:   stats.Total,
		Exhausted: stats.Exhausted,
		ByType:    stats.ByType,
	}, nil
}

// QueueDetail renders a display-friendly summary.
func (p QueueProbe) QueueDetail() string {
	if p.Pending == 0 {
		return "Queue empty"
	}
	if p.Exhausted > 0 {
		return fmt.Sprintf("%d pending (%d need attention)", p.Pending, p.Exhausted)
	}
	return fmt.Sprintf("%d pending", p.Pending)
}
