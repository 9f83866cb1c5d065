// Package fleetstatus broadcasts a periodic JSON snapshot of this
// replica's self-metrics (completion pool occupancy, drop counters) over
// Redis PUBLISH, so a fleet-wide dashboard can watch every replica's
// tracer health without each one exposing its own scrape endpoint.
//
// Grounded on the teacher's Redis retention store: same go-redis/v9 client,
// same lenient "log and swallow" error policy, same fire-and-forget write
// discipline — but publish-only, since fleet status has no replay
// requirement and therefore no list/TTL bookkeeping to maintain.
package fleetstatus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xet7/tigerbeetle/internal/logging"
	"github.com/xet7/tigerbeetle/internal/selfmetrics"
)

// Publisher periodically publishes a selfmetrics.Snapshot to a Redis
// channel.
type Publisher struct {
	cli     *redis.Client
	channel string
	replica uint8
}

// NewPublisher returns a Publisher bound to channel on cli.
func NewPublisher(cli *redis.Client, channel string, replica uint8) *Publisher {
	return &Publisher{cli: cli, channel: channel, replica: replica}
}

// message is the wire shape published to the fleet-status channel.
type message struct {
	Replica  uint8                `json:"replica"`
	Snapshot selfmetrics.Snapshot `json:"snapshot"`
}

// Publish sends one snapshot. Write errors are logged and swallowed — a
// missed fleet-status update is not worth disrupting the host replica over.
func (p *Publisher) Publish(ctx context.Context, snap selfmetrics.Snapshot) {
	data, err := json.Marshal(message{Replica: p.replica, Snapshot: snap})
	if err != nil {
		logging.Logger().Warn("fleetstatus: marshal failed", zap.Error(err))
		return
	}
	if err := p.cli.Publish(ctx, p.channel, data).Err(); err != nil {
		logging.Logger().Warn("fleetstatus: publish failed", zap.Error(err))
	}
}

// Run publishes snap() on every tick until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context, interval time.Duration, snap func() selfmetrics.Snapshot) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Publish(ctx, snap())
		}
	}
}
