// Package telemetry publishes periodic snapshots of the stats block of
// every link's Tx endpoint (Rx endpoint stats are not included) to Redis,
// the same "write device state so other processes
// can consume it" role librescoot-bluetooth-service's pkg/redis plays for
// scooter state — generalized here to console introspection (dashboards,
// post-mortem tooling) rather than the transport's own correctness.
package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/picolemon/picocom16-sub001/topology"
)

// Publisher periodically writes named endpoint snapshots to a Redis hash
// and publishes them on a channel for live subscribers.
type Publisher struct {
	client  *redis.Client
	ctx     context.Context
	key     string
	channel string
	log     *logrus.Entry
}

// NewPublisher connects to addr (e.g. "localhost:6379") and returns a
// Publisher writing to key/channel.
func NewPublisher(addr, password string, db int, key, channel string) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Publisher{
		client:  client,
		ctx:     ctx,
		key:     key,
		channel: channel,
		log:     logrus.WithField("component", "telemetry"),
	}, nil
}

// PublishOnce writes every snapshot from console as one Redis hash
// write plus one channel publish.
func (p *Publisher) PublishOnce(console *topology.Console) error {
	snaps := console.Snapshots()
	encoded, err := json.Marshal(snaps)
	if err != nil {
		return err
	}

	pipe := p.client.Pipeline()
	pipe.HSet(p.ctx, p.key, "snapshots", encoded)
	pipe.Publish(p.ctx, p.channel, encoded)
	_, err = pipe.Exec(p.ctx)
	if err != nil {
		p.log.WithError(err).Warn("telemetry: publish failed")
	}
	return err
}

// Run calls PublishOnce every interval until ctx is done.
func (p *Publisher) Run(ctx context.Context, console *topology.Console, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.PublishOnce(console)
		}
	}
}

// Close closes the underlying Redis client.
func (p *Publisher) Close() error { return p.client.Close() }
