package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dental-dashboard/pkg/retry"
	"dental-dashboard/pkg/sl"

	"github.com/redis/go-redis/v9"
)

var errConnectionLost = errors.New("subscription lost")

// RedisBus publishes and receives push events over a Redis pub/sub channel.
type RedisBus struct {
	client  *redis.Client
	channel string
	retry   retry.Config
	log     *slog.Logger
}

func NewRedisBus(client *redis.Client, channel string, reconnect retry.Config, log *slog.Logger) *RedisBus {
	return &RedisBus{
		client:  client,
		channel: channel,
		retry:   reconnect,
		log:     log.With(slog.String("component", "events.RedisBus"), slog.String("channel", channel)),
	}
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	const op = "events.RedisBus.Publish"

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Run delivers events to handle one at a time, in delivery order, until ctx
// is done. A lost subscription is re-established under the reconnect policy;
// the attempt budget starts over after every successful subscribe. Events
// published while disconnected are not replayed.
func (b *RedisBus) Run(ctx context.Context, handle func(context.Context, Event)) error {
	const op = "events.RedisBus.Run"

	for {
		err := retry.Do(ctx, b.retry, func(attempt int) error {
			subscribed, err := b.listen(ctx, handle)
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", retry.ErrPermanent, ctx.Err())
			}
			if subscribed {
				return fmt.Errorf("%w: %w: %w", retry.ErrPermanent, errConnectionLost, err)
			}
			return err
		}, func(attempt int, err error, next time.Duration) {
			b.log.Warn("subscribe failed, retrying",
				slog.Int("attempt", attempt),
				slog.String("next_delay", next.String()),
				sl.Err(err),
			)
		})

		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, errConnectionLost):
			b.log.Warn("subscription lost, reconnecting", sl.Err(err))
			continue
		default:
			return fmt.Errorf("%s: %w", op, err)
		}
	}
}

func (b *RedisBus) listen(ctx context.Context, handle func(context.Context, Event)) (bool, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}

	b.log.Info("subscribed")

	// ReceiveMessage does not return on cancellation by itself.
	stop := context.AfterFunc(ctx, func() { _ = pubsub.Close() })
	defer stop()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return true, err
		}

		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			b.log.Warn("dropping undecodable event", sl.Err(err))
			continue
		}

		handle(ctx, ev)
	}
}
