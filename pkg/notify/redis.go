package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/hdlviz/pkg/cache"
)

// DefaultChannel is the Redis channel events are published on.
const DefaultChannel = "hdlviz:events"

// Redis is a [Notifier] backed by Redis pub/sub.
type Redis struct {
	client  *redis.Client
	channel string

	mu     sync.Mutex
	subs   map[*redis.PubSub]struct{}
	closed bool
}

// NewRedis connects to addr and verifies the connection with PING, retrying
// transient failures. An empty channel uses [DefaultChannel].
func NewRedis(ctx context.Context, addr, channel string) (*Redis, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	err := cache.RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return &Redis{client: client, channel: channel, subs: make(map[*redis.PubSub]struct{})}, nil
}

// Channel returns the pub/sub channel name.
func (r *Redis) Channel() string { return r.channel }

// Publish encodes e as JSON and publishes it.
func (r *Redis) Publish(ctx context.Context, e Event) error {
	if r.isClosed() {
		return ErrClosed
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Subscribe opens a pub/sub subscription and decodes its messages.
// Messages that are not valid events are skipped.
func (r *Redis) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	if r.isClosed() {
		return nil, nil, ErrClosed
	}
	ps := r.client.Subscribe(ctx, r.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	r.mu.Lock()
	r.subs[ps] = struct{}{}
	r.mu.Unlock()

	out := make(chan Event, subscriberBuffer)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				continue
			}
			select {
			case <-done:
				return
			default:
			}
			deliver(out, e)
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			r.mu.Lock()
			delete(r.subs, ps)
			r.mu.Unlock()
			_ = ps.Close()
		})
	}
	context.AfterFunc(ctx, cancel)
	return out, cancel, nil
}

// Subscribers counts the subscriptions on the channel across all clients.
func (r *Redis) Subscribers(ctx context.Context) (int, error) {
	counts, err := r.client.PubSubNumSub(ctx, r.channel).Result()
	if err != nil {
		return 0, err
	}
	return int(counts[r.channel]), nil
}

// Close ends every subscription opened here and closes the client.
func (r *Redis) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for ps := range subs {
		_ = ps.Close()
	}
	return r.client.Close()
}

func (r *Redis) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Ensure Redis implements Notifier.
var _ Notifier = (*Redis)(nil)
