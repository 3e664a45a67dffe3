// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBrokerOptions configures the Redis broker.
type RedisBrokerOptions struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// Prefix is prepended to the pub/sub channel name (e.g., "studio:")
	Prefix string

	// ConnectTimeout is the timeout for establishing a connection
	ConnectTimeout time.Duration
}

// RedisBroker relays mutations through Redis pub/sub so that every server
// process sharing the database observes every write. Delivery to local
// subscribers happens when the message comes back from Redis.
type RedisBroker struct {
	client  *redis.Client
	pubsub  *redis.PubSub
	channel string
	local   *LocalBroker
	logger  *slog.Logger
	done    chan struct{}
}

// NewRedisBroker connects to Redis and starts relaying mutations.
func NewRedisBroker(ctx context.Context, opts RedisBrokerOptions, logger *slog.Logger) (*RedisBroker, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	if opts.ConnectTimeout > 0 {
		redisOpts.DialTimeout = opts.ConnectTimeout
	}

	return NewRedisBrokerWithClient(ctx, redis.NewClient(redisOpts), opts.Prefix, logger)
}

// NewRedisBrokerWithClient starts relaying mutations over an existing client.
// The broker takes ownership of the client.
func NewRedisBrokerWithClient(ctx context.Context, client *redis.Client, prefix string, logger *slog.Logger) (*RedisBroker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	channel := prefix + "changes"
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		_ = client.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", channel, err)
	}

	b := &RedisBroker{
		client:  client,
		pubsub:  pubsub,
		channel: channel,
		local:   NewLocalBroker(),
		logger:  logger,
		done:    make(chan struct{}),
	}
	go b.relay(pubsub.Channel())
	return b, nil
}

func (b *RedisBroker) relay(messages <-chan *redis.Message) {
	defer close(b.done)
	for msg := range messages {
		var m Mutation
		if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
			b.logger.Warn("discarding malformed change message", "channel", msg.Channel, "error", err)
			continue
		}
		b.local.dispatch(m)
	}
}

// Publish sends m to every process subscribed to the channel, this one included.
func (b *RedisBroker) Publish(ctx context.Context, m Mutation) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding mutation: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing mutation: %w", err)
	}
	return nil
}

// Subscribe registers a local subscriber for collection.
func (b *RedisBroker) Subscribe(collection string) (<-chan Mutation, func()) {
	return b.local.Subscribe(collection)
}

// Close unsubscribes from Redis and closes local subscribers.
func (b *RedisBroker) Close() error {
	err := b.pubsub.Close()
	<-b.done
	_ = b.local.Close()
	if cerr := b.client.Close(); err == nil {
		err = cerr
	}
	return err
}
