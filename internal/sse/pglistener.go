package sse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Resolver turns a notification payload into the event data to publish.
type Resolver func(ctx context.Context, payload string) ([]byte, error)

// PGListener subscribes to a PostgreSQL NOTIFY channel and republishes each
// notification on a hub topic, so every instance sharing the database
// streams every assessment.
type PGListener struct {
	pool    *pgxpool.Pool
	hub     *Hub
	channel string
	topic   string
	resolve Resolver
	logger  *slog.Logger
}

// NewPGListener bridges channel notifications to topic on hub. resolve is
// called for each notification.
func NewPGListener(pool *pgxpool.Pool, hub *Hub, channel, topic string, resolve Resolver, logger *slog.Logger) *PGListener {
	return &PGListener{pool: pool, hub: hub, channel: channel, topic: topic, resolve: resolve, logger: logger}
}

// Listen blocks until ctx is cancelled or the connection fails. It should
// run inside RunWithRecovery so it reconnects on failure.
func (pl *PGListener) Listen(ctx context.Context) {
	conn, err := pl.pool.Acquire(ctx)
	if err != nil {
		pl.logger.Error("pg-listen: acquire connection failed", "err", err)
		return
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, fmt.Sprintf("LISTEN %s", pl.channel)); err != nil {
		pl.logger.Error("pg-listen: LISTEN failed", "channel", pl.channel, "err", err)
		return
	}
	pl.logger.Info("pg-listen: subscribed", "channel", pl.channel)

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			pl.logger.Error("pg-listen: notification error", "err", err)
			return
		}
		pl.forward(ctx, notification.Payload)
	}
}

func (pl *PGListener) forward(ctx context.Context, payload string) {
	data, err := pl.resolve(ctx, payload)
	if err != nil {
		pl.logger.Warn("pg-listen: resolve notification failed", "payload", payload, "err", err)
		return
	}
	pl.hub.Publish(pl.topic, Event{Type: "assessment", Data: data})
}
