// Package redis dials the cache that backs dues summaries and statement
// status tracking.
package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ConnectionInfo carries the dial settings for the cache server. Timeout
// bounds reads, writes and the startup ping alike.
type ConnectionInfo struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
}

type Client = goredis.Client

// NewRedisConnection opens a client and pings the server before handing it
// out, so a misconfigured cache fails at startup instead of on first use.
func NewRedisConnection(cfg ConnectionInfo) (*Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// Close releases the connection pool. Safe to call with nil.
func Close(c *Client) {
	if c == nil {
		return
	}
	_ = c.Close()
}
