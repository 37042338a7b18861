package health

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// HTTPServiceChecker probes a collaborator's health endpoint.
type HTTPServiceChecker struct {
	name   string
	url    string
	client *http.Client
}

// NewHTTPServiceChecker creates a checker that GETs the given URL.
func NewHTTPServiceChecker(name, url string) *HTTPServiceChecker {
	return &HTTPServiceChecker{name: name, url: url, client: &http.Client{}}
}

func (c *HTTPServiceChecker) Name() string { return c.name }

func (c *HTTPServiceChecker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s returned status %d", c.name, resp.StatusCode)
	}
	return nil
}

// RedisChecker pings the embedding cache.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a Redis ping checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Name() string { return "redis" }

func (c *RedisChecker) Check(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
