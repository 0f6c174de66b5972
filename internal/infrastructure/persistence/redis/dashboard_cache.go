package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/neuroclass/neuroclass-hub/internal/application/query"
)

// DashboardCache is the Redis implementation of query.DashboardCache.
// Entries are invalidated when a block is finished and expire after
// TTLDashboard as a fallback.
type DashboardCache struct {
	client *redis.Client
}

// NewDashboardCache creates a new DashboardCache.
func NewDashboardCache(client *redis.Client) *DashboardCache {
	return &DashboardCache{client: client}
}

func dashboardKey(studentID string) string {
	return PrefixDashboard + studentID
}

// Get returns the cached dashboard for a student, if present.
func (c *DashboardCache) Get(ctx context.Context, studentID string) (*query.Dashboard, bool) {
	data, err := c.client.Get(ctx, dashboardKey(studentID)).Bytes()
	if err != nil {
		return nil, false
	}
	var d query.Dashboard
	if err := json.Unmarshal(data, &d); err != nil {
		// Corrupt entry: drop it and fall through to the repository.
		_ = c.client.Del(ctx, dashboardKey(studentID)).Err()
		return nil, false
	}
	return &d, true
}

// Set stores a dashboard for a student.
func (c *DashboardCache) Set(ctx context.Context, studentID string, d *query.Dashboard) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("dashboard_cache: marshal: %w", err)
	}
	if err := c.client.Set(ctx, dashboardKey(studentID), data, TTLDashboard).Err(); err != nil {
		return fmt.Errorf("dashboard_cache: set: %w", err)
	}
	return nil
}

// Invalidate drops the cached dashboard for a student.
func (c *DashboardCache) Invalidate(ctx context.Context, studentID string) error {
	err := c.client.Del(ctx, dashboardKey(studentID)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("dashboard_cache: invalidate: %w", err)
	}
	return nil
}
