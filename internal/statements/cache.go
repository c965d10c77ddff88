package statements

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "statements:version"
	bumpChannel     = "ledger.bump"
)

// Cache wraps Redis-based statement caching with a global version so a
// single bump after posting invalidates every cached report at once.
// A nil Cache is valid and simply runs the loader every time.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// FetchJSON loads a cached value or populates it using the loader. The
// loader runs directly when no client is configured, so request-scoped
// reports never depend on Redis availability in tests.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("statements: cache loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}

	ver, err := c.Version(ctx)
	if err != nil {
		return err
	}
	versioned := key + ":" + strconv.FormatInt(ver, 10)

	payload, err := c.client.Get(ctx, versioned).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if err != redis.Nil {
		return err
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, versioned, raw, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every cached statement by incrementing the global
// version and publishing the change for other instances.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

func keyBalanceSheet(tenantID uuid.UUID, asOf time.Time) string {
	return strings.Join([]string{"statements", "bs", tenantID.String(), asOf.Format("2006-01-02")}, ":")
}

func keyProfitLoss(tenantID uuid.UUID, from, to time.Time) string {
	return strings.Join([]string{"statements", "pl", tenantID.String(), from.Format("2006-01-02"), to.Format("2006-01-02")}, ":")
}

func keyGrouped(kind string, tenantID uuid.UUID, from, to time.Time) string {
	return strings.Join([]string{"statements", kind, tenantID.String(), from.Format("2006-01-02"), to.Format("2006-01-02")}, ":")
}
