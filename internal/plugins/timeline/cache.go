package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache key layout. A per-saga generation counter versions every cached
// read: writes INCR the counter, orphaning the previous generation's data
// keys, which then age out via TTL. The counter itself never expires.
const (
	genKeyFmt  = "timeline:gen:%s"
	listKeyFmt = "timeline:%s:%d:list:%s"
	spanKeyFmt = "timeline:%s:%d:span"
)

// cachedList is the stored shape of a list query result. Events are cached
// without canon dates; those are regenerated per request.
type cachedList struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
}

// cachedSpan is the stored shape of the span aggregate.
type cachedSpan struct {
	Min   int64 `json:"min"`
	Max   int64 `json:"max"`
	Count int   `json:"count"`
}

// Cache serves timeline read queries from Redis. Every method degrades to a
// miss on Redis failure; callers fall through to the database.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache creates a timeline cache. Data keys expire after ttl.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Invalidate bumps the saga's generation counter, orphaning all cached
// reads for it.
func (c *Cache) Invalidate(ctx context.Context, sagaID string) {
	if err := c.rdb.Incr(ctx, fmt.Sprintf(genKeyFmt, sagaID)).Err(); err != nil {
		slog.Warn("timeline cache invalidation failed",
			slog.String("saga_id", sagaID),
			slog.Any("error", err),
		)
	}
}

// GetList returns a cached list result, or ok=false on miss.
func (c *Cache) GetList(ctx context.Context, sagaID string, filter EventFilter) ([]Event, int, bool) {
	key, ok := c.listKey(ctx, sagaID, filter)
	if !ok {
		return nil, 0, false
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, 0, false
	}
	if err != nil {
		c.warnRead(sagaID, err)
		return nil, 0, false
	}

	var entry cachedList
	if err := json.Unmarshal(data, &entry); err != nil {
		c.warnRead(sagaID, err)
		return nil, 0, false
	}
	return entry.Events, entry.Total, true
}

// SetList stores a list result under the saga's current generation.
func (c *Cache) SetList(ctx context.Context, sagaID string, filter EventFilter, events []Event, total int) {
	key, ok := c.listKey(ctx, sagaID, filter)
	if !ok {
		return
	}

	data, err := json.Marshal(cachedList{Events: events, Total: total})
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.warnWrite(sagaID, err)
	}
}

// GetSpan returns the cached span aggregate, or ok=false on miss.
func (c *Cache) GetSpan(ctx context.Context, sagaID string) (min, max int64, count int, ok bool) {
	gen, err := c.generation(ctx, sagaID)
	if err != nil {
		c.warnRead(sagaID, err)
		return 0, 0, 0, false
	}

	data, err := c.rdb.Get(ctx, fmt.Sprintf(spanKeyFmt, sagaID, gen)).Bytes()
	if err == redis.Nil {
		return 0, 0, 0, false
	}
	if err != nil {
		c.warnRead(sagaID, err)
		return 0, 0, 0, false
	}

	var entry cachedSpan
	if err := json.Unmarshal(data, &entry); err != nil {
		c.warnRead(sagaID, err)
		return 0, 0, 0, false
	}
	return entry.Min, entry.Max, entry.Count, true
}

// SetSpan stores the span aggregate under the saga's current generation.
func (c *Cache) SetSpan(ctx context.Context, sagaID string, min, max int64, count int) {
	gen, err := c.generation(ctx, sagaID)
	if err != nil {
		c.warnRead(sagaID, err)
		return
	}

	data, err := json.Marshal(cachedSpan{Min: min, Max: max, Count: count})
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, fmt.Sprintf(spanKeyFmt, sagaID, gen), data, c.ttl).Err(); err != nil {
		c.warnWrite(sagaID, err)
	}
}

// generation reads the saga's current generation. A missing counter is
// generation zero.
func (c *Cache) generation(ctx context.Context, sagaID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, fmt.Sprintf(genKeyFmt, sagaID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// listKey builds the full cache key for a list query, or ok=false when the
// generation cannot be read.
func (c *Cache) listKey(ctx context.Context, sagaID string, filter EventFilter) (string, bool) {
	gen, err := c.generation(ctx, sagaID)
	if err != nil {
		c.warnRead(sagaID, err)
		return "", false
	}
	return fmt.Sprintf(listKeyFmt, sagaID, gen, filter.fingerprint()), true
}

func (c *Cache) warnRead(sagaID string, err error) {
	slog.Warn("timeline cache read failed",
		slog.String("saga_id", sagaID),
		slog.Any("error", err),
	)
}

func (c *Cache) warnWrite(sagaID string, err error) {
	slog.Warn("timeline cache write failed",
		slog.String("saga_id", sagaID),
		slog.Any("error", err),
	)
}

// fingerprint encodes the filter into a stable cache key segment.
func (f EventFilter) fingerprint() string {
	from, to := "-", "-"
	if f.From != nil {
		from = strconv.FormatInt(*f.From, 10)
	}
	if f.To != nil {
		to = strconv.FormatInt(*f.To, 10)
	}
	return fmt.Sprintf("%s:%s:%s:%d:%d", from, to, f.Sort, f.Page, f.PerPage)
}
