package utils

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

// CacheInvalidator purges cached catalog responses after a mutation. Keys are
// SHA1-hashed, so item purges scan the whole item namespace.
type CacheInvalidator struct{ rdb *redis.Client }

func NewCacheInvalidator(rdb *redis.Client) *CacheInvalidator { return &CacheInvalidator{rdb} }

// PurgeEventsList drops every cached /api/events list variant.
func (ci *CacheInvalidator) PurgeEventsList(ctx context.Context) {
	iter := ci.rdb.Scan(ctx, 0, "cache:events:list:*", 0).Iterator()
	for iter.Next(ctx) {
		_ = ci.rdb.Del(ctx, iter.Val()).Err()
	}
}

// PurgeEventItem drops cached single-event responses. Registration changes
// move the derived participant_count, so this runs on register/cancel too.
func (ci *CacheInvalidator) PurgeEventItem(ctx context.Context, id string) {
	iter := ci.rdb.Scan(ctx, 0, "cache:events:item:*", 0).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if strings.HasPrefix(k, "cache:events:item:") {
			_ = ci.rdb.Del(ctx, k).Err()
		}
	}
}
