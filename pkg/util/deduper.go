package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DayDeduper is a best-effort cache in front of the sent-email history table.
// Keys are only written after a history row is durably persisted, so a cache
// hit is always safe to trust. The Postgres history remains the source of
// truth; every redis failure falls through to it.
type DayDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDayDeduper(rdb *redis.Client, ttl time.Duration) *DayDeduper {
	return &DayDeduper{rdb: rdb, ttl: ttl}
}

// Seen reports whether a notification for this tuple was already recorded
// today. Returns false on any redis error so the caller re-checks Postgres.
func (d *DayDeduper) Seen(ctx context.Context, key string) bool {
	if d == nil || d.rdb == nil {
		return false
	}
	n, err := d.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false
	}
	return n > 0
}

// Mark records that a notification for this tuple was persisted today.
// Errors are ignored; a missing mark only costs one extra Postgres read.
func (d *DayDeduper) Mark(ctx context.Context, key string) {
	if d == nil || d.rdb == nil {
		return
	}
	d.rdb.Set(ctx, key, 1, d.ttl)
}

// SentKey formats a dedup key for one (item, initiative, recipient, category)
// tuple on one America/New_York calendar day.
func SentKey(day, pageID, initiativeID, recipientID, category string) string {
	return fmt.Sprintf("sent:%s:%s:%s:%s:%s", day, pageID, initiativeID, recipientID, category)
}
