package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	HashtagsKeyPrefix = "analytics:hashtags:%d"
	VolumeKey         = "analytics:volume_by_hour"
)

const (
	HashtagsTTL = 2 * time.Minute
	VolumeTTL   = 2 * time.Minute
)

func HashtagsKey(limit int) string {
	return fmt.Sprintf(HashtagsKeyPrefix, limit)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateAnalytics drops every cached report. Called after any
// successful ingestion so reports never serve stale counts past one
// ingest cycle.
func InvalidateAnalytics(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "analytics:*", 0).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}
