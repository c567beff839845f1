package data

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

const streamResolutions = "questcomms.resolutions"

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// PublishResolution appends a resolved claim to the resolution stream
// for external consumers.
func PublishResolution(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamResolutions,
		Values: payload,
	}).Result()
	return err
}

// RecentResolutions returns up to count latest entries from the
// resolution stream, newest first.
func RecentResolutions(ctx context.Context, rdb *redis.Client, count int64) ([]redis.XMessage, error) {
	return rdb.XRevRangeN(ctx, streamResolutions, "+", "-", count).Result()
}
