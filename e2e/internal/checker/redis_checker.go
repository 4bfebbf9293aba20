package checker

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/saaga0h/jeeves-sky/e2e/internal/scenario"
)

// CheckRedis validates a hash field expectation, e.g. sky:theme:{location} theme
func CheckRedis(ctx context.Context, client *redis.Client, exp scenario.Expectation) (bool, string, interface{}) {
	value, err := client.HGet(ctx, exp.RedisKey, exp.RedisField).Result()
	if errors.Is(err, redis.Nil) {
		return false, fmt.Sprintf("key %q field %q not found in Redis", exp.RedisKey, exp.RedisField), nil
	}
	if err != nil {
		return false, fmt.Sprintf("Redis error: %v", err), nil
	}

	if ok, reason := Match(value, exp.Expected); !ok {
		return false, reason, value
	}

	return true, "", value
}
