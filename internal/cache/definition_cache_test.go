package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CLDWare/evaluations-backend/config"
	"github.com/CLDWare/evaluations-backend/internal/evaluation"
)

func TestConnect_Disabled(t *testing.T) {
	client, err := Connect(context.Background(), &config.Config{})
	if err != nil || client != nil {
		t.Errorf("Expected caching to be disabled without an address, got %v, %v", client, err)
	}
}

func TestDefinitionCache_UnreachableRedisIsAMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewDefinitionCache(client, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "abc", &evaluation.SurveyDefinition{UniqueLink: "abc"})
	if _, ok := c.Get(ctx, "abc"); ok {
		t.Error("Expected a miss when redis is unreachable")
	}
	c.Invalidate(ctx, "abc")
}

func TestDefinitionCache_Key(t *testing.T) {
	c := NewDefinitionCache(nil, time.Minute)
	if got := c.key("demo2025ev"); got != "survey:definition:demo2025ev" {
		t.Errorf("Unexpected key %s", got)
	}
}
