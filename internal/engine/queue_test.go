package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestQueue(t *testing.T) (*CheckQueue, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCheckQueue(client, testLogger()), client
}

func TestCheckQueue_EnqueueAndDepth(t *testing.T) {
	q, _ := setupTestQueue(t)
	ctx := context.Background()

	depth, err := q.Depth(ctx)
	if err != nil {
		t.Fatalf("depth: %v", err)
	}
	if depth != 0 {
		t.Errorf("expected empty queue, got depth %d", depth)
	}

	for i := 0; i < 3; i++ {
		if err := q.Enqueue(ctx, NewCheckRequest("timer", false)); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	depth, _ = q.Depth(ctx)
	if depth != 3 {
		t.Errorf("expected queue depth 3, got %d", depth)
	}
}

func TestCheckQueue_RequestRoundTrip(t *testing.T) {
	q, client := setupTestQueue(t)
	ctx := context.Background()

	req := NewCheckRequest("subscription_saved", true)
	if err := q.Enqueue(ctx, req); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	members, err := client.ZRange(ctx, CheckQueueKey, 0, -1).Result()
	if err != nil || len(members) != 1 {
		t.Fatalf("expected one queued member, got %v (%v)", members, err)
	}

	var decoded CheckRequest
	if err := json.Unmarshal([]byte(members[0]), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ID != req.ID || !decoded.Force || decoded.Reason != "subscription_saved" {
		t.Errorf("decoded request = %+v, want %+v", decoded, req)
	}
}

func TestCheckQueue_EnqueueAtScoresByTime(t *testing.T) {
	q, client := setupTestQueue(t)
	ctx := context.Background()

	later := time.Now().Add(time.Minute)
	q.EnqueueAt(ctx, NewCheckRequest("retry", false), later)
	q.Enqueue(ctx, NewCheckRequest("timer", false))

	ready, err := client.ZRangeByScore(ctx, CheckQueueKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: QueueScore(time.Now()),
	}).Result()
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(ready) != 1 {
		t.Errorf("expected only the immediate request to be ready, got %d", len(ready))
	}
}

func TestNewCheckRequest_UniqueIDs(t *testing.T) {
	a := NewCheckRequest("x", false)
	b := NewCheckRequest("x", false)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
}

func TestCheckQueueKey_Constant(t *testing.T) {
	if CheckQueueKey != "check_queue" {
		t.Errorf("expected CheckQueueKey = %q, got %q", "check_queue", CheckQueueKey)
	}
}
