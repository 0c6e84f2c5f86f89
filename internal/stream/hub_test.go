package stream

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func expectMessage(t *testing.T, client *Client, want string) {
	t.Helper()
	select {
	case msg := <-client.Send:
		if string(msg) != want {
			t.Fatalf("unexpected message %q, want %q", msg, want)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectSilence(t *testing.T, client *Client) {
	t.Helper()
	select {
	case msg := <-client.Send:
		t.Fatalf("unexpected extra message %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()
	client := hub.Register("walk-1")
	other := hub.Register("walk-2")
	defer hub.Unregister(client)
	defer hub.Unregister(other)

	hub.Broadcast(context.Background(), "walk-1", []byte("hello"))
	expectMessage(t, client, "hello")
	expectSilence(t, other)
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "walks:abc:events" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if sessionIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected session id")
	}
	for _, bad := range []string{"bad", "walks::events", "tracking:abc:broadcast"} {
		if sessionIDFromChannel(bad) != "" {
			t.Fatalf("expected empty session id for %q", bad)
		}
	}
}

func TestUnregisterClosesOnce(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register("walk-2")
	if hub.Subscribers("walk-2") != 1 {
		t.Fatalf("expected one subscriber")
	}
	hub.Unregister(client)
	hub.Unregister(client)
	if _, ok := <-client.Send; ok {
		t.Fatalf("expected channel closed")
	}
	if hub.Subscribers("walk-2") != 0 {
		t.Fatalf("expected no subscribers")
	}
}

func TestHubSlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register("walk-slow")
	defer hub.Unregister(client)

	done := make(chan struct{})
	go func() {
		for i := 0; i < clientBuffer*2; i++ {
			hub.Broadcast(context.Background(), "walk-slow", []byte("x"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("broadcast blocked on a full subscriber")
	}
	if len(client.Send) != clientBuffer {
		t.Fatalf("expected buffer full, got %d", len(client.Send))
	}
}

func TestHubRelaysAcrossInstances(t *testing.T) {
	s := miniredis.RunT(t)
	rdbA := redis.NewClient(&redis.Options{Addr: s.Addr()})
	rdbB := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdbA.Close()
	defer rdbB.Close()

	hubA := NewHub(rdbA, nil)
	hubB := NewHub(rdbB, nil)
	defer hubA.Close()
	defer hubB.Close()

	local := hubA.Register("walk-redis")
	remote := hubB.Register("walk-redis")
	defer hubA.Unregister(local)
	defer hubB.Unregister(remote)

	hubA.Broadcast(context.Background(), "walk-redis", []byte(`{"type":"walk.location"}`))

	expectMessage(t, local, `{"type":"walk.location"}`)
	expectMessage(t, remote, `{"type":"walk.location"}`)
	// the origin instance must not deliver its own relay a second time
	expectSilence(t, local)
}

func TestHubIgnoresMalformedRelay(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()

	hub := NewHub(rdb, nil)
	defer hub.Close()
	client := hub.Register("walk-x")
	defer hub.Unregister(client)

	if err := rdb.Publish(context.Background(), redisChannel("walk-x"), "not json").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	expectSilence(t, client)
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client, nil)
	defer hub.Close()
	node := hub.Register("walk-bad")
	defer hub.Unregister(node)

	hub.Broadcast(context.Background(), "walk-bad", []byte("ping"))
	expectMessage(t, node, "ping")
}
