package pubsub

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func publishSteps(t *testing.T, pub *SSEPublisher, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		if err := pub.Publish(TopicRunState, "step", map[string]int{"iteration": i}); err != nil {
			t.Fatalf("Failed to publish step %d: %v", i, err)
		}
	}
}

func TestEventBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic(TopicRunState, TopicConfig{BufferSize: 3, ReplayAll: true})
	publishSteps(t, pub, 5)

	sub, err := pub.Subscribe(context.Background(), TopicRunState)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Last 3 of 5 are replayed in order
	for want := 3; want <= 5; want++ {
		select {
		case event := <-sub.Events():
			if event.Version != want {
				t.Errorf("Expected version %d, got %d", want, event.Version)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for version %d", want)
		}
	}
}

func TestReplayLastOnly(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic(TopicGraph, TopicConfig{BufferSize: 5, ReplayAll: false})
	for i := 1; i <= 3; i++ {
		if err := pub.Publish(TopicGraph, "graph-loaded", map[string]int{"nodes": i}); err != nil {
			t.Fatalf("Failed to publish: %v", err)
		}
	}

	sub, err := pub.Subscribe(context.Background(), TopicGraph)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		if event.Version != 3 {
			t.Errorf("Expected version 3, got %d", event.Version)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}

	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected extra event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNoBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	publishSteps(t, pub, 3)

	sub, err := pub.Subscribe(context.Background(), TopicRunState)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected replayed event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}

	if err := pub.Publish(TopicRunState, "finished", nil); err != nil {
		t.Fatalf("Failed to publish new event: %v", err)
	}

	select {
	case event := <-sub.Events():
		if event.Version != 4 || event.Type != "finished" {
			t.Errorf("Expected finished version 4, got %s version %d", event.Type, event.Version)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for new event")
	}
}

func TestResetTopic(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic(TopicRunState, TopicConfig{BufferSize: 10, ReplayAll: true})
	publishSteps(t, pub, 2)
	pub.ResetTopic(TopicRunState)

	sub, err := pub.Subscribe(context.Background(), TopicRunState)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		t.Errorf("Expected empty backlog after reset, got version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscriberHookAndContextCancel(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	var mu sync.Mutex
	count := 0
	left := make(chan struct{}, 1)
	pub.OnSubscriberChange(func(topic string, delta int) {
		mu.Lock()
		count += delta
		mu.Unlock()
		if delta < 0 {
			left <- struct{}{}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := pub.Subscribe(ctx, TopicRunState); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	if pub.Subscribers(TopicRunState) != 1 {
		t.Errorf("Expected 1 subscriber, got %d", pub.Subscribers(TopicRunState))
	}

	cancel()
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("Subscription not closed on context cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 0 || pub.Subscribers(TopicRunState) != 0 {
		t.Errorf("Expected no subscribers, count=%d", count)
	}
}

func TestEventsChannelClosesOnCancel(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := pub.Subscribe(ctx, TopicRunState)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range sub.Events() {
		}
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Events() still open after context cancel")
	}

	// Closing again, or after the publisher, must not panic
	if err := sub.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("Publisher Close failed: %v", err)
	}
	if err := pub.Publish(TopicRunState, "step", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestClosedPublisher(t *testing.T) {
	pub := NewSSEPublisher()
	sub, err := pub.Subscribe(context.Background(), TopicRunState)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	if err := pub.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, ok := <-sub.Events(); ok {
		t.Error("Expected subscription channel to be closed")
	}
	if err := pub.Publish(TopicRunState, "step", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, err := pub.Subscribe(context.Background(), TopicRunState); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSSE(&buf, Event{Topic: TopicRunState, Type: "step", Data: []byte(`{"iteration":1}`), Version: 7})
	if err != nil {
		t.Fatalf("WriteSSE failed: %v", err)
	}

	frame := buf.String()
	if !strings.HasPrefix(frame, "id: 7\nevent: step\ndata: {") {
		t.Errorf("Unexpected frame header: %q", frame)
	}
	if !strings.HasSuffix(frame, "\n\n") {
		t.Errorf("Frame must end with a blank line: %q", frame)
	}
	if !strings.Contains(frame, `"data":{"iteration":1}`) {
		t.Errorf("Expected payload in frame: %q", frame)
	}
}
