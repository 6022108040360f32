// Package pubsub fans run events out to subscribers, with per-topic replay
// buffers so late subscribers can catch up on the current run.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
)

const (
	// TopicRunState carries controller events together with the snapshot after them
	TopicRunState = "run_state"
	// TopicGraph carries the graph whenever a new one is loaded
	TopicGraph = "graph"
)

// ErrClosed is returned once the publisher has been shut down
var ErrClosed = errors.New("pubsub: publisher is closed")

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "run_state", "graph")
	Type    string          `json:"type"`    // Event type (e.g., "initialized", "step", "finished")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// SubscriberHook is notified when a subscriber joins (+1) or leaves (-1)
type SubscriberHook func(topic string, delta int)
