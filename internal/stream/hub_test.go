package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quantserve/valuation-engine/config"
	"github.com/quantserve/valuation-engine/internal/tasks"
	"github.com/quantserve/valuation-engine/pkg/metrics"
)

// A single recorder for the package; promauto registers globally.
var testRecorder = metrics.NewRecorder()

func TestClientWithoutSubscriptionsReceivesEverything(t *testing.T) {
	c := &Client{subscriptions: make(map[string]bool)}
	assert.True(t, c.wants("any-task"))
}

func TestClientSubscriptionNarrowsFeed(t *testing.T) {
	c := &Client{subscriptions: map[string]bool{"task-1": true}}
	assert.True(t, c.wants("task-1"))
	assert.False(t, c.wants("task-2"))
}

func TestHubTimingFromConfig(t *testing.T) {
	hub := NewHub(testRecorder, config.StreamConfig{
		WriteTimeout:   3 * time.Second,
		PingInterval:   9 * time.Second,
		SendBufferSize: 8,
	})
	assert.Equal(t, 3*time.Second, hub.writeWait)
	assert.Equal(t, 9*time.Second, hub.pingPeriod)
	assert.Equal(t, 10*time.Second, hub.pongWait)
	assert.Equal(t, 8, cap(hub.broadcast))

	// Zero values fall back to the defaults.
	hub = NewHub(testRecorder, config.StreamConfig{})
	assert.Equal(t, defaultWriteWait, hub.writeWait)
	assert.Equal(t, defaultPingInterval, hub.pingPeriod)
	assert.Greater(t, hub.pongWait, hub.pingPeriod)
	assert.Equal(t, defaultSendBuffer, cap(hub.broadcast))
}

func TestBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(testRecorder, config.StreamConfig{SendBufferSize: 1})

	// Nobody is draining the hub; the second broadcast must drop, not hang.
	done := make(chan struct{})
	go func() {
		hub.Broadcast(&tasks.Result{TaskID: "a"})
		hub.Broadcast(&tasks.Result{TaskID: "b"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a saturated hub")
	}
}

func TestHubShutsDownOnCancel(t *testing.T) {
	hub := NewHub(testRecorder, config.StreamConfig{SendBufferSize: 4})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop on context cancellation")
	}
}
