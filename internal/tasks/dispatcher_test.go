package tasks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantserve/valuation-engine/pkg/utils/errors"
)

type stubPublisher struct {
	err       error
	published int
}

func (p *stubPublisher) Publish(ctx context.Context, key string, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.published++
	return nil
}

type memoryTracker struct {
	pending map[string]bool
}

func newMemoryTracker() *memoryTracker {
	return &memoryTracker{pending: make(map[string]bool)}
}

func (m *memoryTracker) Track(task *Task) { m.pending[task.ID] = true }
func (m *memoryTracker) Forget(id string) { delete(m.pending, id) }

func TestSubmitTracksPendingTask(t *testing.T) {
	pub := &stubPublisher{}
	tracker := newMemoryTracker()
	d := NewDispatcher(pub, tracker, testRecorder)

	task, err := d.Submit(context.Background(), TypeBlackScholes,
		json.RawMessage(`{"S":100,"K":100,"T":1,"r":0.05,"sigma":0.2,"side":"call"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, pub.published)
	assert.True(t, tracker.pending[task.ID])
}

func TestSubmitRollsBackOnPublishFailure(t *testing.T) {
	pub := &stubPublisher{err: errors.Internal("broker unreachable")}
	tracker := newMemoryTracker()
	d := NewDispatcher(pub, tracker, testRecorder)

	_, err := d.Submit(context.Background(), TypeBond, json.RawMessage(`{}`))
	require.Error(t, err)

	// A task that never reached the queue must not linger as pending.
	assert.Empty(t, tracker.pending)
}

func TestSubmitRejectsUnknownType(t *testing.T) {
	pub := &stubPublisher{}
	tracker := newMemoryTracker()
	d := NewDispatcher(pub, tracker, testRecorder)

	_, err := d.Submit(context.Background(), Type("fourier"), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidParameter, errors.KindOf(err))
	assert.Zero(t, pub.published)
	assert.Empty(t, tracker.pending)
}
