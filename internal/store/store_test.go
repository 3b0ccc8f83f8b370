package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantserve/valuation-engine/internal/tasks"
	"github.com/quantserve/valuation-engine/pkg/utils/errors"
)

func TestTaskStoreLifecycle(t *testing.T) {
	s := NewTaskStore()

	task := tasks.NewTask(tasks.TypeBlackScholes, json.RawMessage(`{"S":100}`))
	s.Track(task)

	pending, err := s.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusPending, pending.Status)
	assert.Equal(t, tasks.TypeBlackScholes, pending.Type)

	s.Put(&tasks.Result{
		TaskID: task.ID,
		Type:   task.Type,
		Status: tasks.StatusCompleted,
		Result: json.RawMessage(`{"price":10.45}`),
	})

	settled, err := s.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusCompleted, settled.Status)
	assert.Equal(t, 1, s.Len())
}

func TestTaskStoreForget(t *testing.T) {
	s := NewTaskStore()

	task := tasks.NewTask(tasks.TypeBond, json.RawMessage(`{}`))
	s.Track(task)
	require.Equal(t, 1, s.Len())

	s.Forget(task.ID)
	assert.Zero(t, s.Len())
	_, err := s.Get(task.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestTaskStoreUnknownID(t *testing.T) {
	s := NewTaskStore()

	_, err := s.Get("no-such-task")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}
