package store

import (
	"sync"

	"github.com/quantserve/valuation-engine/internal/tasks"
	"github.com/quantserve/valuation-engine/pkg/utils/errors"
	"github.com/quantserve/valuation-engine/pkg/utils/logger"
)

// TaskStore tracks submitted tasks and their results in memory. The API layer
// writes the pending record at submission; the result consumer overwrites it
// when the worker settles the task.
type TaskStore struct {
	results map[string]*tasks.Result
	mu      sync.RWMutex
	log     *logger.Logger
}

// NewTaskStore creates an empty task store
func NewTaskStore() *TaskStore {
	return &TaskStore{
		results: make(map[string]*tasks.Result),
		log:     logger.GetLogger("store.tasks"),
	}
}

// Track registers a submitted task as pending
func (s *TaskStore) Track(task *tasks.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[task.ID] = &tasks.Result{
		TaskID:      task.ID,
		Type:        task.Type,
		Status:      tasks.StatusPending,
		SubmittedAt: task.SubmittedAt,
	}
}

// Forget drops the record for a task ID. Used to roll back a pending record
// when the task never made it onto the queue.
func (s *TaskStore) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, id)
}

// Put records a settled result, overwriting the pending record
func (s *TaskStore) Put(result *tasks.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.TaskID] = result
}

// Get returns the current record for a task ID
func (s *TaskStore) Get(id string) (*tasks.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[id]
	if !ok {
		return nil, errors.NotFound("unknown task " + id)
	}
	return result, nil
}

// Len returns the number of tracked tasks
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
