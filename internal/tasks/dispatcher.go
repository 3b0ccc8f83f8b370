package tasks

import (
	"context"
	"encoding/json"

	"github.com/quantserve/valuation-engine/pkg/metrics"
	"github.com/quantserve/valuation-engine/pkg/utils/errors"
	"github.com/quantserve/valuation-engine/pkg/utils/logger"
)

// Publisher pushes an encoded task onto the task topic
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// TaskTracker records submitted tasks as pending and rolls back tasks that
// never reached the queue
type TaskTracker interface {
	Track(task *Task)
	Forget(id string)
}

// Dispatcher publishes valuation tasks to the task topic and tracks them as
// pending until a worker settles them
type Dispatcher struct {
	producer Publisher
	tracker  TaskTracker
	rec      *metrics.Recorder
	log      *logger.Logger
}

// NewDispatcher creates a task dispatcher
func NewDispatcher(producer Publisher, tracker TaskTracker, rec *metrics.Recorder) *Dispatcher {
	return &Dispatcher{
		producer: producer,
		tracker:  tracker,
		rec:      rec,
		log:      logger.GetLogger("tasks.dispatcher"),
	}
}

// Submit validates, tracks and publishes one task. The returned task carries
// the ID clients poll or subscribe with.
func (d *Dispatcher) Submit(ctx context.Context, taskType Type, payload json.RawMessage) (*Task, error) {
	if !ValidType(taskType) {
		return nil, errors.InvalidParameterf("unknown task type %q", taskType)
	}

	task := NewTask(taskType, payload)
	data, err := json.Marshal(task)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode task")
	}

	d.tracker.Track(task)
	if err := d.producer.Publish(ctx, task.ID, data); err != nil {
		// The task never reached the queue, so no worker will ever settle
		// the pending record.
		d.tracker.Forget(task.ID)
		return nil, errors.Wrap(err, "failed to publish task")
	}

	d.rec.RecordTaskSubmitted(string(taskType))
	d.log.Infof("submitted task %s type=%s", task.ID, taskType)
	return task, nil
}
