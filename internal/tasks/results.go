package tasks

import (
	"context"
	"encoding/json"

	"github.com/quantserve/valuation-engine/internal/kafka"
	"github.com/quantserve/valuation-engine/pkg/utils/logger"
)

// ResultBroadcaster fans a settled result out to live subscribers
type ResultBroadcaster interface {
	Broadcast(result *Result)
}

// ResultSink persists settled results for later polling
type ResultSink interface {
	Put(result *Result)
}

// ResultConsumer drains the results topic into the task store and the live
// result stream. It runs on the API side so polling and streaming clients see
// the same settled state.
type ResultConsumer struct {
	consumer    *kafka.Consumer
	sink        ResultSink
	broadcaster ResultBroadcaster
	log         *logger.Logger
}

// NewResultConsumer creates a result consumer
func NewResultConsumer(consumer *kafka.Consumer, sink ResultSink, broadcaster ResultBroadcaster) *ResultConsumer {
	return &ResultConsumer{
		consumer:    consumer,
		sink:        sink,
		broadcaster: broadcaster,
		log:         logger.GetLogger("tasks.results"),
	}
}

// Run consumes results until the context is canceled
func (rc *ResultConsumer) Run(ctx context.Context) error {
	rc.log.Info("result consumer started")
	return rc.consumer.Run(ctx, rc.handle)
}

func (rc *ResultConsumer) handle(_ context.Context, key, value []byte) error {
	var result Result
	if err := json.Unmarshal(value, &result); err != nil {
		rc.log.Errorf("dropping malformed result %s: %v", string(key), err)
		return nil
	}

	rc.sink.Put(&result)
	if rc.broadcaster != nil {
		rc.broadcaster.Broadcast(&result)
	}
	return nil
}
