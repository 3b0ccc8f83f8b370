package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/quantserve/valuation-engine/internal/engine"
	"github.com/quantserve/valuation-engine/internal/kafka"
	"github.com/quantserve/valuation-engine/pkg/metrics"
	"github.com/quantserve/valuation-engine/pkg/models"
	"github.com/quantserve/valuation-engine/pkg/utils/errors"
	"github.com/quantserve/valuation-engine/pkg/utils/logger"
)

// Worker consumes tasks from the task topic, runs them through the valuation
// engine and publishes settled results to the results topic
type Worker struct {
	eng      *engine.Engine
	consumer *kafka.Consumer
	producer *kafka.Producer
	rec      *metrics.Recorder
	log      *logger.Logger
}

// NewWorker creates a task worker
func NewWorker(eng *engine.Engine, consumer *kafka.Consumer, producer *kafka.Producer, rec *metrics.Recorder) *Worker {
	return &Worker{
		eng:      eng,
		consumer: consumer,
		producer: producer,
		rec:      rec,
		log:      logger.GetLogger("tasks.worker"),
	}
}

// Run consumes tasks until the context is canceled
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("task worker started")
	return w.consumer.Run(ctx, w.handle)
}

func (w *Worker) handle(ctx context.Context, key, value []byte) error {
	var task Task
	if err := json.Unmarshal(value, &task); err != nil {
		w.log.Errorf("dropping malformed task %s: %v", string(key), err)
		return nil
	}

	result := w.execute(ctx, &task)

	data, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "failed to encode result")
	}
	if err := w.producer.Publish(ctx, task.ID, data); err != nil {
		return errors.Wrapf(err, "failed to publish result for task %s", task.ID)
	}

	w.rec.RecordTaskCompleted(string(task.Type), string(result.Status),
		result.CompletedAt.Sub(result.SubmittedAt))
	return nil
}

// execute runs the task payload through the engine call matching its type.
// Failures settle as a failed result rather than an error; the task topic
// must keep draining.
func (w *Worker) execute(ctx context.Context, task *Task) *Result {
	payload, err := w.dispatch(ctx, task)

	result := &Result{
		TaskID:      task.ID,
		Type:        task.Type,
		SubmittedAt: task.SubmittedAt,
		CompletedAt: time.Now().UTC(),
	}
	if err != nil {
		w.log.Warnf("task %s type=%s failed: %v", task.ID, task.Type, err)
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}
	result.Status = StatusCompleted
	result.Result = payload
	return result
}

func (w *Worker) dispatch(ctx context.Context, task *Task) (json.RawMessage, error) {
	switch task.Type {
	case TypeBlackScholes:
		var req models.OptionRequest
		if err := json.Unmarshal(task.Payload, &req); err != nil {
			return nil, errors.InvalidParameter("malformed payload: " + err.Error())
		}
		res, err := w.eng.PriceBlackScholes(&req)
		return marshalResult(res, err)

	case TypeBinomialTree:
		var req models.BinomialTreeRequest
		if err := json.Unmarshal(task.Payload, &req); err != nil {
			return nil, errors.InvalidParameter("malformed payload: " + err.Error())
		}
		res, err := w.eng.PriceBinomialTree(&req)
		return marshalResult(res, err)

	case TypeMonteCarlo:
		var req models.MonteCarloRequest
		if err := json.Unmarshal(task.Payload, &req); err != nil {
			return nil, errors.InvalidParameter("malformed payload: " + err.Error())
		}
		res, err := w.eng.PriceVanillaMonteCarlo(ctx, &req)
		if res != nil {
			w.rec.RecordSimulatedPaths(res.Model, res.NumPaths)
		}
		return marshalResult(res, err)

	case TypeExotic:
		var req models.ExoticRequest
		if err := json.Unmarshal(task.Payload, &req); err != nil {
			return nil, errors.InvalidParameter("malformed payload: " + err.Error())
		}
		res, err := w.eng.PriceExotic(ctx, &req)
		if res != nil {
			w.rec.RecordSimulatedPaths(res.Model, res.NumPaths)
		}
		return marshalResult(res, err)

	case TypeImpliedVol:
		var req models.ImpliedVolRequest
		if err := json.Unmarshal(task.Payload, &req); err != nil {
			return nil, errors.InvalidParameter("malformed payload: " + err.Error())
		}
		res, err := w.eng.ImpliedVolatility(ctx, &req)
		return marshalResult(res, err)

	case TypeBond:
		var req models.BondRequest
		if err := json.Unmarshal(task.Payload, &req); err != nil {
			return nil, errors.InvalidParameter("malformed payload: " + err.Error())
		}
		res, err := w.eng.PriceBond(ctx, &req)
		return marshalResult(res, err)

	case TypePortfolio:
		var req models.PortfolioRequest
		if err := json.Unmarshal(task.Payload, &req); err != nil {
			return nil, errors.InvalidParameter("malformed payload: " + err.Error())
		}
		res, err := w.eng.SimulatePortfolio(ctx, &req)
		return marshalResult(res, err)

	default:
		return nil, errors.InvalidParameterf("unknown task type %q", task.Type)
	}
}

func marshalResult(res interface{}, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(res)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode result payload")
	}
	return data, nil
}
