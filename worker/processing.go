package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"ltp.dev/ltpgo/pipeline"
	"ltp.dev/ltpgo/tasks"
	"ltp.dev/ltpgo/types"
	"ltp.dev/ltpgo/utils"
)

var ErrNoPipelineResult = errors.New("pipeline channel was closed before returning anything")

type Message struct {
	WorkType string `json:"work_type"`
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery  *amqp.Delivery
	document  *tasks.DocumentTask
	message   *Message
	redisKey  string
	ltpLogger *zerolog.Logger
}

func (worker *Worker) processMessage(ctx context.Context, delivery amqp.Delivery) {
	rejectLogger := worker.ltpLogger.With().Str("message_id", delivery.MessageId).Logger()
	task, err := worker.createTask(ctx, &delivery)
	if err != nil {
		worker.ltpLogger.Err(err).
			Str("message_id", delivery.MessageId).
			Str("tid", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.rejectDelivery(&delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(ctx, task); err != nil {
		worker.rmq.rejectDelivery(&delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.pingSequencer(task, *task.message); err != nil {
		task.ltpLogger.Err(err).Msg("Got error while sending message to sequencer queue")
		worker.rmq.rejectDelivery(&delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.acknowledgeDelivery(&delivery); err != nil {
		task.ltpLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.ltpLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(ctx context.Context, delivery *amqp.Delivery) (*Task, error) {
	var message Message
	if err := json.Unmarshal(delivery.Body, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	document, err := worker.redis.getDocumentTask(ctx, message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query document task for message, got error %w", err)
	}
	taskLogger := worker.ltpLogger.With().Str("tid", message.RedisKey).Logger()
	return &Task{
		delivery:  delivery,
		document:  document,
		redisKey:  message.RedisKey,
		message:   &message,
		ltpLogger: &taskLogger,
	}, nil
}

func (worker *Worker) processTask(ctx context.Context, task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(ctx, task)
	if err != nil {
		task.ltpLogger.Err(err).
			Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(ctx, task); err != nil {
		task.ltpLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update TaskInfo: %w", err)
	}
	if err = worker.runPipeline(ctx, task); err != nil {
		task.ltpLogger.Err(err).Msg("Got error while running pipeline")
		return worker.redis.onTaskFailedWithError(ctx, task, err)
	}
	task.ltpLogger.Info().Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(ctx, task); err != nil {
		task.ltpLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

func (worker *Worker) runPipeline(ctx context.Context, task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	task.ltpLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.document.TaskStatuses.LTP.Attempts)

	requested, err := types.ParseTasks(task.document.Tasks)
	if err != nil {
		return err
	}
	data, err := worker.s3.getTextData(ctx, task)
	if err != nil {
		task.ltpLogger.Err(err).Caller().Msg("Could not fetch text data from s3")
		return fmt.Errorf("failed fetch data from s3: %w", err)
	}
	request := pipeline.Request{
		Tid:   task.redisKey,
		Text:  string(data),
		Tasks: requested,
	}
	result, ok := <-worker.ppln(request)
	if !ok {
		task.ltpLogger.Error().Msg("Pipeline channel was closed before returning anything")
		return ErrNoPipelineResult
	}
	var check struct {
		Error string `json:"error"`
	}
	if err = json.Unmarshal([]byte(result), &check); err != nil {
		return fmt.Errorf("invalid pipeline result: %w", err)
	}
	if check.Error != "" {
		return fmt.Errorf("pipeline: %s", check.Error)
	}

	task.ltpLogger.Info().Msg("Finished pipeline, saving results to s3")
	if err = worker.s3.saveResultsFile(ctx, task, result); err != nil {
		task.ltpLogger.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return nil
}

func (worker *Worker) shouldPerformTask(ctx context.Context, task *Task) (bool, error) {
	taskInfo := task.document.TaskStatuses.LTP
	taskLogger := task.ltpLogger

	if taskInfo.Status.Complete() {
		taskLogger.Info().Msg("Task is already done. (might indicate issue acking message with RMQ). Sending back to Sequencer.")
		return false, nil
	}
	taskJob, err := worker.redis.getJobTask(ctx, task)
	if err != nil {
		taskLogger.Err(err).Msg("Failed to query job task for document task")
		return false, err
	}
	if taskJob.UserCanceled {
		taskLogger.Info().Msg("Job was canceled, no need to perform this task. Sending back to Sequencer.")
		return false, worker.redis.onTaskCancelled(ctx, task)
	}
	if taskJob.StopDocumentsOnFailure && len(task.document.FailedTasks) > 0 {
		failedTask := task.document.FailedTasks[0]
		taskLogger.Info().Msgf("Task is not required because the \"%s\" already completed failure "+
			"and document won't be processed successfully. Sending back to Sequencer.", failedTask)
		return false, worker.redis.onTaskCancelled(
			ctx,
			task,
			fmt.Sprintf(
				"Task was marked as \"%s\" because of the current document has failed "+
					"in the \"%s\" worker and won't be processed successfully.",
				tasks.TaskStatusCanceled,
				failedTask,
			),
		)
	}
	if taskInfo.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("LTP task has exceeded retries. Sending back to Sequencer.")
		return false, worker.redis.onTaskExceededRetries(ctx, task, worker.config.TaskMaxRetries)
	}
	return true, nil
}
