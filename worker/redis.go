package worker

import (
	"context"
	"fmt"

	"ltp.dev/ltpgo/tasks"
)

type redisTransactions interface {
	getDocumentTask(ctx context.Context, redisKey string) (*tasks.DocumentTask, error)
	getJobTask(ctx context.Context, task *Task) (*tasks.JobTask, error)
	onTaskStarted(ctx context.Context, task *Task) error
	onTaskCancelled(ctx context.Context, task *Task, errorMessages ...string) error
	onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error
	onTaskFailedWithError(ctx context.Context, task *Task, err error) error
	onTaskComplete(ctx context.Context, task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) update(ctx context.Context, task *Task, updateFunc func(info *tasks.TaskInfo, doc *tasks.DocumentTask)) error {
	return wrapper.tasksClient.Documents.Update(ctx, task.redisKey, func(doc *tasks.DocumentTask) {
		updateFunc(&doc.TaskStatuses.LTP, doc)
	})
}

func (wrapper *redisClientWrapper) onTaskStarted(ctx context.Context, task *Task) error {
	return wrapper.update(ctx, task, func(info *tasks.TaskInfo, _ *tasks.DocumentTask) {
		info.Status = tasks.TaskStatusStarted
		info.Attempts += 1
		info.StartedAt = getFormattedNow()
		info.CompletedAt = nil
	})
}

func (wrapper *redisClientWrapper) onTaskCancelled(ctx context.Context, task *Task, errorMessages ...string) error {
	return wrapper.update(ctx, task, func(info *tasks.TaskInfo, _ *tasks.DocumentTask) {
		info.Status = tasks.TaskStatusCanceled
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts += 1
		info.ErrorMessages = append(info.ErrorMessages, errorMessages...)
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error {
	return wrapper.update(ctx, task, func(info *tasks.TaskInfo, doc *tasks.DocumentTask) {
		doc.FailedTasks = append(doc.FailedTasks, tasks.WorkerName)
		info.Status = tasks.TaskStatusCompletedFailure
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts += 1
		info.ErrorMessages = append(
			info.ErrorMessages,
			fmt.Sprintf(
				"Task has exceeded retries. (Attempts: %d, max retries: %d )",
				info.Attempts,
				maxRetries,
			),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(ctx context.Context, task *Task, err error) error {
	return wrapper.update(ctx, task, func(info *tasks.TaskInfo, _ *tasks.DocumentTask) {
		info.Status = tasks.TaskStatusFailed
		info.CompletedAt = getFormattedNow()
		info.ErrorMessages = append(info.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(ctx context.Context, task *Task) error {
	return wrapper.update(ctx, task, func(info *tasks.TaskInfo, _ *tasks.DocumentTask) {
		if !info.Status.Complete() {
			info.Status = tasks.TaskStatusCompletedSuccess
		}
		info.CompletedAt = getFormattedNow()
		info.ResultsFileKey = getResultsFileKey(task)
	})
}

func (wrapper *redisClientWrapper) getDocumentTask(ctx context.Context, redisKey string) (*tasks.DocumentTask, error) {
	return wrapper.tasksClient.Documents.Get(ctx, redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(ctx context.Context, task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.GetCached(ctx, task.document.JobID)
}
