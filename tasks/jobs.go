package tasks

import (
	"context"

	"ltp.dev/ltpgo/redis"
	"ltp.dev/ltpgo/utils/maps"
)

const JobsDB redis.DB = 1

type JobTask struct {
	maps.BaseDocument
	UserCanceled           bool `json:"user_canceled"`
	StopDocumentsOnFailure bool `json:"stop_documents_on_failure"`
}

type JobTasks struct {
	store Store
}

func (tasks JobTasks) GetCached(ctx context.Context, redisKey string) (*JobTask, error) {
	var task JobTask
	if err := getDocument(ctx, tasks.store, cachedPropertiesKey(redisKey), &task); err != nil {
		return nil, err
	}
	return &task, nil
}
