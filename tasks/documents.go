package tasks

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	"ltp.dev/ltpgo/redis"
	"ltp.dev/ltpgo/utils/maps"
)

const (
	DocumentsDB redis.DB = 0
	// WorkerName keys this service in task_statuses and failed_tasks.
	WorkerName = "ltp"
)

type DocumentTask struct {
	maps.BaseDocument
	DocID        string       `json:"document_id"`
	JobID        string       `json:"job_id"`
	TextFileKey  string       `json:"text_file_key"`
	Tasks        []string     `json:"ltp_tasks"`
	TaskStatuses TaskStatuses `json:"task_statuses"`
	FailedTasks  []string     `json:"failed_tasks"`
}

type TaskStatuses struct {
	LTP TaskInfo `json:"ltp"`
}

// DocumentTaskCached is the subset of a document task mirrored under the
// cached properties key.
type DocumentTaskCached struct {
	maps.BaseDocument
	DocID       string   `json:"document_id"`
	JobID       string   `json:"job_id"`
	FailedTasks []string `json:"failed_tasks"`
}

type DocumentTasks struct {
	store Store
}

func getDocument(ctx context.Context, store Store, key string, doc maps.PartialDocument) error {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	return maps.Fill(doc, raw)
}

func saveDocument(ctx context.Context, store Store, key string, doc maps.PartialDocument) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, b)
}

func (tasks DocumentTasks) Get(ctx context.Context, redisKey string) (*DocumentTask, error) {
	var task DocumentTask
	if err := getDocument(ctx, tasks.store, redisKey, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks DocumentTasks) GetCached(ctx context.Context, redisKey string) (*DocumentTaskCached, error) {
	var task DocumentTaskCached
	if err := getDocument(ctx, tasks.store, cachedPropertiesKey(redisKey), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update reloads the task under its lock, applies updateFunc and saves both
// the task and its cached properties.
func (tasks DocumentTasks) Update(ctx context.Context, redisKey string, updateFunc func(task *DocumentTask)) (err error) {
	releaseLock, err := tasks.store.Lock(ctx, redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = releaseLock()
			return
		}
		err = releaseLock()
	}()

	var task DocumentTask
	var cached DocumentTaskCached
	if err = getDocument(ctx, tasks.store, redisKey, &task); err != nil {
		return err
	}
	if err = maps.ApplyUpdates(&task, updateFunc); err != nil {
		return err
	}
	if err = maps.CopyValues(&task, &cached); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return saveDocument(gctx, tasks.store, redisKey, &task)
	})
	g.Go(func() error {
		return saveDocument(gctx, tasks.store, cachedPropertiesKey(redisKey), &cached)
	})
	return g.Wait()
}
