package worker

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"ltp.dev/ltpgo/pipeline"
	"ltp.dev/ltpgo/tasks"
)

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type pipelineMock struct {
	ppln    pipeline.Pipeline
	config  pipelineMockConfig
	calls   pipelineCall
	request pipeline.Request
}

type pipelineMockConfig struct {
	fail   bool
	result string
}

type pipelineCall struct {
	pipeline bool
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
}

type redisMockConfig struct {
	getDocumentTask       withValue
	getJobTask            withValue
	onTaskCancelled       failingMethod
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getDocumentTask       bool
	getJobTask            bool
	onTaskCancelled       bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

type rmqMock struct {
	config rmqMockConfig
	calls  rmqMockCalls
}

type rmqMockConfig struct {
	pingSequencer       failingMethod
	acknowledgeDelivery failingMethod
}

type rmqMockCalls struct {
	pingSequencer       bool
	acknowledgeDelivery bool
	rejectDelivery      bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
	saved  map[string]string
}

type s3MockConfig struct {
	getTextData     withValue
	saveResultsFile failingMethod
}

type s3MockCalls struct {
	getTextData     bool
	saveResultsFile bool
}

func (mock *s3Mock) close() {}

func (mock *rmqMock) close() {}

func (mock *redisMock) close() {}

func getPipelineMock(config pipelineMockConfig) *pipelineMock {
	mock := pipelineMock{config: config}
	if mock.config.result == "" {
		mock.config.result = `{"doc_id":"key","version":"4.2.4","tasks":["cws"],"sentences":[]}`
	}
	mock.ppln = func(request pipeline.Request) <-chan string {
		mock.calls.pipeline = true
		mock.request = request
		ch := make(chan string, 1)
		if !mock.config.fail {
			ch <- mock.config.result
		}
		close(ch)
		return ch
	}
	return &mock
}

func (mock *redisMock) getDocumentTask(_ context.Context, redisKey string) (*tasks.DocumentTask, error) {
	mock.calls.getDocumentTask = true
	if mock.config.getDocumentTask.fail {
		return nil, errors.New("failed to get document task")
	}
	if task, ok := mock.config.getDocumentTask.returnedValue.(tasks.DocumentTask); ok {
		return &task, nil
	}
	return &tasks.DocumentTask{DocID: "doc", Tasks: []string{"cws"}}, nil
}

func (mock *redisMock) getJobTask(_ context.Context, _ *Task) (*tasks.JobTask, error) {
	mock.calls.getJobTask = true
	if mock.config.getJobTask.fail {
		return nil, errors.New("failed to get job task")
	}
	if jobTask, ok := mock.config.getJobTask.returnedValue.(tasks.JobTask); ok {
		return &jobTask, nil
	}
	return &tasks.JobTask{}, nil
}

func (mock *redisMock) onTaskStarted(_ context.Context, _ *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update document task on start")
	}
	return nil
}

func (mock *redisMock) onTaskCancelled(_ context.Context, _ *Task, _ ...string) error {
	mock.calls.onTaskCancelled = true
	if mock.config.onTaskCancelled.fail {
		return errors.New("failed to update document task on cancel")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(_ context.Context, _ *Task, _ int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update document task on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(_ context.Context, _ *Task, _ error) error {
	mock.calls.onTaskFailedWithError = true
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update document task on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(_ context.Context, _ *Task) error {
	mock.calls.onTaskComplete = true
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update document task on complete")
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(_ *amqp.Delivery, _ *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) getDeliveriesCh() <-chan amqp.Delivery {
	return nil
}

func (mock *rmqMock) getReqChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) getRespChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) pingSequencer(_ *Task, _ Message) error {
	mock.calls.pingSequencer = true
	if mock.config.pingSequencer.fail {
		return errors.New("failed to ping sequencer")
	}
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(_ *amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *s3Mock) getTextData(_ context.Context, _ *Task) ([]byte, error) {
	mock.calls.getTextData = true
	if mock.config.getTextData.fail {
		return nil, errors.New("mock: failed to load from s3")
	}
	if data, ok := mock.config.getTextData.returnedValue.([]byte); ok {
		return data, nil
	}
	return []byte("他叫汤姆去拿外衣。"), nil
}

func (mock *s3Mock) saveResultsFile(_ context.Context, task *Task, result string) error {
	mock.calls.saveResultsFile = true
	if mock.config.saveResultsFile.fail {
		return errors.New("failed to upload results")
	}
	if mock.saved == nil {
		mock.saved = map[string]string{}
	}
	mock.saved[getResultsFileKey(task)] = result
	return nil
}
