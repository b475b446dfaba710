package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/require"

	"ltp.dev/ltpgo/tasks"
	"ltp.dev/ltpgo/types"
)

const testBody = `{"work_type":"ltp","redis_key":"key","sender":"sequencer","version":"1"}`

type mockedClientsConfig struct {
	rmqMockConfig
	redisMockConfig
	s3MockConfig
	pipelineMockConfig
	body string
}

type mockedClients struct {
	redis    *redisMock
	rmq      *rmqMock
	s3       *s3Mock
	pipeline *pipelineMock
}

type methodsCalls struct {
	redis    redisMockCalls
	rmq      rmqMockCalls
	s3       s3MockCalls
	pipeline pipelineCall
}

var allowCalls = cmp.AllowUnexported(methodsCalls{}, redisMockCalls{}, rmqMockCalls{}, s3MockCalls{}, pipelineCall{})

func testConfiguration(t *testing.T, config mockedClientsConfig, expectedCalls methodsCalls) *mockedClients {
	worker, mocks := configureWorker(config)
	body := config.body
	if body == "" {
		body = testBody
	}
	worker.processMessage(context.Background(), amqp.Delivery{Body: []byte(body)})
	calls := methodsCalls{
		redis:    mocks.redis.calls,
		rmq:      mocks.rmq.calls,
		s3:       mocks.s3.calls,
		pipeline: mocks.pipeline.calls,
	}
	if diff := cmp.Diff(expectedCalls, calls, allowCalls); diff != "" {
		t.Errorf("Got unexpected called methods set (-want +got):\n%s", diff)
	}
	return mocks
}

func configureWorker(config mockedClientsConfig) (*Worker, *mockedClients) {
	redis := &redisMock{config: config.redisMockConfig}
	s3 := &s3Mock{config: config.s3MockConfig}
	rmq := &rmqMock{config: config.rmqMockConfig}
	pplnMock := getPipelineMock(config.pipelineMockConfig)

	ltpLogger := zerolog.Nop()

	return &Worker{
			config:    Config{3},
			redis:     redis,
			s3:        s3,
			rmq:       rmq,
			ltpLogger: &ltpLogger,
			ppln:      pplnMock.ppln,
		}, &mockedClients{
			redis:    redis,
			rmq:      rmq,
			s3:       s3,
			pipeline: pplnMock,
		}
}

var successfulCalls = methodsCalls{
	redis: redisMockCalls{
		getDocumentTask: true, getJobTask: true, onTaskStarted: true, onTaskComplete: true,
	},
	rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
	s3: s3MockCalls{
		getTextData:     true,
		saveResultsFile: true,
	},
	pipeline: pipelineCall{true},
}

func TestWorker(t *testing.T) {
	t.Run("Successful", testSuccessfulTask)
	t.Run("Successful with job_task.stop_docs_on_failure == True", testSuccessfulTaskWithDocCheck)
	t.Run("Invalid message", testInvalidMessage)
	t.Run("Failed to get Document task", testGetDocumentTaskFailed)
	t.Run("Failed to get Job task", testGetJobTaskFailed)
	t.Run("Already complete with success", testAlreadyCompletedSuccessfully)
	t.Run("Already complete with failure", testAlreadyCompletedWithFailure)
	t.Run("User cancelled", testUserCancelled)
	t.Run("Exceeded attempts", testExceededAttempts)
	t.Run("Cancelled because other worker already failed", testCancelledBecauseOfOtherWorkerFailure)
	t.Run("Failed to update task in onTaskStarted", testFailedToUpdateOnTaskStarted)
	t.Run("Unknown task in document", testUnknownTask)
	t.Run("Failed to load data from S3", testFailedToFetchFromS3)
	t.Run("Failed due to pipeline error", testPipelineError)
	t.Run("Failed due to pipeline result error", testPipelineResultError)
	t.Run("Failed to update task in onTaskFailedWithError", testFailedToUpdateOnTaskFailedWithError)
	t.Run("Failed to update task in onTaskComplete", testFailedToUpdateOnTaskComplete)
	t.Run("Failed to save result to S3", testFailedToSaveToS3)
	t.Run("Failed to acknowledge delivery", testFailedAckDelivery)
	t.Run("Failed to ping sequencer", testFailedPingSequencer)
}

func testSuccessfulTask(t *testing.T) {
	mocks := testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getDocumentTask: withValue{returnedValue: tasks.DocumentTask{
					DocID: "doc-1",
					Tasks: []string{"pos", "cws"},
				}},
			},
		},
		successfulCalls,
	)
	require.Equal(t, "key", mocks.pipeline.request.Tid)
	require.Equal(t, "他叫汤姆去拿外衣。", mocks.pipeline.request.Text)
	require.Equal(t, []types.Task{types.TaskPOS, types.TaskCWS}, mocks.pipeline.request.Tasks)
	require.Contains(t, mocks.s3.saved, "processed/documents/doc-1/key.ltp_results.json")
}

func testSuccessfulTaskWithDocCheck(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getJobTask: withValue{returnedValue: tasks.JobTask{StopDocumentsOnFailure: true}},
			},
		},
		successfulCalls,
	)
}

func testInvalidMessage(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{body: "not json"},
		methodsCalls{
			rmq: rmqMockCalls{rejectDelivery: true},
		},
	)
}

func testAlreadyCompletedSuccessfully(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getDocumentTask: withValue{
					returnedValue: tasks.DocumentTask{
						TaskStatuses: tasks.TaskStatuses{LTP: tasks.TaskInfo{Status: tasks.TaskStatusCompletedSuccess}},
					},
				},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getDocumentTask: true},
			rmq:   rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testAlreadyCompletedWithFailure(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getDocumentTask: withValue{
					returnedValue: tasks.DocumentTask{
						TaskStatuses: tasks.TaskStatuses{LTP: tasks.TaskInfo{Status: tasks.TaskStatusCompletedFailure}},
					},
				},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getDocumentTask: true},
			rmq:   rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testUserCancelled(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getJobTask: withValue{returnedValue: tasks.JobTask{UserCanceled: true}},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getDocumentTask: true, getJobTask: true, onTaskCancelled: true},
			rmq:   rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testExceededAttempts(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getDocumentTask: withValue{
					returnedValue: tasks.DocumentTask{
						TaskStatuses: tasks.TaskStatuses{LTP: tasks.TaskInfo{Attempts: 3}},
					},
				},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getDocumentTask: true, getJobTask: true, onTaskExceededRetries: true},
			rmq:   rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testCancelledBecauseOfOtherWorkerFailure(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getJobTask: withValue{
					returnedValue: tasks.JobTask{StopDocumentsOnFailure: true},
				},
				getDocumentTask: withValue{
					returnedValue: tasks.DocumentTask{FailedTasks: []string{"ocr"}},
				},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getDocumentTask: true, getJobTask: true, onTaskCancelled: true},
			rmq:   rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testFailedToUpdateOnTaskStarted(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{onTaskStarted: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getDocumentTask: true, getJobTask: true, onTaskStarted: true,
			},
			rmq: rmqMockCalls{rejectDelivery: true},
		},
	)
}

func testUnknownTask(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getDocumentTask: withValue{returnedValue: tasks.DocumentTask{Tasks: []string{"lemma"}}},
			},
		},
		methodsCalls{
			redis: redisMockCalls{
				getDocumentTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true,
			},
			rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testFailedToUpdateOnTaskComplete(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{onTaskComplete: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getDocumentTask: true, getJobTask: true, onTaskStarted: true, onTaskComplete: true,
			},
			rmq: rmqMockCalls{rejectDelivery: true},
			s3: s3MockCalls{
				getTextData:     true,
				saveResultsFile: true,
			},
			pipeline: pipelineCall{pipeline: true},
		},
	)
}

func testFailedToFetchFromS3(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			s3MockConfig: s3MockConfig{getTextData: withValue{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getDocumentTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true,
			},
			rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
			s3:  s3MockCalls{getTextData: true},
		},
	)
}

func testPipelineError(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			pipelineMockConfig: pipelineMockConfig{fail: true},
		},
		methodsCalls{
			redis: redisMockCalls{
				getDocumentTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true,
			},
			rmq:      rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
			s3:       s3MockCalls{getTextData: true},
			pipeline: pipelineCall{true},
		},
	)
}

func testPipelineResultError(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			pipelineMockConfig: pipelineMockConfig{result: `{"doc_id":"key","sentences":[],"error":"unsupported task"}`},
		},
		methodsCalls{
			redis: redisMockCalls{
				getDocumentTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true,
			},
			rmq:      rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
			s3:       s3MockCalls{getTextData: true},
			pipeline: pipelineCall{true},
		},
	)
}

func testFailedToUpdateOnTaskFailedWithError(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			pipelineMockConfig: pipelineMockConfig{fail: true},
			redisMockConfig:    redisMockConfig{onTaskFailedWithError: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getDocumentTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true,
			},
			rmq:      rmqMockCalls{rejectDelivery: true},
			s3:       s3MockCalls{getTextData: true},
			pipeline: pipelineCall{true},
		},
	)
}

func testFailedToSaveToS3(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			s3MockConfig: s3MockConfig{saveResultsFile: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getDocumentTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true,
			},
			rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
			s3: s3MockCalls{
				getTextData:     true,
				saveResultsFile: true,
			},
			pipeline: pipelineCall{true},
		},
	)
}

func testFailedAckDelivery(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			rmqMockConfig: rmqMockConfig{acknowledgeDelivery: failingMethod{fail: true}},
		},
		successfulCalls,
	)
}

func testFailedPingSequencer(t *testing.T) {
	expected := successfulCalls
	expected.rmq = rmqMockCalls{pingSequencer: true, rejectDelivery: true}
	testConfiguration(
		t,
		mockedClientsConfig{
			rmqMockConfig: rmqMockConfig{pingSequencer: failingMethod{fail: true}},
		},
		expected,
	)
}

func testGetDocumentTaskFailed(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{getDocumentTask: withValue{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{getDocumentTask: true},
			rmq:   rmqMockCalls{rejectDelivery: true},
		},
	)
}

func testGetJobTaskFailed(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{getJobTask: withValue{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{getDocumentTask: true, getJobTask: true},
			rmq:   rmqMockCalls{rejectDelivery: true},
		},
	)
}

func TestSequencerMessage(t *testing.T) {
	task := &Task{delivery: &amqp.Delivery{ContentType: "application/json"}}
	msg, err := sequencerMessage(task, Message{WorkType: "ltp", RedisKey: "key", Sender: "sequencer", Version: "1"})
	require.NoError(t, err)
	require.Equal(t, "application/json", msg.ContentType)

	var sent Message
	require.NoError(t, json.Unmarshal(msg.Body, &sent))
	require.Equal(t, Message{WorkType: "ltp", RedisKey: "key", Sender: tasks.WorkerName, Version: "1"}, sent)
}

func TestResultsFileKey(t *testing.T) {
	task := &Task{redisKey: "abc", document: &tasks.DocumentTask{DocID: "doc-9"}}
	require.Equal(t, "processed/documents/doc-9/abc.ltp_results.json", getResultsFileKey(task))
}
