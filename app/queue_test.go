package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/hedmana/chess-analysis-board/app/models"
	"github.com/hedmana/chess-analysis-board/app/rules"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"
)

type fakeQueue struct {
	mu       sync.Mutex
	sendErr  error
	sent     []string
	inbox    []sqstypes.Message
	deleted  []string
	queueURL string
}

func (q *fakeQueue) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.sendErr != nil {
		return nil, q.sendErr
	}
	q.queueURL = aws.ToString(in.QueueUrl)
	q.sent = append(q.sent, aws.ToString(in.MessageBody))
	return &sqs.SendMessageOutput{}, nil
}

func (q *fakeQueue) ReceiveMessage(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	msgs := q.inbox
	q.inbox = nil
	return &sqs.ReceiveMessageOutput{Messages: msgs}, nil
}

func (q *fakeQueue) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func message(t *testing.T, handle string, job any) sqstypes.Message {
	t.Helper()
	var body string
	switch v := job.(type) {
	case string:
		body = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = string(b)
	}
	return sqstypes.Message{Body: aws.String(body), ReceiptHandle: aws.String(handle)}
}

func TestEnqueueJob(t *testing.T) {
	q := &fakeQueue{}
	job := models.JobMessage{JobID: "j1", FENs: []string{rules.Start}}
	if err := EnqueueJob(context.Background(), q, "https://sqs.test/q", job); err != nil {
		t.Fatalf("EnqueueJob error: %v", err)
	}
	if q.queueURL != "https://sqs.test/q" || len(q.sent) != 1 {
		t.Fatalf("unexpected send: url=%q sent=%v", q.queueURL, q.sent)
	}

	q.sendErr = errors.New("throttled")
	if err := EnqueueJob(context.Background(), q, "https://sqs.test/q", job); err == nil {
		t.Fatalf("EnqueueJob should surface send errors")
	}
}

func newTestWorker(q *fakeQueue, store JobStore) *Worker {
	factory := &countingFactory{proto: fakeEngine{name: "fake", best: "e2e4"}}
	return &Worker{
		Config:    batchConfig(2),
		Log:       zerolog.Nop(),
		Queue:     q,
		Store:     store,
		NewEngine: factory.New,
	}
}

func TestWorkerPollProcessesAndDeletes(t *testing.T) {
	store := newFakeStore()
	q := &fakeQueue{inbox: []sqstypes.Message{
		message(t, "h1", models.JobMessage{JobID: "job-1", PGN: "1. e4 e5 *"}),
	}}
	w := newTestWorker(q, store)

	n, err := w.Poll(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("Poll = (%d,%v), want (1,nil)", n, err)
	}
	if got := len(store.saved["job-1"]); got != 3 {
		t.Fatalf("saved %d reports, want 3", got)
	}
	if store.finished["job-1"] != models.JobCompleted {
		t.Fatalf("job status = %q", store.finished["job-1"])
	}
	if len(q.deleted) != 1 || q.deleted[0] != "h1" {
		t.Fatalf("deleted = %v", q.deleted)
	}
}

func TestWorkerDropsPoisonMessages(t *testing.T) {
	store := newFakeStore()
	q := &fakeQueue{inbox: []sqstypes.Message{
		message(t, "garbled", "{not json"),
		message(t, "empty-job", models.JobMessage{JobID: "job-2"}),
		{ReceiptHandle: aws.String("no-body")},
	}}
	w := newTestWorker(q, store)

	if _, err := w.Poll(context.Background()); err != nil {
		t.Fatalf("Poll error: %v", err)
	}
	if len(q.deleted) != 3 {
		t.Fatalf("all poison messages should be deleted, got %v", q.deleted)
	}
	if store.finished["job-2"] != models.JobFailed {
		t.Fatalf("job-2 status = %q, want failed", store.finished["job-2"])
	}
}

func TestWorkerLeavesFailedJobsForRetry(t *testing.T) {
	store := newFakeStore()
	store.failSave = true
	q := &fakeQueue{inbox: []sqstypes.Message{
		message(t, "h1", models.JobMessage{JobID: "job-3", FENs: []string{rules.Start}}),
	}}
	w := newTestWorker(q, store)

	if _, err := w.Poll(context.Background()); err != nil {
		t.Fatalf("Poll error: %v", err)
	}
	if len(q.deleted) != 0 {
		t.Fatalf("a job that failed to save must stay on the queue, deleted %v", q.deleted)
	}
	if _, ok := store.finished["job-3"]; ok {
		t.Fatalf("job-3 should not be marked finished")
	}
}

func TestWorkerWithoutStore(t *testing.T) {
	q := &fakeQueue{inbox: []sqstypes.Message{
		message(t, "h1", models.JobMessage{JobID: "job-4", FENs: []string{rules.Start}}),
	}}
	w := newTestWorker(q, nil)

	if _, err := w.Poll(context.Background()); err != nil {
		t.Fatalf("Poll error: %v", err)
	}
	if len(q.deleted) != 1 {
		t.Fatalf("job should be acknowledged, deleted %v", q.deleted)
	}
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	q := &fakeQueue{}
	w := newTestWorker(q, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run error: %v", err)
	}
}
