package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hedmana/chess-analysis-board/app/config"
	"github.com/hedmana/chess-analysis-board/app/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"
)

// QueueClient is the part of *sqs.Client the job pipeline uses.
type QueueClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func NewQueueClient(ctx context.Context) (*sqs.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return sqs.NewFromConfig(awsCfg), nil
}

func EnqueueJob(ctx context.Context, q QueueClient, queueURL string, job models.JobMessage) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.JobID, err)
	}
	_, err = q.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("send job %s: %w", job.JobID, err)
	}
	return nil
}

// Worker drains analysis jobs from the queue. Store may be nil, in which
// case reports are only logged.
type Worker struct {
	Config    *config.Config
	Log       zerolog.Logger
	Queue     QueueClient
	Store     JobStore
	NewEngine EngineFactory

	// JobTimeout bounds one job, analysis and storage together.
	JobTimeout time.Duration
	// IdleSleep is how long to wait after an empty or failed receive.
	IdleSleep time.Duration
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.Log.Info().Str("queue", w.Config.QueueURL).Msg("worker started")
	for {
		n, err := w.Poll(ctx)
		if ctx.Err() != nil {
			w.Log.Info().Msg("worker stopping")
			return nil
		}
		if err != nil {
			w.Log.Warn().Err(err).Msg("receive failed")
		}
		if err != nil || n == 0 {
			select {
			case <-ctx.Done():
			case <-time.After(w.IdleSleep):
			}
		}
	}
}

// Poll receives one round of messages and processes them. A message is
// deleted once its job succeeds or when it can never succeed; otherwise it
// is left for the queue to redeliver.
func (w *Worker) Poll(ctx context.Context) (int, error) {
	recvCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	resp, err := w.Queue.ReceiveMessage(recvCtx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(w.Config.QueueURL),
		MaxNumberOfMessages: 5,
		WaitTimeSeconds:     20,  // enable long polling
		VisibilityTimeout:   300, // seconds; must be > max job time
	})
	cancel()
	if err != nil {
		return 0, err
	}

	for _, m := range resp.Messages {
		if m.Body == nil {
			w.Log.Warn().Msg("received message with empty body, skipping")
			w.deleteMessage(ctx, m)
			continue
		}

		var job models.JobMessage
		if err := json.Unmarshal([]byte(*m.Body), &job); err != nil {
			w.Log.Warn().Err(err).Str("body", *m.Body).Msg("failed to unmarshal job message")
			w.deleteMessage(ctx, m)
			continue
		}

		jobCtx, jobCancel := context.WithTimeout(ctx, w.jobTimeout())
		err := w.Process(jobCtx, job)
		jobCancel()

		var permanent *permanentError
		switch {
		case err == nil:
			w.deleteMessage(ctx, m)
		case errors.As(err, &permanent):
			w.Log.Warn().Err(err).Str("job_id", job.JobID).Msg("dropping job")
			w.deleteMessage(ctx, m)
		default:
			// left on the queue; it becomes visible again after VisibilityTimeout
			w.Log.Error().Err(err).Str("job_id", job.JobID).Msg("error processing job")
		}
	}
	return len(resp.Messages), nil
}

func (w *Worker) jobTimeout() time.Duration {
	if w.JobTimeout > 0 {
		return w.JobTimeout
	}
	return 5 * time.Minute
}

// permanentError marks jobs that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Process analyzes one job and stores its reports.
func (w *Worker) Process(ctx context.Context, job models.JobMessage) error {
	log := w.Log.With().Str("job_id", job.JobID).Logger()

	positions, err := PositionsFromJob(job.FENs, job.PGN)
	if err != nil {
		w.finish(ctx, log, job.JobID, models.JobFailed)
		return &permanentError{err: err}
	}

	reports, err := AnalyzeBatch(ctx, w.Config, log, w.NewEngine, positions)
	if err != nil {
		return err
	}

	if w.Store == nil {
		for _, r := range reports {
			log.Info().Interface("report", r).Msg("position analyzed")
		}
		return nil
	}
	if err := w.Store.SaveReports(ctx, job.JobID, reports); err != nil {
		return fmt.Errorf("save reports: %w", err)
	}
	w.finish(ctx, log, job.JobID, models.JobCompleted)
	return nil
}

func (w *Worker) finish(ctx context.Context, log zerolog.Logger, jobID, status string) {
	if w.Store == nil {
		return
	}
	if err := w.Store.FinishJob(ctx, jobID, status); err != nil {
		log.Warn().Err(err).Str("status", status).Msg("failed to update job status")
	}
}

func (w *Worker) deleteMessage(ctx context.Context, m sqstypes.Message) {
	if m.ReceiptHandle == nil {
		return
	}
	_, err := w.Queue.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(w.Config.QueueURL),
		ReceiptHandle: m.ReceiptHandle,
	})
	if err != nil {
		w.Log.Warn().Err(err).Msg("failed to delete SQS message")
	}
}
