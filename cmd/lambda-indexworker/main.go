package main

// Build the indexing consumer as a Lambda with an SQS event source:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-indexworker

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"carevault-backend/internal/bootstrap"
	"carevault-backend/internal/queue"
	"carevault-backend/internal/shared/config"
	"carevault-backend/internal/shared/metrics"
	"carevault-backend/internal/shared/telemetry"
	"carevault-backend/internal/workerproc"
)

var (
	initOnce  sync.Once
	initErr   error
	processor jobProcessor
)

type jobProcessor interface {
	Process(ctx context.Context, msg queue.Message) error
}

func initApp() {
	app, err := bootstrap.Build(config.Load())
	if err != nil {
		initErr = err
		return
	}
	if app.RAGFlow == nil {
		initErr = errors.New("RAGFLOW_API_URL is required for the index worker")
		return
	}
	processor = &workerproc.Processor{Store: app.Store, Indexer: app.RAGFlow}
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		// Nothing ran; hand the whole batch back so it is redelivered once the
		// configuration is fixed.
		log.Printf("bootstrap error: %v", initErr)
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, nil
	}
	return handleEvent(ctx, processor, event), nil
}

// handleEvent runs every job once. Failed jobs are logged and dropped, never
// reported as batch failures, so SQS does not redeliver them.
func handleEvent(ctx context.Context, proc jobProcessor, event events.SQSEvent) events.SQSEventResponse {
	for _, record := range event.Records {
		metrics.IncIndexJobsReceived()
		fields := map[string]any{"sqs_message_id": record.MessageId}

		msg, _, err := workerproc.ParseMessage(record.Body)
		if err != nil {
			fields["error"] = err.Error()
			telemetry.Error("worker.indexing.decode_failed", fields)
			metrics.IncIndexJobsDropped()
			continue
		}
		fields["document_id"] = msg.DocumentID
		if msg.RequestID != "" {
			fields["request_id"] = msg.RequestID
		}

		if err := proc.Process(ctx, msg); err != nil {
			fields["error"] = err.Error()
			telemetry.Error("worker.indexing.failed", fields)
			metrics.IncIndexJobsFailed()
			continue
		}
		telemetry.Info("worker.indexing.completed", fields)
		metrics.IncIndexJobsCompleted()
	}
	return events.SQSEventResponse{}
}

func main() {
	lambda.Start(handler)
}
