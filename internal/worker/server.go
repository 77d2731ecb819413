package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dunamismax/pixmap/internal/config"
	"github.com/dunamismax/pixmap/internal/domain"
	"github.com/dunamismax/pixmap/internal/pipeline"
	"github.com/dunamismax/pixmap/internal/ppm"
	"github.com/dunamismax/pixmap/internal/queue"
	"github.com/dunamismax/pixmap/internal/storage"
	"github.com/dunamismax/pixmap/internal/store"
	"github.com/dunamismax/pixmap/internal/webhook"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	anonymousUser = "anonymous"

	// outcomeRetrying labels attempts that failed but will be retried.
	outcomeRetrying = "retrying"
)

type Server struct {
	logger        *log.Logger
	server        *asynq.Server
	sem           chan struct{}
	processors    map[string]jobProcessor
	webhookClient webhookSender
	jobStore      store.JobStore
	usageStore    store.UsageStore
	metrics       *metrics
	tracer        trace.Tracer
	finalAttempt  func(ctx context.Context) bool
}

type jobProcessor interface {
	Process(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

type webhookSender interface {
	Send(ctx context.Context, endpoint, event string, payload any) error
}

func NewServer(
	logger *log.Logger,
	queueCfg config.QueueConfig,
	workerCfg config.WorkerConfig,
	objectStore pipeline.ObjectStore,
	webhookClient *webhook.Client,
	jobStore store.JobStore,
	usageStore store.UsageStore,
) (*Server, error) {
	if objectStore == nil {
		return nil, fmt.Errorf("object store is required")
	}

	localProcessor, err := pipeline.NewLocalProcessor(workerCfg.LocalOutputDir)
	if err != nil {
		return nil, fmt.Errorf("initialize pipeline processor: %w", err)
	}

	objectProcessor, err := pipeline.NewObjectStoreProcessor(
		pipeline.ObjectStoreFetcher{Storage: objectStore},
		pipeline.ObjectStoreEmitter{Storage: objectStore, OutputPrefix: "outputs"},
	)
	if err != nil {
		return nil, fmt.Errorf("initialize object-store processor: %w", err)
	}

	if usageStore == nil {
		if jobAndUsageStore, ok := jobStore.(store.UsageStore); ok {
			usageStore = jobAndUsageStore
		}
	}

	s := &Server{
		logger: logger,
		server: asynq.NewServer(
			queueCfg.RedisClientOpt(),
			asynq.Config{
				Concurrency: workerCfg.Concurrency,
				Queues: map[string]int{
					queueCfg.Name: 1,
				},
				LogLevel: asynq.InfoLevel,
				ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
					retried, _ := asynq.GetRetryCount(ctx)
					maxRetry, _ := asynq.GetMaxRetry(ctx)
					logger.Printf("task failed type=%s retry=%d/%d err=%v", task.Type(), retried, maxRetry, err)
				}),
			},
		),
		sem: make(chan struct{}, max(1, workerCfg.MaxActiveJobs)),
		processors: map[string]jobProcessor{
			domain.SourceTypeLocalFile:   localProcessor,
			domain.SourceTypeS3Presigned: objectProcessor,
		},
		metrics:      newMetrics(),
		tracer:       otel.Tracer("pixmap/worker"),
		finalAttempt: lastAttempt,
	}
	if webhookClient != nil {
		s.webhookClient = webhookClient
	}
	s.jobStore = jobStore
	s.usageStore = usageStore
	return s, nil
}

func (s *Server) Run() error {
	return s.server.Run(s.mux())
}

func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

func (s *Server) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeTransformPixmap, s.handleTransform)
	return mux
}

func (s *Server) handleTransform(ctx context.Context, task *asynq.Task) error {
	startedAt := time.Now()
	outcome := domain.JobStatusFailed

	payload, err := queue.ParseTransformPayload(task)
	if err != nil {
		s.metrics.malformedTasksTotal.Inc()
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, span := s.tracer.Start(ctx, "worker.transform_pixmap", trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(
		attribute.String("job.id", payload.JobID),
		attribute.String("job.source_type", payload.SourceType),
		attribute.Int("job.pipeline_steps", len(payload.Pipeline)),
	)
	defer span.End()
	defer func() {
		s.metrics.jobDuration.WithLabelValues(payload.SourceType, outcome).Observe(time.Since(startedAt).Seconds())
		s.metrics.jobsTotal.WithLabelValues(payload.SourceType, outcome).Inc()
	}()

	processor, ok := s.processors[payload.SourceType]
	if !ok {
		err := fmt.Errorf("%w: %s", pipeline.ErrUnsupportedSourceType, payload.SourceType)
		s.failJob(ctx, span, payload, err)
		return fmt.Errorf("select processor: %v: %w", err, asynq.SkipRetry)
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		outcome = outcomeRetrying
		return fmt.Errorf("wait for worker slot: %w", ctx.Err())
	}
	s.metrics.activeJobs.Inc()
	defer func() {
		<-s.sem
		s.metrics.activeJobs.Dec()
	}()

	s.logger.Printf(
		"Working... job_id=%s source_type=%s steps=%d object_key=%s",
		payload.JobID,
		payload.SourceType,
		len(payload.Pipeline),
		payload.ObjectKey,
	)

	s.updateJobStatus(ctx, payload.JobID, domain.JobStatusProcessing)

	result, err := processor.Process(ctx, pipeline.Request{
		JobID:      payload.JobID,
		SourceType: payload.SourceType,
		ObjectKey:  payload.ObjectKey,
		Pipeline:   payload.Pipeline,
	})
	if err != nil {
		if isPermanentPipelineError(err) {
			s.failJob(ctx, span, payload, err)
			return fmt.Errorf("run pipeline: %v: %w", err, asynq.SkipRetry)
		}
		if s.finalAttempt(ctx) {
			s.failJob(ctx, span, payload, err)
		} else {
			outcome = outcomeRetrying
			span.RecordError(err)
			s.logger.Printf("job will retry job_id=%s err=%v", payload.JobID, err)
			s.updateJobStatus(ctx, payload.JobID, domain.JobStatusQueued)
		}
		return fmt.Errorf("run pipeline: %w", err)
	}

	s.logger.Printf("Processed job_id=%s outputs=%d source_format=%s", payload.JobID, len(result.Outputs), result.SourceFormat)
	s.updateJobStatus(ctx, payload.JobID, domain.JobStatusSucceeded)
	for _, output := range result.Outputs {
		s.metrics.stepsTotal.WithLabelValues(output.Action, output.Format).Inc()
	}
	s.recordUsage(ctx, payload, result, time.Since(startedAt))

	if err := s.dispatchWebhook(ctx, payload, webhook.EventJobCompleted, map[string]any{
		"job_id":        payload.JobID,
		"status":        domain.JobStatusSucceeded,
		"source_type":   payload.SourceType,
		"source_format": result.SourceFormat,
		"object_key":    payload.ObjectKey,
		"requested_at":  payload.RequestedAt,
		"completed_at":  time.Now().UTC(),
		"outputs":       result.Outputs,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook dispatch failed")
		if errors.Is(err, webhook.ErrPermanent) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	outcome = domain.JobStatusSucceeded
	span.SetStatus(codes.Ok, "processed")
	return nil
}

func (s *Server) failJob(ctx context.Context, span trace.Span, payload queue.TransformPayload, cause error) {
	s.updateJobStatus(ctx, payload.JobID, domain.JobStatusFailed)
	span.RecordError(cause)
	span.SetStatus(codes.Error, "pipeline failed")
	_ = s.dispatchWebhook(ctx, payload, webhook.EventJobFailed, map[string]any{
		"job_id":       payload.JobID,
		"status":       domain.JobStatusFailed,
		"source_type":  payload.SourceType,
		"object_key":   payload.ObjectKey,
		"requested_at": payload.RequestedAt,
		"failed_at":    time.Now().UTC(),
		"error":        cause.Error(),
	})
}

// lastAttempt reports whether asynq will give up on the task if this run
// fails. Outside an asynq handler every run is the last one.
func lastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}

// isPermanentPipelineError reports failures that a retry cannot fix: bad
// pipelines and undecodable or out-of-range pixmaps.
func isPermanentPipelineError(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidPipeline,
		pipeline.ErrUnsupportedSourceType,
		pipeline.ErrInvalidStepAction,
		pipeline.ErrUnsupportedFormat,
		pipeline.ErrMissingOperand,
		pipeline.ErrDecodeSource,
		storage.ErrObjectTooLarge,
		ppm.ErrInvalidDimension,
		ppm.ErrDimensionMismatch,
		ppm.ErrOutOfBounds,
		ppm.ErrInvalidArgument,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Server) updateJobStatus(ctx context.Context, jobID, status string) {
	if s.jobStore == nil {
		return
	}
	if _, err := s.jobStore.UpdateStatus(ctx, jobID, status); err != nil {
		s.logger.Printf("job status update failed job_id=%s status=%s err=%v", jobID, status, err)
	}
}

func (s *Server) dispatchWebhook(ctx context.Context, payload queue.TransformPayload, event string, body map[string]any) error {
	if payload.WebhookURL == "" || s.webhookClient == nil {
		return nil
	}

	if err := s.webhookClient.Send(ctx, payload.WebhookURL, event, body); err != nil {
		s.metrics.webhookFailuresTotal.WithLabelValues(event).Inc()
		s.logger.Printf("webhook delivery failed job_id=%s event=%s err=%v", payload.JobID, event, err)
		return fmt.Errorf("dispatch webhook: %w", err)
	}

	return nil
}

func (s *Server) recordUsage(ctx context.Context, payload queue.TransformPayload, result pipeline.Result, computeDuration time.Duration) {
	if s.usageStore == nil {
		return
	}

	userID := s.resolveUserID(ctx, payload)

	var (
		pixelsProcessed  int64
		totalOutputBytes int
	)
	for _, output := range result.Outputs {
		pixelsProcessed += int64(output.Width * output.Height)
		totalOutputBytes += output.Bytes
	}

	bytesSaved := int64(result.SourceBytes - totalOutputBytes)
	if bytesSaved < 0 {
		bytesSaved = 0
	}

	computeTimeMS := computeDuration.Milliseconds()
	if computeTimeMS < 1 {
		computeTimeMS = 1
	}

	usage := domain.UsageLog{
		UserID:          userID,
		JobID:           payload.JobID,
		PixelsProcessed: pixelsProcessed,
		BytesSaved:      bytesSaved,
		ComputeTimeMS:   computeTimeMS,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.usageStore.CreateUsageLog(ctx, usage); err != nil {
		s.logger.Printf("usage log write failed job_id=%s err=%v", payload.JobID, err)
		return
	}

	s.metrics.pixelsProcessedTotal.Add(float64(pixelsProcessed))
	s.metrics.bytesSavedTotal.Add(float64(bytesSaved))
	s.metrics.computeTimeMSTotal.Add(float64(computeTimeMS))
}

// resolveUserID prefers the stored job owner, then the payload, then anonymous.
func (s *Server) resolveUserID(ctx context.Context, payload queue.TransformPayload) string {
	if s.jobStore != nil {
		job, ok, err := s.jobStore.Get(ctx, payload.JobID)
		if err != nil {
			s.logger.Printf("usage lookup failed job_id=%s err=%v", payload.JobID, err)
		} else if ok && strings.TrimSpace(job.UserID) != "" {
			return job.UserID
		}
	}
	if strings.TrimSpace(payload.UserID) != "" {
		return payload.UserID
	}
	return anonymousUser
}
