package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reqsync/internal/messaging/producer"
	"reqsync/internal/models"
	remote "reqsync/remote/client"
	"reqsync/storage/store"
)

// Service is the ingestion path: store locally first, then try the remote once.
type Service struct {
	store     store.Store
	forwarder remote.Forwarder
	events    *EventBatcher
	logger    *log.Logger
	tracer    trace.Tracer
}

// NewService creates a new Service instance
func NewService(s store.Store, f remote.Forwarder, p producer.Producer, l *log.Logger, batchSize int, batchTimeout time.Duration) *Service {
	return &Service{
		store:     s,
		forwarder: f,
		events:    NewEventBatcher(batchSize, batchTimeout, p, l),
		logger:    l,
		tracer:    otel.Tracer("reqsync/ingestion"),
	}
}

// Submit stores payload as a new pending record and makes one push attempt.
//
// The only error returned is a local store failure. Whatever the remote says,
// a stored record is a successful submission; the reconciler retries later.
func (s *Service) Submit(ctx context.Context, payload models.Payload) (*models.Record, error) {
	ctx, span := s.tracer.Start(ctx, "ingestion.Submit")
	defer span.End()

	rec := &models.Record{
		ID:        uuid.NewString(),
		Payload:   payload,
		Status:    models.StatusNew,
		CreatedAt: time.Now().UTC(),
		SyncState: models.SyncPending,
	}
	span.SetAttributes(attribute.String("record.id", rec.ID))

	if err := s.store.Append(ctx, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "local store failure")
		return nil, fmt.Errorf("failed to store record %s: %w", rec.ID, err)
	}
	s.events.Add(models.NewRecordEvent(models.EventIngested, rec.ID, ""))

	// The record is durable now; a client disconnect must not cut the push short.
	pushCtx := context.WithoutCancel(ctx)
	start := time.Now()
	out := s.forwarder.Push(pushCtx, *rec)
	span.SetAttributes(attribute.String("push.verdict", out.Verdict.String()), attribute.Int("push.status", out.StatusCode))

	switch out.Verdict {
	case remote.Accepted:
		if err := s.store.MarkSynced(pushCtx, rec.ID); err != nil {
			s.logger.Printf("Service: record %s accepted remotely but could not be marked synced: %v", rec.ID, err)
			break
		}
		s.events.Add(models.NewRecordEvent(models.EventSynced, rec.ID, ""))
	case remote.Rejected:
		if err := s.store.MarkRejected(pushCtx, rec.ID, out.Reason); err != nil {
			s.logger.Printf("Service: record %s rejected remotely but could not be marked: %v", rec.ID, err)
			break
		}
		s.events.Add(models.NewRecordEvent(models.EventRejected, rec.ID, out.Reason))
		s.logger.Printf("Service: record %s rejected by remote: %s", rec.ID, out.Reason)
	default:
		s.logger.Printf("Service: record %s stored, remote unreachable (%s), left for reconciler", rec.ID, out.Reason)
	}
	s.logger.Printf("Service: record %s push %s in %v", rec.ID, out.Verdict, time.Since(start))

	if current, err := s.store.Get(pushCtx, rec.ID); err == nil {
		return current, nil
	}
	return rec, nil
}

// Close flushes pending lifecycle events
func (s *Service) Close() {
	s.events.Close()
}
