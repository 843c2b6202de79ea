package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wowcampus/auth-api/internal/models"
	"github.com/wowcampus/auth-api/internal/repository"
	"github.com/wowcampus/auth-api/pkg/config"
	"github.com/wowcampus/auth-api/pkg/jobs"
)

// AuditService writes the session event trail asynchronously so a
// slow or failing audit insert never delays an auth response. Events
// flow through an in-memory queue with retry; at-most-once across
// process restarts is acceptable for this trail.
type AuditService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService builds the dispatcher on top of the audit
// repository.
func NewAuditService(repo *repository.AuditRepository, cfg config.AuthConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := func(ctx context.Context, job jobs.Job) error {
		log, ok := job.Payload.(*models.AuditLog)
		if !ok {
			logger.Error("audit job carried unexpected payload", zap.String("job_id", job.ID))
			return nil
		}
		return repo.Create(ctx, log)
	}

	queue := jobs.NewQueue("audit", handler, jobs.QueueConfig{
		Workers:    cfg.AuditWorkers,
		BufferSize: cfg.AuditBuffer,
		Logger:     logger,
	})

	return &AuditService{queue: queue, logger: logger}
}

// Start launches the queue workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues one audit entry. Dropping the entry when the queue
// is unavailable is deliberate; auth operations never fail on audit.
func (s *AuditService) Record(log *models.AuditLog) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    log.Action,
		Payload: log,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("dropping audit entry", zap.String("action", log.Action), zap.Error(err))
	}
}
