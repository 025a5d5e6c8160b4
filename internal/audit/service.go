package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"pos-backend/internal/apperror"
	"pos-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LogOptions struct {
	EstablishmentID uint
	EntityType      string
	EntityID        string
	Action          models.AuditAction
	Description     string
	Before          any
	After           any
}

type Filter struct {
	EstablishmentID uint
	EntityType      string
	EntityID        string
	Limit           int
}

// Sink stores audit rows.
type Sink interface {
	Save(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, f Filter) ([]models.AuditLog, error)
}

type Recorder struct {
	sink Sink
	log  *zap.Logger
	now  func() time.Time
}

func NewRecorder(sink Sink, log *zap.Logger) *Recorder {
	return &Recorder{sink: sink, log: log, now: time.Now}
}

type actorKey struct{}

// WithActor attaches the staff name that audit rows are attributed to.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok {
		return a
	}
	return ""
}

// WriteLog never fails the caller's operation: the mutation already happened,
// so a sink error is logged and returned for callers that care.
func (r *Recorder) WriteLog(ctx context.Context, opts LogOptions) error {
	if r == nil {
		return nil
	}

	entry := models.AuditLog{
		CreatedAt:       r.now(),
		EstablishmentID: opts.EstablishmentID,
		Actor:           ActorFrom(ctx),
		EntityType:      opts.EntityType,
		EntityID:        opts.EntityID,
		Action:          opts.Action,
		Description:     opts.Description,
		BeforeData:      toJSON(opts.Before),
		AfterData:       toJSON(opts.After),
	}

	if err := r.sink.Save(ctx, &entry); err != nil {
		r.log.Error("audit log could not be written",
			zap.Uint("establishment_id", opts.EstablishmentID),
			zap.String("entity_type", opts.EntityType),
			zap.String("entity_id", opts.EntityID),
			zap.Error(err),
		)
		return apperror.Wrap(apperror.KindInternal, "audit log could not be written", err)
	}
	return nil
}

func (r *Recorder) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	if f.EstablishmentID == 0 {
		return nil, apperror.Validation("establishment is required")
	}
	return r.sink.List(ctx, f)
}

// jsonb columns reject empty strings, so absent snapshots are the JSON literal null.
func toJSON(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

type MemorySink struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Save(_ context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = uint(len(s.entries) + 1)
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *MemorySink) List(_ context.Context, f Filter) ([]models.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.AuditLog, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.EstablishmentID != f.EstablishmentID {
			continue
		}
		if f.EntityType != "" && e.EntityType != f.EntityType {
			continue
		}
		if f.EntityID != "" && e.EntityID != f.EntityID {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

type GormSink struct {
	db *gorm.DB
}

func NewGormSink(db *gorm.DB) *GormSink {
	return &GormSink{db: db}
}

func (s *GormSink) Save(ctx context.Context, entry *models.AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormSink) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	dbq := s.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("establishment_id = ?", f.EstablishmentID)

	if f.EntityType != "" {
		dbq = dbq.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		dbq = dbq.Where("entity_id = ?", f.EntityID)
	}
	if f.Limit > 0 {
		dbq = dbq.Limit(f.Limit)
	}

	var logs []models.AuditLog
	if err := dbq.Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
