package escalation

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/steadypath/steadypath/pkg/models"
)

// Subscriber receives the complete escalation history after every append.
type Subscriber func(records []*models.EscalationRecord)

// Ledger is the durable, subscribable store of escalation records. Append
// is the only mutator and the orchestrator is the only writer; records are
// never edited or removed.
type Ledger struct {
	logger *zap.Logger
	db     *gorm.DB

	mu       sync.Mutex
	subs     map[uint64]Subscriber
	nextSub  uint64
	snapshot []*models.EscalationRecord
}

// NewLedger creates the ledger and migrates its schema.
func NewLedger(logger *zap.Logger, db *gorm.DB) (*Ledger, error) {
	if db == nil {
		return nil, fmt.Errorf("nil db")
	}
	if err := db.AutoMigrate(&models.EscalationRecord{}, &models.ChannelAttempt{}); err != nil {
		return nil, fmt.Errorf("migrate ledger schema: %w", err)
	}
	l := &Ledger{
		logger: logger,
		db:     db,
		subs:   make(map[uint64]Subscriber),
	}
	if records, err := l.List(context.Background()); err == nil {
		l.snapshot = records
	} else {
		logger.Warn("Ledger history preload failed", zap.Error(err))
	}
	return l, nil
}

// Append persists one finalized record and synchronously notifies every
// subscriber with the full current history.
func (l *Ledger) Append(ctx context.Context, record *models.EscalationRecord) error {
	if record == nil {
		return fmt.Errorf("nil record")
	}
	if err := l.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("append escalation record: %w", err)
	}

	records, err := l.List(ctx)

	l.mu.Lock()
	if err != nil {
		// Read-back failed but the row is committed; notify from the
		// cached history so subscribers still see this append.
		l.logger.Error("Ledger list after append failed, notifying from cached history", zap.Error(err))
		records = append(append([]*models.EscalationRecord{}, l.snapshot...), record)
	}
	l.snapshot = records
	subs := make([]Subscriber, 0, len(l.subs))
	for _, fn := range l.subs {
		subs = append(subs, fn)
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn(records)
	}
	return nil
}

// List returns the full escalation history, oldest first.
func (l *Ledger) List(ctx context.Context) ([]*models.EscalationRecord, error) {
	var records []*models.EscalationRecord
	err := l.db.WithContext(ctx).
		Preload("Attempts").
		Order("created_at asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list escalation records: %w", err)
	}
	return records, nil
}

// Get returns a single record by id, or gorm.ErrRecordNotFound.
func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*models.EscalationRecord, error) {
	var record models.EscalationRecord
	err := l.db.WithContext(ctx).
		Preload("Attempts").
		First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Subscribe registers a callback invoked synchronously after every append.
// The returned function removes the subscription.
func (l *Ledger) Subscribe(fn Subscriber) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}
