package escalation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/steadypath/steadypath/internal/assessment"
	"github.com/steadypath/steadypath/pkg/metrics"
	"github.com/steadypath/steadypath/pkg/models"
)

// EscalationService defines the operations the assessment collaborator and
// operator surfaces consume.
type EscalationService interface {
	SendEmergencyAlert(ctx context.Context, subjectID, subjectName string, answers []models.AnswerRecord) *models.EscalationRecord
	GetAllNotifications(ctx context.Context) ([]*models.EscalationRecord, error)
	GetNotification(ctx context.Context, id uuid.UUID) (*models.EscalationRecord, error)
	Subscribe(fn Subscriber) func()
}

// Service orchestrates an emergency escalation: it extracts risk factors,
// fans the alert out across every channel adapter, aggregates the attempts
// into one record, persists it and surfaces an operator summary.
type Service struct {
	logger         *zap.Logger
	contacts       []models.Contact
	network        []*ChannelAdapter
	device         *ChannelAdapter
	ledger         *Ledger
	notifier       OperatorNotifier
	channelTimeout time.Duration

	now   func() time.Time
	newID func() uuid.UUID
}

// NewService creates the escalation orchestrator. network holds the
// ShortMessage, Email and ChatLink adapters; device is the DeviceLocal
// adapter, always attempted last.
func NewService(
	logger *zap.Logger,
	ledger *Ledger,
	notifier OperatorNotifier,
	contacts []models.Contact,
	network []*ChannelAdapter,
	device *ChannelAdapter,
	channelTimeout time.Duration,
) *Service {
	return &Service{
		logger:         logger,
		contacts:       contacts,
		network:        network,
		device:         device,
		ledger:         ledger,
		notifier:       notifier,
		channelTimeout: channelTimeout,
		now:            func() time.Time { return time.Now().UTC() },
		newID:          uuid.New,
	}
}

// SendEmergencyAlert runs one full escalation and always returns a record
// with a terminal status. It never returns an error: every failure is
// captured as attempt data instead.
func (s *Service) SendEmergencyAlert(ctx context.Context, subjectID, subjectName string, answers []models.AnswerRecord) *models.EscalationRecord {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	capturedAt := s.now()

	factors := assessment.ExtractRiskFactors(answers)
	msg := ComposeAlertMessage(subjectID, subjectName, factors, capturedAt)

	event := models.RiskEvent{
		SubjectID:   subjectID,
		SubjectName: subjectName,
		RiskLevel:   models.RiskLevelHigh,
		RawAnswers:  answers,
		CapturedAt:  capturedAt,
	}
	record := &models.EscalationRecord{
		ID:        s.newID(),
		Message:   msg.Body,
		Status:    models.EscalationPending,
		CreatedAt: capturedAt,
	}
	record.SetRiskEvent(event)
	record.SetRiskFactors(factors)
	record.SetTargetContacts(s.contacts)

	s.logger.Info("Emergency escalation started",
		zap.String("record_id", record.ID.String()),
		zap.String("subject_id", subjectID),
		zap.Int("risk_factors", len(factors)))

	// Fan out the networked channels concurrently; each adapter writes
	// only its own slot, joined before aggregation.
	attempts := make([]models.ChannelAttempt, len(s.network)+1)
	var g errgroup.Group
	for i, adapter := range s.network {
		i, adapter := i, adapter
		g.Go(func() error {
			cctx := ctx
			if s.channelTimeout > 0 {
				var cancel context.CancelFunc
				cctx, cancel = context.WithTimeout(ctx, s.channelTimeout)
				defer cancel()
			}
			attempts[i] = adapter.Attempt(cctx, s.contacts, msg)
			return nil
		})
	}
	_ = g.Wait()

	// DeviceLocal runs unconditionally, after the join, with no timeout:
	// it must produce an artifact even under total network failure.
	attempts[len(s.network)] = s.device.Attempt(ctx, s.contacts, msg)

	for i := range attempts {
		attempts[i].ID = s.newID()
		attempts[i].RecordID = record.ID
	}
	record.Attempts = attempts

	record.Status = models.EscalationFailed
	if record.AnySucceeded() {
		record.Status = models.EscalationSent
	}

	if err := s.ledger.Append(ctx, record); err != nil {
		s.logger.Error("Ledger append failed, record kept in memory only",
			zap.String("record_id", record.ID.String()),
			zap.Error(err))
	}

	metrics.EscalationsTotal.WithLabelValues(string(record.Status)).Inc()
	metrics.EscalationDuration.Observe(time.Since(start).Seconds())

	s.notifier.EscalationFinished(record)

	s.logger.Info("Emergency escalation finished",
		zap.String("record_id", record.ID.String()),
		zap.String("status", string(record.Status)))
	return record
}

// GetAllNotifications returns the full escalation history.
func (s *Service) GetAllNotifications(ctx context.Context) ([]*models.EscalationRecord, error) {
	return s.ledger.List(ctx)
}

// GetNotification returns one record by id.
func (s *Service) GetNotification(ctx context.Context, id uuid.UUID) (*models.EscalationRecord, error) {
	return s.ledger.Get(ctx, id)
}

// Subscribe registers a live-feed callback on the ledger.
func (s *Service) Subscribe(fn Subscriber) func() {
	return s.ledger.Subscribe(fn)
}
