package escalation_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/steadypath/steadypath/internal/escalation"
	"github.com/steadypath/steadypath/pkg/models"
)

func setupLedger(t *testing.T) *escalation.Ledger {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	ledger, err := escalation.NewLedger(zap.NewNop(), db)
	require.NoError(t, err)
	return ledger
}

func sampleRecord(subjectID string) *models.EscalationRecord {
	rec := &models.EscalationRecord{
		ID:          uuid.New(),
		SubjectID:   subjectID,
		SubjectName: "Test User",
		RiskLevel:   models.RiskLevelHigh,
		Status:      models.EscalationSent,
		CapturedAt:  nowStub(),
		CreatedAt:   nowStub(),
	}
	rec.SetRiskFactors([]string{"frequent cravings"})
	rec.SetTargetContacts(testContacts)
	rec.Attempts = []models.ChannelAttempt{
		{ID: uuid.New(), RecordID: rec.ID, Channel: models.ChannelDeviceLocal, Provider: "device-local", Outcome: models.OutcomeSuccess, Detail: "delivered via device-local", AttemptedAt: nowStub()},
	}
	return rec
}

func TestLedgerAppendIsMonotonic(t *testing.T) {
	ledger := setupLedger(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, ledger.Append(ctx, sampleRecord("u1")))
		records, err := ledger.List(ctx)
		require.NoError(t, err)
		assert.Len(t, records, i)
	}
}

func TestLedgerGet(t *testing.T) {
	ledger := setupLedger(t)
	ctx := context.Background()

	rec := sampleRecord("u1")
	require.NoError(t, ledger.Append(ctx, rec))

	got, err := ledger.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.SubjectID, got.SubjectID)
	assert.Len(t, got.Attempts, 1)
	assert.Equal(t, []string{"frequent cravings"}, got.RiskFactors())

	_, err = ledger.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLedgerSubscribersSeeEveryAppend(t *testing.T) {
	ledger := setupLedger(t)
	ctx := context.Background()

	var seen [][]*models.EscalationRecord
	unsubscribe := ledger.Subscribe(func(records []*models.EscalationRecord) {
		seen = append(seen, records)
	})

	first := sampleRecord("u1")
	require.NoError(t, ledger.Append(ctx, first))
	require.Len(t, seen, 1, "subscriber must fire synchronously on append")
	assert.Len(t, seen[0], 1)
	assert.Equal(t, first.ID, seen[0][0].ID)

	unsubscribe()
	require.NoError(t, ledger.Append(ctx, sampleRecord("u2")))
	assert.Len(t, seen, 1, "unsubscribed callback must not fire")
}

func TestLedgerNotifiesFromCacheWhenReadBackFails(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	ledger, err := escalation.NewLedger(zap.NewNop(), db)
	require.NoError(t, err)
	ctx := context.Background()

	first := sampleRecord("u1")
	require.NoError(t, ledger.Append(ctx, first))

	var seen [][]*models.EscalationRecord
	ledger.Subscribe(func(records []*models.EscalationRecord) {
		seen = append(seen, records)
	})

	// Break the read path only: the record row still inserts, but the
	// Preload'd history query now fails.
	require.NoError(t, db.Migrator().DropTable(&models.ChannelAttempt{}))

	second := sampleRecord("u2")
	second.Attempts = nil
	require.NoError(t, ledger.Append(ctx, second))

	require.Len(t, seen, 1, "subscriber must fire even when the read-back fails")
	require.Len(t, seen[0], 2)
	assert.Equal(t, second.ID, seen[0][1].ID)
}

func TestLedgerSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)
	ledger, err := escalation.NewLedger(zap.NewNop(), db)
	require.NoError(t, err)
	rec := sampleRecord("u1")
	require.NoError(t, ledger.Append(ctx, rec))

	// Reopen against the same file; history must load in full.
	db2, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)
	reopened, err := escalation.NewLedger(zap.NewNop(), db2)
	require.NoError(t, err)

	records, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)
	assert.Len(t, records[0].Attempts, 1)
}
