package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Channel identifies a category of communication used to reach responders.
type Channel string

const (
	ChannelShortMessage Channel = "short_message"
	ChannelEmail        Channel = "email"
	ChannelChatLink     Channel = "chat_link"
	ChannelDeviceLocal  Channel = "device_local"
)

// AttemptOutcome is the terminal result of one provider chain invocation.
type AttemptOutcome string

const (
	OutcomeSuccess AttemptOutcome = "success"
	OutcomeFailure AttemptOutcome = "failure"
)

// EscalationStatus is the aggregate delivery status of one escalation.
type EscalationStatus string

const (
	EscalationPending EscalationStatus = "pending"
	EscalationSent    EscalationStatus = "sent"
	EscalationFailed  EscalationStatus = "failed"
)

// RiskLevelHigh is the only assessment tier that triggers an escalation.
const RiskLevelHigh = "high"

// AnswerRecord is a single answered assessment question.
type AnswerRecord struct {
	QuestionID     int `json:"question_id" validate:"min=0"`
	SelectedOption int `json:"selected_option" validate:"min=0"`
}

// Contact is a configured human responder. Contacts come from configuration
// and are never mutated at runtime.
type Contact struct {
	Label       string `json:"label" mapstructure:"label" validate:"required"`
	PhoneNumber string `json:"phone_number" mapstructure:"phone_number" validate:"required"`
	Email       string `json:"email" mapstructure:"email" validate:"omitempty,email"`
	ChatHandle  string `json:"chat_handle" mapstructure:"chat_handle"`
	IsPrimary   bool   `json:"is_primary" mapstructure:"is_primary"`
}

// RiskEvent captures one assessment submission that resolved to the highest
// risk tier. Immutable after creation.
type RiskEvent struct {
	SubjectID   string         `json:"subject_id"`
	SubjectName string         `json:"subject_name"`
	RiskLevel   string         `json:"risk_level"`
	RawAnswers  []AnswerRecord `json:"raw_answers"`
	CapturedAt  time.Time      `json:"captured_at"`
}

// ChannelAttempt records the outcome of one channel's provider chain for a
// single escalation. One row per channel per escalation.
type ChannelAttempt struct {
	ID          uuid.UUID      `json:"id" gorm:"primaryKey;type:uuid"`
	RecordID    uuid.UUID      `json:"record_id" gorm:"type:uuid;index"`
	Channel     Channel        `json:"channel" gorm:"type:varchar(20)"`
	Provider    string         `json:"provider" gorm:"type:varchar(60)"`
	Outcome     AttemptOutcome `json:"outcome" gorm:"type:varchar(10)"`
	Detail      string         `json:"detail" gorm:"type:text"`
	AttemptedAt time.Time      `json:"attempted_at"`
}

// Succeeded reports whether the attempt delivered.
func (a ChannelAttempt) Succeeded() bool { return a.Outcome == OutcomeSuccess }

// EscalationRecord is the aggregated outcome of one emergency-alert
// invocation across all channels. Append-only: never edited or deleted.
type EscalationRecord struct {
	ID             uuid.UUID        `json:"id" gorm:"primaryKey;type:uuid"`
	SubjectID      string           `json:"subject_id" gorm:"index"`
	SubjectName    string           `json:"subject_name"`
	RiskLevel      string           `json:"risk_level" gorm:"type:varchar(10)"`
	RiskFactorsRaw string           `json:"-" gorm:"column:risk_factors;type:text"`
	AnswersRaw     string           `json:"-" gorm:"column:raw_answers;type:text"`
	ContactsRaw    string           `json:"-" gorm:"column:target_contacts;type:text"`
	Message        string           `json:"message" gorm:"type:text"`
	Attempts       []ChannelAttempt `json:"attempts" gorm:"foreignKey:RecordID"`
	Status         EscalationStatus `json:"status" gorm:"type:varchar(10);index"`
	CapturedAt     time.Time        `json:"captured_at"`
	CreatedAt      time.Time        `json:"created_at"`
}

// SetRiskEvent stores the captured assessment event on the record.
func (r *EscalationRecord) SetRiskEvent(ev RiskEvent) {
	r.SubjectID = ev.SubjectID
	r.SubjectName = ev.SubjectName
	r.RiskLevel = ev.RiskLevel
	r.CapturedAt = ev.CapturedAt
	r.SetRawAnswers(ev.RawAnswers)
}

// RiskEvent reassembles the captured assessment event from the record.
func (r *EscalationRecord) RiskEvent() RiskEvent {
	return RiskEvent{
		SubjectID:   r.SubjectID,
		SubjectName: r.SubjectName,
		RiskLevel:   r.RiskLevel,
		RawAnswers:  r.RawAnswers(),
		CapturedAt:  r.CapturedAt,
	}
}

// RiskFactors decodes the serialized factor list.
func (r *EscalationRecord) RiskFactors() []string {
	var out []string
	if r.RiskFactorsRaw != "" {
		_ = json.Unmarshal([]byte(r.RiskFactorsRaw), &out)
	}
	return out
}

// SetRiskFactors serializes the factor list for storage.
func (r *EscalationRecord) SetRiskFactors(factors []string) {
	b, _ := json.Marshal(factors)
	r.RiskFactorsRaw = string(b)
}

// RawAnswers decodes the serialized assessment answers.
func (r *EscalationRecord) RawAnswers() []AnswerRecord {
	var out []AnswerRecord
	if r.AnswersRaw != "" {
		_ = json.Unmarshal([]byte(r.AnswersRaw), &out)
	}
	return out
}

// SetRawAnswers serializes the assessment answers for storage.
func (r *EscalationRecord) SetRawAnswers(answers []AnswerRecord) {
	b, _ := json.Marshal(answers)
	r.AnswersRaw = string(b)
}

// TargetContacts decodes the contact list the escalation was sent to.
func (r *EscalationRecord) TargetContacts() []Contact {
	var out []Contact
	if r.ContactsRaw != "" {
		_ = json.Unmarshal([]byte(r.ContactsRaw), &out)
	}
	return out
}

// SetTargetContacts serializes the contact list for storage.
func (r *EscalationRecord) SetTargetContacts(contacts []Contact) {
	b, _ := json.Marshal(contacts)
	r.ContactsRaw = string(b)
}

// MarshalJSON renders the record with the serialized columns decoded, so
// API consumers see risk_factors, raw_answers and target_contacts as
// structured fields.
func (r *EscalationRecord) MarshalJSON() ([]byte, error) {
	type alias EscalationRecord
	return json.Marshal(struct {
		*alias
		RiskFactors    []string       `json:"risk_factors"`
		RawAnswers     []AnswerRecord `json:"raw_answers"`
		TargetContacts []Contact      `json:"target_contacts"`
	}{
		alias:          (*alias)(r),
		RiskFactors:    r.RiskFactors(),
		RawAnswers:     r.RawAnswers(),
		TargetContacts: r.TargetContacts(),
	})
}

// AttemptFor returns the attempt recorded for the given channel, if any.
func (r *EscalationRecord) AttemptFor(ch Channel) *ChannelAttempt {
	for i := range r.Attempts {
		if r.Attempts[i].Channel == ch {
			return &r.Attempts[i]
		}
	}
	return nil
}

// AnySucceeded reports whether at least one attempt across any channel
// delivered.
func (r *EscalationRecord) AnySucceeded() bool {
	for _, a := range r.Attempts {
		if a.Succeeded() {
			return true
		}
	}
	return false
}
