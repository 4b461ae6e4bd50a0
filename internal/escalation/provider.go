// Package escalation implements the emergency escalation core: channel
// adapters with ordered provider fallback, the orchestrator that fans an
// alert out across all channels, and the append-only delivery ledger.
package escalation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/steadypath/steadypath/pkg/models"
)

// AlertMessage is the channel-agnostic alert payload composed once per
// escalation and handed to every provider.
type AlertMessage struct {
	SubjectID   string
	SubjectName string
	RiskLevel   string
	RiskFactors []string
	CapturedAt  time.Time
	Title       string
	Body        string
}

// Provider is one concrete backend capable of fulfilling a channel's
// delivery. Providers are stateless and independent; a provider reports
// success when the alert reached at least one contact.
type Provider interface {
	// Name returns the provider identifier recorded on attempts.
	Name() string

	// Send delivers the alert to the contact list.
	Send(ctx context.Context, contacts []models.Contact, msg AlertMessage) error
}

// leadingFactorCount caps how many risk factors appear in the composed
// message body.
const leadingFactorCount = 3

// ComposeAlertMessage builds the channel-agnostic alert from subject
// identity, capture time and up to three leading risk factors.
func ComposeAlertMessage(subjectID, subjectName string, factors []string, capturedAt time.Time) AlertMessage {
	leading := factors
	if len(leading) > leadingFactorCount {
		leading = leading[:leadingFactorCount]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "EMERGENCY: %s (id %s) was assessed as high-risk at %s.\n",
		subjectName, subjectID, capturedAt.Format("2006-01-02 15:04:05 MST"))
	b.WriteString("Leading risk factors: ")
	b.WriteString(strings.Join(leading, "; "))
	b.WriteString(".\n")
	b.WriteString("Please reach out to them immediately and confirm they are safe.")

	return AlertMessage{
		SubjectID:   subjectID,
		SubjectName: subjectName,
		RiskLevel:   models.RiskLevelHigh,
		RiskFactors: factors,
		CapturedAt:  capturedAt,
		Title:       fmt.Sprintf("EMERGENCY ALERT: %s needs immediate support", subjectName),
		Body:        b.String(),
	}
}
