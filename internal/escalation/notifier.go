package escalation

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/steadypath/steadypath/pkg/models"
)

// OperatorNotifier is the port through which the orchestrator surfaces a
// human-visible summary of an escalation, kept separate from the
// escalation decision logic.
type OperatorNotifier interface {
	EscalationFinished(record *models.EscalationRecord)
}

// TerminalNotifier prints an attention-grabbing banner on the operator's
// terminal, with an audible bell, so a human always learns about a
// high-risk event even when every networked channel failed.
type TerminalNotifier struct {
	logger *zap.Logger
	out    io.Writer
}

// NewTerminalNotifier creates a notifier writing to stdout.
func NewTerminalNotifier(logger *zap.Logger) *TerminalNotifier {
	return &TerminalNotifier{logger: logger, out: os.Stdout}
}

// EscalationFinished implements OperatorNotifier.
func (n *TerminalNotifier) EscalationFinished(record *models.EscalationRecord) {
	var b strings.Builder
	b.WriteString("\a\n")
	b.WriteString("############################################################\n")
	fmt.Fprintf(&b, "##  EMERGENCY ESCALATION %s\n", strings.ToUpper(string(record.Status)))
	fmt.Fprintf(&b, "##  Subject: %s (id %s)\n", record.SubjectName, record.SubjectID)
	b.WriteString("##\n")
	for _, a := range record.Attempts {
		mark := "FAILED "
		if a.Succeeded() {
			mark = "OK     "
		}
		fmt.Fprintf(&b, "##  %s %-14s %s\n", mark, a.Channel, a.Detail)
	}
	b.WriteString("##\n")

	if networkDelivered(record) {
		b.WriteString("##  Responders were alerted automatically. Confirm contact\n")
		b.WriteString("##  was made and log the outcome on the dashboard.\n")
	} else {
		b.WriteString("##  ALL AUTOMATED NETWORK CHANNELS FAILED.\n")
		b.WriteString("##  CALL THESE NUMBERS NOW:\n")
		for _, c := range record.TargetContacts() {
			marker := " "
			if c.IsPrimary {
				marker = "*"
			}
			fmt.Fprintf(&b, "##   %s %s  %s\n", marker, c.Label, c.PhoneNumber)
		}
	}
	b.WriteString("############################################################\n\n")

	if _, err := io.WriteString(n.out, b.String()); err != nil {
		n.logger.Error("Operator banner write failed", zap.Error(err))
	}
	n.logger.Warn("Operator summary issued",
		zap.String("record_id", record.ID.String()),
		zap.String("status", string(record.Status)))
}

// networkDelivered reports whether any non-device channel succeeded.
func networkDelivered(record *models.EscalationRecord) bool {
	for _, a := range record.Attempts {
		if a.Channel != models.ChannelDeviceLocal && a.Succeeded() {
			return true
		}
	}
	return false
}
