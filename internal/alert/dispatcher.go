// Package alert fans agent notifications out to the admin roster. Every
// alert is appended to the conversation log per recipient, broadcast
// once over the relay, and for critical priority also copied to admin
// email when SMTP is configured. Dispatch is fire-and-forget: delivery
// failures are logged, never returned to the caller.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/auton88n/workforce/internal/config"
	"github.com/auton88n/workforce/internal/events"
	"github.com/auton88n/workforce/internal/persona"
	"github.com/auton88n/workforce/internal/relay"
	"github.com/auton88n/workforce/internal/roster"
)

// Priority levels for alerts.
const (
	PriorityInfo     = "info"
	PriorityWarning  = "warning"
	PriorityCritical = "critical"
)

// priorityGlyph maps a priority to its message prefix.
func priorityGlyph(priority string) string {
	switch priority {
	case PriorityCritical:
		return "🚨"
	case PriorityWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// alertPayload is the structured half of a conversation log entry.
type alertPayload struct {
	AgentID   string         `json:"agent_id"`
	AgentName string         `json:"agent_name"`
	OK        bool           `json:"ok"`
	Details   map[string]any `json:"details,omitempty"`
}

// Dispatcher delivers alerts from agents to the admin roster.
type Dispatcher struct {
	store    *Store
	registry *persona.Registry
	roster   *roster.Roster
	relay    relay.Relay
	smtp     config.SMTPConfig
	bus      *events.Bus
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher. relay may be nil (no broadcast);
// smtp may be unconfigured (no email copies).
func NewDispatcher(store *Store, registry *persona.Registry, r *roster.Roster, rl relay.Relay, smtp config.SMTPConfig, bus *events.Bus, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:    store,
		registry: registry,
		roster:   r,
		relay:    rl,
		smtp:     smtp,
		bus:      bus,
		logger:   logger.With("component", "alert"),
	}
}

// Notify delivers message on behalf of employeeID to every admin.
// Fire-and-forget: errors never reach the caller. details carries
// optional structured context; needsApproval marks the entry as
// awaiting an admin decision.
func (d *Dispatcher) Notify(ctx context.Context, employeeID, message, priority string, details map[string]any, needsApproval bool) {
	switch priority {
	case PriorityInfo, PriorityWarning, PriorityCritical:
	default:
		priority = PriorityInfo
	}

	p := d.registry.Resolve(employeeID)

	payload, err := json.Marshal(alertPayload{
		AgentID:   p.ID,
		AgentName: p.DisplayName,
		OK:        priority != PriorityCritical,
		Details:   details,
	})
	if err != nil {
		d.logger.Warn("marshal alert payload", "agent", employeeID, "error", err)
		payload = []byte("{}")
	}

	content := fmt.Sprintf("%s %s %s: %s", priorityGlyph(priority), p.Emoji, p.DisplayName, message)

	admins := d.roster.Admins()
	recipients := make([]string, 0, len(admins))
	for _, a := range admins {
		entry := &Entry{
			RecipientID:   a.ID,
			EmployeeID:    p.ID,
			Priority:      priority,
			Content:       content,
			Payload:       string(payload),
			NeedsApproval: needsApproval,
		}
		if err := d.store.Append(ctx, entry); err != nil {
			d.logger.Warn("append alert to conversation log",
				"recipient", a.ID, "agent", p.ID, "error", err)
			continue
		}
		recipients = append(recipients, a.ID)
	}

	if d.relay != nil {
		if err := d.relay.Send(ctx, MarkdownToPlain(content)); err != nil {
			d.logger.Warn("relay alert broadcast", "agent", p.ID, "error", err)
		}
	}

	if priority == PriorityCritical && d.smtp.SMTPConfigured() {
		d.emailAdmins(ctx, admins, p.DisplayName, content)
	}

	d.bus.Publish(events.Event{
		Source: events.SourceAlert,
		Kind:   events.KindAlertDispatched,
		Data: map[string]any{
			"employee_id": p.ID,
			"priority":    priority,
			"recipients":  len(recipients),
		},
	})

	d.logger.Info("alert dispatched",
		"agent", p.ID, "priority", priority,
		"recipients", len(recipients), "needs_approval", needsApproval)
}

// emailAdmins sends a copy of a critical alert to every admin with an
// email address on file. Each send gets its own bounded context so one
// slow server cannot wedge the dispatcher.
func (d *Dispatcher) emailAdmins(ctx context.Context, admins []roster.Admin, agentName, content string) {
	subject := fmt.Sprintf("[workforce] critical alert from %s", agentName)
	for _, a := range admins {
		if a.Email == "" {
			continue
		}
		msg, err := ComposeEmail(d.smtp.From, a.Email, subject, content)
		if err != nil {
			d.logger.Warn("compose alert email", "recipient", a.Email, "error", err)
			continue
		}
		sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = SendMail(sendCtx, d.smtp, d.smtp.From, []string{a.Email}, msg)
		cancel()
		if err != nil {
			d.logger.Warn("send alert email", "recipient", a.Email, "error", err)
			continue
		}
		d.logger.Debug("alert email sent", "recipient", a.Email)
	}
}
