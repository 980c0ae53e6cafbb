// Package notification turns workflow events into handoff notices for the
// actor who now holds a report. Delivery is a structured log line today;
// the subscriber shape keeps a real channel (mail, chat) pluggable.
package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/docuflow/report-routing/internal/application/dispatcher"
	"github.com/docuflow/report-routing/internal/application/port"
	"github.com/docuflow/report-routing/internal/domain/event"
)

// HandoffNotifier notifies actors when custody of a report reaches them
type HandoffNotifier struct {
	profiles port.ProfileRepository
	logger   *zap.Logger
}

// NewHandoffNotifier creates a new handoff notifier
func NewHandoffNotifier(profiles port.ProfileRepository, logger *zap.Logger) *HandoffNotifier {
	return &HandoffNotifier{
		profiles: profiles,
		logger:   logger,
	}
}

// Register subscribes the notifier to the workflow events it cares about
func (n *HandoffNotifier) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeTransitionApplied, "handoff-notifier", n.HandleTransitionApplied)
	d.SubscribeNamed(event.TypeReportCompleted, "completion-notifier", n.HandleReportCompleted)
	d.SubscribeNamed(event.TypeRevisionRequested, "revision-notifier", n.HandleRevisionRequested)
}

// HandleTransitionApplied notifies the new holder of a report
func (n *HandoffNotifier) HandleTransitionApplied(ctx context.Context, evt *event.Event) error {
	holderID := evt.GetPayloadString("new_holder")
	if holderID == "" {
		return nil
	}

	name, err := n.holderName(ctx, holderID)
	if err != nil {
		return err
	}

	n.logger.Info("Custody handoff",
		zap.String("report_id", evt.ReportID),
		zap.String("transition", evt.GetPayloadString("transition")),
		zap.String("holder_id", holderID),
		zap.String("holder_name", name),
		zap.String("from_actor", evt.ActorID))
	return nil
}

// HandleReportCompleted notifies the report creator that the chain closed
func (n *HandoffNotifier) HandleReportCompleted(ctx context.Context, evt *event.Event) error {
	n.logger.Info("Report completed",
		zap.String("report_id", evt.ReportID),
		zap.String("completed_by", evt.ActorID),
		zap.String("tracking_number", evt.GetPayloadString("tracking_number")))
	return nil
}

// HandleRevisionRequested notifies the staff member a revision is due
func (n *HandoffNotifier) HandleRevisionRequested(ctx context.Context, evt *event.Event) error {
	staffID := evt.GetPayloadString("staff_id")
	if staffID == "" {
		return nil
	}

	name, err := n.holderName(ctx, staffID)
	if err != nil {
		return err
	}

	n.logger.Info("Revision requested",
		zap.String("report_id", evt.ReportID),
		zap.String("staff_id", staffID),
		zap.String("staff_name", name),
		zap.String("requested_by", evt.ActorID),
		zap.String("notes", evt.GetPayloadString("notes")))
	return nil
}

// holderName resolves a display name, falling back to the raw id
func (n *HandoffNotifier) holderName(ctx context.Context, actorID string) (string, error) {
	profile, err := n.profiles.GetByID(ctx, actorID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve holder %s: %w", actorID, err)
	}
	if profile == nil {
		return actorID, nil
	}
	return profile.Name, nil
}
