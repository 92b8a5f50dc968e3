package app

import (
	"context"
	"time"

	"github.com/okian/dispatch/internal/domain/model"
	"github.com/okian/dispatch/pkg/logger"
)

// PerformanceProvider supplies the externally computed rolling performance
// metric for a technician, in [0,100]. A negative value means "unknown" and
// the scorer substitutes its neutral default, so a provider that cannot
// answer in time must return a negative rather than block.
type PerformanceProvider interface {
	Performance(technicianID string) float64
}

// Calendar supplies working-hours answers. The engine calls it synchronously
// on the assignment path; implementations are expected to answer from
// pre-fetched state.
type Calendar interface {
	IsWithinHours(technicianID string, at time.Time) bool
}

// Channels carries the notification toggles in force when a decision was
// made.
type Channels struct {
	Email bool
	SMS   bool
}

// Notifier consumes assignment decisions for delivery. Delivery itself
// (email/SMS dispatch) is an external collaborator's concern.
type Notifier interface {
	Notify(ctx context.Context, d model.AssignmentDecision, ch Channels)
}

// neutralPerformance is the provider used when none is injected.
type neutralPerformance struct{}

func (neutralPerformance) Performance(string) float64 { return -1 }

// logNotifier is the default decision sink: it records the hand-off in the
// service log so decisions are observable without a wired delivery system.
type logNotifier struct {
	log logger.Logger
}

func (n *logNotifier) Notify(ctx context.Context, d model.AssignmentDecision, ch Channels) {
	n.log.Info(ctx, "assignment decision",
		logger.String("ticketID", d.TicketID),
		logger.String("technicianID", d.TechnicianID),
		logger.String("strategy", string(d.Strategy)),
		logger.Bool("escalated", d.Escalated),
		logger.Bool("email", ch.Email),
		logger.Bool("sms", ch.SMS),
	)
}
