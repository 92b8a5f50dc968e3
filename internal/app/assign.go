package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/okian/dispatch/internal/adapters/repository"
	"github.com/okian/dispatch/internal/adapters/state"
	"github.com/okian/dispatch/internal/domain/model"
	"github.com/okian/dispatch/internal/domain/scoring"
	"github.com/okian/dispatch/pkg/logger"
	"github.com/okian/dispatch/pkg/metrics"
)

// Assign routes one ticket to exactly one technician or escalates it to
// the fallback manager. It is safe for concurrent use and serializes
// nothing beyond the per-technician reservation it commits.
func (s *Service) Assign(ctx context.Context, t model.Ticket) (model.AssignmentDecision, error) {
	start := time.Now()

	s.mu.RLock()
	started := s.started
	cfg := s.cfg
	scorer := s.scorer
	s.mu.RUnlock()

	if !started {
		return model.AssignmentDecision{}, ErrNotRunning
	}

	if err := t.Validate(); err != nil {
		metrics.RecordInvalidTicket()
		return model.AssignmentDecision{}, err
	}

	if !cfg.Enabled {
		return s.escalate(ctx, t, cfg, "engine disabled"), nil
	}

	// Filtering: resolve the governing rule, then the eligible candidates.
	rule, matched := s.ruleSet.Select(ctx, t)
	strategy := cfg.DefaultStrategy
	ruleID := ""
	req := repository.Requirement{
		PreventOverload: cfg.PreventOverload,
		RespectHours:    cfg.RespectWorkingHours,
		At:              time.Now(),
	}
	if matched {
		strategy = rule.Strategy
		ruleID = rule.ID
		req.MaxPerTech = rule.MaxTicketsPerTech
		if rule.Scope.RequireSkill && t.RequiredSkill != "" {
			req.RequiredSkill = t.RequiredSkill
		}
	}

	profiles := s.roster.Candidates(ctx, req)
	if len(profiles) == 0 {
		return s.escalate(ctx, t, cfg, "no eligible candidate"), nil
	}

	// Ranking: score every candidate, then order per the strategy.
	scoreStart := time.Now()
	cands := make([]candidate, 0, len(profiles))
	for _, p := range profiles {
		bd, err := scorer.Score(ctx, scoring.Input{
			Ticket:      t,
			Skills:      p.Skills,
			ActiveCount: p.ActiveTickets,
			MaxCapacity: p.Tech.MaxCapacity,
			Location:    p.Tech.Location,
			Performance: s.perf.Performance(p.Tech.ID),
			Weights:     cfg.Weights,
		})
		if err != nil {
			return model.AssignmentDecision{}, err
		}
		cands = append(cands, candidate{profile: p, breakdown: bd})
	}
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Nanoseconds()) / 1e6)

	ranked := rank(strategy, cands)

	// Round-robin holds its cursor from rotation until the outcome is
	// known, so a concurrent assignment on the same cursor key cannot
	// select the same next technician.
	var rr *state.Claim
	if strategy == model.StrategyRoundRobin {
		ordered := make([]string, 0, len(ranked))
		for _, c := range ranked {
			ordered = append(ordered, c.profile.Tech.ID)
		}
		rr = s.cursors.Claim(ctx, cursorKey(ruleID), ordered)
		defer rr.Abort(ctx)
		ranked = rotate(ranked, rr.Ordered)
	}

	// Reserving: walk the ranking and claim the first technician whose
	// capacity holds at commit time. Losing a capacity race against a
	// concurrent assignment moves on to the next candidate.
	for _, c := range ranked {
		err := s.roster.Reserve(ctx, c.profile.Tech.ID, req)
		if errors.Is(err, repository.ErrCapacityExceeded) {
			metrics.RecordCapacityRetry()
			continue
		}
		if err != nil {
			s.logger.Warn(ctx, "reservation failed, skipping candidate",
				logger.String("technicianId", c.profile.Tech.ID),
				logger.Error(err),
			)
			continue
		}
		if rr != nil {
			rr.Commit(ctx, c.profile.Tech.ID)
		}
		return s.commit(ctx, t, ruleID, strategy, c, start), nil
	}

	// Every candidate was claimed out from under us.
	return s.escalate(ctx, t, cfg, "all candidates at capacity"), nil
}

// commit finalizes a successful reservation into a decision.
func (s *Service) commit(ctx context.Context, t model.Ticket, ruleID string, strategy model.Strategy, c candidate, start time.Time) model.AssignmentDecision {
	d := model.AssignmentDecision{
		ID:           uuid.NewString(),
		TicketID:     t.ID,
		TechnicianID: c.profile.Tech.ID,
		RuleID:       ruleID,
		Strategy:     strategy,
		Breakdown:    c.breakdown,
		AssignedAt:   time.Now(),
	}

	s.history.record(d)

	metrics.RecordAssignment(string(strategy))
	metrics.RecordAssignmentLatency(float64(time.Since(start).Nanoseconds()) / 1e6)

	s.logger.Info(ctx, "ticket assigned",
		logger.String("ticketId", t.ID),
		logger.String("technicianId", d.TechnicianID),
		logger.String("strategy", string(strategy)),
		logger.String("ruleId", ruleID),
		logger.Float64("score", c.breakdown.Composite),
	)
	return d
}

// escalate produces the fallback decision routing the ticket to the
// configured manager. The roster is untouched, no rule is credited, and
// the round-robin cursor does not move.
func (s *Service) escalate(ctx context.Context, t model.Ticket, cfg model.GlobalConfig, reason string) model.AssignmentDecision {
	d := model.AssignmentDecision{
		ID:           uuid.NewString(),
		TicketID:     t.ID,
		TechnicianID: cfg.ManagerID,
		Escalated:    true,
		Strategy:     model.StrategyFallback,
		AssignedAt:   time.Now(),
	}
	s.history.record(d)
	metrics.RecordEscalation()

	s.logger.Warn(ctx, "ticket escalated",
		logger.String("ticketId", t.ID),
		logger.String("managerId", cfg.ManagerID),
		logger.String("reason", reason),
	)
	return d
}

// cursorKey maps a governing rule to its round-robin cursor. Tickets
// assigned by the default strategy share one global cursor.
func cursorKey(ruleID string) string {
	if ruleID == "" {
		return state.GlobalKey
	}
	return ruleID
}
