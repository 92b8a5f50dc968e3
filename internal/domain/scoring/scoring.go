// Package scoring computes composite suitability scores for
// (ticket, technician) pairs. Scoring is deterministic and side-effect free:
// identical inputs always yield identical scores.
package scoring

import (
	"context"
	"strings"

	"github.com/okian/dispatch/internal/domain/model"
)

// Scoring bounds and defaults.
const (
	maxScore = 100.0
	minScore = 0.0

	// proficiencyStep scales the 1-5 proficiency ladder onto 0-100.
	proficiencyStep = 20.0

	// neutralSkillScore applies when the ticket declares no required skill,
	// so skill-less categories do not collapse the composite.
	neutralSkillScore = 50.0

	// neutralPerformance substitutes for an absent or timed-out external
	// performance metric rather than blocking assignment.
	neutralPerformance = 50.0
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLocationMismatchScore sets the partial score granted when technician
// and ticket locations differ. Values outside [0,100] are ignored.
func WithLocationMismatchScore(score float64) Option {
	return func(e *Engine) {
		if score >= minScore && score <= maxScore {
			e.locationMismatch = score
		}
	}
}

// Input bundles everything the scorer consumes for one candidate. The
// performance metric is supplied by the caller (external collaborator); a
// negative value means "unknown" and falls back to the neutral default.
type Input struct {
	Ticket      model.Ticket
	Skills      []model.Skill
	ActiveCount int
	MaxCapacity int
	Location    string
	Performance float64
	Weights     model.Weights
}

// Engine computes score breakdowns. It carries no mutable state beyond
// construction-time configuration and is safe for concurrent use.
type Engine struct {
	locationMismatch float64
}

// New creates a scoring engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		locationMismatch: 0, // default: mismatch scores zero
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes the factor scores and weighted composite for in.
// The composite is the weighted sum divided by the total weight, so weight
// sets that do not total 100 are normalized rather than rejected.
func (e *Engine) Score(ctx context.Context, in Input) (model.ScoreBreakdown, error) {
	if err := ctx.Err(); err != nil {
		return model.ScoreBreakdown{}, err
	}

	b := model.ScoreBreakdown{
		Skill:       skillScore(in.Ticket.RequiredSkill, in.Skills),
		Workload:    workloadScore(in.ActiveCount, in.MaxCapacity),
		Performance: performanceScore(in.Performance),
		Location:    e.locationScore(in.Ticket.Location, in.Location),
	}
	b.Composite = composite(b, in.Weights)
	return b, nil
}

// skillScore returns the best matching proficiency scaled to 0-100. With no
// required skill on the ticket the neutral default applies; a required skill
// the technician lacks scores zero.
func skillScore(tag string, skills []model.Skill) float64 {
	if strings.TrimSpace(tag) == "" {
		return neutralSkillScore
	}
	best := 0
	for _, s := range skills {
		if !strings.EqualFold(strings.TrimSpace(s.Name), strings.TrimSpace(tag)) {
			continue
		}
		if s.Proficiency > best {
			best = s.Proficiency
		}
	}
	return clamp(float64(best) * proficiencyStep)
}

// workloadScore is 100*(1 - active/max), floored at 0. Full capacity scores
// zero; eligibility filtering, not scoring, excludes such candidates when
// overload prevention is on.
func workloadScore(active, maxCapacity int) float64 {
	if maxCapacity <= 0 {
		return minScore
	}
	return clamp(maxScore * (1 - float64(active)/float64(maxCapacity)))
}

// performanceScore clamps the externally supplied rolling metric, falling
// back to the neutral default when the metric is unknown (negative).
func performanceScore(metric float64) float64 {
	if metric < 0 {
		return neutralPerformance
	}
	return clamp(metric)
}

// locationScore is 100 on a site match, the configured partial otherwise.
// An undeclared ticket location is treated as a match.
func (e *Engine) locationScore(ticketLoc, techLoc string) float64 {
	if strings.TrimSpace(ticketLoc) == "" || strings.EqualFold(strings.TrimSpace(ticketLoc), strings.TrimSpace(techLoc)) {
		return maxScore
	}
	return e.locationMismatch
}

// composite folds the factor scores under w, normalizing by the weight
// total. A zero-total weight set degrades to the unweighted mean.
func composite(b model.ScoreBreakdown, w model.Weights) float64 {
	total := w.Total()
	if total <= 0 {
		return clamp((b.Skill + b.Workload + b.Performance + b.Location) / 4)
	}
	sum := b.Skill*float64(w.Skill) +
		b.Workload*float64(w.Workload) +
		b.Performance*float64(w.Performance) +
		b.Location*float64(w.Location)
	return clamp(sum / float64(total))
}

func clamp(v float64) float64 {
	switch {
	case v < minScore:
		return minScore
	case v > maxScore:
		return maxScore
	}
	return v
}
