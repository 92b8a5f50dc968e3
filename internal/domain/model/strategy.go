package model

// Strategy selects the ranking algorithm used to order eligible candidates.
// New strategies are rare; dispatch is a tagged switch, not an interface
// hierarchy.
type Strategy string

// Routing strategies.
const (
	StrategyBalanced   Strategy = "balanced"    // weighted composite score
	StrategySkillMatch Strategy = "skill_match" // skill score first
	StrategyLeastBusy  Strategy = "least_busy"  // ascending active tickets
	StrategyRoundRobin Strategy = "round_robin" // rotating cursor

	// StrategyFallback marks decisions routed to managers; it is never a
	// configurable ranking strategy.
	StrategyFallback Strategy = "fallback"
)

// Valid reports whether s is a configurable ranking strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyBalanced, StrategySkillMatch, StrategyLeastBusy, StrategyRoundRobin:
		return true
	}
	return false
}
