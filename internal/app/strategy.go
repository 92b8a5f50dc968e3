package app

import (
	"sort"

	"github.com/okian/dispatch/internal/adapters/repository"
	"github.com/okian/dispatch/internal/domain/model"
)

// candidate pairs an eligible profile with its score breakdown for ranking.
type candidate struct {
	profile   repository.Profile
	breakdown model.ScoreBreakdown
}

// rank orders candidates for the given strategy. Strategy dispatch is a
// tagged switch: the shared contract (return an ordered list) is small and
// new strategies are rare. Round-robin returns the stable ascending-id
// order; the caller applies the cursor rotation on top of it.
//
// The global tie-break (lowest active tickets, then ascending technician
// id) terminates every comparison chain, so ranking is deterministic for
// identical snapshots.
func rank(strategy model.Strategy, cands []candidate) []candidate {
	out := make([]candidate, len(cands))
	copy(out, cands)

	switch strategy {
	case model.StrategySkillMatch:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].breakdown.Skill != out[j].breakdown.Skill {
				return out[i].breakdown.Skill > out[j].breakdown.Skill
			}
			if out[i].breakdown.Composite != out[j].breakdown.Composite {
				return out[i].breakdown.Composite > out[j].breakdown.Composite
			}
			return tieBreak(out[i], out[j])
		})
	case model.StrategyLeastBusy:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].profile.ActiveTickets != out[j].profile.ActiveTickets {
				return out[i].profile.ActiveTickets < out[j].profile.ActiveTickets
			}
			if out[i].breakdown.Composite != out[j].breakdown.Composite {
				return out[i].breakdown.Composite > out[j].breakdown.Composite
			}
			return out[i].profile.Tech.ID < out[j].profile.Tech.ID
		})
	case model.StrategyRoundRobin:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].profile.Tech.ID < out[j].profile.Tech.ID
		})
	default: // balanced
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].breakdown.Composite != out[j].breakdown.Composite {
				return out[i].breakdown.Composite > out[j].breakdown.Composite
			}
			return tieBreak(out[i], out[j])
		})
	}
	return out
}

// tieBreak is the deterministic global tie-break from the scoring
// invariants: lowest current active tickets, then technician id ascending.
func tieBreak(a, b candidate) bool {
	if a.profile.ActiveTickets != b.profile.ActiveTickets {
		return a.profile.ActiveTickets < b.profile.ActiveTickets
	}
	return a.profile.Tech.ID < b.profile.Tech.ID
}

// rotate reorders candidates (already in stable ascending-id order) to the
// given id rotation produced by the cursor store.
func rotate(cands []candidate, rotation []string) []candidate {
	byID := make(map[string]candidate, len(cands))
	for _, c := range cands {
		byID[c.profile.Tech.ID] = c
	}
	out := make([]candidate, 0, len(cands))
	for _, id := range rotation {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}
