package app

import (
	"testing"

	"github.com/okian/dispatch/internal/adapters/repository"
	"github.com/okian/dispatch/internal/domain/model"
)

func cand(id string, active int, skill, composite float64) candidate {
	return candidate{
		profile: repository.Profile{
			Tech:          model.Technician{ID: id, MaxCapacity: 10},
			ActiveTickets: active,
		},
		breakdown: model.ScoreBreakdown{Skill: skill, Composite: composite},
	}
}

func ids(cands []candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.profile.Tech.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRankBalanced(t *testing.T) {
	got := rank(model.StrategyBalanced, []candidate{
		cand("c", 0, 50, 70),
		cand("a", 2, 50, 90),
		cand("b", 1, 50, 90),
	})
	// Composite first, then active tickets, then id.
	if want := []string{"b", "a", "c"}; !equal(ids(got), want) {
		t.Fatalf("balanced order = %v, want %v", ids(got), want)
	}
}

func TestRankSkillMatch(t *testing.T) {
	got := rank(model.StrategySkillMatch, []candidate{
		cand("a", 0, 60, 95),
		cand("b", 0, 100, 60),
		cand("c", 0, 100, 70),
	})
	// Skill first, composite breaks the skill tie.
	if want := []string{"c", "b", "a"}; !equal(ids(got), want) {
		t.Fatalf("skill_match order = %v, want %v", ids(got), want)
	}
}

func TestRankLeastBusy(t *testing.T) {
	got := rank(model.StrategyLeastBusy, []candidate{
		cand("a", 5, 50, 100),
		cand("b", 0, 50, 10),
		cand("c", 0, 50, 40),
	})
	// Active tickets first, composite breaks the tie.
	if want := []string{"c", "b", "a"}; !equal(ids(got), want) {
		t.Fatalf("least_busy order = %v, want %v", ids(got), want)
	}
}

func TestRankRoundRobinStableOrder(t *testing.T) {
	got := rank(model.StrategyRoundRobin, []candidate{
		cand("b", 3, 0, 0),
		cand("a", 9, 100, 100),
	})
	if want := []string{"a", "b"}; !equal(ids(got), want) {
		t.Fatalf("round_robin order = %v, want %v", ids(got), want)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []candidate{cand("b", 0, 0, 10), cand("a", 0, 0, 90)}
	_ = rank(model.StrategyBalanced, in)
	if in[0].profile.Tech.ID != "b" {
		t.Fatal("rank mutated its input slice")
	}
}

func TestRotateSkipsUnknownIDs(t *testing.T) {
	in := []candidate{cand("a", 0, 0, 0), cand("b", 0, 0, 0)}
	got := rotate(in, []string{"b", "ghost", "a"})
	if want := []string{"b", "a"}; !equal(ids(got), want) {
		t.Fatalf("rotate order = %v, want %v", ids(got), want)
	}
}

func TestJournalRing(t *testing.T) {
	j := newJournal(2)
	j.record(model.AssignmentDecision{ID: "1", TicketID: "t1", RuleID: "r1"})
	j.record(model.AssignmentDecision{ID: "2", TicketID: "t2", RuleID: "r1"})
	j.record(model.AssignmentDecision{ID: "3", TicketID: "t3", Escalated: true})

	recent := j.recent(0)
	if len(recent) != 2 {
		t.Fatalf("recent len = %d, want 2", len(recent))
	}
	if recent[0].TicketID != "t3" || recent[1].TicketID != "t2" {
		t.Fatalf("recent order = %s, %s; want t3, t2", recent[0].TicketID, recent[1].TicketID)
	}

	committed, escalated := j.totals()
	if committed != 2 || escalated != 1 {
		t.Fatalf("totals = %d committed, %d escalated; want 2, 1", committed, escalated)
	}

	stats := j.ruleStats()
	if len(stats) != 1 || stats[0].RuleID != "r1" || stats[0].Triggered != 2 {
		t.Fatalf("rule stats = %+v", stats)
	}
}

func TestJournalEscalationsCreditNoRule(t *testing.T) {
	j := newJournal(4)
	j.record(model.AssignmentDecision{ID: "1", TicketID: "t1", RuleID: "r1"})
	j.record(model.AssignmentDecision{ID: "2", TicketID: "t2", RuleID: "r1", Escalated: true})

	stats := j.ruleStats()
	if len(stats) != 1 || stats[0].Triggered != 1 {
		t.Fatalf("rule stats = %+v, want r1 triggered once", stats)
	}

	// The escalation still shows up in the replayable history.
	if recent := j.recent(0); len(recent) != 2 || !recent[0].Escalated {
		t.Fatalf("recent = %+v, want the escalation newest", recent)
	}
}
