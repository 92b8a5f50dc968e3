package app

import (
	"sort"
	"sync"

	"github.com/okian/dispatch/internal/domain/model"
	"github.com/okian/dispatch/internal/domain/types"
)

// journal is a bounded ring of recent decisions plus per-rule trigger
// counters derived from that real history. Only committed decisions credit
// a rule; escalations never carry one. Counters are cumulative for the
// process lifetime; the ring only bounds what RecentDecisions can replay.
type journal struct {
	mu         sync.RWMutex
	buf        []model.AssignmentDecision
	next       int
	full       bool
	ruleCounts map[string]int
	escalated  int
	committed  int
}

func newJournal(size int) *journal {
	if size < 1 {
		size = 1
	}
	return &journal{
		buf:        make([]model.AssignmentDecision, size),
		ruleCounts: make(map[string]int),
	}
}

// record appends a decision, overwriting the oldest once the ring is full.
func (j *journal) record(d model.AssignmentDecision) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.buf[j.next] = d
	j.next = (j.next + 1) % len(j.buf)
	if j.next == 0 {
		j.full = true
	}

	if d.Escalated {
		j.escalated++
		return
	}
	j.committed++
	if d.RuleID != "" {
		j.ruleCounts[d.RuleID]++
	}
}

// recent returns up to n decisions, newest first.
func (j *journal) recent(n int) []model.AssignmentDecision {
	j.mu.RLock()
	defer j.mu.RUnlock()

	size := j.next
	if j.full {
		size = len(j.buf)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]model.AssignmentDecision, 0, n)
	for i := 1; i <= n; i++ {
		idx := (j.next - i + len(j.buf)) % len(j.buf)
		out = append(out, j.buf[idx])
	}
	return out
}

// ruleStats returns how often each rule governed an assignment.
func (j *journal) ruleStats() []types.RuleStat {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]types.RuleStat, 0, len(j.ruleCounts))
	for id, n := range j.ruleCounts {
		out = append(out, types.RuleStat{RuleID: id, Triggered: n})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].RuleID < out[k].RuleID })
	return out
}

// totals returns committed and escalated counts.
func (j *journal) totals() (committed, escalated int) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.committed, j.escalated
}
