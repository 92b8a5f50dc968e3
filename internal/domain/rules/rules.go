// Package rules maintains the ordered assignment rule set and selects the
// governing rule for each ticket.
package rules

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/okian/dispatch/internal/domain/model"
)

// Option applies a configuration option to the Set.
type Option func(*Set)

// WithRules seeds the set with initial rules. Seed data is trusted input
// already validated at the config boundary.
func WithRules(seed []model.AssignmentRule) Option {
	return func(s *Set) {
		for _, r := range seed {
			if r.ID == "" {
				r.ID = uuid.NewString()
			}
			s.rules[r.ID] = r
		}
	}
}

// Set is the RWMutex-guarded collection of assignment rules. Reads (rule
// selection on the assignment path) vastly outnumber administrative writes.
type Set struct {
	mu       sync.RWMutex
	rules    map[string]model.AssignmentRule
	validate *validator.Validate
}

// NewSet creates a rule set with configuration options.
func NewSet(opts ...Option) *Set {
	s := &Set{
		rules:    make(map[string]model.AssignmentRule),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and stores a new rule, generating an id when absent.
func (s *Set) Create(ctx context.Context, r model.AssignmentRule) (model.AssignmentRule, error) {
	if err := s.check(r); err != nil {
		return model.AssignmentRule{}, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rules[r.ID]; exists {
		return model.AssignmentRule{}, fmt.Errorf("%w: rule %s already exists", ErrValidation, r.ID)
	}
	s.rules[r.ID] = r
	return r, nil
}

// Update replaces an existing rule atomically: either the full new rule is
// accepted or the old one remains in force.
func (s *Set) Update(ctx context.Context, r model.AssignmentRule) error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing rule id", ErrValidation)
	}
	if err := s.check(r); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rules[r.ID]; !exists {
		return fmt.Errorf("%w: rule %s", ErrNotFound, r.ID)
	}
	s.rules[r.ID] = r
	return nil
}

// Toggle flips a rule's active flag without touching its other fields.
func (s *Set) Toggle(ctx context.Context, id string, active bool) (model.AssignmentRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, exists := s.rules[id]
	if !exists {
		return model.AssignmentRule{}, fmt.Errorf("%w: rule %s", ErrNotFound, id)
	}
	r.Active = active
	s.rules[id] = r
	return r, nil
}

// Get returns the rule with the given id.
func (s *Set) Get(ctx context.Context, id string) (model.AssignmentRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, exists := s.rules[id]
	if !exists {
		return model.AssignmentRule{}, fmt.Errorf("%w: rule %s", ErrNotFound, id)
	}
	return r, nil
}

// List returns all rules in evaluation order.
func (s *Set) List(ctx context.Context) []model.AssignmentRule {
	s.mu.RLock()
	out := make([]model.AssignmentRule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sortRules(out)
	return out
}

// Select returns the first active rule, in ascending priority order, whose
// scope matches the ticket. The boolean is false when no rule matches and
// the global defaults apply.
func (s *Set) Select(ctx context.Context, t model.Ticket) (model.AssignmentRule, bool) {
	for _, r := range s.List(ctx) {
		if !r.Active {
			continue
		}
		if r.Scope.Matches(t) {
			return r, true
		}
	}
	return model.AssignmentRule{}, false
}

// Count returns the number of stored rules.
func (s *Set) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

// check validates struct constraints plus the semantic pieces tags cannot
// express.
func (s *Set) check(r model.AssignmentRule) error {
	if err := s.validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if !r.Strategy.Valid() {
		return fmt.Errorf("%w: %w %q", ErrValidation, model.ErrUnknownStrategy, r.Strategy)
	}
	return nil
}

// sortRules orders by priority ascending, ties broken by id so evaluation
// order is deterministic.
func sortRules(rs []model.AssignmentRule) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Priority == rs[j].Priority {
			return rs[i].ID < rs[j].ID
		}
		return rs[i].Priority < rs[j].Priority
	})
}
