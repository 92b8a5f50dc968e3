package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/dispatch/internal/domain/model"
)

// Default roster configuration constants.
const (
	// defaultHeartbeatTTL ages out technicians that stopped reporting; a
	// stale heartbeat is treated as offline for eligibility.
	defaultHeartbeatTTL = 5 * time.Minute
)

// Option applies a configuration option to the MemoryRoster.
type Option func(*MemoryRoster)

// WithHeartbeatTTL sets how long a heartbeat keeps a technician online.
// A non-positive ttl disables heartbeat aging.
func WithHeartbeatTTL(ttl time.Duration) Option {
	return func(r *MemoryRoster) {
		r.heartbeatTTL = ttl
	}
}

// WithClock overrides the time source, used by tests exercising heartbeat
// aging deterministically.
func WithClock(now func() time.Time) Option {
	return func(r *MemoryRoster) {
		if now != nil {
			r.now = now
		}
	}
}

// WithHoursFunc injects the working-hours calendar collaborator. The
// default honors the technician's declared shift window.
func WithHoursFunc(f func(t model.Technician, at time.Time) bool) Option {
	return func(r *MemoryRoster) {
		if f != nil {
			r.withinHours = f
		}
	}
}

// entry is one technician's roster record. reserveMu serializes capacity
// mutation for this technician only; metaMu guards the profile fields; the
// active counter is mirrored atomically so Snapshot reads relaxed without
// touching either lock.
type entry struct {
	reserveMu sync.Mutex
	metaMu    sync.RWMutex

	tech     model.Technician
	skills   map[string]model.Skill
	status   model.Status
	lastSeen time.Time

	active atomic.Int64
}

// MemoryRoster implements Roster with an in-memory map of per-technician
// entries. There is no global lock on the assignment path: concurrent
// assignments targeting different technicians never contend.
type MemoryRoster struct {
	mu      sync.RWMutex // guards the map shape only
	entries map[string]*entry

	heartbeatTTL time.Duration
	now          func() time.Time
	withinHours  func(t model.Technician, at time.Time) bool
}

// NewMemoryRoster creates an in-memory roster with configuration options.
func NewMemoryRoster(opts ...Option) *MemoryRoster {
	r := &MemoryRoster{
		entries:      make(map[string]*entry),
		heartbeatTTL: defaultHeartbeatTTL,
		now:          time.Now,
		withinHours:  func(t model.Technician, at time.Time) bool { return t.WithinShift(at) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// UpsertTechnician creates or replaces a technician's base record.
func (r *MemoryRoster) UpsertTechnician(ctx context.Context, t model.Technician) error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrTechnicianNotFound)
	}
	if t.MaxCapacity <= 0 {
		return fmt.Errorf("upsert technician %s: %w: max capacity must be positive", t.ID, ErrInvalidStatus)
	}

	r.mu.Lock()
	e, exists := r.entries[t.ID]
	if !exists {
		e = &entry{
			skills: make(map[string]model.Skill),
			status: model.StatusAvailable,
		}
		r.entries[t.ID] = e
	}
	r.mu.Unlock()

	e.metaMu.Lock()
	e.tech = t
	e.metaMu.Unlock()
	return nil
}

// UpsertSkill creates or replaces one (technician, skill) row.
func (r *MemoryRoster) UpsertSkill(ctx context.Context, technicianID string, s model.Skill) error {
	e, err := r.entry(technicianID)
	if err != nil {
		return err
	}
	if s.Proficiency < 1 || s.Proficiency > 5 {
		return fmt.Errorf("upsert skill %q: %w: proficiency must be 1-5", s.Name, ErrInvalidStatus)
	}

	e.metaMu.Lock()
	e.skills[strings.ToLower(strings.TrimSpace(s.Name))] = s
	e.metaMu.Unlock()
	return nil
}

// SetStatus updates a technician's availability status.
func (r *MemoryRoster) SetStatus(ctx context.Context, technicianID string, st model.Status) error {
	if !st.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, st)
	}
	e, err := r.entry(technicianID)
	if err != nil {
		return err
	}

	e.metaMu.Lock()
	e.status = st
	e.metaMu.Unlock()
	return nil
}

// Heartbeat records liveness and an optional current location.
func (r *MemoryRoster) Heartbeat(ctx context.Context, technicianID string, at time.Time, location string) error {
	e, err := r.entry(technicianID)
	if err != nil {
		return err
	}

	e.metaMu.Lock()
	e.lastSeen = at
	if location != "" {
		e.tech.Location = location
	}
	e.metaMu.Unlock()
	return nil
}

// Get returns the technician's profile.
func (r *MemoryRoster) Get(ctx context.Context, technicianID string) (Profile, error) {
	e, err := r.entry(technicianID)
	if err != nil {
		return Profile{}, err
	}
	return e.profile(), nil
}

// Eligible reports whether one technician passes the filtering invariants
// under req.
func (r *MemoryRoster) Eligible(ctx context.Context, technicianID string, req Requirement) (bool, error) {
	e, err := r.entry(technicianID)
	if err != nil {
		return false, err
	}
	return r.eligible(e.profile(), req), nil
}

// Candidates returns the eligible profiles under req, ordered by ascending
// technician id. This is the stable order round-robin rotates over.
func (r *MemoryRoster) Candidates(ctx context.Context, req Requirement) []Profile {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)

	out := make([]Profile, 0, len(ids))
	for _, id := range ids {
		e, err := r.entry(id)
		if err != nil {
			continue
		}
		p := e.profile()
		if r.eligible(p, req) {
			out = append(out, p)
		}
	}
	return out
}

// Reserve atomically re-checks capacity and increments the active count for
// one technician. Concurrent reserves for the same technician serialize on
// that technician's lock only.
func (r *MemoryRoster) Reserve(ctx context.Context, technicianID string, req Requirement) error {
	e, err := r.entry(technicianID)
	if err != nil {
		return err
	}

	e.reserveMu.Lock()
	defer e.reserveMu.Unlock()

	e.metaMu.RLock()
	maxCapacity := e.tech.MaxCapacity
	status := e.status
	e.metaMu.RUnlock()

	if status == model.StatusOffline {
		return fmt.Errorf("reserve %s: %w", technicianID, ErrCapacityExceeded)
	}

	active := int(e.active.Load())
	limit := maxCapacity
	if req.MaxPerTech > 0 && req.MaxPerTech < limit {
		limit = req.MaxPerTech
	}
	if req.PreventOverload && active >= limit {
		return fmt.Errorf("reserve %s: %w", technicianID, ErrCapacityExceeded)
	}

	e.active.Add(1)
	return nil
}

// Release decrements the active-ticket count, flooring at zero.
func (r *MemoryRoster) Release(ctx context.Context, technicianID string) error {
	e, err := r.entry(technicianID)
	if err != nil {
		return err
	}

	e.reserveMu.Lock()
	defer e.reserveMu.Unlock()
	if e.active.Load() > 0 {
		e.active.Add(-1)
	}
	return nil
}

// Snapshot returns a relaxed workload view. Active counts come from the
// atomic mirrors and profile fields from the meta locks; the reservation
// locks are never taken, so a dashboard poll cannot stall assignments.
func (r *MemoryRoster) Snapshot(ctx context.Context) []Profile {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)

	out := make([]Profile, 0, len(ids))
	for _, id := range ids {
		if e, err := r.entry(id); err == nil {
			out = append(out, e.profile())
		}
	}
	return out
}

// Count returns the number of technicians on the roster.
func (r *MemoryRoster) Count(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Online reports whether p counts as online: not offline, and heartbeat not
// stale (when aging is enabled and a heartbeat was ever seen).
func (r *MemoryRoster) Online(p Profile) bool {
	if p.Status == model.StatusOffline {
		return false
	}
	if r.heartbeatTTL > 0 && !p.LastSeen.IsZero() && r.now().Sub(p.LastSeen) > r.heartbeatTTL {
		return false
	}
	return true
}

// eligible applies the filtering invariants: online, capacity headroom when
// overload prevention is on, inside working hours when enforced, and holding
// the required skill when the rule demands one.
func (r *MemoryRoster) eligible(p Profile, req Requirement) bool {
	if !r.Online(p) {
		return false
	}

	limit := p.Tech.MaxCapacity
	if req.MaxPerTech > 0 && req.MaxPerTech < limit {
		limit = req.MaxPerTech
	}
	if req.PreventOverload && p.ActiveTickets >= limit {
		return false
	}

	if req.RespectHours {
		at := req.At
		if at.IsZero() {
			at = r.now()
		}
		if !r.withinHours(p.Tech, at) {
			return false
		}
	}

	if req.RequiredSkill != "" && !hasSkill(p.Skills, req.RequiredSkill) {
		return false
	}
	return true
}

// entry returns the record for a technician id.
func (r *MemoryRoster) entry(id string) (*entry, error) {
	r.mu.RLock()
	e, exists := r.entries[id]
	r.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTechnicianNotFound, id)
	}
	return e, nil
}

// profile copies the entry into a detached view.
func (e *entry) profile() Profile {
	e.metaMu.RLock()
	defer e.metaMu.RUnlock()

	skills := make([]model.Skill, 0, len(e.skills))
	for _, s := range e.skills {
		skills = append(skills, s)
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })

	return Profile{
		Tech:          e.tech,
		Skills:        skills,
		Status:        e.status,
		ActiveTickets: int(e.active.Load()),
		LastSeen:      e.lastSeen,
	}
}

func hasSkill(skills []model.Skill, target string) bool {
	for _, s := range skills {
		if strings.EqualFold(strings.TrimSpace(s.Name), strings.TrimSpace(target)) {
			return true
		}
	}
	return false
}
