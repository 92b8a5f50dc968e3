// Package app provides the assignment coordinator: the service that routes
// each incoming ticket to exactly one technician or the fallback manager.
package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	ticketqueue "github.com/okian/dispatch/internal/adapters/mq/queue"
	workerpool "github.com/okian/dispatch/internal/adapters/mq/worker"
	"github.com/okian/dispatch/internal/adapters/repository"
	"github.com/okian/dispatch/internal/adapters/state"
	"github.com/okian/dispatch/internal/domain/dedupe"
	"github.com/okian/dispatch/internal/domain/model"
	"github.com/okian/dispatch/internal/domain/rules"
	"github.com/okian/dispatch/internal/domain/scoring"
	"github.com/okian/dispatch/internal/domain/types"
	"github.com/okian/dispatch/pkg/logger"
	"github.com/okian/dispatch/pkg/metrics"
)

// Service implements the assignment coordinator and the administrative
// operations exposed to collaborators.
type Service struct {
	mu  sync.RWMutex
	cfg model.GlobalConfig

	// Core components
	roster  repository.Roster
	ruleSet *rules.Set
	cursors *state.CursorStore
	scorer  *scoring.Engine
	deduper dedupe.Deduper
	queue   ticketqueue.Queue
	pool    *workerpool.Pool
	history *journal

	// Collaborators
	perf     PerformanceProvider
	calendar Calendar
	notifier Notifier

	// Configuration
	ruleSeeds    []model.AssignmentRule
	queueSize    int
	workerCount  int
	dedupeSize   int
	historySize  int
	cursorPath   string
	heartbeatTTL time.Duration

	// State
	started bool

	validate *validator.Validate
	logger   logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGlobalConfig sets the engine configuration in force at startup.
func WithGlobalConfig(cfg model.GlobalConfig) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithWorkerCount sets the number of assignment workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the ticket intake queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the ticket idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithHistorySize bounds the decision journal.
func WithHistorySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.historySize = size
		}
	}
}

// WithRuleSeeds installs assignment rules at startup, ahead of any rules
// created over the API.
func WithRuleSeeds(seed []model.AssignmentRule) Option {
	return func(s *Service) { s.ruleSeeds = seed }
}

// WithCursorPath enables round-robin cursor durability across restarts.
func WithCursorPath(path string) Option {
	return func(s *Service) { s.cursorPath = path }
}

// WithHeartbeatTTL sets how long a heartbeat keeps a technician online.
func WithHeartbeatTTL(ttl time.Duration) Option {
	return func(s *Service) { s.heartbeatTTL = ttl }
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithPerformanceProvider injects the external performance metric source.
func WithPerformanceProvider(p PerformanceProvider) Option {
	return func(s *Service) {
		if p != nil {
			s.perf = p
		}
	}
}

// WithCalendar injects the working-hours calendar collaborator.
func WithCalendar(c Calendar) Option {
	return func(s *Service) { s.calendar = c }
}

// WithNotifier injects the decision hand-off sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithRoster injects a roster, overriding the default in-memory one. Used
// by tests.
func WithRoster(r repository.Roster) Option {
	return func(s *Service) { s.roster = r }
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: model.GlobalConfig{
			Enabled:         true,
			DefaultStrategy: model.StrategyBalanced,
			ManagerID:       "manager",
			Weights:         model.Weights{Skill: 40, Workload: 30, Performance: 20, Location: 10},
			PreventOverload: true,
			NotifyEmail:     true,
		},
		queueSize:    10_000,
		workerCount:  runtime.NumCPU() * 2,
		dedupeSize:   50_000,
		historySize:  1_000,
		heartbeatTTL: 5 * time.Minute,
		perf:         neutralPerformance{},
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("coordinator")
	}
	if s.notifier == nil {
		s.notifier = &logNotifier{log: s.logger.Named("notify")}
	}

	s.logger.Info(ctx, "starting assignment engine...")

	if s.roster == nil {
		rosterOpts := []repository.Option{
			repository.WithHeartbeatTTL(s.heartbeatTTL),
		}
		if s.calendar != nil {
			cal := s.calendar
			rosterOpts = append(rosterOpts, repository.WithHoursFunc(
				func(t model.Technician, at time.Time) bool {
					return cal.IsWithinHours(t.ID, at)
				},
			))
		}
		s.roster = repository.NewMemoryRoster(rosterOpts...)
	}

	s.ruleSet = rules.NewSet(rules.WithRules(s.ruleSeeds))
	if n := s.ruleSet.Count(ctx); n > 0 {
		metrics.UpdateRuleCount(n)
		s.logger.Info(ctx, "seeded assignment rules", logger.Int("count", n))
	}
	s.cursors = state.NewCursorStore(
		state.WithSnapshotPath(s.cursorPath),
		state.WithLogger(s.logger.Named("cursors")),
	)
	if err := s.cursors.Load(ctx); err != nil {
		return fmt.Errorf("restore round-robin cursors: %w", err)
	}

	s.scorer = scoring.New(
		scoring.WithLocationMismatchScore(s.cfg.LocationMismatchScore),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = ticketqueue.NewInMemoryQueue(
		ticketqueue.WithCapacity(s.queueSize),
	)
	s.history = newJournal(s.historySize)

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s, &decisionSink{svc: s})
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "assignment engine started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("defaultStrategy", string(s.cfg.DefaultStrategy)),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping assignment engine...")

	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "assignment engine stopped")
}

// decisionSink adapts the service's notification hand-off to the worker
// pool's Notifier contract.
type decisionSink struct {
	svc *Service
}

func (d *decisionSink) Notify(ctx context.Context, dec model.AssignmentDecision) {
	d.svc.emit(ctx, dec)
}

// emit forwards a decision to the notification collaborator with the
// toggles in force at emission time.
func (s *Service) emit(ctx context.Context, d model.AssignmentDecision) {
	s.mu.RLock()
	ch := Channels{Email: s.cfg.NotifyEmail, SMS: s.cfg.NotifySMS}
	n := s.notifier
	s.mu.RUnlock()

	if n != nil {
		n.Notify(ctx, d, ch)
	}
}

// SeenAndRecord atomically checks whether a ticket id was already routed
// and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordTicketDuplicate()
	}
	return seen
}

// Unrecord removes a ticket id from the seen list, allowing a retry after
// intake backpressure.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue submits a ticket for asynchronous assignment. Returns false on
// backpressure.
func (s *Service) Enqueue(ctx context.Context, t model.Ticket) bool {
	return s.queue.Enqueue(ctx, t)
}

// Config returns the configuration currently in force.
func (s *Service) Config(ctx context.Context) model.GlobalConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// UpdateGlobalConfig validates and atomically replaces the engine
// configuration: either the full new config is accepted or the old one
// remains in force. An off-100 weight total is accepted (normalized at
// scoring time) and surfaced as a warning, not a failure.
func (s *Service) UpdateGlobalConfig(ctx context.Context, cfg model.GlobalConfig) error {
	if err := s.validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	if !cfg.DefaultStrategy.Valid() {
		return fmt.Errorf("%w: %w %q", ErrConfigValidation, model.ErrUnknownStrategy, cfg.DefaultStrategy)
	}

	s.mu.Lock()
	s.cfg = cfg
	s.scorer = scoring.New(scoring.WithLocationMismatchScore(cfg.LocationMismatchScore))
	s.mu.Unlock()

	metrics.RecordConfigUpdate()
	if total := cfg.Weights.Total(); total != 100 {
		s.logger.Warn(ctx, "scoring weights do not sum to 100; scores will be normalized",
			logger.Int("total", total),
		)
	}
	return nil
}

// CreateRule validates and stores a new assignment rule.
func (s *Service) CreateRule(ctx context.Context, r model.AssignmentRule) (model.AssignmentRule, error) {
	created, err := s.ruleSet.Create(ctx, r)
	if err != nil {
		return model.AssignmentRule{}, err
	}
	metrics.UpdateRuleCount(s.ruleSet.Count(ctx))
	return created, nil
}

// UpdateRule atomically replaces an existing rule.
func (s *Service) UpdateRule(ctx context.Context, r model.AssignmentRule) error {
	return s.ruleSet.Update(ctx, r)
}

// ToggleRule flips a rule's active flag.
func (s *Service) ToggleRule(ctx context.Context, id string, active bool) (model.AssignmentRule, error) {
	return s.ruleSet.Toggle(ctx, id, active)
}

// GetRule returns one rule by id.
func (s *Service) GetRule(ctx context.Context, id string) (model.AssignmentRule, error) {
	return s.ruleSet.Get(ctx, id)
}

// ListRules returns all rules in evaluation order.
func (s *Service) ListRules(ctx context.Context) []model.AssignmentRule {
	return s.ruleSet.List(ctx)
}

// UpsertTechnician creates or replaces a technician record.
func (s *Service) UpsertTechnician(ctx context.Context, t model.Technician) error {
	if err := s.validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	if err := s.roster.UpsertTechnician(ctx, t); err != nil {
		return err
	}
	metrics.UpdateTechnicianCount(s.roster.Count(ctx))
	return nil
}

// UpsertSkill creates or replaces one (technician, skill) row.
func (s *Service) UpsertSkill(ctx context.Context, technicianID string, sk model.Skill) error {
	if err := s.validate.Struct(sk); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	return s.roster.UpsertSkill(ctx, technicianID, sk)
}

// SetStatus updates a technician's availability status.
func (s *Service) SetStatus(ctx context.Context, technicianID string, st model.Status) error {
	return s.roster.SetStatus(ctx, technicianID, st)
}

// Heartbeat records technician liveness and optional location.
func (s *Service) Heartbeat(ctx context.Context, technicianID string, location string) error {
	return s.roster.Heartbeat(ctx, technicianID, time.Now(), location)
}

// Release decrements a technician's active-ticket count. Invoked by the
// ticket lifecycle collaborator on close, reassignment, or cancellation.
func (s *Service) Release(ctx context.Context, technicianID string) error {
	return s.roster.Release(ctx, technicianID)
}

// WorkloadSnapshot returns the relaxed workload view for dashboards. It
// never takes the per-technician reservation locks.
func (s *Service) WorkloadSnapshot(ctx context.Context) []types.WorkloadEntry {
	profiles := s.roster.Snapshot(ctx)
	out := make([]types.WorkloadEntry, 0, len(profiles))
	total := 0
	for _, p := range profiles {
		out = append(out, types.WorkloadEntry{
			TechnicianID:  p.Tech.ID,
			Name:          p.Tech.Name,
			ActiveTickets: p.ActiveTickets,
			MaxCapacity:   p.Tech.MaxCapacity,
			Status:        string(p.Status),
			Online:        s.roster.Online(p),
		})
		total += p.ActiveTickets
	}
	metrics.UpdateActiveTickets(total)
	return out
}

// RecentDecisions returns up to n journal entries, newest first.
func (s *Service) RecentDecisions(ctx context.Context, n int) []model.AssignmentDecision {
	return s.history.recent(n)
}

// RuleStats reports per-rule trigger counts derived from decision history.
func (s *Service) RuleStats(ctx context.Context) []types.RuleStat {
	return s.history.ruleStats()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}
	if s.started {
		ctx := context.Background()
		committed, escalated := s.history.totals()
		stats["queueLength"] = s.queue.Len(ctx)
		stats["technicians"] = s.roster.Count(ctx)
		stats["rules"] = s.ruleSet.Count(ctx)
		stats["committed"] = committed
		stats["escalated"] = escalated
		stats["dedupeSize"] = s.deduper.Size()
	}
	return stats
}
