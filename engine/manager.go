package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/loanmesh/artifact"
	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/flow"
	"github.com/hupe1980/loanmesh/logging"
	"github.com/hupe1980/loanmesh/metrics"
	"github.com/hupe1980/loanmesh/session"
	"github.com/hupe1980/loanmesh/signal"
)

// Options configures a Manager instance. Every dependency has an in-memory
// or no-op default.
type Options struct {
	// Store persists records. Defaults to session.NewInMemoryStore().
	Store core.RecordStore

	// Artifacts holds uploaded documents and generated letters. Defaults to
	// artifact.NewInMemoryStore(). It should be the same store the sanction
	// generator writes to.
	Artifacts core.ArtifactStore

	// Directory fills customer contact fields. Optional.
	Directory core.CustomerDirectory

	// MaxHops bounds stage executions per cycle.
	MaxHops int

	// CountryCode is prefixed to bare 10-digit phone overrides.
	CountryCode string

	// Metrics records cycles and stage runs. Nil disables metrics.
	Metrics *metrics.Metrics

	Logger logging.Logger

	// Clock and NewID are replaced in tests.
	Clock func() time.Time
	NewID func() string
}

// Manager is the caller-facing session boundary.
type Manager struct {
	flow        *flow.Flow
	store       core.RecordStore
	artifacts   core.ArtifactStore
	directory   core.CustomerDirectory
	countryCode string
	metrics     *metrics.Metrics
	logger      logging.Logger
	clock       func() time.Time
	newID       func() string

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

// New creates a Manager running cycles over stages. The orchestrator must
// be among them.
func New(stages []core.Agent, optFns ...func(o *Options)) (*Manager, error) {
	opts := Options{
		Store:       session.NewInMemoryStore(),
		Artifacts:   artifact.NewInMemoryStore(),
		MaxHops:     6,
		CountryCode: "+91",
		Logger:      logging.NoOpLogger{},
		Clock:       time.Now,
		NewID:       uuid.NewString,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	m := &Manager{
		store:       opts.Store,
		artifacts:   opts.Artifacts,
		directory:   opts.Directory,
		countryCode: opts.CountryCode,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		clock:       opts.Clock,
		newID:       opts.NewID,
		locks:       make(map[string]*sessionLock),
	}

	f, err := flow.New(stages, func(o *flow.Options) {
		o.MaxHops = opts.MaxHops
		o.Logger = opts.Logger
		o.Hooks = flow.Hooks{AfterAgent: m.afterAgent}
	})
	if err != nil {
		return nil, err
	}
	m.flow = f
	return m, nil
}

// Result is the caller-facing outcome of one processed message.
type Result struct {
	// OK is false when a collaborator failure was recorded during the cycle.
	OK bool
	// Response is the assistant reply produced by the cycle.
	Response string
	Stage    core.Stage
	Status   core.Status
	// Agent is the stage that handled the message last.
	Agent core.AgentName
	Hops  []core.AgentName
	Rule  flow.Rule
}

// CreateSession stores a fresh record and returns its id. customerID may be
// empty; a known id fills the contact fields from the directory.
func (m *Manager) CreateSession(ctx context.Context, customerID string) (string, error) {
	id := m.newID()
	rec := core.NewRecord(id, m.clock())
	if customerID = strings.ToUpper(strings.TrimSpace(customerID)); customerID != "" {
		rec.Customer.ID = customerID
		m.fillCustomer(ctx, rec)
	}

	if err := m.store.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	m.metrics.SessionOpened()
	m.logger.Info("session created", "session_id", id, "customer_id", customerID)
	return id, nil
}

// GetSession returns a copy of the session's record.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*core.Record, error) {
	return m.load(ctx, sessionID)
}

// ProcessMessage runs one cycle for text. Only unknown sessions, empty text,
// cancellation before the cycle and store failures are returned as errors.
func (m *Manager) ProcessMessage(ctx context.Context, sessionID, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, core.ErrEmptyMessage
	}

	unlock := m.lock(sessionID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	rec, err := m.load(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}

	rec.TotalInteractions++
	if rec.Customer.ID == "" {
		if id, ok := signal.CustomerID(text); ok {
			rec.Customer.ID = id
			m.fillCustomer(ctx, rec)
		}
	}
	rec.AppendMessage(core.RoleUser, text, "")

	logged := len(rec.Messages)
	errorsBefore := rec.ErrorCount

	res := m.flow.Run(ctx, rec)
	out := res.Record
	out.Touch(m.clock())

	if err := m.store.Put(ctx, out); err != nil {
		return Result{}, fmt.Errorf("store session %s: %w", sessionID, err)
	}

	elapsed := time.Since(start)
	m.metrics.RecordCycle(out.Stage, out.Status, elapsed)
	m.logger.Info("cycle completed",
		"session_id", sessionID,
		"stage", out.Stage,
		"status", out.Status,
		"hops", len(res.Hops),
		"rule", res.Rule,
		"duration", elapsed,
	)

	return Result{
		OK:       out.ErrorCount == errorsBefore,
		Response: replies(out.Messages[logged:]),
		Stage:    out.Stage,
		Status:   out.Status,
		Agent:    out.ActiveAgent,
		Hops:     res.Hops,
		Rule:     res.Rule,
	}, nil
}

// DiscardSession removes the record and its artifacts.
func (m *Manager) DiscardSession(ctx context.Context, sessionID string) error {
	unlock := m.lock(sessionID)
	defer unlock()

	if err := m.store.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", core.ErrSessionNotFound, sessionID)
		}
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}

	ids, err := m.artifacts.List(sessionID)
	if err != nil {
		m.logger.Warn("list artifacts failed", "session_id", sessionID, "error", err)
	}
	for _, aid := range ids {
		if err := m.artifacts.Delete(sessionID, aid); err != nil && !errors.Is(err, artifact.ErrNotFound) {
			m.logger.Warn("delete artifact failed", "session_id", sessionID, "artifact_id", aid, "error", err)
		}
	}

	m.metrics.SessionClosed()
	m.logger.Info("session discarded", "session_id", sessionID, "artifacts", len(ids))
	return nil
}

// SetOTPPhone overrides the number one-time codes are sent to.
func (m *Manager) SetOTPPhone(ctx context.Context, sessionID, phone string) error {
	normalized := signal.NormalizePhone(phone, m.countryCode)
	digits := strings.TrimPrefix(normalized, "+")
	if len(digits) < 10 || strings.Trim(digits, "0123456789") != "" {
		return fmt.Errorf("%w: %q", core.ErrInvalidPhone, phone)
	}

	return m.update(ctx, sessionID, func(rec *core.Record) error {
		rec.Verification.OTPPhone = normalized
		return nil
	})
}

func (m *Manager) update(ctx context.Context, sessionID string, fn func(rec *core.Record) error) error {
	unlock := m.lock(sessionID)
	defer unlock()

	rec, err := m.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := fn(rec); err != nil {
		return err
	}
	rec.Touch(m.clock())
	if err := m.store.Put(ctx, rec); err != nil {
		return fmt.Errorf("store session %s: %w", sessionID, err)
	}
	return nil
}

func (m *Manager) load(ctx context.Context, sessionID string) (*core.Record, error) {
	rec, err := m.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return rec, nil
}

// sessionLock serializes work on one session. refs counts holders and
// waiters; the entry is dropped when it reaches zero.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// lock acquires the session's lock and returns its release function.
// Entries only live while someone holds or waits for them, so unknown ids
// leave nothing behind.
func (m *Manager) lock(sessionID string) func() {
	m.locksMu.Lock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		m.locks[sessionID] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, sessionID)
		}
		m.locksMu.Unlock()
	}
}

// fillCustomer copies contact fields from the directory into empty record
// fields. Lookup failures leave the record as is.
func (m *Manager) fillCustomer(ctx context.Context, rec *core.Record) {
	if m.directory == nil {
		return
	}
	p, err := m.directory.LookupCustomer(ctx, rec.Customer.ID)
	if err != nil {
		if !errors.Is(err, core.ErrCustomerNotFound) {
			m.logger.Warn("customer lookup failed", "session_id", rec.SessionID, "error", err)
		}
		return
	}
	c := &rec.Customer
	setIfEmpty(&c.Name, p.Name)
	setIfEmpty(&c.Phone, p.Phone)
	setIfEmpty(&c.Email, p.Email)
	setIfEmpty(&c.Address, p.Address)
	setIfEmpty(&c.City, p.City)
}

func (m *Manager) afterAgent(_ context.Context, name core.AgentName, in, out *core.Record, elapsed time.Duration) {
	failed := out.ErrorCount > in.ErrorCount
	m.metrics.RecordAgentRun(name, elapsed, failed)
	if failed {
		m.logger.Warn("collaborator failure", "session_id", out.SessionID, "agent", name, "error", out.LastError)
	}
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func replies(msgs []core.Message) string {
	var parts []string
	for _, msg := range msgs {
		if msg.Role == core.RoleAssistant {
			parts = append(parts, msg.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
