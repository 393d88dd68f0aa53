// Package lifecycle drives one itinerary through GENERATED, SAVED and
// APPROVED. Illegal transitions fail locally, and a transition in flight
// blocks any other until it resolves.
package lifecycle

import (
	"context"
	"sync"

	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/Rrens/trip-planner/internal/planner"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Service is the subset of the planner client the controller drives
type Service interface {
	Generate(ctx context.Context, prefs domain.Preferences, opts ...planner.CallOption) (*planner.GenerateResult, error)
	Save(ctx context.Context, prefs domain.Preferences, payload domain.Payload, opts ...planner.CallOption) (*planner.SaveResult, error)
	Approve(ctx context.Context, id int64) (domain.Status, error)
}

// Controller owns a single itinerary record
type Controller struct {
	svc      Service
	logger   zerolog.Logger
	onChange func(Snapshot)

	mu     sync.Mutex
	record *domain.Itinerary
	state  State
	// epoch changes whenever the record is replaced or discarded so that a
	// late result never lands on a different record
	epoch uint64
}

// Option configures a Controller
type Option func(*Controller)

// WithObserver registers fn to receive a snapshot after every state change
func WithObserver(fn func(Snapshot)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// WithLogger sets the transition logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a controller holding no itinerary
func New(svc Service, opts ...Option) *Controller {
	c := &Controller{
		svc:    svc,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current record and state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Generate replaces any held record with a newly generated one. On failure
// the previous record, if any, is kept.
func (c *Controller) Generate(ctx context.Context, prefs domain.Preferences, opts ...planner.CallOption) (*domain.Itinerary, error) {
	c.mu.Lock()
	if p, ok := c.state.(Pending); ok {
		c.mu.Unlock()
		return nil, domain.InvalidTransition("cannot generate while %s", p)
	}
	prevRecord, prevState := c.record, c.state
	c.epoch++
	epoch := c.epoch
	c.setLocked(nil, Pending{To: domain.StatusGenerated})
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	result, err := c.svc.Generate(ctx, prefs, opts...)

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return nil, discarded()
	}
	if err != nil {
		c.setLocked(prevRecord, prevState)
		snap = c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		c.logger.Debug().Err(err).Msg("Generate failed, previous itinerary kept")
		return nil, err
	}

	record := domain.Itinerary{
		Preferences: prefs,
		Payload:     result.Payload,
		Status:      domain.StatusGenerated,
	}.Clone()
	c.setLocked(&record, Stable{Status: domain.StatusGenerated})
	out := record.Clone()
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	return &out, nil
}

// Save persists the GENERATED record and moves it to SAVED
func (c *Controller) Save(ctx context.Context, opts ...planner.CallOption) (*domain.Itinerary, error) {
	c.mu.Lock()
	if err := c.guardLocked(domain.StatusSaved); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.record.Payload.IsEmpty() {
		c.mu.Unlock()
		return nil, domain.InvalidTransition("no itinerary payload to save")
	}
	rec := c.record.Clone()
	epoch := c.epoch
	c.setLocked(c.record, Pending{From: domain.StatusGenerated, To: domain.StatusSaved})
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	result, err := c.svc.Save(ctx, rec.Preferences, rec.Payload, opts...)

	return c.settle(epoch, domain.StatusGenerated, err, func(it *domain.Itinerary) {
		id := result.ID
		it.ID = &id
		it.Status = domain.StatusSaved
	})
}

// Approve moves the SAVED record to APPROVED
func (c *Controller) Approve(ctx context.Context) (*domain.Itinerary, error) {
	c.mu.Lock()
	if err := c.guardLocked(domain.StatusApproved); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	id := *c.record.ID
	epoch := c.epoch
	c.setLocked(c.record, Pending{From: domain.StatusSaved, To: domain.StatusApproved})
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	_, err := c.svc.Approve(ctx, id)

	return c.settle(epoch, domain.StatusSaved, err, func(it *domain.Itinerary) {
		it.Status = domain.StatusApproved
	})
}

// Open loads a saved history entry so its lifecycle can continue
func (c *Controller) Open(entry domain.ItinerarySummary) (*domain.Itinerary, error) {
	if entry.ID <= 0 {
		return nil, domain.NewError(domain.KindInvalidInput, "history entry has no id", nil)
	}
	if entry.Status != domain.StatusSaved && entry.Status != domain.StatusApproved {
		return nil, domain.NewError(domain.KindInvalidInput, "history entry has status "+string(entry.Status), nil)
	}

	c.mu.Lock()
	if p, ok := c.state.(Pending); ok {
		c.mu.Unlock()
		return nil, domain.InvalidTransition("cannot open an itinerary while %s", p)
	}
	id := entry.ID
	record := (&domain.Itinerary{
		ID:          &id,
		Preferences: entry.Preferences,
		Payload:     entry.Itinerary,
		Status:      entry.Status,
	}).Clone()
	c.epoch++
	c.setLocked(&record, Stable{Status: entry.Status})
	out := record.Clone()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	return &out, nil
}

// Reset discards the record. A call still in flight resolves without
// touching the controller.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.epoch++
	c.setLocked(nil, nil)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// guardLocked rejects any transition to target not allowed from the current state
func (c *Controller) guardLocked(target domain.Status) error {
	switch st := c.state.(type) {
	case nil:
		return domain.InvalidTransition("no itinerary to move to %s", target)
	case Pending:
		return domain.InvalidTransition("cannot move to %s while %s", target, st)
	case Stable:
		switch {
		case st.Status == domain.StatusApproved:
			return domain.InvalidTransition("itinerary is already APPROVED")
		case target == domain.StatusSaved && st.Status != domain.StatusGenerated:
			return domain.InvalidTransition("cannot save an itinerary in status %s", st.Status)
		case target == domain.StatusApproved && st.Status != domain.StatusSaved:
			return domain.InvalidTransition("cannot approve an itinerary in status %s", st.Status)
		case target == domain.StatusApproved && c.record.ID == nil:
			return domain.InvalidTransition("cannot approve an itinerary without an id")
		}
		return nil
	}
	return domain.InvalidTransition("unknown state")
}

// settle ends a pending save or approve: on success apply advances the
// record, otherwise the record falls back to prior.
func (c *Controller) settle(epoch uint64, prior domain.Status, err error, apply func(*domain.Itinerary)) (*domain.Itinerary, error) {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return nil, discarded()
	}

	if err != nil {
		c.setLocked(c.record, Stable{Status: prior})
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		c.logger.Debug().Err(err).Str("status", string(prior)).Msg("Transition failed, status kept")
		return nil, err
	}

	apply(c.record)
	c.setLocked(c.record, Stable{Status: c.record.Status})
	out := c.record.Clone()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	return &out, nil
}

func (c *Controller) setLocked(record *domain.Itinerary, state State) {
	c.record = record
	c.state = state
	c.logger.Debug().Stringer("state", stateString{state}).Msg("Itinerary state changed")
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{State: c.state}
	if c.record != nil {
		snap.Itinerary = ptr(c.record.Clone())
	}
	return snap
}

func (c *Controller) notify(snap Snapshot) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}

func discarded() error {
	return domain.InvalidTransition("itinerary was discarded while the call was in flight")
}

type stateString struct{ s State }

func (s stateString) String() string {
	if s.s == nil {
		return "NONE"
	}
	return s.s.String()
}

func ptr[T any](v T) *T {
	return &v
}
