package lifecycle

import (
	"fmt"

	"github.com/Rrens/trip-planner/internal/domain"
)

// State is the lifecycle state of the controller's record: Stable or Pending.
// A nil State means no itinerary is held.
type State interface {
	fmt.Stringer
	isState()
}

// Stable is a settled status
type Stable struct {
	Status domain.Status
}

// Pending is a transition in flight. From is empty while generating.
type Pending struct {
	From domain.Status
	To   domain.Status
}

func (Stable) isState()  {}
func (Pending) isState() {}

func (s Stable) String() string {
	return string(s.Status)
}

func (p Pending) String() string {
	from := string(p.From)
	if from == "" {
		from = "NONE"
	}
	return fmt.Sprintf("%s->%s (pending)", from, p.To)
}

// Snapshot is a copy of the controller's record and state
type Snapshot struct {
	State     State
	Itinerary *domain.Itinerary
}

// Status returns the settled status, or the status the record held before
// the pending transition started. Empty when nothing is held.
func (s Snapshot) Status() domain.Status {
	switch st := s.State.(type) {
	case Stable:
		return st.Status
	case Pending:
		return st.From
	}
	return ""
}

// IsPending reports whether a transition is in flight
func (s Snapshot) IsPending() bool {
	_, ok := s.State.(Pending)
	return ok
}
