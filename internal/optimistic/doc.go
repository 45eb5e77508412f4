// Package optimistic holds client-side collections that change before the
// server confirms and reconcile once it answers.
//
// A change goes through Begin (the optimistic value becomes visible), then
// exactly one of Confirm, ConfirmWith or Rollback. Every Begin captures the
// entity's prior value, position and presence; Rollback restores that
// snapshot and nothing else, so concurrent mutations on other entities are
// untouched.
//
// Each Begin takes the next sequence number for its entity. Only the latest
// mutation of an entity may reconcile it; an older one resolves as
// Discarded and leaves the collection alone. Replace and Reset make every
// in-flight mutation stale.
package optimistic

// State is the lifecycle of one mutation.
type State int

const (
	Idle State = iota
	Applied
	Confirmed
	RolledBack
	Discarded
)

func (s State) String() string {
	switch s {
	case Applied:
		return "applied"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled_back"
	case Discarded:
		return "discarded"
	default:
		return "idle"
	}
}
