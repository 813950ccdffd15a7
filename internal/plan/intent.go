// Package plan turns an Intent — the insertion-ordered multiset of actions a
// migration script accumulated — into a deterministically ordered, deduplicated
// sequence that is safe to execute against any supported dialect.
package plan

import (
	"github.com/lmari-ekan/alpha-migrations/internal/action"
)

// Intent is the ordered collection of actions pending for a table. Insertion
// order is preserved as the planner's input; the planner is free to reorder
// for correctness.
type Intent struct {
	actions []action.Action
}

// NewIntent returns an empty intent.
func NewIntent() *Intent {
	return &Intent{}
}

// Add appends actions in insertion order.
func (i *Intent) Add(acts ...action.Action) {
	i.actions = append(i.actions, acts...)
}

// Actions returns a copy of the accumulated actions.
func (i *Intent) Actions() []action.Action {
	out := make([]action.Action, len(i.actions))
	copy(out, i.actions)
	return out
}

// Len returns the number of accumulated actions.
func (i *Intent) Len() int {
	return len(i.actions)
}

// Empty reports whether no actions have been accumulated.
func (i *Intent) Empty() bool {
	return len(i.actions) == 0
}

// Reset discards all accumulated actions.
func (i *Intent) Reset() {
	i.actions = nil
}
