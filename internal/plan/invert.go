package plan

import (
	"github.com/lmari-ekan/alpha-migrations/internal/action"
)

// Invert returns the mechanical inverse of an action, or false when the
// action cannot be inverted without information the action does not carry
// (a dropped column's definition, a changed column's previous shape).
// Callers rolling back a change-style migration must treat false as fatal.
func Invert(a action.Action) (action.Action, bool) {
	switch act := a.(type) {
	case *action.CreateTable:
		return &action.DropTable{Name: act.Name}, true

	case *action.RenameTable:
		return &action.RenameTable{Name: act.NewName, NewName: act.Name}, true

	case *action.AddColumn:
		return action.NewRemoveColumn(act.Table(), act.Column.Name), true

	case *action.RenameColumn:
		return action.NewRenameColumn(act.Table(), act.NewName, act.OldName), true

	case *action.AddIndex:
		if act.Index.Name != "" {
			return action.NewDropIndexByName(act.Table(), act.Index.Name), true
		}
		return action.NewDropIndex(act.Table(), act.Index.Columns), true

	case *action.AddForeignKey:
		if act.ForeignKey.Name != "" {
			return action.NewDropForeignKeyByName(act.Table(), act.ForeignKey.Name), true
		}
		return action.NewDropForeignKey(act.Table(), act.ForeignKey.Columns), true

	default:
		// Drops, column changes, primary key and comment changes would need
		// the prior definition to restore.
		return nil, false
	}
}

// InvertAll inverts a sequence in reverse order. The second return value is
// false as soon as any single action is irreversible.
func InvertAll(acts []action.Action) ([]action.Action, bool) {
	out := make([]action.Action, 0, len(acts))
	for i := len(acts) - 1; i >= 0; i-- {
		inv, ok := Invert(acts[i])
		if !ok {
			return nil, false
		}
		out = append(out, inv)
	}
	return out, true
}
