package plan

import (
	"reflect"
	"sort"

	"github.com/lmari-ekan/alpha-migrations/internal/action"
)

// Options configures plan construction for one table.
type Options struct {
	// Table is the name of the table the intent was accumulated for.
	Table string

	// TableExists reports whether the table already exists in the target
	// database. When false and the intent carries no create or rename, the
	// planner synthesizes a CreateTable so the sequence is self-sufficient.
	TableExists bool

	// TableOptions configure the synthesized CreateTable (primary key
	// strategy, engine, charset, comment).
	TableOptions action.TableOptions
}

// Plan is the reordered, execution-ready action sequence derived from an
// Intent. It is built fresh at save time and never persisted.
type Plan struct {
	actions []action.Action
}

// Actions returns the planned sequence in execution order.
func (p *Plan) Actions() []action.Action {
	return p.actions
}

// Empty reports whether the plan dispatches no actions.
func (p *Plan) Empty() bool {
	return len(p.actions) == 0
}

// kindPriority fixes the bucket precedence. Drops come before the additions
// that might replace them in the same batch; foreign key additions come last
// so every referenced column and table exists at execution time.
var kindPriority = map[action.Kind]int{
	action.KindDropForeignKey:   0,
	action.KindDropIndex:        1,
	action.KindRemoveColumn:     2,
	action.KindDropTable:        3,
	action.KindCreateTable:      4,
	action.KindRenameTable:      5,
	action.KindAddColumn:        6,
	action.KindRenameColumn:     7,
	action.KindChangeColumn:     8,
	action.KindAddIndex:         9,
	action.KindChangePrimaryKey: 10,
	action.KindChangeComment:    11,
	action.KindAddForeignKey:    12,
}

// Build derives a Plan from an Intent. Every action is validated; Literal
// column types pass through unmodified. The planner orders for correctness
// only — it does not check referential existence, so a truly missing
// referenced table fails at the adapter with the engine's own diagnostic.
func Build(intent *Intent, opts Options) (*Plan, error) {
	acts := intent.Actions()
	for _, a := range acts {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}

	acts = coalesceRenames(acts)
	acts = dedupe(acts)

	if !opts.TableExists && !hasCreateOrRename(acts, opts.Table) && touchesTable(acts, opts.Table) {
		acts = synthesizeCreate(acts, opts)
	}

	// Stable sort by bucket keeps insertion order within each bucket.
	sort.SliceStable(acts, func(i, j int) bool {
		return kindPriority[acts[i].Kind()] < kindPriority[acts[j].Kind()]
	})

	acts = deferForeignKeys(acts)

	return &Plan{actions: acts}, nil
}

// coalesceRenames folds a RenameColumn into an AddColumn for the same column
// from the same batch: the column is simply added under its final name, with
// every other option untouched. The merged result is a fresh action; the
// intent's stored actions are never modified, so a retried Save re-plans the
// same input.
func coalesceRenames(acts []action.Action) []action.Action {
	out := make([]action.Action, 0, len(acts))
	for _, a := range acts {
		ren, ok := a.(*action.RenameColumn)
		if !ok {
			out = append(out, a)
			continue
		}
		merged := false
		for i, prev := range out {
			add, ok := prev.(*action.AddColumn)
			if ok && add.Table() == ren.Table() && add.Column.Name == ren.OldName {
				col := add.Column.Clone()
				col.Name = ren.NewName
				out[i] = action.NewAddColumn(add.Table(), col)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, a)
		}
	}
	return out
}

// dedupe removes structurally equal duplicates, keeping the first occurrence.
func dedupe(acts []action.Action) []action.Action {
	out := make([]action.Action, 0, len(acts))
	for _, a := range acts {
		dup := false
		for _, prev := range out {
			if prev.Kind() == a.Kind() && reflect.DeepEqual(prev, a) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, a)
		}
	}
	return out
}

func hasCreateOrRename(acts []action.Action, table string) bool {
	for _, a := range acts {
		switch a.Kind() {
		case action.KindCreateTable, action.KindRenameTable:
			if a.Table() == table {
				return true
			}
		}
	}
	return false
}

func touchesTable(acts []action.Action, table string) bool {
	if table == "" {
		return false
	}
	for _, a := range acts {
		if a.Table() == table {
			return true
		}
	}
	return false
}

// synthesizeCreate folds pending column and index additions for the missing
// table into a single CreateTable. Foreign key additions stay as separate
// trailing actions so they always execute after the create.
func synthesizeCreate(acts []action.Action, opts Options) []action.Action {
	create := &action.CreateTable{
		Name:    opts.Table,
		Options: opts.TableOptions,
	}

	out := make([]action.Action, 0, len(acts)+1)
	for _, a := range acts {
		if a.Table() != opts.Table {
			out = append(out, a)
			continue
		}
		switch act := a.(type) {
		case *action.AddColumn:
			create.Columns = append(create.Columns, act.Column)
		case *action.AddIndex:
			create.Indexes = append(create.Indexes, act.Index)
		case *action.ChangePrimaryKey:
			create.Options.PrimaryKey = act.Columns
			create.Options.DisableID = true
		case *action.ChangeComment:
			if act.Comment != nil {
				create.Options.Comment = *act.Comment
			}
		default:
			out = append(out, a)
		}
	}

	normalizeCreate(create)
	return append(out, create)
}

// normalizeCreate prepends the implicit auto-increment primary key column
// when the table declares neither an explicit primary key nor an identity
// column of its own.
func normalizeCreate(create *action.CreateTable) {
	idName := create.Options.IDColumn()
	if idName == "" {
		return
	}
	for _, col := range create.Columns {
		if col.Identity || col.Name == idName {
			return
		}
	}
	id := action.NewColumn(idName, action.TypeInteger)
	id.Identity = true
	id.Unsigned = create.Options.Unsigned
	create.Columns = append([]*action.Column{id}, create.Columns...)
}

// deferForeignKeys orders the trailing AddForeignKey bucket so constraints
// referencing a table created in the same plan run after constraints whose
// targets already exist. The CreateTable bucket precedes the whole FK bucket,
// so referential validity holds at execution time either way.
func deferForeignKeys(acts []action.Action) []action.Action {
	created := make(map[string]bool)
	for _, a := range acts {
		if a.Kind() == action.KindCreateTable {
			created[a.Table()] = true
		}
	}
	if len(created) == 0 {
		return acts
	}
	sort.SliceStable(acts, func(i, j int) bool {
		fi, iok := acts[i].(*action.AddForeignKey)
		fj, jok := acts[j].(*action.AddForeignKey)
		if !iok || !jok {
			return false
		}
		return !created[fi.ForeignKey.RefTable] && created[fj.ForeignKey.RefTable]
	})
	return acts
}

// Normalize prepares a CreateTable coming straight from a migration script:
// the implicit id column is injected exactly as for synthesized creates.
func Normalize(create *action.CreateTable) *action.CreateTable {
	normalizeCreate(create)
	return create
}
