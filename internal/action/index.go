package action

import (
	"sort"

	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// IndexKind distinguishes ordinary, fulltext, and spatial indexes.
type IndexKind string

const (
	IndexNormal   IndexKind = "index"
	IndexFulltext IndexKind = "fulltext"
	IndexSpatial  IndexKind = "spatial"
)

// Index describes an index over one or more columns. Column order matters
// for prefix-matching semantics; HasIndex lookups compare the column set
// without regard to order.
type Index struct {
	Columns []string
	Name    string
	Unique  bool
	Kind    IndexKind

	// Limits holds per-column prefix lengths (dialects that support them).
	Limits map[string]int

	// Orders holds per-column sort order, "ASC" or "DESC".
	Orders map[string]string
}

// NewIndex constructs a plain index over the given columns.
func NewIndex(columns ...string) *Index {
	return &Index{Columns: columns, Kind: IndexNormal}
}

// Validate checks that the index definition is well-formed.
func (i *Index) Validate() error {
	if len(i.Columns) == 0 {
		return amerr.New(amerr.ErrSchemaInvalid, "index must have at least one column")
	}
	switch i.Kind {
	case "", IndexNormal, IndexFulltext, IndexSpatial:
	default:
		return amerr.Newf(amerr.ErrSchemaInvalid, "unknown index kind %q", i.Kind)
	}
	for col := range i.Orders {
		if o := i.Orders[col]; o != "ASC" && o != "DESC" {
			return amerr.Newf(amerr.ErrSchemaInvalid, "index order must be ASC or DESC, got %q", o).
				WithColumn(col)
		}
	}
	return nil
}

// SameColumns reports whether the index covers exactly the given column set,
// ignoring order.
func (i *Index) SameColumns(columns []string) bool {
	if len(i.Columns) != len(columns) {
		return false
	}
	a := append([]string(nil), i.Columns...)
	b := append([]string(nil), columns...)
	sort.Strings(a)
	sort.Strings(b)
	for n := range a {
		if a[n] != b[n] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the index.
func (i *Index) Clone() *Index {
	cp := *i
	cp.Columns = append([]string(nil), i.Columns...)
	if i.Limits != nil {
		cp.Limits = make(map[string]int, len(i.Limits))
		for k, v := range i.Limits {
			cp.Limits[k] = v
		}
	}
	if i.Orders != nil {
		cp.Orders = make(map[string]string, len(i.Orders))
		for k, v := range i.Orders {
			cp.Orders[k] = v
		}
	}
	return &cp
}
