package action

import (
	"testing"

	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// -----------------------------------------------------------------------------
// Column Validation
// -----------------------------------------------------------------------------

func TestColumnValidate(t *testing.T) {
	tests := []struct {
		name     string
		col      *Column
		wantCode amerr.Code
	}{
		{
			name: "valid string column",
			col:  NewColumn("email", TypeString),
		},
		{
			name: "literal type passes through",
			col:  NewLiteralColumn("location", NewLiteral("GEOGRAPHY(POINT)")),
		},
		{
			name:     "missing name",
			col:      &Column{Type: TypeString},
			wantCode: amerr.ErrSchemaInvalid,
		},
		{
			name:     "missing type",
			col:      &Column{Name: "email"},
			wantCode: amerr.ErrSchemaInvalid,
		},
		{
			name:     "type and literal both set",
			col:      &Column{Name: "email", Type: TypeString, TypeLiteral: "TEXT"},
			wantCode: amerr.ErrSchemaInvalid,
		},
		{
			name:     "unknown type",
			col:      &Column{Name: "email", Type: "varchar2"},
			wantCode: amerr.ErrInvalidType,
		},
		{
			name:     "enum without values",
			col:      NewColumn("state", TypeEnum),
			wantCode: amerr.ErrSchemaInvalid,
		},
		{
			name: "set with values",
			col:  &Column{Name: "flags", Type: TypeSet, Values: []string{"a", "b"}},
		},
		{
			name:     "negative limit",
			col:      &Column{Name: "email", Type: TypeString, Limit: -1},
			wantCode: amerr.ErrSchemaInvalid,
		},
		{
			name:     "scale beyond precision",
			col:      &Column{Name: "price", Type: TypeDecimal, Precision: 4, Scale: 6},
			wantCode: amerr.ErrSchemaInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.col.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !amerr.Is(err, tt.wantCode) {
				t.Fatalf("Validate() = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestColumnClone(t *testing.T) {
	col := &Column{Name: "state", Type: TypeEnum, Values: []string{"on", "off"}}
	cp := col.Clone()
	cp.Values[0] = "mutated"
	if col.Values[0] != "on" {
		t.Error("Clone() shares the values slice")
	}
}

// -----------------------------------------------------------------------------
// Default Value Rendering
// -----------------------------------------------------------------------------

func TestFormatDefault(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "NULL"},
		{"true", true, "TRUE"},
		{"false", false, "FALSE"},
		{"int", 42, "42"},
		{"int64", int64(9000), "9000"},
		{"float", 1.5, "1.5"},
		{"string", "active", "'active'"},
		{"string with quote", "it's", "'it''s'"},
		{"literal passes through", NewLiteral("CURRENT_TIMESTAMP"), "CURRENT_TIMESTAMP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDefault(tt.in, "TRUE", "FALSE"); got != tt.want {
				t.Errorf("FormatDefault(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatDefaultBooleanLiterals(t *testing.T) {
	if got := FormatDefault(true, "1", "0"); got != "1" {
		t.Errorf("FormatDefault(true) = %q, want 1", got)
	}
	if got := FormatDefault(false, "1", "0"); got != "0" {
		t.Errorf("FormatDefault(false) = %q, want 0", got)
	}
}

// -----------------------------------------------------------------------------
// Index
// -----------------------------------------------------------------------------

func TestIndexSameColumns(t *testing.T) {
	tests := []struct {
		name  string
		index []string
		query []string
		want  bool
	}{
		{"exact match", []string{"a", "b"}, []string{"a", "b"}, true},
		{"order-insensitive", []string{"a", "b"}, []string{"b", "a"}, true},
		{"subset never matches", []string{"a", "b"}, []string{"a"}, false},
		{"superset never matches", []string{"a"}, []string{"a", "b"}, false},
		{"disjoint", []string{"a"}, []string{"c"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewIndex(tt.index...)
			if got := idx.SameColumns(tt.query); got != tt.want {
				t.Errorf("SameColumns(%v) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestIndexValidate(t *testing.T) {
	if err := NewIndex("email").Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if err := (&Index{}).Validate(); err == nil {
		t.Fatal("index without columns should fail validation")
	}
	bad := &Index{Columns: []string{"a"}, Orders: map[string]string{"a": "sideways"}}
	if err := bad.Validate(); err == nil {
		t.Fatal("invalid sort order should fail validation")
	}
	good := &Index{Columns: []string{"a"}, Orders: map[string]string{"a": "DESC"}}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

// -----------------------------------------------------------------------------
// Foreign Keys
// -----------------------------------------------------------------------------

func TestForeignKeyValidate(t *testing.T) {
	fk := &ForeignKey{
		Columns:    []string{"user_id"},
		RefTable:   "users",
		RefColumns: []string{"id"},
		OnDelete:   Cascade,
	}
	if err := fk.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	mismatch := &ForeignKey{
		Columns:    []string{"a", "b"},
		RefTable:   "users",
		RefColumns: []string{"id"},
	}
	if err := mismatch.Validate(); !amerr.Is(err, amerr.ErrColumnCount) {
		t.Fatalf("Validate() = %v, want code %s", err, amerr.ErrColumnCount)
	}

	badAction := &ForeignKey{
		Columns:    []string{"user_id"},
		RefTable:   "users",
		RefColumns: []string{"id"},
		OnDelete:   "EXPLODE",
	}
	if err := badAction.Validate(); err == nil {
		t.Fatal("invalid referential action should fail validation")
	}
}

func TestNormalizeReferentialAction(t *testing.T) {
	tests := []struct {
		in      string
		want    ReferentialAction
		wantErr bool
	}{
		{"", "", false},
		{"cascade", Cascade, false},
		{"set_null", SetNull, false},
		{"no action", NoAction, false},
		{"RESTRICT", Restrict, false},
		{"explode", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeReferentialAction(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeReferentialAction(%q) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeReferentialAction(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestForeignKeyConstraintName(t *testing.T) {
	fk := &ForeignKey{Columns: []string{"user_id", "org_id"}}
	if got := fk.ConstraintName("memberships"); got != "memberships_user_id_org_id_fk" {
		t.Errorf("ConstraintName() = %q", got)
	}
	named := &ForeignKey{Columns: []string{"user_id"}, Name: "fk_custom"}
	if got := named.ConstraintName("memberships"); got != "fk_custom" {
		t.Errorf("ConstraintName() = %q, want explicit name", got)
	}
}

// -----------------------------------------------------------------------------
// Table Options
// -----------------------------------------------------------------------------

func TestTableOptionsIDColumn(t *testing.T) {
	tests := []struct {
		name string
		opts TableOptions
		want string
	}{
		{"default", TableOptions{}, "id"},
		{"custom name", TableOptions{ID: "user_id"}, "user_id"},
		{"disabled", TableOptions{DisableID: true}, ""},
		{"explicit primary key", TableOptions{PrimaryKey: []string{"email"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.IDColumn(); got != tt.want {
				t.Errorf("IDColumn() = %q, want %q", got, tt.want)
			}
		})
	}
}
