package amerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------
// Constructor Tests
// -----------------------------------------------------------------------------

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    Code
		message string
	}{
		{
			name:    "config error",
			code:    ErrConfigInvalid,
			message: "config file is malformed",
		},
		{
			name:    "schema error",
			code:    ErrSchemaInvalid,
			message: "column definition is malformed",
		},
		{
			name:    "migration error",
			code:    ErrMigrationFailed,
			message: "migration failed to execute",
		},
		{
			name:    "SQL error",
			code:    ErrSQLExecution,
			message: "SQL statement failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message)
			if err == nil {
				t.Fatal("expected non-nil error")
			}
			if err.GetCode() != tt.code {
				t.Errorf("GetCode() = %q, want %q", err.GetCode(), tt.code)
			}
			if err.GetMessage() != tt.message {
				t.Errorf("GetMessage() = %q, want %q", err.GetMessage(), tt.message)
			}
			want := fmt.Sprintf("[%s] %s", tt.code, tt.message)
			if err.Error() != want {
				t.Errorf("Error() = %q, want %q", err.Error(), want)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(ErrInvalidType, "unknown column type %q", "varchar2")
	if got := err.GetMessage(); got != `unknown column type "varchar2"` {
		t.Errorf("GetMessage() = %q", got)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrConnection, cause, "failed to connect")

	if err.GetCode() != ErrConnection {
		t.Errorf("GetCode() = %q, want %q", err.GetCode(), ErrConnection)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should match its cause via errors.Is")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap() should return the cause")
	}
	if !strings.Contains(err.Error(), "cause: connection refused") {
		t.Errorf("Error() = %q, want cause line", err.Error())
	}
}

func TestWrapNilCause(t *testing.T) {
	err := Wrap(ErrSQLExecution, nil, "statement failed")
	if errors.Unwrap(err) != nil {
		t.Error("Unwrap() should be nil when no cause was given")
	}
}

// -----------------------------------------------------------------------------
// Context Tests
// -----------------------------------------------------------------------------

func TestContextChaining(t *testing.T) {
	err := New(ErrColumnCount, "foreign key column count must match referenced column count").
		WithTable("orders").
		WithColumn("user_id").
		With("columns", 2)

	ctx := err.GetContext()
	if ctx["table"] != "orders" {
		t.Errorf("table context = %v, want orders", ctx["table"])
	}
	if ctx["column"] != "user_id" {
		t.Errorf("column context = %v, want user_id", ctx["column"])
	}
	if ctx["columns"] != 2 {
		t.Errorf("columns context = %v, want 2", ctx["columns"])
	}
}

func TestErrorFormatSortsContext(t *testing.T) {
	err := New(ErrSchemaInvalid, "duplicate column name").
		With("z_last", 1).
		With("a_first", 2)

	out := err.Error()
	first := strings.Index(out, "a_first")
	last := strings.Index(out, "z_last")
	if first < 0 || last < 0 || first > last {
		t.Errorf("context keys not sorted in %q", out)
	}
}

func TestWithVersion(t *testing.T) {
	err := New(ErrBreakpointSet, "rollback refused").WithVersion("20260815143000")
	if err.GetContext()["version"] != "20260815143000" {
		t.Errorf("version context = %v", err.GetContext()["version"])
	}
}

// -----------------------------------------------------------------------------
// Code Extraction Tests
// -----------------------------------------------------------------------------

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{
			name: "direct error",
			err:  New(ErrDuplicateVersion, "collision"),
			want: ErrDuplicateVersion,
		},
		{
			name: "wrapped in fmt",
			err:  fmt.Errorf("outer: %w", New(ErrIrreversible, "cannot invert")),
			want: ErrIrreversible,
		},
		{
			name: "plain error",
			err:  errors.New("plain"),
			want: "",
		},
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.want {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := Wrap(ErrMigrationFailed, New(ErrSQLExecution, "boom"), "migration aborted")

	if !Is(err, ErrMigrationFailed) {
		t.Error("Is() should match the outermost code")
	}
	if Is(err, ErrSQLExecution) {
		t.Error("Is() matches codes, not causes")
	}
	if Is(nil, ErrMigrationFailed) {
		t.Error("Is(nil) should be false")
	}
}

func TestErrorsIsByCode(t *testing.T) {
	err := New(ErrAmbiguousDrop, "no index covers exactly this column set")
	target := New(ErrAmbiguousDrop, "different message")
	if !errors.Is(err, target) {
		t.Error("errors with the same code should match")
	}
	other := New(ErrUnknownColumn, "different code")
	if errors.Is(err, other) {
		t.Error("errors with different codes should not match")
	}
}
