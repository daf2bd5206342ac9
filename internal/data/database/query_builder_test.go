package database

import (
	"reflect"
	"strings"
	"testing"
)

func TestBuildListQuery_BasicSelect(t *testing.T) {
	opts := NewListQueryOptions("jobs")
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "jobs"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}
}

func TestBuildListQuery_WithColumns(t *testing.T) {
	opts := NewListQueryOptions("jobs",
		WithColumns("id", "owner_id", "status"),
	)
	query, _ := BuildListQuery(opts)

	expected := `SELECT "id", "owner_id", "status" FROM "jobs"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
}

func TestBuildListQuery_WithQualifiedColumns(t *testing.T) {
	opts := NewListQueryOptions("jobs",
		WithColumns("jobs.id", "jobs.status"),
	)
	query, _ := BuildListQuery(opts)

	expected := `SELECT "jobs"."id", "jobs"."status" FROM "jobs"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
}

func TestBuildListQuery_WithConditions(t *testing.T) {
	opts := NewListQueryOptions("jobs",
		WithConditions(
			WhereCond("owner_id", Equal, "user-1"),
			WhereCond("progress", GreaterThanOrEqual, 50),
		),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "jobs" WHERE "owner_id" = $1 AND "progress" >= $2`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if !reflect.DeepEqual(args, []any{"user-1", 50}) {
		t.Errorf("Unexpected args: %v", args)
	}
}

func TestBuildListQuery_InCondition(t *testing.T) {
	opts := NewListQueryOptions("jobs",
		WithCondition(WhereCond("status", In, []string{"pending", "processing"})),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "jobs" WHERE "status" IN ($1, $2)`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if !reflect.DeepEqual(args, []any{"pending", "processing"}) {
		t.Errorf("Unexpected args: %v", args)
	}
}

func TestBuildListQuery_EmptyInConditionSkipped(t *testing.T) {
	opts := NewListQueryOptions("jobs",
		WithCondition(WhereCond("status", In, []string{})),
		WithCondition(WhereCond("owner_id", Equal, "user-1")),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "jobs" WHERE "owner_id" = $1`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 1 {
		t.Errorf("Expected 1 arg, got %d", len(args))
	}
}

func TestBuildListQuery_OrderLimitOffset(t *testing.T) {
	opts := NewListQueryOptions("jobs",
		WithCondition(WhereCond("owner_id", Equal, "user-1")),
		WithOrderBy("created_at", "desc"),
		WithLimit(10),
		WithOffset(20),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "jobs" WHERE "owner_id" = $1 ORDER BY "created_at" DESC LIMIT $2 OFFSET $3`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if !reflect.DeepEqual(args, []any{"user-1", 10, 20}) {
		t.Errorf("Unexpected args: %v", args)
	}
}

func TestBuildListQuery_InvalidOrderDirectionDropped(t *testing.T) {
	opts := NewListQueryOptions("jobs",
		WithOrderBy("created_at", "sideways; DROP TABLE jobs"),
	)
	query, _ := BuildListQuery(opts)

	expected := `SELECT * FROM "jobs" ORDER BY "created_at"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
}

func TestBuildListQuery_ZeroLimitIsExplicit(t *testing.T) {
	opts := NewListQueryOptions("jobs", WithLimit(0))
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "jobs" LIMIT $1`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if !reflect.DeepEqual(args, []any{0}) {
		t.Errorf("Unexpected args: %v", args)
	}
}

func TestBuildListQuery_CountOnly(t *testing.T) {
	opts := NewListQueryOptions("jobs",
		WithCountOnly(),
		WithCondition(WhereCond("status", Equal, "failed")),
		WithOrderBy("created_at", "DESC"),
		WithLimit(5),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT COUNT(*) FROM "jobs" WHERE "status" = $1`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 1 {
		t.Errorf("Expected 1 arg, got %d", len(args))
	}
}

func TestBuildListQuery_IdentifierQuotingStopsInjection(t *testing.T) {
	opts := NewListQueryOptions("jobs",
		WithCondition(WhereCond(`owner_id"; DROP TABLE jobs; --`, Equal, "x")),
	)
	query, _ := BuildListQuery(opts)

	if want := `"owner_id""; DROP TABLE jobs; --"`; !strings.Contains(query, want) {
		t.Errorf("Expected quoted identifier %q in query %q", want, query)
	}
}
