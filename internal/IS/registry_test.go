package IS

import (
	"testing"
)

func TestRegistry_IsInformationSchemaTable(t *testing.T) {
	registry := NewRegistry(NewSchema())

	tests := []struct {
		tableName string
		expected  bool
	}{
		{"information_schema.columns", true},
		{"information_schema.tables", true},
		{"information_schema.table_constraints", true},
		{"INFORMATION_SCHEMA.COLUMNS", true},
		{"information_schema.views", false},
		{"regular_table", false},
		{"main.regular_table", false},
	}

	for _, tt := range tests {
		t.Run(tt.tableName, func(t *testing.T) {
			result := registry.IsInformationSchemaTable(tt.tableName)
			if result != tt.expected {
				t.Errorf("Expected %v for %s, got %v", tt.expected, tt.tableName, result)
			}
		})
	}
}

func TestRegistry_Query(t *testing.T) {
	s := NewSchema()
	registry := NewRegistry(s)
	mustExec(t, s, "CREATE TABLE t (id INTEGER PRIMARY KEY, b TEXT UNIQUE COLLATE nocase DEFAULT 'z')")

	cols, rows, err := registry.QueryInformationSchema("columns")
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 7 || len(rows) != 2 {
		t.Fatalf("expected 7 columns and 2 rows, got %d and %d", len(cols), len(rows))
	}
	if rows[0][4] != "NO" || rows[1][5] != "'z'" || rows[1][6] != "nocase" {
		t.Errorf("unexpected column rows: %v", rows)
	}

	_, rows, err = registry.QueryInformationSchema("table_constraints")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][3] != ConstraintTypePrimaryKey || rows[1][3] != ConstraintTypeUnique {
		t.Errorf("unexpected constraint rows: %v", rows)
	}

	// Cached until invalidated.
	mustExec(t, s, "CREATE TABLE u (x)")
	_, rows, _ = registry.QueryInformationSchema("tables")
	if len(rows) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(rows))
	}
	mustExec(t, s, "CREATE TABLE v (x)")
	_, rows, _ = registry.QueryInformationSchema("TABLES")
	if len(rows) != 2 {
		t.Errorf("expected cached result with 2 tables, got %d", len(rows))
	}
	registry.Invalidate()
	_, rows, _ = registry.QueryInformationSchema("tables")
	if len(rows) != 3 {
		t.Errorf("expected 3 tables after invalidation, got %d", len(rows))
	}

	if _, _, err := registry.QueryInformationSchema("views"); err == nil {
		t.Error("expected error for unknown view")
	}
}
