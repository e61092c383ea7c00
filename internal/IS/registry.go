package IS

import (
	"strings"

	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
)

// Registry answers information_schema queries against a Schema, caching
// each view until the next DDL.
type Registry struct {
	mp    *MetadataProvider
	cache *SchemaCache
}

func NewRegistry(schema *Schema) *Registry {
	return &Registry{
		mp:    NewMetadataProvider(schema),
		cache: NewSchemaCache(),
	}
}

// IsInformationSchemaTable returns true if the table name is an information_schema table
func (r *Registry) IsInformationSchemaTable(tableName string) bool {
	parts := strings.Split(strings.ToLower(tableName), ".")
	if len(parts) != 2 || parts[0] != "information_schema" {
		return false
	}
	_, err := r.GetColumnNames(parts[1])
	return err == nil
}

// Invalidate drops cached view contents. Call it after every DDL.
func (r *Registry) Invalidate() {
	r.cache.Invalidate()
}

// QueryInformationSchema returns the column names and rows of a view.
func (r *Registry) QueryInformationSchema(viewName string) ([]string, [][]interface{}, error) {
	viewName = strings.ToLower(viewName)
	if cols, rows, ok := r.cache.Get(viewName); ok {
		return cols, rows, nil
	}
	cols, err := r.GetColumnNames(viewName)
	if err != nil {
		return nil, nil, err
	}

	var rows [][]interface{}
	switch viewName {
	case "tables":
		for _, t := range r.mp.GetTables() {
			rows = append(rows, []interface{}{t.TableName, t.TableSchema, t.TableType, t.Strict})
		}
	case "columns":
		for _, c := range r.mp.GetColumns("") {
			rows = append(rows, []interface{}{c.ColumnName, c.TableName, c.TableSchema, c.DataType, c.IsNullable, c.ColumnDefault, c.Collation})
		}
	case "table_constraints":
		for _, c := range r.mp.GetConstraints("") {
			rows = append(rows, []interface{}{c.ConstraintName, c.TableName, c.TableSchema, c.ConstraintType, c.Columns})
		}
	}
	r.cache.Set(viewName, cols, rows)
	return cols, rows, nil
}

// GetColumnNames returns column names for a given view
func (r *Registry) GetColumnNames(viewName string) ([]string, error) {
	switch strings.ToLower(viewName) {
	case "columns":
		return []string{"column_name", "table_name", "table_schema", "data_type", "is_nullable", "column_default", "collation_name"}, nil
	case "tables":
		return []string{"table_name", "table_schema", "table_type", "strict"}, nil
	case "table_constraints":
		return []string{"constraint_name", "table_name", "table_schema", "constraint_type", "columns"}, nil
	default:
		return nil, SVDB.Errorf(SVDB.SVDB_ERROR, "unknown information_schema view: %s", viewName)
	}
}
