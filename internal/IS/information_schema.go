package IS

import (
	"github.com/sqlvibe/upsertc/internal/QP"
)

// Views over the catalog, shaped after the information_schema tables.

const (
	ViewTypeBaseTable = "BASE TABLE"
)

const (
	ConstraintTypePrimaryKey = "PRIMARY KEY"
	ConstraintTypeUnique     = "UNIQUE"
	ConstraintTypeIndex      = "INDEX"
)

const (
	TableSchemaMain = "main"
)

type TableInfo struct {
	TableName   string
	TableSchema string
	TableType   string
	Strict      bool
}

type ColumnInfo struct {
	ColumnName    string
	TableName     string
	TableSchema   string
	DataType      string
	IsNullable    string
	ColumnDefault string
	Collation     string
}

// ConstraintInfo describes a key: the rowid alias, or an index.
type ConstraintInfo struct {
	ConstraintName string
	TableName      string
	TableSchema    string
	ConstraintType string
	Columns        string
}

// MetadataProvider extracts metadata from a Schema.
type MetadataProvider struct {
	schema *Schema
}

func NewMetadataProvider(schema *Schema) *MetadataProvider {
	return &MetadataProvider{schema: schema}
}

func (mp *MetadataProvider) GetTables() []TableInfo {
	tables := make([]TableInfo, 0)
	for _, t := range mp.schema.Tables() {
		tables = append(tables, TableInfo{
			TableName:   t.Name,
			TableSchema: TableSchemaMain,
			TableType:   ViewTypeBaseTable,
			Strict:      t.Strict,
		})
	}
	return tables
}

// GetColumns returns the columns of one table, or of every table when
// tableName is empty.
func (mp *MetadataProvider) GetColumns(tableName string) []ColumnInfo {
	columns := make([]ColumnInfo, 0)
	for _, t := range mp.schema.Tables() {
		if tableName != "" && QP.NormalizeIdent(t.Name) != QP.NormalizeIdent(tableName) {
			continue
		}
		for _, c := range t.Columns {
			info := ColumnInfo{
				ColumnName:  c.Name,
				TableName:   t.Name,
				TableSchema: TableSchemaMain,
				DataType:    c.Type,
				IsNullable:  "YES",
				Collation:   c.EffectiveCollation(),
			}
			if c.NotNull || c.IsRowidAlias {
				info.IsNullable = "NO"
			}
			if c.Default != nil {
				info.ColumnDefault = QP.Format(c.Default)
			}
			columns = append(columns, info)
		}
	}
	return columns
}

func (mp *MetadataProvider) GetConstraints(tableName string) []ConstraintInfo {
	constraints := make([]ConstraintInfo, 0)
	for _, t := range mp.schema.Tables() {
		if tableName != "" && QP.NormalizeIdent(t.Name) != QP.NormalizeIdent(tableName) {
			continue
		}
		if _, alias, ok := t.RowidAlias(); ok {
			constraints = append(constraints, ConstraintInfo{
				ConstraintName: "rowid",
				TableName:      t.Name,
				TableSchema:    TableSchemaMain,
				ConstraintType: ConstraintTypePrimaryKey,
				Columns:        t.Name + "." + alias.Name,
			})
		}
		for _, idx := range mp.schema.TableIndexes(t.Name) {
			ct := ConstraintTypeIndex
			switch {
			case idx.PrimaryKey:
				ct = ConstraintTypePrimaryKey
			case idx.Unique:
				ct = ConstraintTypeUnique
			}
			constraints = append(constraints, ConstraintInfo{
				ConstraintName: idx.Name,
				TableName:      t.Name,
				TableSchema:    TableSchemaMain,
				ConstraintType: ct,
				Columns:        idx.ColumnNames(),
			})
		}
	}
	return constraints
}
