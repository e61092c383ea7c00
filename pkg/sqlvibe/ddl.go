package sqlvibe

import (
	"github.com/sqlvibe/upsertc/internal/DS"
	"github.com/sqlvibe/upsertc/internal/IS"
	"github.com/sqlvibe/upsertc/internal/QP"
	"github.com/sqlvibe/upsertc/internal/log"
)

// createTable registers the table and its automatic indexes with the
// catalog and allocates their storage.
func (db *Database) createTable(stmt *QP.CreateTableStmt) error {
	tbl, autos, err := db.schema.AddTable(stmt)
	if err != nil {
		return err
	}
	if tbl == nil {
		return nil // IF NOT EXISTS
	}
	if _, err := db.store.CreateTable(tbl.Name); err != nil {
		return err
	}
	for _, idx := range autos {
		if err := db.createIndexStore(tbl, idx); err != nil {
			return err
		}
	}
	db.schemaChanged()
	log.WithFields(log.Fields{"table": tbl.Name, "indexes": len(autos)}).Debug("created table")
	return nil
}

// createIndex registers the index and backfills it. A backfill that finds
// duplicate keys in a unique index leaves the catalog unchanged.
func (db *Database) createIndex(stmt *QP.CreateIndexStmt) error {
	idx, err := db.schema.AddIndex(stmt)
	if err != nil {
		return err
	}
	if idx == nil {
		return nil // IF NOT EXISTS
	}
	tbl, _ := db.schema.GetTable(idx.Table)
	if err := db.createIndexStore(tbl, idx); err != nil {
		db.schema.RemoveIndex(idx.Name)
		return err
	}
	db.schemaChanged()
	log.WithFields(log.Fields{"index": idx.Name, "table": tbl.Name}).Debug("created index")
	return nil
}

func (db *Database) createIndexStore(tbl *IS.Table, idx *IS.Index) error {
	_, err := db.store.CreateIndex(indexSpec(tbl, idx))
	return err
}

func indexSpec(tbl *IS.Table, idx *IS.Index) DS.IndexSpec {
	spec := DS.IndexSpec{
		Name:       idx.Name,
		Table:      tbl.Name,
		Unique:     idx.Unique,
		PrimaryKey: idx.PrimaryKey,
		Collations: idx.Collations(tbl),
		Columns:    idx.ColumnNames(),
	}
	for _, ic := range idx.Columns {
		spec.Positions = append(spec.Positions, ic.Pos)
	}
	return spec
}

// schemaChanged drops everything compiled or cached against the previous
// catalog.
func (db *Database) schemaChanged() {
	db.registry.Invalidate()
	db.cache.Purge()
}
