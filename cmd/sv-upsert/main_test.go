package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

const testScript = `
CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT UNIQUE, n INTEGER DEFAULT 0);
INSERT INTO t(name) VALUES ('a'), ('b');
INSERT INTO t(name) VALUES ('a') ON CONFLICT (name) DO UPDATE SET n = n + 1 RETURNING id, name, n;
`

func testConfig(format string) *Config {
	var cfg Config
	cfg.Engine.CDC = "off"
	cfg.Engine.CDCTable = "sqlvibe_cdc"
	cfg.Engine.StmtCache = 16
	cfg.Output.Format = format
	return &cfg
}

func TestRunTable(t *testing.T) {
	var cfg = testConfig(FormatTable)
	cfg.Output.Dump = true

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, strings.NewReader(testScript), &out))

	var s = out.String()
	assert.Contains(t, s, "<stdin>: statement 3")
	assert.Contains(t, s, "| id | name | n |")
	assert.Contains(t, s, "| 1  | a    | 1 |")
	assert.Contains(t, s, "| 2  | b    | 0 |")
}

func TestRunYAML(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), testConfig(FormatYAML), strings.NewReader(testScript), &out))

	var doc struct {
		Title string
		Rows  []map[string]interface{}
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "<stdin>: statement 3", doc.Title)
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "a", doc.Rows[0]["name"])
	assert.Equal(t, 1, doc.Rows[0]["n"])
}

func TestRunJSONFiles(t *testing.T) {
	var dir = t.TempDir()
	var first = filepath.Join(dir, "schema.sql")
	var second = filepath.Join(dir, "data.sql")
	require.NoError(t, os.WriteFile(first, []byte("CREATE TABLE kv (k TEXT PRIMARY KEY, v BLOB)"), 0644))
	require.NoError(t, os.WriteFile(second, []byte(
		"INSERT INTO kv VALUES ('x', X'0102') ON CONFLICT (k) DO UPDATE SET v = excluded.v RETURNING k, v"), 0644))

	var cfg = testConfig(FormatJSON)
	cfg.Args.Files = []string{first, second}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, strings.NewReader(""), &out))

	var row map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &row))
	assert.Equal(t, "x", row["k"])
	assert.Equal(t, "X'0102'", row["v"])
	assert.Equal(t, second+": statement 1", row["_source"])
}

func TestRunExplainAndSchema(t *testing.T) {
	var cfg = testConfig(FormatTable)
	cfg.Output.Explain = true
	cfg.Output.Schema = []string{"tables"}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, strings.NewReader(testScript), &out))

	var s = out.String()
	assert.Contains(t, s, "NoConflict")
	assert.Contains(t, s, "information_schema.tables")
	assert.Contains(t, s, "table_name")
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	var err = run(context.Background(), testConfig(FormatTable),
		strings.NewReader("CREATE TABLE t (a);\nINSERT INTO t VALUES (1) ON CONFLICT (a) DO UPDATE SET a = 2"), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<stdin>: statement 2")
	assert.Contains(t, err.Error(), "ON CONFLICT clause does not match any PRIMARY KEY or UNIQUE constraint")

	var cfg = testConfig(FormatTable)
	cfg.Args.Files = []string{filepath.Join(t.TempDir(), "missing.sql")}
	require.Error(t, run(context.Background(), cfg, strings.NewReader(""), &out))

	cfg = testConfig(FormatTable)
	cfg.Engine.CDC = "sometimes"
	require.Error(t, run(context.Background(), cfg, strings.NewReader(""), &out))
}
