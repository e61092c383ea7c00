package sqlvibe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Statement kinds.
const (
	kindCreateTable = "create_table"
	kindCreateIndex = "create_index"
	kindInsert      = "insert"
	kindUpsert      = "upsert"
)

var (
	statementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlvibe_statements_total",
		Help: "Statements executed, by kind",
	}, []string{"kind"})

	statementErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlvibe_statement_errors_total",
		Help: "Statements that failed, by error code",
	}, []string{"code"})

	stmtCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlvibe_stmt_cache_total",
		Help: "Compiled statement cache lookups, by result",
	}, []string{"result"})
)
