package QP

// ASTNode is implemented by every statement.
type ASTNode interface {
	NodeType() string
}

// Expr is the closed set of expression shapes. Only types in this package
// implement it.
type Expr interface {
	exprNode()
}

// Id is a bare, unqualified identifier.
type Id struct {
	Name string
}

// Qualified is table.column.
type Qualified struct {
	Table  string
	Column string
}

// DoublyQualified is schema.table.column.
type DoublyQualified struct {
	Schema string
	Table  string
	Column string
}

// RowIDRef is a bound reference to a table's rowid.
type RowIDRef struct {
	Table string
}

// Register is a direct reference to a VM register. It only appears after
// rewriting; Collation carries the declared collation of the column the
// register was bound from, if any.
type Register struct {
	Reg       int
	Collation string
}

type Literal struct {
	Value interface{}
}

// Variable is a bound parameter: ?, ?NNN, :name, @name or $name. Index is
// 1-based and assigned by the parser.
type Variable struct {
	Name  string
	Index int
}

type Parenthesized struct {
	Exprs []Expr
}

type Collate struct {
	Expr      Expr
	Collation string
}

type Between struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

type BinaryExpr struct {
	Op    TokenType
	Left  Expr
	Right Expr
}

type UnaryExpr struct {
	Op   TokenType
	Expr Expr
}

type CaseExpr struct {
	Operand Expr
	Whens   []CaseWhen
	Else    Expr
}

type CaseWhen struct {
	Condition Expr
	Result    Expr
}

// TypeSpec represents a SQL type with optional precision and scale
type TypeSpec struct {
	Name      string
	Precision int
	Scale     int
}

type CastExpr struct {
	Expr     Expr
	TypeSpec TypeSpec
}

type OrderingTerm struct {
	Expr Expr
	Desc bool
}

type FuncCall struct {
	Name     string
	Args     []Expr
	Star     bool
	Distinct bool
	OrderBy  []OrderingTerm
	Filter   Expr
}

type InList struct {
	Expr Expr
	Not  bool
	List []Expr
}

// SelectStmt is opaque to this package: subquery bodies are carried as
// source text and never inspected by rewriting passes.
type SelectStmt struct {
	SQL string
}

func (s *SelectStmt) NodeType() string { return "SelectStmt" }

type InSelect struct {
	Expr   Expr
	Not    bool
	Select *SelectStmt
}

// InTable is `expr IN table` or `expr IN tvf(args)`.
type InTable struct {
	Expr  Expr
	Not   bool
	Table string
	Args  []Expr
}

type IsNull struct {
	Expr Expr
}

type NotNull struct {
	Expr Expr
}

type LikeExpr struct {
	Expr    Expr
	Not     bool
	Glob    bool
	Pattern Expr
	Escape  Expr
}

type SubqueryExpr struct {
	Select *SelectStmt
}

type ExistsExpr struct {
	Not    bool
	Select *SelectStmt
}

func (e *Id) exprNode()              {}
func (e *Qualified) exprNode()       {}
func (e *DoublyQualified) exprNode() {}
func (e *RowIDRef) exprNode()        {}
func (e *Register) exprNode()        {}
func (e *Literal) exprNode()         {}
func (e *Variable) exprNode()        {}
func (e *Parenthesized) exprNode()   {}
func (e *Collate) exprNode()         {}
func (e *Between) exprNode()         {}
func (e *BinaryExpr) exprNode()      {}
func (e *UnaryExpr) exprNode()       {}
func (e *CaseExpr) exprNode()        {}
func (e *CastExpr) exprNode()        {}
func (e *FuncCall) exprNode()        {}
func (e *InList) exprNode()          {}
func (e *InSelect) exprNode()        {}
func (e *InTable) exprNode()         {}
func (e *IsNull) exprNode()          {}
func (e *NotNull) exprNode()         {}
func (e *LikeExpr) exprNode()        {}
func (e *SubqueryExpr) exprNode()    {}
func (e *ExistsExpr) exprNode()      {}

type ColumnDef struct {
	Name          string
	Type          string
	PrimaryKey    bool
	Desc          bool
	Autoincrement bool
	NotNull       bool
	Unique        bool
	Collate       string
	Default       Expr
}

type IndexedColumn struct {
	Name    string
	Collate string
	Desc    bool
}

type TableConstraint struct {
	Name       string
	PrimaryKey bool
	Unique     bool
	Columns    []IndexedColumn
}

type CreateTableStmt struct {
	Name        string
	IfNotExists bool
	Columns     []ColumnDef
	Constraints []TableConstraint
	Strict      bool
}

func (c *CreateTableStmt) NodeType() string { return "CreateTableStmt" }

type CreateIndexStmt struct {
	Name        string
	Table       string
	Unique      bool
	IfNotExists bool
	Columns     []IndexedColumn
}

func (c *CreateIndexStmt) NodeType() string { return "CreateIndexStmt" }

// SortedColumn is one ON CONFLICT target term.
type SortedColumn struct {
	Expr Expr
	Desc bool
}

// UpsertIndex is the parenthesized conflict target of an ON CONFLICT clause.
type UpsertIndex struct {
	Targets []SortedColumn
	Where   Expr
}

// Set is one DO UPDATE assignment. ColNames holds more than one name for a
// parenthesized multi-column assignment, in which case Expr is normally a
// Parenthesized value list.
type Set struct {
	ColNames []string
	Expr     Expr
}

type UpsertDo struct {
	Nothing bool
	Sets    []Set
	Where   Expr
}

// Upsert is one ON CONFLICT clause. Index is nil when the target is omitted.
type Upsert struct {
	Index *UpsertIndex
	Do    UpsertDo
}

type ResultColumn struct {
	Expr  Expr
	Alias string
	Star  bool
}

type InsertStmt struct {
	Table       string
	OrAction    string
	Columns     []string
	Values      [][]Expr
	UseDefaults bool
	Upserts     []*Upsert
	Returning   []ResultColumn
}

func (i *InsertStmt) NodeType() string { return "InsertStmt" }
