package ast

// Stmt is a statement inside a function body.
type Stmt interface {
	Node
	statementNode()
}

// BlockStmt is `{ ... }`.
type BlockStmt struct {
	Base
	Statements []Stmt
}

func (s *BlockStmt) statementNode()   {}
func (s *BlockStmt) Children() []Node { return appendAll(nil, s.Statements) }

// DeclStmt introduces local declarations.
type DeclStmt struct {
	Base
	Decls []Decl
}

func (s *DeclStmt) statementNode()   {}
func (s *DeclStmt) Children() []Node { return appendAll(nil, s.Decls) }

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	Base
	X Expr
}

func (s *ExprStmt) statementNode()   {}
func (s *ExprStmt) Children() []Node { return appendNodes(nil, s.X) }

// ReturnStmt is `return;` or `return X;`.
type ReturnStmt struct {
	Base
	X Expr
}

func (s *ReturnStmt) statementNode()   {}
func (s *ReturnStmt) Children() []Node { return appendNodes(nil, s.X) }

// IfStmt is `if (Cond) Then else Else`.
type IfStmt struct {
	Base
	Cond Expr
	Then Stmt
	Else Stmt
}

func (s *IfStmt) statementNode()   {}
func (s *IfStmt) Children() []Node { return appendNodes(nil, s.Cond, s.Then, s.Else) }
