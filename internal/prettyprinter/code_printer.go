package prettyprinter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/token"
)

// --- Code Printer (Output looks like source code) ---

// Operator precedence (higher = binds tighter)
var operatorPrecedence = map[token.TokenType]int{
	token.OROR:          1,
	token.ANDAND:        2,
	token.PIPE:          3,
	token.CARET:         4,
	token.AMPERSAND:     5,
	token.EQ:            6,
	token.NOT_EQ:        6,
	ast.OpIdentity:      6,
	ast.OpNotIdentity:   6,
	ast.OpIn:            6,
	ast.OpNotIn:         6,
	token.LT:            6,
	token.LE:            6,
	token.GT:            6,
	token.GE:            6,
	token.LESS_GREATER:  6,
	token.LESS_EQ_GREAT: 6,
	token.UNORDERED:     6,
	token.UNORD_EQ:      6,
	token.NOT_LT:        6,
	token.NOT_LE:        6,
	token.NOT_GT:        6,
	token.NOT_GE:        6,
	token.SHL:           7,
	token.SHR:           7,
	token.USHR:          7,
	token.PLUS:          8,
	token.MINUS:         8,
	token.TILDE:         8,
	token.ASTERISK:      9,
	token.SLASH:         9,
	token.PERCENT:       9,
	token.POW:           10,
}

func getPrecedence(op token.TokenType) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return 11
}

type CodePrinter struct {
	buf bytes.Buffer
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

// Print renders any node that has a source form.
func Print(n ast.Node) string {
	if n == nil {
		return ""
	}
	p := NewCodePrinter()
	p.Node(n)
	return p.String()
}

func (p *CodePrinter) Node(n ast.Node) {
	switch n := n.(type) {
	case ast.TypeNode:
		p.Type(n)
	case ast.Expr:
		p.Expr(n, 0)
	case *ast.VariableDecl:
		p.variable(n)
	case *ast.FunctionDecl:
		p.function(n)
	case *ast.TemplateParameter:
		p.templateParam(n)
	case ast.Decl:
		p.write(n.Name())
	}
}

func (p *CodePrinter) Type(t ast.TypeNode) {
	switch t := t.(type) {
	case nil:
		p.write("auto")
	case *ast.PrimitiveType:
		p.write(string(t.Kind))
	case *ast.IdentifierType:
		if t.Inner != nil {
			p.Type(t.Inner)
			p.write(".")
		} else if t.ModuleScoped {
			p.write(".")
		}
		p.write(t.Name)
	case *ast.TemplateInstanceType:
		if t.Inner != nil {
			p.Type(t.Inner)
			p.write(".")
		}
		p.write(t.Name)
		p.templateArgs(t.Args)
	case *ast.PointerType:
		p.Type(t.Elem)
		p.write("*")
	case *ast.ArrayType:
		p.Type(t.Elem)
		p.write("[")
		if t.KeyType != nil {
			p.Type(t.KeyType)
		} else if t.KeyExpr != nil {
			p.Expr(t.KeyExpr, 0)
		}
		p.write("]")
	case *ast.DelegateType:
		p.Type(t.Return)
		if t.IsFunction {
			p.write(" function(")
		} else {
			p.write(" delegate(")
		}
		p.params(t.Params)
		p.write(")")
	case *ast.TypeofType:
		p.write("typeof(")
		p.Expr(t.X, 0)
		p.write(")")
	case *ast.ModifiedType:
		p.write(string(t.Modifier))
		p.write("(")
		p.Type(t.Elem)
		p.write(")")
	}
}

func (p *CodePrinter) templateArgs(args []ast.Node) {
	p.write("!(")
	for i, a := range args {
		if i > 0 {
			p.write(", ")
		}
		p.Node(a)
	}
	p.write(")")
}

func (p *CodePrinter) params(params []*ast.VariableDecl) {
	for i, prm := range params {
		if i > 0 {
			p.write(", ")
		}
		p.variable(prm)
	}
}

func (p *CodePrinter) variable(v *ast.VariableDecl) {
	for _, a := range v.Attributes {
		p.write(string(a))
		p.write(" ")
	}
	if v.Type != nil {
		p.Type(v.Type)
		if v.DeclName != "" {
			p.write(" ")
		}
	} else if !v.IsParameter && len(v.Attributes) == 0 {
		p.write("auto ")
	}
	p.write(v.DeclName)
	if v.Init != nil {
		p.write(" = ")
		p.Expr(v.Init, 0)
	}
}

func (p *CodePrinter) function(f *ast.FunctionDecl) {
	if f.Kind != ast.FunctionConstructor {
		p.Type(f.ReturnType)
		p.write(" ")
	}
	p.write(f.DeclName)
	if f.TemplateParams != nil {
		p.write("(")
		for i, tp := range f.TemplateParams {
			if i > 0 {
				p.write(", ")
			}
			p.templateParam(tp)
		}
		p.write(")")
	}
	p.write("(")
	p.params(f.Params)
	if f.Variadic {
		p.write("...")
	}
	p.write(")")
}

func (p *CodePrinter) templateParam(tp *ast.TemplateParameter) {
	switch tp.Kind {
	case ast.TemplateValueParameter:
		p.Type(tp.ValueType)
		p.write(" ")
	case ast.TemplateAliasParameter:
		p.write("alias ")
	case ast.TemplateThisParameter:
		p.write("this ")
	}
	p.write(tp.DeclName)
	if tp.Kind == ast.TemplateTupleParameter {
		p.write("...")
	}
	if tp.Specialization != nil {
		p.write(" : ")
		p.Type(tp.Specialization)
	}
	if tp.DefaultType != nil {
		p.write(" = ")
		p.Type(tp.DefaultType)
	} else if tp.DefaultExpr != nil {
		p.write(" = ")
		p.Expr(tp.DefaultExpr, 0)
	}
}

func (p *CodePrinter) exprList(list []ast.Expr) {
	for i, e := range list {
		if i > 0 {
			p.write(", ")
		}
		p.Expr(e, 0)
	}
}

// Expr prints e, parenthesising when its precedence is below the context's.
func (p *CodePrinter) Expr(e ast.Expr, outer int) {
	switch e := e.(type) {
	case *ast.Identifier:
		if e.ModuleScoped {
			p.write(".")
		}
		p.write(e.Name)
	case *ast.Literal:
		p.literal(e)
	case *ast.BinaryExpr:
		prec := getPrecedence(e.Op)
		if prec < outer {
			p.write("(")
		}
		p.Expr(e.Left, prec)
		p.write(" " + string(e.Op) + " ")
		p.Expr(e.Right, prec+1)
		if prec < outer {
			p.write(")")
		}
	case *ast.CommaExpr:
		p.exprList(e.List)
	case *ast.AssignExpr:
		p.Expr(e.Left, 0)
		p.write(" " + string(e.Op) + " ")
		p.Expr(e.Right, 0)
	case *ast.ConditionalExpr:
		p.Expr(e.Cond, 1)
		p.write(" ? ")
		p.Expr(e.Then, 0)
		p.write(" : ")
		p.Expr(e.Else, 0)
	case *ast.UnaryExpr:
		p.write(string(e.Op))
		if e.Op == token.DELETE {
			p.write(" ")
		}
		p.Expr(e.X, 12)
	case *ast.PostfixIncDecExpr:
		p.Expr(e.X, 12)
		p.write(string(e.Op))
	case *ast.CastExpr:
		p.write("cast(")
		if e.Type != nil {
			p.Type(e.Type)
		} else {
			mods := make([]string, len(e.Modifiers))
			for i, m := range e.Modifiers {
				mods[i] = string(m)
			}
			p.write(strings.Join(mods, " "))
		}
		p.write(") ")
		p.Expr(e.X, 12)
	case *ast.NewExpr:
		p.write("new ")
		p.Type(e.Type)
		if e.Args != nil {
			p.write("(")
			p.exprList(e.Args)
			p.write(")")
		}
	case *ast.MemberAccessExpr:
		p.Expr(e.X, 12)
		p.write(".")
		p.write(e.Name)
		if e.HasTemplateArgs {
			p.templateArgs(e.TemplateArgs)
		}
	case *ast.CallExpr:
		p.Expr(e.Fun, 12)
		p.write("(")
		p.exprList(e.Args)
		p.write(")")
	case *ast.IndexExpr:
		p.Expr(e.X, 12)
		p.write("[")
		p.exprList(e.Args)
		p.write("]")
	case *ast.SliceExpr:
		p.Expr(e.X, 12)
		p.write("[")
		if e.Lower != nil {
			p.Expr(e.Lower, 0)
			p.write(" .. ")
			p.Expr(e.Upper, 0)
		}
		p.write("]")
	case *ast.TemplateInstanceExpr:
		p.write(e.Name)
		p.templateArgs(e.Args)
	case *ast.ArrayLiteral:
		p.write("[")
		p.exprList(e.Elements)
		p.write("]")
	case *ast.AssocArrayLiteral:
		p.write("[")
		for i := range e.Keys {
			if i > 0 {
				p.write(", ")
			}
			p.Expr(e.Keys[i], 0)
			p.write(": ")
			p.Expr(e.Values[i], 0)
		}
		p.write("]")
	case *ast.FunctionLiteral:
		if e.IsFunction {
			p.write("function")
		} else {
			p.write("delegate")
		}
		p.write("(")
		p.params(e.Func.Params)
		p.write(") {...}")
	case *ast.DollarExpr:
		p.write("$")
	case *ast.ThisExpr:
		if e.Super {
			p.write("super")
		} else {
			p.write("this")
		}
	case *ast.TypeExpr:
		p.Type(e.Type)
	case *ast.IsExpr:
		p.write("is(")
		p.Type(e.Type)
		if e.AliasName != "" {
			p.write(" " + e.AliasName)
		}
		if e.HasSpecialization() {
			if e.Equality {
				p.write(" == ")
			} else {
				p.write(" : ")
			}
			if e.SpecType != nil {
				p.Type(e.SpecType)
			} else {
				p.write(string(e.SpecToken))
			}
		}
		for _, tp := range e.Params {
			p.write(", ")
			p.templateParam(tp)
		}
		p.write(")")
	case *ast.AssertExpr:
		p.write("assert(")
		p.exprList(e.Args)
		p.write(")")
	case *ast.MixinExpr:
		p.write("mixin(")
		p.Expr(e.X, 0)
		p.write(")")
	case *ast.ImportExpr:
		p.write("import(")
		p.Expr(e.X, 0)
		p.write(")")
	}
}

func (p *CodePrinter) literal(l *ast.Literal) {
	switch l.Kind {
	case ast.LiteralTrue:
		p.write("true")
	case ast.LiteralFalse:
		p.write("false")
	case ast.LiteralNull:
		p.write("null")
	case ast.LiteralString:
		p.write(strconv.Quote(l.Str))
	case ast.LiteralChar:
		p.write(strconv.QuoteRune(l.Char))
	default:
		if l.Text != "" {
			p.write(l.Text)
		} else if l.Int != nil {
			p.write(l.Int.String())
		} else {
			p.write(strconv.FormatFloat(l.Float, 'g', -1, 64))
		}
	}
}
