package analyzer

import (
	"context"

	"github.com/yaklabco/tethls/pkg/teth/ast"
)

// walker analyzes the statements of one module.
type walker struct {
	a   *Analyzer
	mod *module
	ctx context.Context
}

// declarations resolves imports and the signatures of top-level structs and
// functions, so that bodies analyzed later can call forward.
func (w *walker) declarations(s *scope, stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		if use, ok := stmt.(*ast.UseStatement); ok {
			if err := w.use(s, use); err != nil {
				return err
			}
		}
	}

	for _, stmt := range stmts {
		switch d := stmt.(type) {
		case *ast.StructDeclaration:
			w.declareStruct(s, d)
		case *ast.FunctionDeclaration:
			w.declareFunction(s, d)
		}
	}
	return nil
}

func (w *walker) statements(s *scope, stmts []ast.Statement, topLevel bool) error {
	for _, stmt := range stmts {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		if err := w.statement(s, stmt, topLevel); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) statement(s *scope, stmt ast.Statement, topLevel bool) error {
	switch n := stmt.(type) {
	case *ast.UseStatement:
		if !topLevel {
			w.a.report(w.mod, n, "Use statement must be at the top level")
		}
		return nil

	case *ast.StructDeclaration:
		if !topLevel {
			w.defineNamed(s, n)
			w.declareStruct(s, n)
		}
		return w.structBodies(n)

	case *ast.FunctionDeclaration:
		if !topLevel {
			w.defineNamed(s, n)
			w.declareFunction(s, n)
		}
		return w.functionBody(n)

	case *ast.VariableDeclaration:
		w.variable(s, n)
		return nil

	case *ast.Block:
		return w.block(s, n)

	case *ast.IfStatement:
		w.expr(s, n.Cond)
		if err := w.block(s, n.Then); err != nil {
			return err
		}
		return w.block(s, n.Else)

	case *ast.LoopStatement:
		loop := newScope(s, scopeLoop, nil)
		for _, v := range n.Vars {
			w.variable(loop, v)
		}
		w.expr(loop, n.Cond)
		if n.Advance != nil {
			if err := w.statement(loop, n.Advance, false); err != nil {
				return err
			}
		}
		return w.block(loop, n.Body)

	case *ast.ReturnStatement:
		if s.enclosing(scopeFunction) == nil {
			w.a.report(w.mod, n, "Return statement outside of function")
		}
		w.expr(s, n.Value)
		return nil

	case *ast.BreakStatement:
		if !s.inLoop() {
			w.a.report(w.mod, n, "Break statement outside of loop")
		}
		return nil

	case *ast.ContinueStatement:
		if !s.inLoop() {
			w.a.report(w.mod, n, "Continue statement outside of loop")
		}
		return nil

	case *ast.FieldDeclaration, *ast.ParameterDeclaration, *ast.GenericParameterDeclaration:
		// Only reachable through their owning declaration.
		return nil

	case ast.Expression:
		w.expr(s, n)
		return nil

	default:
		return nil
	}
}

func (w *walker) block(s *scope, b *ast.Block) error {
	if b == nil {
		return nil
	}
	return w.statements(newScope(s, scopeBlock, nil), b.Statements, false)
}

func (w *walker) use(s *scope, use *ast.UseStatement) error {
	path := use.PathText()
	if len(use.Path) == 0 {
		return nil
	}

	var target *module
	if w.a.loader != nil {
		id := w.a.loader.ToUniqueID(w.mod.id, path)
		mod, err := w.a.load(w.ctx, id)
		if err != nil {
			return err
		}
		target = mod
	}
	if target == nil {
		w.a.report(w.mod, use, "Module '%s' does not exist", path)
		return nil
	}

	for _, imp := range use.Imports {
		if imp.Name == "" {
			continue
		}
		decl, ok := target.exports[imp.Name]
		if !ok {
			w.a.report(w.mod, imp, "Type or function '%s' not found in module '%s'", imp.Name, path)
			continue
		}
		w.a.bind(imp, decl)
		if prev, ok := s.define(imp.Name, decl); !ok && prev != decl {
			w.a.report(w.mod, imp, "Duplicate declaration '%s'", imp.Name)
		}
	}
	return nil
}

// defineNamed adds a declaration to s and binds its name to it.
func (w *walker) defineNamed(s *scope, decl ast.Declaration) {
	name := decl.DeclName()
	if name == nil || name.Name == "" {
		return
	}
	w.a.bind(name, decl)
	if _, ok := s.define(name.Name, decl); !ok {
		w.a.report(w.mod, name, "Duplicate declaration '%s'", name.Name)
	}
}

func (w *walker) declareStruct(parent *scope, sd *ast.StructDeclaration) {
	if _, done := w.a.scopes[sd]; done {
		return
	}
	if sd.Name != nil {
		w.a.bind(sd.Name, sd)
	}

	s := newScope(parent, scopeStruct, sd)
	w.a.scopes[sd] = s

	for _, g := range sd.Generics {
		w.defineNamed(s, g)
	}
	for _, f := range sd.Fields {
		w.defineNamed(s, f)
		if t := w.resolveType(s, f.Type); t != nil {
			w.a.declTypes[f] = t
		}
	}
	for _, fn := range sd.Functions {
		w.defineNamed(s, fn)
	}
	for _, fn := range sd.Functions {
		w.declareFunction(s, fn)
	}
}

func (w *walker) declareFunction(parent *scope, fd *ast.FunctionDeclaration) {
	if _, done := w.a.scopes[fd]; done {
		return
	}
	if fd.Name != nil {
		w.a.bind(fd.Name, fd)
	}

	s := newScope(parent, scopeFunction, fd)
	w.a.scopes[fd] = s

	for _, g := range fd.Generics {
		w.defineNamed(s, g)
	}
	for _, p := range fd.Params {
		w.defineNamed(s, p)
		if t := w.resolveType(s, p.Type); t != nil {
			w.a.declTypes[p] = t
		}
	}
	if t := w.resolveType(s, fd.ReturnType); t != nil {
		w.a.declTypes[fd] = t
	}
}

func (w *walker) structBodies(sd *ast.StructDeclaration) error {
	for _, fn := range sd.Functions {
		if err := w.functionBody(fn); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) functionBody(fd *ast.FunctionDeclaration) error {
	s, ok := w.a.scopes[fd]
	if !ok || fd.Body == nil {
		return nil
	}
	return w.block(s, fd.Body)
}

func (w *walker) variable(s *scope, v *ast.VariableDeclaration) {
	declared := w.resolveType(s, v.Type)
	inferred := w.expr(s, v.Init)

	// The name is visible only after its initializer.
	w.defineNamed(s, v)

	switch {
	case declared != nil:
		w.a.declTypes[v] = declared
	case inferred != nil:
		w.a.declTypes[v] = inferred
	}
}

// resolveType resolves a written type in scope s.
func (w *walker) resolveType(s *scope, te *ast.TypeExpression) *Type {
	if te == nil || te.Name == nil || te.Name.Name == "" {
		return nil
	}

	name := te.Name.Name
	args := make([]*Type, 0, len(te.Args))
	for _, arg := range te.Args {
		args = append(args, w.resolveType(s, arg))
	}

	switch decl := s.lookup(name).(type) {
	case *ast.StructDeclaration:
		w.a.bind(te.Name, decl)
		t := &Type{Name: name, Struct: decl}
		if len(args) > 0 {
			t.Args = args
		}
		return t
	case *ast.GenericParameterDeclaration:
		w.a.bind(te.Name, decl)
		return &Type{Name: name}
	default:
		w.a.report(w.mod, te.Name, "Unknown type '%s'", name)
		return nil
	}
}

// expr analyzes e and returns its type, or nil when it cannot be inferred.
func (w *walker) expr(s *scope, e ast.Expression) *Type {
	if e == nil {
		return nil
	}
	t := w.exprType(s, e)
	if t != nil {
		w.a.types[e] = t
	}
	return t
}

func (w *walker) exprType(s *scope, e ast.Expression) *Type {
	switch n := e.(type) {
	case *ast.Identifier:
		if n.Name == "" {
			return nil
		}
		decl := s.lookup(n.Name)
		if decl == nil {
			w.a.report(w.mod, n, "Unresolved identifier '%s'", n.Name)
			return nil
		}
		w.a.bind(n, decl)
		return w.a.declTypes[decl]

	case *ast.BinaryExpression:
		left := w.expr(s, n.Left)
		right := w.expr(s, n.Right)
		return binaryType(n.Op, left, right)

	case *ast.UnaryExpression:
		operand := w.expr(s, n.Operand)
		if n.Op == ast.OpNot {
			return builtin("bool")
		}
		return operand

	case *ast.CallExpression:
		return w.call(s, n)

	case *ast.MemberAccessExpression:
		receiver := w.expr(s, n.Target)
		return w.member(receiver, n.Member)

	case *ast.ObjectCreationExpression:
		for _, arg := range n.Args {
			w.expr(s, arg)
		}
		if n.Type == nil || n.Type.Name == "" {
			return nil
		}
		args := make([]*Type, 0, len(n.TypeArgs))
		for _, arg := range n.TypeArgs {
			args = append(args, w.resolveType(s, arg))
		}
		switch decl := s.lookup(n.Type.Name).(type) {
		case *ast.StructDeclaration:
			w.a.bind(n.Type, decl)
			w.a.bind(n, decl)
			t := &Type{Name: n.Type.Name, Struct: decl}
			if len(args) > 0 {
				t.Args = args
			}
			return t
		case nil:
			w.a.report(w.mod, n.Type, "Unknown type '%s'", n.Type.Name)
		default:
			w.a.bind(n.Type, decl)
			w.a.report(w.mod, n.Type, "'%s' is not a struct", n.Type.Name)
		}
		return nil

	case *ast.ListLiteral:
		var elem *Type
		for _, el := range n.Elements {
			if t := w.expr(s, el); elem == nil {
				elem = t
			}
		}
		list := builtin("list")
		if list != nil && elem != nil {
			list.Args = []*Type{elem}
		}
		return list

	case *ast.ParenthesisedExpression:
		return w.expr(s, n.Inner)

	case *ast.TypeExpression:
		return w.resolveType(s, n)

	case *ast.LongLiteral:
		return builtin("long")
	case *ast.DoubleLiteral:
		return builtin("double")
	case *ast.StringLiteral:
		return builtin("string")
	case *ast.BooleanLiteral:
		return builtin("bool")
	case *ast.NullLiteral, *ast.Garbage:
		return nil

	default:
		return nil
	}
}

func (w *walker) call(s *scope, c *ast.CallExpression) *Type {
	var (
		fn  *ast.FunctionDeclaration
		env map[string]*Type
	)

	switch target := c.Target.(type) {
	case *ast.MemberAccessExpression:
		w.expr(s, target)
		fn, _ = w.a.refs[target.Member].(*ast.FunctionDeclaration)
		env = w.a.types[target.Target].bindings()
	default:
		w.expr(s, c.Target)
		if ident, ok := c.Target.(*ast.Identifier); ok {
			fn, _ = w.a.refs[ident].(*ast.FunctionDeclaration)
		}
	}

	typeArgs := make([]*Type, 0, len(c.TypeArgs))
	for _, arg := range c.TypeArgs {
		typeArgs = append(typeArgs, w.resolveType(s, arg))
	}
	for _, arg := range c.Args {
		w.expr(s, arg)
	}

	if fn == nil {
		return nil
	}
	if len(typeArgs) > 0 {
		if env == nil {
			env = make(map[string]*Type, len(typeArgs))
		}
		for i, g := range fn.Generics {
			if i < len(typeArgs) && g.Name != nil && typeArgs[i] != nil {
				env[g.Name.Name] = typeArgs[i]
			}
		}
	}
	return substitute(w.a.declTypes[fn], env)
}

// member resolves a field or method of receiver.
func (w *walker) member(receiver *Type, name *ast.Identifier) *Type {
	if name == nil || name.Name == "" || receiver == nil || receiver.Struct == nil {
		return nil
	}

	sd := receiver.Struct
	for _, f := range sd.Fields {
		if f.Name != nil && f.Name.Name == name.Name {
			w.a.bind(name, f)
			return substitute(w.a.declTypes[f], receiver.bindings())
		}
	}
	for _, fn := range sd.Functions {
		if fn.Name != nil && fn.Name.Name == name.Name {
			w.a.bind(name, fn)
			return nil
		}
	}

	w.a.report(w.mod, name, "'%s' has no member '%s'", receiver, name.Name)
	return nil
}

func binaryType(op ast.BinaryOp, left, right *Type) *Type {
	switch {
	case op == ast.OpAssign:
		if left != nil {
			return left
		}
		return right
	case op == ast.OpAnd || op == ast.OpOr || op.IsComparison():
		return builtin("bool")
	case left == nil || right == nil:
		return nil
	case op == ast.OpAdd && (left.Name == "string" || right.Name == "string"):
		return builtin("string")
	case left.Name == "double" || right.Name == "double":
		return builtin("double")
	default:
		return left
	}
}
