package analyzer

import "github.com/yaklabco/tethls/pkg/teth/ast"

type scopeKind uint8

const (
	scopePrelude scopeKind = iota
	scopeModule
	scopeStruct
	scopeFunction
	scopeBlock
	scopeLoop
)

type scope struct {
	parent *scope
	kind   scopeKind
	names  map[string]ast.Declaration

	// owner is the struct or function that opened the scope, if any.
	owner ast.Declaration
}

func newScope(parent *scope, kind scopeKind, owner ast.Declaration) *scope {
	return &scope{parent: parent, kind: kind, names: make(map[string]ast.Declaration), owner: owner}
}

// define adds decl under name. It returns the previous declaration when the
// name is already taken in this scope.
func (s *scope) define(name string, decl ast.Declaration) (ast.Declaration, bool) {
	if prev, ok := s.names[name]; ok {
		return prev, false
	}
	s.names[name] = decl
	return nil, true
}

func (s *scope) lookup(name string) ast.Declaration {
	for cur := s; cur != nil; cur = cur.parent {
		if decl, ok := cur.names[name]; ok {
			return decl
		}
	}
	return nil
}

// enclosing returns the innermost scope of the given kind.
func (s *scope) enclosing(kind scopeKind) *scope {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.kind == kind {
			return cur
		}
	}
	return nil
}

// inLoop reports whether a loop is open without an intervening function.
func (s *scope) inLoop() bool {
	for cur := s; cur != nil; cur = cur.parent {
		switch cur.kind {
		case scopeLoop:
			return true
		case scopeFunction, scopeModule:
			return false
		}
	}
	return false
}
