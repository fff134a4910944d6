package analyzer

import (
	"strings"

	"github.com/yaklabco/tethls/pkg/teth/ast"
)

// Type is a resolved semantic type.
type Type struct {
	// Name is the struct or generic parameter name.
	Name string

	// Struct is the declaring struct. It is nil for generic parameters.
	Struct *ast.StructDeclaration

	// Args are the type arguments applied to Struct's generic parameters.
	Args []*Type
}

// IsGeneric reports whether t is an unbound type parameter.
func (t *Type) IsGeneric() bool {
	return t != nil && t.Struct == nil
}

// String formats the type the way it is written in source.
func (t *Type) String() string {
	if t == nil {
		return "?"
	}
	if len(t.Args) == 0 {
		return t.Name
	}

	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		args[i] = arg.String()
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}

// bindings maps the generic parameters of t's struct to t's arguments.
func (t *Type) bindings() map[string]*Type {
	if t == nil || t.Struct == nil || len(t.Args) == 0 {
		return nil
	}
	out := make(map[string]*Type, len(t.Args))
	for i, param := range t.Struct.Generics {
		if i < len(t.Args) && param.Name != nil {
			out[param.Name.Name] = t.Args[i]
		}
	}
	return out
}

// substitute replaces generic parameters bound in env.
func substitute(t *Type, env map[string]*Type) *Type {
	if t == nil || len(env) == 0 {
		return t
	}
	if t.IsGeneric() {
		if bound, ok := env[t.Name]; ok {
			return bound
		}
		return t
	}
	if len(t.Args) == 0 {
		return t
	}

	args := make([]*Type, len(t.Args))
	for i, arg := range t.Args {
		args[i] = substitute(arg, env)
	}
	return &Type{Name: t.Name, Struct: t.Struct, Args: args}
}

func builtin(name string) *Type {
	decl, ok := loadPrelude().decls[name].(*ast.StructDeclaration)
	if !ok {
		return nil
	}
	return &Type{Name: name, Struct: decl}
}
