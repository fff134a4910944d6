package analyzer

import (
	"fmt"
	"sync"

	"github.com/yaklabco/tethls/pkg/source"
	"github.com/yaklabco/tethls/pkg/teth/ast"
	"github.com/yaklabco/tethls/pkg/teth/parser"
)

const preludeText = `struct intrinsic long {
    fn intrinsic toDouble() double
    fn intrinsic toString() string
}
struct intrinsic double {
    fn intrinsic toLong() long
}
struct intrinsic bool {}
struct intrinsic string {
    fn intrinsic concat(other: string) string
    fn intrinsic length() long
}
struct intrinsic list<T> {
    fn intrinsic get(index: long) T
    fn intrinsic set(index: long, value: T)
    fn intrinsic add(value: T)
    fn intrinsic size() long
}
struct intrinsic any {}

fn intrinsic print(arg: any)
fn intrinsic stringify(arg: any) string
fn intrinsic nanoTime() long
`

// preludeID is the identity of the built-in declarations. No user unit can
// have it because unit IDs are absolute paths.
const preludeID source.ID = "<prelude>"

type prelude struct {
	unit  *ast.Unit
	decls map[string]ast.Declaration
}

var loadPrelude = sync.OnceValue(func() *prelude {
	result := parser.Parse(preludeID, preludeText)
	if len(result.Problems) > 0 {
		panic(fmt.Sprintf("analyzer: prelude does not parse: %s", result.Problems[0].Message))
	}

	// Built-ins have no place in any user's source text.
	ast.MarkSynthetic(result.Unit)

	decls := make(map[string]ast.Declaration)
	for _, stmt := range result.Unit.Statements {
		if decl, ok := stmt.(ast.Declaration); ok && decl.DeclName() != nil {
			decls[decl.DeclName().Name] = decl
		}
	}
	return &prelude{unit: result.Unit, decls: decls}
})

// IsIntrinsic reports whether decl is a built-in declaration.
func IsIntrinsic(decl ast.Declaration) bool {
	if decl == nil {
		return false
	}
	_, ok := decl.Span()
	return !ok
}
