package teth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/tethls/pkg/cst"
	"github.com/yaklabco/tethls/pkg/parser/teth"
	"github.com/yaklabco/tethls/pkg/source"
	"github.com/yaklabco/tethls/pkg/teth/ast"
)

const program = `use util/math { square }

// A generic box.
struct Box<T> {
    value: T
    fn get() T { return value }
}

fn main() {
    let b = new Box<long>(square(3))
    loop (let i = 0, i < b.get(), i = i + 1) {
        if (i == 2) { continue }
        print("i=" + i)
    }
}
`

// checkTiling asserts that the children of every composite cover it
// exactly, in order, with no gaps and no overlaps.
func checkTiling(t *testing.T, root *cst.Node) {
	t.Helper()

	err := cst.Walk(root, func(n *cst.Node) error {
		if n.IsLeaf() || !n.HasChildren() {
			return nil
		}
		offset := n.StartOffset
		for child := n.FirstChild; child != nil; child = child.Next {
			if child.StartOffset != offset {
				t.Errorf("%s: child %s starts at %d, expected %d", n, child, child.StartOffset, offset)
			}
			offset = child.EndOffset
		}
		if offset != n.EndOffset {
			t.Errorf("%s: children end at %d", n, offset)
		}
		return nil
	})
	require.NoError(t, err)
}

func parse(t *testing.T, text string) *cst.Tree {
	t.Helper()

	tree, err := teth.New().Parse(context.Background(), source.NewUnit("/ws/a.teth", text))
	require.NoError(t, err)
	require.NotNil(t, tree)
	return tree
}

func TestParseIsTotal(t *testing.T) {
	t.Parallel()

	inputs := map[string]string{
		"program":                program,
		"empty":                  "",
		"only whitespace":        " \n\t\n",
		"only comment":           "// nothing here",
		"garbage":                "}}} let = = fn ( struct {{",
		"bad characters":         "let a = 1 # 2 @ 3",
		"unclosed string":        "let s = \"abc\nprint(s)\n",
		"unclosed block":         "fn f() {\n  let a = [1, 2,\n",
		"unicode":                "let s = \"héllo\" // ünïcode\nlet ü = 1",
		"crlf":                   "let a = 1\r\nlet b = 2\r\n",
		"unclosed block comment": "let a = 1 /* never closed",
		"loop missing operand":   "loop =",
		"nested loop operand":    "fn f() { loop = }",
		"if missing operand":     "if (x)\n  * 2\nprint(1)",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tree := parse(t, input)

			assert.Equal(t, cst.KindUnit, tree.Root.Kind)
			assert.Equal(t, 0, tree.Root.StartOffset)
			assert.Equal(t, len(input), tree.Root.EndOffset)
			assert.Equal(t, input, cst.Reconstruct(tree.Root, input))
			assert.Len(t, cst.Leaves(tree.Root), len(tree.Tokens))
			checkTiling(t, tree.Root)
		})
	}
}

func TestParseStructure(t *testing.T) {
	t.Parallel()

	tree := parse(t, program)
	require.Empty(t, tree.Problems)

	top := tree.Root.Children()
	var kinds []cst.NodeKind
	for _, n := range top {
		if !n.IsLeaf() {
			kinds = append(kinds, n.Kind)
		}
	}
	assert.Equal(t, []cst.NodeKind{cst.KindUse, cst.KindStruct, cst.KindFunction}, kinds)

	// The comment before the struct floats at the top level.
	comment := cst.FindFirst(tree.Root, func(n *cst.Node) bool {
		return n.IsLeaf() && n.Token.Kind == cst.TokComment
	})
	require.NotNil(t, comment)
	assert.Same(t, tree.Root, comment.Parent)

	box := tree.DeclarationAt(strings.Index(program, "Box"))
	require.NotNil(t, box)
	assert.Equal(t, cst.KindStruct, box.Kind)
	assert.Equal(t, "Box", box.NameIdentifier().Text(program))

	field := tree.DeclarationAt(strings.Index(program, "value: T"))
	require.NotNil(t, field)
	assert.Equal(t, cst.KindField, field.Kind)
	assert.Same(t, box, field.Parent)

	loopVar := tree.DeclarationAt(strings.Index(program, "i = 0"))
	require.NotNil(t, loopVar)
	assert.Equal(t, cst.KindVariable, loopVar.Kind)
	assert.Equal(t, cst.KindLoop, loopVar.Parent.Kind)
}

func TestParseUnclosedString(t *testing.T) {
	t.Parallel()

	input := "let s = \"abc\nprint(s)\n"
	tree := parse(t, input)

	require.Len(t, tree.Problems, 1)
	problem := tree.Problems[0]
	assert.Equal(t, "Unclosed string literal", problem.Message)

	leaf := cst.NodeAt(tree.Root, problem.Span.Start)
	require.NotNil(t, leaf)
	assert.Equal(t, cst.TokString, leaf.Token.Kind)
	assert.Equal(t, problem.Span.Start, leaf.StartOffset)
	assert.Equal(t, problem.Span.End, leaf.EndOffset)

	// The next line still parses into a call.
	call := cst.FindByKind(tree.Root, cst.KindCall)
	require.Len(t, call, 1)
	assert.Equal(t, "print(s)", call[0].Text(input))
}

func TestParseGarbageIsKept(t *testing.T) {
	t.Parallel()

	input := "let x = )\nlet y = 2"
	tree := parse(t, input)

	require.NotEmpty(t, tree.Problems)
	garbage := cst.FindByKind(tree.Root, cst.KindGarbage)
	require.NotEmpty(t, garbage)
	assert.NotNil(t, tree.DeclarationAt(strings.Index(input, "y")))
}

func TestParseCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := teth.New().Parse(ctx, source.NewUnit("/ws/a.teth", program))
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseASTIsFresh(t *testing.T) {
	t.Parallel()

	p := teth.New()
	unit := source.NewUnit("/ws/a.teth", "let a = 1")

	first, problems, err := p.ParseAST(context.Background(), unit)
	require.NoError(t, err)
	assert.Empty(t, problems)

	second, _, err := p.ParseAST(context.Background(), unit)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestBuildSkipsSyntheticNodes(t *testing.T) {
	t.Parallel()

	const text = "let x = y"
	id := source.ID("/ws/a.teth")
	unit := source.NewUnit(id, text)

	init := &ast.Identifier{Base: ast.At(source.NewSpan(id, 8, 9)), Name: "y"}
	ast.MarkSynthetic(init)
	root := &ast.Unit{
		Base:   ast.At(source.NewSpan(id, 0, 9)),
		Module: id,
		Statements: []ast.Statement{&ast.VariableDeclaration{
			Base: ast.At(source.NewSpan(id, 0, 9)),
			Name: &ast.Identifier{Base: ast.At(source.NewSpan(id, 4, 5)), Name: "x"},
			Init: init,
		}},
	}

	node, err := teth.Build(context.Background(), unit, root, teth.Tokenize(text))
	require.NoError(t, err)

	assert.Len(t, cst.FindByKind(node, cst.KindIdentifier), 1)
	assert.Equal(t, text, cst.Reconstruct(node, text))

	// The token of the skipped identifier becomes a direct leaf of the declaration.
	last := node.FirstChild.LastChild
	assert.True(t, last.IsLeaf())
	assert.Equal(t, "y", last.Text(text))
}

func TestBuildInvariantViolations(t *testing.T) {
	t.Parallel()

	const text = "let x = y"
	id := source.ID("/ws/a.teth")

	ident := func(start, end int, name string) *ast.Identifier {
		return &ast.Identifier{Base: ast.At(source.NewSpan(id, start, end)), Name: name}
	}
	unitOf := func(stmts ...ast.Statement) *ast.Unit {
		return &ast.Unit{Base: ast.At(source.NewSpan(id, 0, len(text))), Module: id, Statements: stmts}
	}

	tests := []struct {
		name   string
		root   *ast.Unit
		tokens []cst.Token
	}{
		{
			name: "overlapping siblings",
			root: unitOf(&ast.VariableDeclaration{
				Base: ast.At(source.NewSpan(id, 0, 9)),
				Name: ident(4, 7, "x"),
				Init: ident(6, 9, "y"),
			}),
			tokens: teth.Tokenize(text),
		},
		{
			name: "child outside parent",
			root: unitOf(&ast.VariableDeclaration{
				Base: ast.At(source.NewSpan(id, 0, 5)),
				Name: ident(4, 5, "x"),
				Init: ident(8, 9, "y"),
			}),
			tokens: teth.Tokenize(text),
		},
		{
			name:   "node from another unit",
			root:   unitOf(&ast.Identifier{Base: ast.At(source.NewSpan("/ws/b.teth", 0, 3)), Name: "let"}),
			tokens: teth.Tokenize(text),
		},
		{
			name:   "tokens do not cover the text",
			root:   unitOf(),
			tokens: teth.Tokenize(text)[:3],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := teth.Build(context.Background(), source.NewUnit(id, text), tt.root, tt.tokens)
			require.ErrorIs(t, err, teth.ErrInvariant)

			var invariant *teth.InvariantError
			require.True(t, errors.As(err, &invariant))
			assert.Equal(t, id, invariant.Unit)
		})
	}
}
