package pretty

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yaklabco/tethls/pkg/cst"
)

// TreeOptions controls syntax tree output.
type TreeOptions struct {
	// ShowTrivia includes whitespace and comment leaves.
	ShowTrivia bool

	// Positions prints line:column ranges instead of byte offsets.
	Positions bool
}

// FormatTree renders a CST as an indented outline, one node per line.
// Leaves show their quoted source text.
func (s *Styles) FormatTree(tree *cst.Tree, opts TreeOptions) string {
	if tree == nil || tree.Root == nil {
		return ""
	}

	var builder strings.Builder
	var visit func(n *cst.Node, depth int)
	visit = func(n *cst.Node, depth int) {
		if n.IsLeaf() && n.Token.Kind.IsTrivia() && !opts.ShowTrivia {
			return
		}

		builder.WriteString(strings.Repeat("  ", depth))
		if n.IsLeaf() {
			style := s.Leaf
			if n.Token.Kind.IsTrivia() {
				style = s.Trivia
			}
			builder.WriteString(fmt.Sprintf("%s %s %s\n",
				s.TokenKind.Render(n.Token.Kind.String()),
				s.Span.Render(s.formatRange(tree, n.StartOffset, n.EndOffset, opts.Positions)),
				style.Render(strconv.Quote(n.Text(tree.Text()))),
			))
			return
		}

		builder.WriteString(fmt.Sprintf("%s %s\n",
			s.NodeKind.Render(n.Kind.String()),
			s.Span.Render(s.formatRange(tree, n.StartOffset, n.EndOffset, opts.Positions)),
		))
		for child := n.FirstChild; child != nil; child = child.Next {
			visit(child, depth+1)
		}
	}
	visit(tree.Root, 0)

	return builder.String()
}

// FormatTokens renders the token stream of a tree, one token per line.
func (s *Styles) FormatTokens(tree *cst.Tree, opts TreeOptions) string {
	if tree == nil {
		return ""
	}

	var builder strings.Builder
	for _, tok := range tree.Tokens {
		if tok.Kind.IsTrivia() && !opts.ShowTrivia {
			continue
		}
		style := s.Leaf
		if tok.Kind.IsTrivia() {
			style = s.Trivia
		}
		builder.WriteString(fmt.Sprintf("%-14s %s %s\n",
			s.TokenKind.Render(tok.Kind.String()),
			s.Span.Render(s.formatRange(tree, tok.StartOffset, tok.EndOffset, opts.Positions)),
			style.Render(strconv.Quote(tok.Text(tree.Text()))),
		))
	}
	return builder.String()
}

func (s *Styles) formatRange(tree *cst.Tree, start, end int, positions bool) string {
	if !positions || tree.Unit == nil {
		return fmt.Sprintf("[%d,%d)", start, end)
	}
	from, to := tree.Unit.Position(start), tree.Unit.Position(end)
	return fmt.Sprintf("%d:%d-%d:%d", from.Line, from.Column, to.Line, to.Column)
}
