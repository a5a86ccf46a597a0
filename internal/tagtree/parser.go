package tagtree

import (
	"fmt"
	"strings"

	"github.com/zjrosen/ofxkit/internal/log"
)

// DefaultMaxDepth bounds the nesting accepted by Parse.
const DefaultMaxDepth = 64

// SyntaxError reports malformed markup at a byte offset of the body.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("tag tree syntax error at offset %d: %s", e.Offset, e.Msg)
}

// Parser builds a Node tree from lexer tokens.
//
// A start tag immediately followed by text is a leaf; its closing tag is
// optional. A start tag followed by markup opens an aggregate that must be
// closed by a matching end tag. Text after an end tag is an error.
type Parser struct {
	lexer    *Lexer
	cur      Token
	peek     Token
	maxDepth int
}

// NewParser creates a parser for the input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input), maxDepth: DefaultMaxDepth}
	p.nextToken()
	p.nextToken()
	return p
}

// WithMaxDepth overrides the nesting limit.
func (p *Parser) WithMaxDepth(depth int) *Parser {
	if depth > 0 {
		p.maxDepth = depth
	}
	return p
}

func (p *Parser) nextToken() {
	p.cur = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) errorf(pos int, format string, args ...any) error {
	return &SyntaxError{Offset: pos, Msg: fmt.Sprintf(format, args...)}
}

// Parse reads exactly one root element.
func (p *Parser) Parse() (*Node, error) {
	var (
		root  *Node
		stack []*Node
	)

	for ; p.cur.Type != TokenEOF; p.nextToken() {
		switch p.cur.Type {
		case TokenIllegal:
			return nil, p.errorf(p.cur.Pos, "malformed tag %q", p.cur.Literal)

		case TokenText:
			if strings.TrimSpace(p.cur.Literal) != "" {
				return nil, p.errorf(p.cur.Pos, "unexpected text %q", strings.TrimSpace(p.cur.Literal))
			}

		case TokenStartTag:
			node := &Node{Tag: p.cur.Literal}
			if len(stack) == 0 {
				if root != nil {
					return nil, p.errorf(p.cur.Pos, "multiple root elements: %s", node.Tag)
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}

			if p.peek.Type == TokenText && strings.TrimSpace(p.peek.Literal) != "" {
				p.nextToken()
				node.Text = strings.TrimSpace(p.cur.Literal)
				if p.peek.Type == TokenEndTag && p.peek.Literal == node.Tag {
					p.nextToken()
				}
				continue
			}

			if len(stack)+1 > p.maxDepth {
				return nil, p.errorf(p.cur.Pos, "nesting deeper than %d", p.maxDepth)
			}
			stack = append(stack, node)

		case TokenEndTag:
			if len(stack) == 0 {
				return nil, p.errorf(p.cur.Pos, "unexpected closing tag </%s>", p.cur.Literal)
			}
			top := stack[len(stack)-1]
			if top.Tag != p.cur.Literal {
				return nil, p.errorf(p.cur.Pos, "end tag mismatch: expected </%s>, got </%s>", top.Tag, p.cur.Literal)
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) > 0 {
		return nil, p.errorf(p.cur.Pos, "unclosed element <%s>", stack[len(stack)-1].Tag)
	}
	if root == nil {
		return nil, p.errorf(0, "no elements found")
	}
	log.Debug(log.CatTree, "parsed tag tree", "root", root.Tag, "depth", root.Depth())
	return root, nil
}

// Parse is shorthand for NewParser(input).Parse().
func Parse(input string) (*Node, error) {
	return NewParser(input).Parse()
}
