package tagtree

import (
	"fmt"
	"strings"
)

// TokenType represents the type of lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal
	TokenStartTag // <TAG>
	TokenEndTag   // </TAG>
	TokenText     // character data between tags
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenIllegal:
		return "ILLEGAL"
	case TokenStartTag:
		return "START"
	case TokenEndTag:
		return "END"
	case TokenText:
		return "TEXT"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// Token is a lexical token with its byte offset.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

// Lexer tokenizes an OFX body. Processing instructions, comments and
// declarations are skipped.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the input string.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	for {
		if l.pos >= len(l.input) {
			return Token{Type: TokenEOF, Pos: l.pos}
		}
		if l.input[l.pos] != '<' {
			return l.readText()
		}
		if !l.skipMarkup() {
			return l.readTag()
		}
	}
}

// skipMarkup consumes <?...?>, <!--...--> and <!...> at the cursor.
func (l *Lexer) skipMarkup() bool {
	rest := l.input[l.pos:]
	var end string
	switch {
	case strings.HasPrefix(rest, "<?"):
		end = "?>"
	case strings.HasPrefix(rest, "<!--"):
		end = "-->"
	case strings.HasPrefix(rest, "<!"):
		end = ">"
	default:
		return false
	}
	idx := strings.Index(rest, end)
	if idx < 0 {
		l.pos = len(l.input)
	} else {
		l.pos += idx + len(end)
	}
	return true
}

func (l *Lexer) readTag() Token {
	start := l.pos
	end := strings.IndexByte(l.input[start:], '>')
	if end < 0 {
		l.pos = len(l.input)
		return Token{Type: TokenIllegal, Literal: l.input[start:], Pos: start}
	}
	body := l.input[start+1 : start+end]
	l.pos = start + end + 1

	tok := Token{Type: TokenStartTag, Pos: start}
	if strings.HasPrefix(body, "/") {
		tok.Type = TokenEndTag
		body = body[1:]
	}
	body = strings.TrimSpace(body)
	if !isTagName(body) {
		return Token{Type: TokenIllegal, Literal: l.input[start:l.pos], Pos: start}
	}
	tok.Literal = body
	return tok
}

func (l *Lexer) readText() Token {
	start := l.pos
	end := strings.IndexByte(l.input[start:], '<')
	if end < 0 {
		l.pos = len(l.input)
	} else {
		l.pos = start + end
	}
	return Token{Type: TokenText, Literal: l.input[start:l.pos], Pos: start}
}

// isTagName accepts letters, digits and the . _ separators used by
// vendor extensions such as INTU.BID.
func isTagName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9', c == '.', c == '_':
		default:
			return false
		}
	}
	return true
}
