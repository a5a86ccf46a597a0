package tagtree

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const sgmlStatus = `
<STATUS>
<CODE>0
<SEVERITY>INFO
<MESSAGE>OK</MESSAGE>
</STATUS>
`

func TestLexer_Tokens(t *testing.T) {
	l := NewLexer(`<?xml version="1.0"?><!-- c --><A><B>x</B></A>`)
	var got []TokenType
	var lits []string
	for tok := l.NextToken(); tok.Type != TokenEOF; tok = l.NextToken() {
		got = append(got, tok.Type)
		lits = append(lits, tok.Literal)
	}
	assert.Equal(t, []TokenType{TokenStartTag, TokenStartTag, TokenText, TokenEndTag, TokenEndTag}, got)
	assert.Equal(t, []string{"A", "B", "x", "B", "A"}, lits)
}

func TestLexer_Illegal(t *testing.T) {
	tok := NewLexer("<A B>").NextToken()
	assert.Equal(t, TokenIllegal, tok.Type)

	tok = NewLexer("<A").NextToken()
	assert.Equal(t, TokenIllegal, tok.Type)
}

func TestParse_SGMLLeavesCloseImplicitly(t *testing.T) {
	n, err := Parse(sgmlStatus)
	require.NoError(t, err)

	want := Elem("STATUS",
		Leaf("CODE", "0"),
		Leaf("SEVERITY", "INFO"),
		Leaf("MESSAGE", "OK"),
	)
	assert.True(t, want.Equal(n), "got %+v", n)
}

func TestParse_XMLAndSGMLAgree(t *testing.T) {
	sgml, err := Parse(sgmlStatus)
	require.NoError(t, err)
	xml, err := Parse(`<STATUS><CODE>0</CODE><SEVERITY>INFO</SEVERITY><MESSAGE>OK</MESSAGE></STATUS>`)
	require.NoError(t, err)
	assert.True(t, sgml.Equal(xml))
}

func TestParse_VendorTags(t *testing.T) {
	n, err := Parse(`<SONRS><INTU.BID>3000<DTSERVER>20051029101003</SONRS>`)
	require.NoError(t, err)
	require.Len(t, n.Children, 2)
	assert.Equal(t, "INTU.BID", n.Children[0].Tag)
}

func TestParse_EmptyElement(t *testing.T) {
	n, err := Parse(`<A><MEMO></MEMO><B>1</A>`)
	require.NoError(t, err)
	require.Len(t, n.Children, 2)
	assert.False(t, n.Children[0].IsLeaf())
	assert.Empty(t, n.Children[0].Children)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"tail text", `<A><B>1</B>junk</A>`, "unexpected text"},
		{"mismatched end", `<A><B><C>1</A></B>`, "end tag mismatch"},
		{"unclosed", `<A><B><C>1</B>`, "unclosed element <A>"},
		{"stray close", `</A>`, "unexpected closing tag"},
		{"two roots", `<A><B>1</A><C><D>2</C>`, "multiple root elements"},
		{"empty", "   ", "no elements found"},
		{"bad tag", `<A><B C>1</A>`, "malformed tag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, se.Msg, tt.msg)
		})
	}
}

func TestParse_MaxDepth(t *testing.T) {
	input := strings.Repeat("<A>", 10) + "<B>1" + strings.Repeat("</A>", 10)
	_, err := NewParser(input).WithMaxDepth(5).Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nesting deeper than 5")

	n, err := NewParser(input).WithMaxDepth(10).Parse()
	require.NoError(t, err)
	assert.Equal(t, 11, n.Depth())
}

func TestWrite_Formats(t *testing.T) {
	n := Elem("STATUS", Leaf("CODE", "0"), Leaf("SEVERITY", "INFO"), Elem("EMPTY"))

	assert.Equal(t, "<STATUS><CODE>0<SEVERITY>INFO<EMPTY></EMPTY></STATUS>",
		Marshal(n, WriteOptions{Format: SGML}))
	assert.Equal(t, "<STATUS><CODE>0</CODE><SEVERITY>INFO</SEVERITY><EMPTY></EMPTY></STATUS>",
		Marshal(n, WriteOptions{Format: XML}))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, n, WriteOptions{Format: SGML, Indent: "  "}))
	assert.Equal(t, "<STATUS>\n  <CODE>0\n  <SEVERITY>INFO\n  <EMPTY></EMPTY>\n</STATUS>\n", buf.String())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("XML")
	require.NoError(t, err)
	assert.Equal(t, XML, f)

	_, err = ParseFormat("json")
	require.Error(t, err)
}

func TestNode_FindPath(t *testing.T) {
	n := Elem("OFX", Elem("SIGNONMSGSRSV1", Elem("SONRS", Leaf("DTSERVER", "20051029"))))
	got := n.FindPath("SIGNONMSGSRSV1/SONRS/DTSERVER")
	require.NotNil(t, got)
	assert.Equal(t, "20051029", got.Text)
	assert.Nil(t, n.FindPath("SIGNONMSGSRSV1/NOPE"))
}

func TestNode_CloneIsDeep(t *testing.T) {
	n := Elem("A", Leaf("B", "1"))
	c := n.Clone()
	c.Children[0].Text = "2"
	assert.Equal(t, "1", n.Children[0].Text)
}

// Writing a tree and parsing it back yields the same tree in both dialects.
func TestWriteParse_RoundTrip(t *testing.T) {
	tagGen := rapid.StringMatching(`[A-Z][A-Z0-9]{0,7}`)
	textGen := rapid.StringMatching(`[A-Za-z0-9][A-Za-z0-9 .,]{0,15}[A-Za-z0-9]`)

	var nodeGen func(depth int) *rapid.Generator[*Node]
	nodeGen = func(depth int) *rapid.Generator[*Node] {
		return rapid.Custom(func(t *rapid.T) *Node {
			// Depth-qualified tags keep a leaf from sharing its parent's tag,
			// which SGML cannot express unambiguously.
			tag := fmt.Sprintf("L%d%s", depth, tagGen.Draw(t, "tag"))
			if depth == 0 || rapid.Bool().Draw(t, "leaf") {
				return Leaf(tag, textGen.Draw(t, "text"))
			}
			n := Elem(tag)
			for i := rapid.IntRange(1, 3).Draw(t, "n"); i > 0; i-- {
				n.Children = append(n.Children, nodeGen(depth-1).Draw(t, "child"))
			}
			return n
		})
	}

	rapid.Check(t, func(t *rapid.T) {
		root := Elem("ROOT", nodeGen(3).Draw(t, "child"))
		for _, f := range []Format{SGML, XML} {
			for _, indent := range []string{"", "  "} {
				out := Marshal(root, WriteOptions{Format: f, Indent: indent})
				got, err := Parse(out)
				if err != nil {
					t.Fatalf("%s parse %q: %v", f, out, err)
				}
				if !root.Equal(got) {
					t.Fatalf("%s round trip mismatch for %q", f, out)
				}
			}
		}
	})
}
