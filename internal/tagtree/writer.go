package tagtree

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Format selects the markup dialect written by Write.
type Format int

const (
	// SGML leaves leaf elements unclosed (OFX 1.x).
	SGML Format = iota
	// XML closes every element (OFX 2.x).
	XML
)

func (f Format) String() string {
	if f == XML {
		return "xml"
	}
	return "sgml"
}

// ParseFormat maps "sgml" or "xml" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "sgml", "":
		return SGML, nil
	case "xml":
		return XML, nil
	default:
		return SGML, fmt.Errorf("unknown format %q (valid: sgml, xml)", s)
	}
}

// WriteOptions controls the output layout.
type WriteOptions struct {
	Format Format
	// Indent is repeated once per level. Empty writes everything on one line.
	Indent string
}

// Write serializes n to w.
func Write(w io.Writer, n *Node, opts WriteOptions) error {
	var buf bytes.Buffer
	writeNode(&buf, n, opts, 0)
	_, err := w.Write(buf.Bytes())
	return err
}

// Marshal serializes n to a string.
func Marshal(n *Node, opts WriteOptions) string {
	var buf bytes.Buffer
	writeNode(&buf, n, opts, 0)
	return buf.String()
}

func writeNode(buf *bytes.Buffer, n *Node, opts WriteOptions, depth int) {
	pretty := opts.Indent != ""
	if pretty {
		buf.WriteString(strings.Repeat(opts.Indent, depth))
	}
	fmt.Fprintf(buf, "<%s>", n.Tag)

	if n.IsLeaf() {
		buf.WriteString(n.Text)
		if opts.Format == XML {
			fmt.Fprintf(buf, "</%s>", n.Tag)
		}
		if pretty {
			buf.WriteByte('\n')
		}
		return
	}

	if len(n.Children) == 0 {
		fmt.Fprintf(buf, "</%s>", n.Tag)
		if pretty {
			buf.WriteByte('\n')
		}
		return
	}

	if pretty {
		buf.WriteByte('\n')
	}
	for _, c := range n.Children {
		writeNode(buf, c, opts, depth+1)
	}
	if pretty {
		buf.WriteString(strings.Repeat(opts.Indent, depth))
	}
	fmt.Fprintf(buf, "</%s>", n.Tag)
	if pretty {
		buf.WriteByte('\n')
	}
}
