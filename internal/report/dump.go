package report

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/ofxkit/internal/aggregate"
	"github.com/zjrosen/ofxkit/internal/tagtree"
)

// Dump formats accepted by Dump.
const (
	DumpYAML = "yaml"
	DumpSpew = "spew"
	DumpTree = "tree"
)

// Dump writes in using the named format.
func Dump(w io.Writer, in *aggregate.Instance, format, indent string) error {
	switch format {
	case DumpYAML, "":
		return YAML(w, in)
	case DumpSpew:
		return Spew(w, in)
	case DumpTree:
		return Tree(w, in, indent)
	default:
		return fmt.Errorf("unknown dump format %q (valid: yaml, spew, tree)", format)
	}
}

// YAML writes in as an ordered mapping: kind first, then fields in
// declaration order with their wire text, then members.
func YAML(w io.Writer, in *aggregate.Instance) error {
	node, err := yamlNode(in)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

func str(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func yamlNode(in *aggregate.Instance) (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode}
	m.Content = append(m.Content, str("kind"), str(in.Kind()))

	schema := in.Schema()
	for _, name := range in.Fields() {
		f := schema.Field(name)
		var val *yaml.Node
		switch {
		case f.IsScalar():
			v, _ := in.Get(name)
			text, err := f.Element.Render(v)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", in.Kind(), name, err)
			}
			val = str(text)
		case f.List:
			val = &yaml.Node{Kind: yaml.SequenceNode}
			for _, item := range in.List(name) {
				n, err := yamlNode(item)
				if err != nil {
					return nil, err
				}
				val.Content = append(val.Content, n)
			}
		default:
			n, err := yamlNode(in.Sub(name))
			if err != nil {
				return nil, err
			}
			val = n
		}
		m.Content = append(m.Content, str(name), val)
	}

	if in.Len() > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, member := range in.Members() {
			n, err := yamlNode(member)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		m.Content = append(m.Content, str("members"), seq)
	}
	return m, nil
}

// plain is the spew-friendly shape of an instance.
type plain struct {
	Kind    string
	Fields  []plainField
	Members []plain
}

type plainField struct {
	Name  string
	Path  []string
	Value any
}

func plainOf(in *aggregate.Instance) plain {
	p := plain{Kind: in.Kind()}
	for _, name := range in.Fields() {
		v, _ := in.Get(name)
		switch x := v.(type) {
		case *aggregate.Instance:
			v = plainOf(x)
		case []*aggregate.Instance:
			items := make([]plain, len(x))
			for i, item := range x {
				items[i] = plainOf(item)
			}
			v = items
		}
		p.Fields = append(p.Fields, plainField{Name: name, Path: in.PathOf(name), Value: v})
	}
	for _, m := range in.Members() {
		p.Members = append(p.Members, plainOf(m))
	}
	return p
}

var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Spew writes the Go values of in, including include paths.
func Spew(w io.Writer, in *aggregate.Instance) error {
	spewConfig.Fdump(w, plainOf(in))
	return nil
}

// Tree writes in re-encoded as an indented XML-style tag tree.
func Tree(w io.Writer, in *aggregate.Instance, indent string) error {
	n, err := aggregate.Encode(in)
	if err != nil {
		return err
	}
	if indent == "" {
		indent = "  "
	}
	return tagtree.Write(w, n, tagtree.WriteOptions{Format: tagtree.XML, Indent: indent})
}
