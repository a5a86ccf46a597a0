package aggregate

import (
	"fmt"

	"github.com/zjrosen/ofxkit/internal/tagtree"
)

type openWrapper struct {
	name string
	node *treeNode
}

// Encode converts an instance back to a tag tree. Fields are written in
// schema order, included fields inside their wrapper elements, and
// collection members last. Encoding a decoded instance and decoding the
// result yields an equal instance.
func Encode(in *Instance) (*tagtree.Node, error) {
	s := in.kind.schema
	root := tagtree.Elem(in.Kind())
	stack := []openWrapper{{node: root}}

	for _, f := range s.fields {
		v, ok := in.values[f.Name]
		if !ok {
			continue
		}
		path := in.PathOf(f.Name)
		common := 0
		for common < len(path) && common+1 < len(stack) && stack[common+1].name == path[common] {
			common++
		}
		stack = stack[:common+1]
		for _, name := range path[common:] {
			w := tagtree.Elem(s.incNames[name].Tag)
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, w)
			stack = append(stack, openWrapper{name: name, node: w})
		}

		node, err := encodeField(in, f, v)
		if err != nil {
			return nil, err
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, node)
	}

	for i, m := range in.members {
		child, err := Encode(m)
		if err != nil {
			return nil, MemberError{Index: i, Tag: m.Kind(), Err: err}
		}
		root.Children = append(root.Children, child)
	}
	return root, nil
}

func encodeField(in *Instance, f *Field, v any) (*treeNode, error) {
	switch {
	case f.IsScalar():
		text, err := f.Element.Render(v)
		if err != nil {
			return nil, &Error{Code: CodeInvalidValue, Kind: in.Kind(), Field: f.Tag, Err: err}
		}
		return tagtree.Leaf(f.Tag, text), nil
	case f.List:
		members, ok := v.([]*Instance)
		if !ok {
			return nil, newError(CodeInvalidValue, in.Kind(), f.Tag, fmt.Sprintf("list holds %T", v))
		}
		w := tagtree.Elem(f.Tag)
		for _, m := range members {
			child, err := Encode(m)
			if err != nil {
				return nil, err
			}
			w.Children = append(w.Children, child)
		}
		return w, nil
	default:
		sub, ok := v.(*Instance)
		if !ok {
			return nil, newError(CodeInvalidValue, in.Kind(), f.Tag, fmt.Sprintf("aggregate field holds %T", v))
		}
		return Encode(sub)
	}
}
