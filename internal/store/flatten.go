package store

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zjrosen/ofxkit/internal/aggregate"
	"github.com/zjrosen/ofxkit/internal/element"
)

// Flatten lists the scalar values of in depth first in encoding order.
// Paths name the aggregate chain from the root, with an index on
// collection members and list items, e.g. OFX/BANKMSGSRSV1/STMTTRNRS[0].
func Flatten(in *aggregate.Instance) ([]Element, error) {
	var out []Element
	if err := flatten(in, in.Kind(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(in *aggregate.Instance, path string, out *[]Element) error {
	schema := in.Schema()
	for _, name := range in.Fields() {
		f := schema.Field(name)
		switch {
		case f.IsScalar():
			v, _ := in.Get(name)
			text, err := f.Element.Render(v)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", path, name, err)
			}
			e := Element{Seq: len(*out), Path: path, Field: name, Text: text}
			if d, ok := f.Element.(*element.DecimalElement); ok {
				n, err := d.Bind(v.(decimal.Decimal))
				if err != nil {
					return fmt.Errorf("%s.%s: %w", path, name, err)
				}
				scale := d.Scale()
				e.Fixed, e.Scale = &n, &scale
			}
			*out = append(*out, e)
		case f.List:
			for i, item := range in.List(name) {
				if err := flatten(item, fmt.Sprintf("%s/%s[%d]/%s", path, f.Tag, i, item.Kind()), out); err != nil {
					return err
				}
			}
		default:
			sub := in.Sub(name)
			if err := flatten(sub, path+"/"+sub.Kind(), out); err != nil {
				return err
			}
		}
	}
	for i, m := range in.Members() {
		if err := flatten(m, fmt.Sprintf("%s/%s[%d]", path, m.Kind(), i), out); err != nil {
			return err
		}
	}
	return nil
}
