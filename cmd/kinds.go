package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/ofxkit/internal/aggregate"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds [TAG...]",
	Short: "List registered aggregate kinds and their fields",
	Long: `List every registered kind with its resolved field order, or only the
named kinds.

Field notation:
  name*     required
  name{}    nested aggregate
  name[]    list of aggregates
  a/b/name  field carried inside the a and b wrappers`,
	RunE: runKinds,
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}

func runKinds(cmd *cobra.Command, args []string) error {
	reg := registry()
	tags := args
	if len(tags) == 0 {
		tags = reg.Kinds()
	}

	out := cmd.OutOrStdout()
	for _, tag := range tags {
		k, err := reg.Lookup(tag)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", k.Name)
		schema := k.Schema()
		fields := schema.Fields()
		if len(fields) > 0 {
			names := make([]string, len(fields))
			for i, f := range fields {
				names[i] = fieldLabel(f)
			}
			fmt.Fprintf(out, "  fields:  %s\n", strings.Join(names, " "))
		}
		if k.Members != nil {
			fmt.Fprintf(out, "  members: %s\n", strings.Join(k.Members.Kinds, " "))
		}
	}
	return nil
}

func fieldLabel(f *aggregate.Field) string {
	var b strings.Builder
	for _, p := range f.Path {
		b.WriteString(p)
		b.WriteByte('/')
	}
	b.WriteString(f.Name)
	switch {
	case f.List:
		b.WriteString("[]")
	case f.IsSub():
		b.WriteString("{}")
	}
	if f.Required {
		b.WriteByte('*')
	}
	return b.String()
}
