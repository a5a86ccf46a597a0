package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/ofxkit/internal/document"
	"github.com/zjrosen/ofxkit/internal/report"
	"github.com/zjrosen/ofxkit/internal/tagtree"
)

// ErrRoundTrip is returned when a re-decoded document differs from the
// original aggregate.
var ErrRoundTrip = errors.New("round trip changed the aggregate")

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip FILE",
	Short: "Check that decoding and re-encoding a file is lossless",
	Long: `Decode FILE, encode the aggregate, decode the result again and compare.

The canonical form of the original body and of the re-encoded body are
diffed line by line. The diff may show lines where the source spelled a
value in a non-canonical way. The command only fails when the two
aggregates differ.`,
	Args: cobra.ExactArgs(1),
	RunE: runRoundtrip,
}

func init() {
	rootCmd.AddCommand(roundtripCmd)
}

func runRoundtrip(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	doc, in, err := decodeFile(ctx, args[0])
	if err != nil {
		return err
	}

	enc, err := document.Encode(ctx, in, doc.Header, tracer())
	if err != nil {
		return fmt.Errorf("encoding %s: %w", in.Kind(), err)
	}
	data, err := enc.Bytes(cfg.Output.Indent)
	if err != nil {
		return err
	}
	again, err := document.Parse(ctx, data, document.WithTracer(tracer()))
	if err != nil {
		return fmt.Errorf("re-reading encoded document: %w", err)
	}
	back, err := again.Decode(ctx, registry(), tracer(), decodeOptions()...)
	if err != nil {
		return fmt.Errorf("re-decoding encoded document: %w", err)
	}

	canon := tagtree.WriteOptions{Format: tagtree.XML, Indent: "  "}
	diff, changed := report.Diff(tagtree.Marshal(doc.Body, canon), tagtree.Marshal(enc.Body, canon))
	out := cmd.OutOrStdout()
	if changed {
		fmt.Fprint(out, diff)
	} else {
		fmt.Fprintln(out, "canonical bodies identical")
	}

	if !in.Equal(back) {
		return fmt.Errorf("%s: %w", args[0], ErrRoundTrip)
	}
	fmt.Fprintf(out, "%s: %s round trip ok\n", args[0], in.Kind())
	return nil
}
