package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/ofxkit/internal/aggregate"
	"github.com/zjrosen/ofxkit/internal/document"
	"github.com/zjrosen/ofxkit/internal/log"
	"github.com/zjrosen/ofxkit/internal/report"
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Decode an OFX file and print the aggregate",
	Long: `Decode an OFX file and print the resulting aggregate.

Dump formats:
  yaml  ordered mapping of fields and members (default)
  spew  Go value dump
  tree  canonical XML-style tag tree`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().String("dump", "", "output format: yaml, spew or tree (default from output.dump)")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("dump")
	if format == "" {
		format = cfg.Output.Dump
	}

	_, in, err := decodeFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, w := range in.Warnings() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	return report.Dump(out, in, format, cfg.Output.Indent)
}

func readDocument(ctx context.Context, path string) (*document.Document, error) {
	opts := []document.Option{document.WithTracer(tracer())}
	if cfg.Codec.MaxDepth > 0 {
		opts = append(opts, document.WithMaxDepth(cfg.Codec.MaxDepth))
	}
	return document.ReadFile(ctx, path, opts...)
}

// decodeFile reads and decodes path, failing on the first invalid member.
func decodeFile(ctx context.Context, path string) (*document.Document, *aggregate.Instance, error) {
	doc, err := readDocument(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	in, err := doc.Decode(ctx, registry(), tracer(), decodeOptions()...)
	if err != nil {
		log.Debug(log.CatCLI, "decode failed", "path", path, "code", aggregate.CodeOf(err))
		return doc, nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, in, nil
}
