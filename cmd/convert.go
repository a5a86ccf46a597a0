package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/ofxkit/internal/document"
	"github.com/zjrosen/ofxkit/internal/log"
	"github.com/zjrosen/ofxkit/internal/tagtree"
)

var convertCmd = &cobra.Command{
	Use:   "convert FILE",
	Short: "Rewrite an OFX file in the SGML or XML dialect",
	Long: `Decode FILE, re-encode the aggregate and write it with a header for the
requested dialect. Converting to the other dialect moves the header to the
latest version of that dialect.`,
	Example: `  ofxkit convert statement.qfx --to xml -o statement.ofx
  ofxkit convert export.ofx --to sgml --new-uid`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("to", "", "target dialect: sgml or xml (default from output.format)")
	convertCmd.Flags().Bool("new-uid", false, "stamp the output with a fresh NEWFILEUID")
	convertCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	to, _ := cmd.Flags().GetString("to")
	if to == "" {
		to = cfg.Output.Format
	}
	format, err := tagtree.ParseFormat(to)
	if err != nil {
		return err
	}
	newUID, _ := cmd.Flags().GetBool("new-uid")
	outPath, _ := cmd.Flags().GetString("output")

	ctx := cmd.Context()
	doc, in, err := decodeFile(ctx, args[0])
	if err != nil {
		return err
	}

	h := doc.Convert(format, newUID).Header
	out, err := document.Encode(ctx, in, h, tracer())
	if err != nil {
		return fmt.Errorf("encoding %s: %w", in.Kind(), err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath) // #nosec G304 -- path is supplied by the user
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if err := out.Write(w, cfg.Output.Indent); err != nil {
		return err
	}
	log.Info(log.CatCLI, "converted", "from", doc.Format(), "to", format, "version", h.Version)
	return nil
}
