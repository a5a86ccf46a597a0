package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjrosen/ofxkit/internal/store"
)

var archiveCmd = &cobra.Command{
	Use:   "archive [FILE...]",
	Short: "Store decoded OFX files in the sqlite archive",
	Long: `Decode each file and store its scalar values in the archive database.
A file whose content digest is already archived is skipped.

With --list, print the archived documents instead. Adding --sum FIELD
totals that decimal field within each listed document.`,
	Example: `  ofxkit archive ~/Downloads/*.qfx
  ofxkit archive --list --sum trnamt`,
	RunE: runArchive,
}

func init() {
	archiveCmd.Flags().String("db", "", "archive database (default from store.path)")
	archiveCmd.Flags().Bool("list", false, "list archived documents")
	archiveCmd.Flags().String("sum", "", "with --list, total this decimal field per document")
	rootCmd.AddCommand(archiveCmd)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = cfg.Store.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no archive path: set store.path or pass --db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return store.Open(path, store.WithTracer(tracer()))
}

func runArchive(cmd *cobra.Command, args []string) error {
	list, _ := cmd.Flags().GetBool("list")
	if !list && len(args) == 0 {
		return fmt.Errorf("archive needs at least one FILE, or --list")
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if list {
		field, _ := cmd.Flags().GetString("sum")
		return listArchive(ctx, out, st, field)
	}

	var errs []error
	for _, path := range args {
		doc, err := archiveFile(ctx, st, path)
		switch {
		case errors.Is(err, store.ErrDuplicate):
			fmt.Fprintf(out, "skip %s (already archived)\n", path)
		case err != nil:
			fmt.Fprintf(out, "fail %s: %v\n", path, err)
			errs = append(errs, err)
		default:
			fmt.Fprintf(out, "save %s %s %s\n", path, doc.ID, doc.RootTag)
		}
	}
	return errors.Join(errs...)
}

func archiveFile(ctx context.Context, st *store.Store, path string) (store.Document, error) {
	doc, in, err := decodeFile(ctx, path)
	if err != nil {
		return store.Document{}, err
	}
	return st.Save(ctx, doc.Digest, path, doc.Header.Version, in)
}

func listArchive(ctx context.Context, w io.Writer, st *store.Store, field string) error {
	docs, err := st.Documents(ctx)
	if err != nil {
		return err
	}
	for _, d := range docs {
		line := fmt.Sprintf("%s  %s  v%d  %-10s %s", d.ID, d.CreatedAt.Format("2006-01-02 15:04"), d.Version, d.RootTag, d.Source)
		if field != "" {
			total, err := st.Sum(ctx, d.ID, field)
			if err != nil {
				return err
			}
			line += fmt.Sprintf("  %s=%s", field, total.String())
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
