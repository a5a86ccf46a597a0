package cmd

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/spf13/cobra"

	"github.com/zjrosen/ofxkit/internal/cachemanager"
	"github.com/zjrosen/ofxkit/internal/report"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Check OFX files and report every problem found",
	Long: `Validate each file against the registered aggregate kinds.

Every member of a collection is checked, so one run reports all invalid
transactions rather than only the first. The command exits non-zero when
any file is invalid.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// newValidator memoizes by digest so identical files passed twice, or
// copies under different names, are decoded once.
func newValidator() *report.Validator {
	return report.NewValidator(registry(), report.ValidatorConfig{
		MaxDepth:   cfg.Codec.MaxDepth,
		StrictText: cfg.Codec.StrictText,
		BestEffort: true,
		Tracer:     tracer(),
		Cache: cachemanager.NewInMemoryCacheManager[report.Digest, report.Result](
			"validate", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
	})
}

func runValidate(cmd *cobra.Command, args []string) error {
	v := newValidator()
	results := make([]report.Result, len(args))
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for i, path := range args {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; wg.Done() }()
			results[i] = v.ValidateFile(cmd.Context(), path)
		}()
	}
	wg.Wait()

	failed, err := report.Render(cmd.OutOrStdout(), results)
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files invalid", failed, len(results))
	}
	return nil
}
