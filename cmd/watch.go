package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/ofxkit/internal/cachemanager"
	"github.com/zjrosen/ofxkit/internal/log"
	"github.com/zjrosen/ofxkit/internal/pubsub"
	"github.com/zjrosen/ofxkit/internal/report"
	"github.com/zjrosen/ofxkit/internal/store"
	"github.com/zjrosen/ofxkit/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Re-validate OFX files in a directory as they change",
	Long: `Validate every OFX file in DIR, then watch the directory and validate
files again as they are written. Results are cached by content digest, so
saving an unchanged file costs nothing.

With --archive, valid files are also stored in the archive database.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Bool("archive", false, "store valid files in the archive")
	watchCmd.Flags().String("db", "", "archive database (default from store.path)")
	watchCmd.Flags().Bool("follow-log", false, "echo the debug log to stderr (needs --debug)")
	rootCmd.AddCommand(watchCmd)
}

// session validates batches of paths and fans the outcomes out to
// subscribers.
type session struct {
	validator *report.Validator
	cache     *cachemanager.InMemoryCacheManager[report.Digest, report.Result]
	broker    *pubsub.Broker[report.Result]
	store     *store.Store
}

func newSession(st *store.Store) *session {
	cache := cachemanager.NewInMemoryCacheManager[report.Digest, report.Result](
		"validation", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	return &session{
		validator: report.NewValidator(registry(), report.ValidatorConfig{
			MaxDepth:   cfg.Codec.MaxDepth,
			StrictText: cfg.Codec.StrictText,
			BestEffort: cfg.Codec.BestEffort,
			Tracer:     tracer(),
			Cache:      cache,
		}),
		cache:  cache,
		broker: pubsub.NewBroker[report.Result](),
		store:  st,
	}
}

func (s *session) handle(ctx context.Context, paths []string) {
	for _, path := range paths {
		s.broker.Publish(pubsub.ChangedEvent, report.Result{Path: path})
		res := s.validator.ValidateFile(ctx, path)
		if errors.Is(res.Err, os.ErrNotExist) {
			// removed or renamed away before we got to it
			continue
		}
		s.broker.Publish(pubsub.ValidatedEvent, res)

		if s.store == nil || !res.OK() {
			continue
		}
		_, err := archiveFile(ctx, s.store, path)
		switch {
		case errors.Is(err, store.ErrDuplicate):
		case err != nil:
			log.ErrorErr(log.CatStore, "archiving failed", err, "path", path)
		default:
			s.broker.Publish(pubsub.ArchivedEvent, res)
		}
	}
}

// printEvents renders session events until the channel closes.
func printEvents(w io.Writer, events <-chan pubsub.Event[report.Result]) {
	for ev := range events {
		switch ev.Type {
		case pubsub.ValidatedEvent:
			_, _ = report.Render(w, []report.Result{ev.Payload})
		case pubsub.ArchivedEvent:
			fmt.Fprintf(w, "archived %s\n", ev.Payload.Path)
		case pubsub.ChangedEvent:
			log.Debug(log.CatWatcher, "changed", "path", ev.Payload.Path)
		}
	}
}

func existingFiles(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if slices.ContainsFunc(exts, func(x string) bool { return strings.EqualFold(x, ext) }) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	if archive, _ := cmd.Flags().GetBool("archive"); archive {
		var err error
		if st, err = openStore(cmd); err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
	}

	if follow, _ := cmd.Flags().GetBool("follow-log"); follow {
		if entries := log.Subscribe(ctx); entries != nil {
			go func() {
				for ev := range entries {
					fmt.Fprint(cmd.ErrOrStderr(), ev.Payload)
				}
			}()
		}
	}

	wcfg := watcher.DefaultConfig(dir)
	if cfg.Watch.Debounce > 0 {
		wcfg.DebounceDur = cfg.Watch.Debounce
	}
	if len(cfg.Watch.Extensions) > 0 {
		wcfg.Extensions = cfg.Watch.Extensions
	}
	w, err := watcher.New(wcfg)
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	s := newSession(st)
	defer s.broker.Close()
	done := make(chan struct{})
	go func() {
		defer close(done)
		printEvents(cmd.OutOrStdout(), s.broker.Subscribe(ctx))
	}()

	initial, err := existingFiles(dir, wcfg.Extensions)
	if err != nil {
		return err
	}
	s.handle(ctx, initial)

	for {
		select {
		case <-ctx.Done():
			stats := s.cache.Stats()
			log.Info(log.CatWatcher, "stopping", "cache_hits", stats.Hits, "cache_misses", stats.Misses,
				"dropped", s.broker.Dropped())
			stop()
			<-done
			return nil
		case batch, ok := <-changes:
			if !ok {
				return nil
			}
			s.handle(ctx, batch)
		}
	}
}
