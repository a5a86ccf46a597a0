package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/ofxkit/internal/aggregate"
	"github.com/zjrosen/ofxkit/internal/config"
	"github.com/zjrosen/ofxkit/internal/log"
	"github.com/zjrosen/ofxkit/internal/models"
	"github.com/zjrosen/ofxkit/internal/tracing"
)

const localConfigPath = ".ofxkit/config.yaml"

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config

	provider   *tracing.Provider
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "ofxkit",
	Short: "Decode, validate and rewrite OFX financial files",
	Long: `ofxkit reads OFX documents in either the SGML (v1) or XML (v2) dialect,
decodes them into typed aggregates, and writes them back out.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)
	cobra.OnFinalize(teardown)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/ofxkit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"write a debug log (also enabled by OFXKIT_DEBUG)")
}

func setDefaults(v *viper.Viper) {
	d := config.Defaults()
	v.SetDefault("codec.max_depth", d.Codec.MaxDepth)
	v.SetDefault("codec.strict_text", d.Codec.StrictText)
	v.SetDefault("codec.best_effort", d.Codec.BestEffort)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.indent", d.Output.Indent)
	v.SetDefault("output.dump", d.Output.Dump)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("watch.extensions", d.Watch.Extensions)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("log.path", d.Log.Path)
}

func initConfig() {
	viper.Reset()
	setDefaults(viper.GetViper())
	viper.SetEnvPrefix("OFXKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .ofxkit/config.yaml (current directory)
		// 2. ~/.config/ofxkit/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			if dir := config.Dir(); dir != "" {
				viper.AddConfigPath(dir)
			}
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// No config anywhere: seed the user config and carry on with defaults
			// if that fails.
			if dir := config.Dir(); dir != "" {
				path := filepath.Join(dir, "config.yaml")
				if writeErr := config.WriteDefaultConfig(path); writeErr == nil {
					viper.SetConfigFile(path)
					_ = viper.ReadInConfig()
				}
			}
		}
	}

	cfg = config.Config{}
	_ = viper.Unmarshal(&cfg)
}

func setup(cmd *cobra.Command, _ []string) error {
	if debug || os.Getenv("OFXKIT_DEBUG") != "" {
		cleanup, err := log.Init(cfg.Log.Path)
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		logCleanup = cleanup
		log.Info(log.CatCLI, "starting", "command", cmd.CommandPath(), "config", viper.ConfigFileUsed())
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	p, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	provider = p
	return nil
}

func teardown() {
	if provider != nil {
		if err := provider.Shutdown(context.Background()); err != nil {
			log.ErrorErr(log.CatCLI, "tracing shutdown failed", err)
		}
		provider = nil
	}
	if logCleanup != nil {
		logCleanup()
		logCleanup = nil
	}
}

func tracer() trace.Tracer {
	if provider == nil {
		return nil
	}
	return provider.Tracer()
}

func registry() *aggregate.Registry {
	return models.Registry()
}

func decodeOptions() []aggregate.DecodeOption {
	var opts []aggregate.DecodeOption
	if cfg.Codec.MaxDepth > 0 {
		opts = append(opts, aggregate.WithMaxDepth(cfg.Codec.MaxDepth))
	}
	if cfg.Codec.StrictText {
		opts = append(opts, aggregate.WithStrictText())
	}
	return opts
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
