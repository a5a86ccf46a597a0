// Package config provides configuration types, defaults and validation
// for ofxkit.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/zjrosen/ofxkit/internal/aggregate"
	"github.com/zjrosen/ofxkit/internal/log"
	"github.com/zjrosen/ofxkit/internal/tracing"
)

// Config holds all configuration options for ofxkit.
type Config struct {
	Codec   CodecConfig    `mapstructure:"codec"`
	Output  OutputConfig   `mapstructure:"output"`
	Store   StoreConfig    `mapstructure:"store"`
	Watch   WatchConfig    `mapstructure:"watch"`
	Tracing tracing.Config `mapstructure:"tracing"`
	Log     LogConfig      `mapstructure:"log"`
}

// CodecConfig tunes decoding.
type CodecConfig struct {
	MaxDepth   int  `mapstructure:"max_depth"`
	StrictText bool `mapstructure:"strict_text"` // oversized text is an error rather than a warning
	BestEffort bool `mapstructure:"best_effort"` // validate every collection member before failing
}

// OutputConfig controls what the CLI writes.
type OutputConfig struct {
	Format string `mapstructure:"format"` // "sgml" or "xml"
	Indent string `mapstructure:"indent"`
	Dump   string `mapstructure:"dump"` // "yaml", "spew" or "tree"
}

// StoreConfig locates the archive database.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce   time.Duration `mapstructure:"debounce"`
	Extensions []string      `mapstructure:"extensions"`
}

// LogConfig locates the debug log.
type LogConfig struct {
	Path string `mapstructure:"path"`
}

var (
	outputFormats = []string{"sgml", "xml"}
	dumpFormats   = []string{"yaml", "spew", "tree"}
	exporters     = []string{tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP}
)

// Dir returns ~/.config/ofxkit, or "" when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ofxkit")
}

// DefaultStorePath returns the archive location under Dir.
func DefaultStorePath() string {
	if d := Dir(); d != "" {
		return filepath.Join(d, "archive.db")
	}
	return "ofxkit.db"
}

// DefaultTracesFilePath returns the file exporter location under Dir.
func DefaultTracesFilePath() string {
	if d := Dir(); d != "" {
		return filepath.Join(d, "traces", "traces.jsonl")
	}
	return ""
}

// Defaults returns a Config with default values.
func Defaults() Config {
	tr := tracing.DefaultConfig()
	tr.FilePath = DefaultTracesFilePath()
	return Config{
		Codec: CodecConfig{
			MaxDepth:   aggregate.DefaultMaxDepth,
			BestEffort: true,
		},
		Output: OutputConfig{
			Format: "sgml",
			Indent: "  ",
			Dump:   "yaml",
		},
		Store: StoreConfig{Path: DefaultStorePath()},
		Watch: WatchConfig{
			Debounce:   time.Second,
			Extensions: []string{".ofx", ".qfx"},
		},
		Tracing: tr,
		Log:     LogConfig{Path: "debug.log"},
	}
}

// ValidateCodec checks codec limits.
func ValidateCodec(c CodecConfig) error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("codec.max_depth must be positive, got %d", c.MaxDepth)
	}
	return nil
}

// ValidateOutput checks output choices.
func ValidateOutput(o OutputConfig) error {
	if !slices.Contains(outputFormats, strings.ToLower(o.Format)) {
		return fmt.Errorf("output.format %q is not one of %s", o.Format, strings.Join(outputFormats, ", "))
	}
	if !slices.Contains(dumpFormats, strings.ToLower(o.Dump)) {
		return fmt.Errorf("output.dump %q is not one of %s", o.Dump, strings.Join(dumpFormats, ", "))
	}
	if strings.Trim(o.Indent, " \t") != "" {
		return fmt.Errorf("output.indent may only contain spaces and tabs")
	}
	return nil
}

// ValidateWatch checks the watch settings.
func ValidateWatch(w WatchConfig) error {
	if w.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	for _, ext := range w.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("watch.extensions entry %q must start with a dot", ext)
		}
	}
	return nil
}

// ValidateTracing checks the tracing block. Empty values fall back to
// defaults.
func ValidateTracing(t tracing.Config) error {
	if t.Exporter != "" && !slices.Contains(exporters, t.Exporter) {
		return fmt.Errorf("tracing.exporter %q is not one of %s", t.Exporter, strings.Join(exporters, ", "))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1, got %g", t.SampleRate)
	}
	if t.Enabled && t.Exporter == tracing.ExporterFile && t.FilePath == "" {
		return fmt.Errorf("tracing.file_path is required for the file exporter")
	}
	return nil
}

// Validate checks every section.
func (c Config) Validate() error {
	for _, err := range []error{
		ValidateCodec(c.Codec),
		ValidateOutput(c.Output),
		ValidateWatch(c.Watch),
		ValidateTracing(c.Tracing),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as commented YAML.
func DefaultConfigTemplate() string {
	return `# ofxkit configuration

# Decoding
codec:
  max_depth: 64        # deepest aggregate nesting accepted
  strict_text: false   # treat text longer than its declared length as an error
  best_effort: true    # report every bad collection member instead of the first

# Output of parse and convert
output:
  format: sgml         # sgml (OFX 1.x) or xml (OFX 2.x)
  indent: "  "         # empty writes each document on one line
  dump: yaml           # parse output: yaml, spew or tree

# Archive database used by 'ofxkit archive'
# store:
#   path: ~/.config/ofxkit/archive.db

# Directory watching
watch:
  debounce: 1s
  extensions: [.ofx, .qfx]

# Tracing of reads, decodes and archive writes
# tracing:
#   enabled: false                 # default: false
#   exporter: file                 # none, file, stdout, otlp
#   file_path: ~/.config/ofxkit/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0

# Debug log, written when --debug or OFXKIT_DEBUG is set
# log:
#   path: debug.log
`
}

// WriteDefaultConfig writes the default template to configPath, creating
// parent directories.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
