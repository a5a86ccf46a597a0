package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/ofxkit/internal/tracing"
)

func TestDefaults_Valid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 64, cfg.Codec.MaxDepth)
	require.True(t, cfg.Codec.BestEffort)
	require.Equal(t, "sgml", cfg.Output.Format)
	require.Equal(t, time.Second, cfg.Watch.Debounce)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"depth", func(c *Config) { c.Codec.MaxDepth = 0 }, "max_depth"},
		{"format", func(c *Config) { c.Output.Format = "json" }, "output.format"},
		{"dump", func(c *Config) { c.Output.Dump = "xml" }, "output.dump"},
		{"indent", func(c *Config) { c.Output.Indent = "--" }, "output.indent"},
		{"debounce", func(c *Config) { c.Watch.Debounce = -time.Second }, "debounce"},
		{"extension", func(c *Config) { c.Watch.Extensions = []string{"ofx"} }, "start with a dot"},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }, "tracing.exporter"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 2 }, "sample_rate"},
		{"file path", func(c *Config) {
			c.Tracing.Enabled, c.Tracing.Exporter, c.Tracing.FilePath = true, tracing.ExporterFile, ""
		}, "file_path"},
		{"xml upper case", func(c *Config) { c.Output.Format = "XML" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDefaultConfigTemplate_LoadsThroughViper(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(DefaultConfigTemplate())))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	require.Equal(t, 64, cfg.Codec.MaxDepth)
	require.Equal(t, "  ", cfg.Output.Indent)
	require.Equal(t, time.Second, cfg.Watch.Debounce)
	require.Equal(t, []string{".ofx", ".qfx"}, cfg.Watch.Extensions)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}

func TestSetValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, SetValue(path, "output.format", "xml"))
	require.NoError(t, SetValue(path, "store.path", "/tmp/a.db"))
	require.NoError(t, SetValue(path, "output.indent", "    "))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# sgml (OFX 1.x) or xml (OFX 2.x)", "comments survive")

	var got struct {
		Output struct {
			Format string `yaml:"format"`
			Indent string `yaml:"indent"`
		} `yaml:"output"`
		Store struct {
			Path string `yaml:"path"`
		} `yaml:"store"`
	}
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Equal(t, "xml", got.Output.Format)
	require.Equal(t, "    ", got.Output.Indent)
	require.Equal(t, "/tmp/a.db", got.Store.Path)
}

func TestSetValue_NewFileAndUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.ErrorContains(t, SetValue(path, "nope.key", "1"), "unknown config key")

	require.NoError(t, SetValue(path, "tracing.enabled", "true"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "tracing:\n  enabled: true\n", string(data))
}
