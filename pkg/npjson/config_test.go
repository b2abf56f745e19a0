package npjson

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, CodecJSON, cfg.Codec.Type)
	assert.Equal(t, "", cfg.Codec.Indent)
	assert.False(t, cfg.Codec.AllowComments)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "npjson.yaml")
	content := `
codec:
  type: msgpack
  allow_comments: true
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, CodecMessagePack, cfg.Codec.Type)
	assert.True(t, cfg.Codec.AllowComments)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfigEnvAndFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NPJSON_CODEC_TYPE", "cbor")
	t.Setenv("NPJSON_LOGGING_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.String("indent", "", "")
	require.NoError(t, flags.Parse([]string{"--log-level=error", "--indent=\t"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, CodecCBOR, cfg.Codec.Type)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "\t", cfg.Codec.Indent)
}

func TestLoadConfigInvalidCodec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "npjson.yaml")
	require.NoError(t, os.WriteFile(path, []byte("codec:\n  type: xml\n"), 0o600))

	_, err := LoadConfig(path, nil)
	assert.Error(t, err)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}
