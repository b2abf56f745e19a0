package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
	"name": "scan",
	"a": {"__ndarray__": [[1, 2], [3, 4]]},
	"q": {"__quaternion__": [1, 0, 0, 0]},
	"list": [{"__quatarray__": [[1, 0, 0, 0]]}, "plain"]
}`

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestInspect(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := execute(t, sampleDoc, "inspect")
	require.NoError(t, err)

	assert.Regexp(t, `PATH\s+KIND\s+SHAPE`, out)
	assert.Regexp(t, `\$\.a\s+ndarray\s+\[2 2\]`, out)
	assert.Regexp(t, `\$\.list\[0\]\s+quatarray\s+\[1\]`, out)
	assert.Regexp(t, `\$\.q\s+quaternion\s+-`, out)
	assert.NotContains(t, out, "plain")
}

func TestInspectComments(t *testing.T) {
	t.Chdir(t.TempDir())
	doc := "// sensor dump\n" + sampleDoc

	_, _, err := execute(t, doc, "inspect")
	assert.Error(t, err)

	out, _, err := execute(t, doc, "inspect", "--allow-comments")
	require.NoError(t, err)
	assert.Contains(t, out, "ndarray")
}

func TestInspectTagError(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := execute(t, `{"__quaternion__": [1, 2, 3]}`, "inspect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "__quaternion__")
}

func TestConvertRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	in := filepath.Join(dir, "in.json")
	mid := filepath.Join(dir, "mid.cbor")
	require.NoError(t, os.WriteFile(in, []byte(sampleDoc), 0o600))

	_, logs, err := execute(t, "", "convert", in, mid, "--to", "cbor")
	require.NoError(t, err)
	assert.Contains(t, logs, "converted document")

	binary, err := os.ReadFile(mid)
	require.NoError(t, err)
	assert.NotEmpty(t, binary)

	out, _, err := execute(t, "", "convert", mid, "--from", "cbor", "--to", "json")
	require.NoError(t, err)
	assert.JSONEq(t, sampleDoc, out)
}

type failingCloser struct {
	bytes.Buffer
	closed bool
}

func (f *failingCloser) Close() error {
	f.closed = true
	return errors.New("disk full")
}

func TestConvertReportsCloseError(t *testing.T) {
	t.Chdir(t.TempDir())

	out := &failingCloser{}
	orig := createOutput
	createOutput = func(string) (io.WriteCloser, error) { return out, nil }
	t.Cleanup(func() { createOutput = orig })

	_, logs, err := execute(t, sampleDoc, "convert", "-", "out.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, out.closed)
	assert.NotEmpty(t, out.String())
	assert.NotContains(t, logs, "converted document")
}

func TestConvertUnknownCodec(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := execute(t, sampleDoc, "convert", "--to", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--to")
}

func TestConvertIndent(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := execute(t, `{"q": {"__quaternion__": [0, 0, 0, 1]}}`, "convert", "--indent", "  ")
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"q\": {")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "npjson "+version)
}
