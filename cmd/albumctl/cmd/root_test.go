package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "albumdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const smallDataset = `
dataset:
  albums: 3
  tracksPerAlbum: 4
  artistsPerTrack: 1
bench:
  lookupIterations: 10
  probeAlbum: "Album 1"
  probeTrack: 2
logging:
  level: error
`

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"bench", "seed", "lookup"})
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestRootCmd_BadConfigPath(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "lookup", "--album", "Album 0")
	require.Error(t, err)
}

func TestLookupCmd_Album(t *testing.T) {
	cfg := writeConfig(t, smallDataset)
	out, err := run(t, "--config", cfg, "lookup", "--album", "Album 1", "--strategy", "nested")
	require.NoError(t, err)

	var got struct {
		Album    string   `json:"album"`
		Strategy string   `json:"strategy"`
		Artists  []string `json:"artists"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Album 1", got.Album)
	assert.Equal(t, "nested", got.Strategy)
	assert.ElementsMatch(t, []string{"Artist 0", "Artist 1", "Artist 2", "Artist 3"}, got.Artists)
}

func TestLookupCmd_Track(t *testing.T) {
	cfg := writeConfig(t, smallDataset)
	out, err := run(t, "--config", cfg, "lookup", "--album", "Album 2", "--track", "0")
	require.NoError(t, err)

	var got struct {
		Track   *int     `json:"track"`
		Artists []string `json:"artists"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.Track)
	assert.Equal(t, 0, *got.Track)
	assert.Equal(t, []string{"Artist 0"}, got.Artists)
}

func TestLookupCmd_UnknownAlbumIsEmpty(t *testing.T) {
	cfg := writeConfig(t, smallDataset)
	out, err := run(t, "--config", cfg, "lookup", "--album", "Album 99")
	require.NoError(t, err)
	assert.Contains(t, out, `"artists": []`)
}

func TestLookupCmd_Errors(t *testing.T) {
	cfg := writeConfig(t, smallDataset)

	_, err := run(t, "--config", cfg, "lookup")
	assert.ErrorContains(t, err, "--album is required")

	_, err = run(t, "--config", cfg, "lookup", "--album", "Album 0", "--strategy", "btree")
	assert.Error(t, err)
}

func TestBenchCmd(t *testing.T) {
	cfg := writeConfig(t, smallDataset)
	out, err := run(t, "--config", cfg, "bench", "--strategy", "combined,flattened", "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "combined")
	assert.Contains(t, out, "flattened")
	assert.NotContains(t, out, "nested")
}

func TestSeedCmd_UnknownSink(t *testing.T) {
	cfg := writeConfig(t, smallDataset)
	_, err := run(t, "--config", cfg, "seed", "--sink", "s3")
	assert.ErrorContains(t, err, "unknown sink")
}

func TestLogClose(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	logClose("record source", func() error { return nil })
	assert.Empty(t, buf.String())

	logClose("record source", func() error { return errors.New("connection reset") })
	assert.Contains(t, buf.String(), "closing record source")
	assert.Contains(t, buf.String(), "connection reset")
}
