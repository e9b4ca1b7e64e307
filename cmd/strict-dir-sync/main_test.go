package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, dir := range []string{"/src", "/replica", "/src/nested"} {
		require.NoError(t, fs.MkdirAll(dir, 0755))
	}
	require.NoError(t, afero.WriteFile(fs, "/file", []byte("x"), 0644))

	valid := func() syncConfig {
		return syncConfig{
			sourcePath:  "/src",
			replicaPath: "/replica",
			logPath:     "/sync.log",
			interval:    5 * time.Second,
			algorithm:   "md5",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*syncConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(c *syncConfig) {}},
		{name: "missing source", mutate: func(c *syncConfig) { c.sourcePath = "/nope" }, wantErr: "source folder does not exist"},
		{name: "missing replica", mutate: func(c *syncConfig) { c.replicaPath = "/nope" }, wantErr: "replica folder does not exist"},
		{name: "replica is a file", mutate: func(c *syncConfig) { c.replicaPath = "/file" }, wantErr: "replica folder does not exist"},
		{name: "empty log path", mutate: func(c *syncConfig) { c.logPath = "" }, wantErr: "required"},
		{name: "same folder", mutate: func(c *syncConfig) { c.replicaPath = "/src/" }, wantErr: "must be different"},
		{name: "replica inside source", mutate: func(c *syncConfig) { c.replicaPath = "/src/nested" }, wantErr: "must not be inside the source"},
		{name: "source inside replica", mutate: func(c *syncConfig) { c.sourcePath = "/src/nested"; c.replicaPath = "/src" }, wantErr: "must not be inside the replica"},
		{name: "log inside replica", mutate: func(c *syncConfig) { c.logPath = "/replica/sync.log" }, wantErr: "log file must not be inside"},
		{name: "log inside source", mutate: func(c *syncConfig) { c.logPath = "/src/nested/sync.log" }, wantErr: "log file must not be inside"},
		{name: "log next to roots", mutate: func(c *syncConfig) { c.logPath = "/logs/sync.log" }},
		{name: "zero interval", mutate: func(c *syncConfig) { c.interval = 0 }, wantErr: "interval must be positive"},
		{name: "unknown checksum", mutate: func(c *syncConfig) { c.algorithm = "crc32" }, wantErr: "unsupported checksum algorithm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := validateConfig(fs, &cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestIsWithin(t *testing.T) {
	assert.True(t, isWithin("/a", "/a/b"))
	assert.True(t, isWithin("/a", "/a/b/c"))
	assert.False(t, isWithin("/a", "/a"))
	assert.False(t, isWithin("/a", "/ab"))
	assert.False(t, isWithin("/a/b", "/a"))
	assert.True(t, isWithin("/a", "/a/..b"))
}

func TestValidateConfigLogBehindSymlink(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	replica := filepath.Join(root, "replica")
	require.NoError(t, os.MkdirAll(src, 0755))
	require.NoError(t, os.MkdirAll(replica, 0755))
	logDir := filepath.Join(root, "logs")
	if err := os.Symlink(replica, logDir); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	cfg := syncConfig{
		sourcePath:  src,
		replicaPath: replica,
		logPath:     filepath.Join(logDir, "sync.log"),
		interval:    time.Second,
		algorithm:   "md5",
	}
	assert.ErrorContains(t, validateConfig(afero.NewOsFs(), &cfg), "log file must not be inside")
}

func TestRootCmdRequiresThreeArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"/only", "/two"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "accepts 3 arg(s)")
}

func TestRootCmdOnce(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	replica := filepath.Join(root, "replica")
	logFile := filepath.Join(root, "sync.log")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "a"), 0755))
	require.NoError(t, os.MkdirAll(replica, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a", "x.txt"), []byte("hi"), 0644))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--once", "--quiet", src, replica, logFile})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	data, err := os.ReadFile(filepath.Join(replica, "a", "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	logData, err := os.ReadFile(logFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(logData), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], ": Copied: "+filepath.Join("a", "x.txt")))
}

func TestRootCmdStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	replica := filepath.Join(root, "replica")
	require.NoError(t, os.MkdirAll(src, 0755))
	require.NoError(t, os.MkdirAll(replica, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "x.txt"), []byte("hi"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--quiet", "--interval", "1h", src, replica, filepath.Join(root, "sync.log")})
		done <- cmd.ExecuteContext(ctx)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(replica, "x.txt"))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("sync loop did not stop after cancellation")
	}
}
