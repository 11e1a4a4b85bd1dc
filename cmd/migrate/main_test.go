package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func TestNewLogger(t *testing.T) {
	log, err := newLogger("debug")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = newLogger("bogus")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestRunCreateAndList(t *testing.T) {
	dir := t.TempDir()
	log := zaptest.NewLogger(t)

	require.NoError(t, run(log, dir, []string{"create", "add_gift_wrap", "gift wrap line items"}, false))
	matches, err := filepath.Glob(filepath.Join(dir, "000001_add_gift_wrap.*.sql"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	assert.NoError(t, run(log, dir, []string{"list"}, false))
}

func TestRunUsageErrors(t *testing.T) {
	log := zaptest.NewLogger(t)
	err := run(log, t.TempDir(), []string{"create"}, false)
	assert.True(t, errors.Is(err, errUsage))

	_, err = intArg([]string{"step"}, "step <n>")
	assert.True(t, errors.Is(err, errUsage))
	_, err = intArg([]string{"step", "two"}, "step <n>")
	assert.True(t, errors.Is(err, errUsage))
	n, err := intArg([]string{"step", "-2"}, "step <n>")
	require.NoError(t, err)
	assert.Equal(t, -2, n)
}

func TestResolveMigrationsPath(t *testing.T) {
	dir := t.TempDir()
	path, err := resolveMigrationsPath(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, path)
}
