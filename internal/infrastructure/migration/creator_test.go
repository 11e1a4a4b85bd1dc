package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add stock levels", "add_stock_levels"},
		{"Add-Tax-Rates", "add_tax_rates"},
		{"OUTBOX_EVENTS", "outbox_events"},
		{"order__comments", "order_comments"},
		{"Add Index 2", "add_index_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add stock levels", "Per-SKU stock and thresholds")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_stock_levels.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_stock_levels.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- add stock levels\n")
	assert.Contains(t, string(up), "-- Per-SKU stock and thresholds")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")

	second, err := CreateMigration(dir, "Add tax rates", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	assert.Equal(t, "000002_add_tax_rates", second.String())
}

func TestCreateMigration_InvalidName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")
	mf, err := CreateMigration(dir, "init", "")
	require.NoError(t, err)
	assert.FileExists(t, mf.UpPath)
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		migrations, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
		require.NoError(t, err)
		assert.Empty(t, migrations)
	})

	t.Run("sorted by version and ignores other files", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"000010_add_index.up.sql",
			"000010_add_index.down.sql",
			"000002_outbox_and_jobs.up.sql",
			"000002_outbox_and_jobs.down.sql",
			"000001_store_schema.up.sql",
			"README.md",
			"notes.up.sql",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
		}
		require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o755))

		migrations, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []Migration{
			{Version: 1, Name: "store_schema"},
			{Version: 2, Name: "outbox_and_jobs"},
			{Version: 10, Name: "add_index"},
		}, migrations)
	})

	t.Run("repository migrations parse", func(t *testing.T) {
		migrations, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
		require.NoError(t, err)
		require.Len(t, migrations, 3)
		assert.Equal(t, "000001_store_schema", migrations[0].String())
		assert.Equal(t, "000003_products", migrations[2].String())
	})
}
