package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/odyssey/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add users table", "add_users_table"},
		{"Add-Refresh-Tokens", "add_refresh_tokens"},
		{"ADD_USERS_TABLE", "add_users_table"},
		{"add__users__table", "add_users_table"},
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

	t.Run("first migration starts at 1", func(t *testing.T) {
		mf, err := CreateMigration(dir, "create users", "users table")
		require.NoError(t, err)
		assert.EqualValues(t, 1, mf.Version)
		assert.Equal(t, "000001_create_users.up.sql", filepath.Base(mf.UpPath))
		assert.Equal(t, "000001_create_users.down.sql", filepath.Base(mf.DownPath))

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "-- Migration: create_users")
		assert.Contains(t, string(up), "-- users table")

		down, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "-- Rollback: create_users")
	})

	t.Run("next migration increments", func(t *testing.T) {
		mf, err := CreateMigration(dir, "Add-Sessions", "")
		require.NoError(t, err)
		assert.EqualValues(t, 2, mf.Version)
		assert.Equal(t, "000002_add_sessions.up.sql", filepath.Base(mf.UpPath))
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		_, err := CreateMigration(dir, "!!!", "")
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("orders by version and ignores noise", func(t *testing.T) {
		fsys := fstest.MapFS{
			"000010_later.up.sql":   {},
			"000010_later.down.sql": {},
			"000002_second.up.sql":  {},
			"README.md":             {},
			"notaversion.up.sql":    {},
			"abc_bad.up.sql":        {},
		}

		list, err := ListMigrations(fsys)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, Entry{Version: 2, Name: "second"}, list[0])
		assert.Equal(t, Entry{Version: 10, Name: "later"}, list[1])
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		list, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "missing")))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("embedded schema", func(t *testing.T) {
		list, err := ListMigrations(migrations.FS)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "create_users", list[0].Name)
		assert.Equal(t, "create_refresh_tokens", list[1].Name)
	})
}
