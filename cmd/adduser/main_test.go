package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/storage"
)

// adduser runs the tool against a fresh SQLite file and returns its stdout.
func adduser(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	err := run(args, bytes.NewBufferString(stdin), stdout, stderr)
	return stdout.String(), err
}

func TestRun_CreatesLoginableUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")

	out, err := adduser(t, "", "-user", "  ann@example.com ", "-password", "secret", "-db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "User ann@example.com created with ID 1 (1 accounts in sqlite database)")

	db, err := storage.NewDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	user, err := db.GetUserByEmail("ann@example.com")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword("secret", user.PasswordHash))
}

func TestRun_DuplicateUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")
	args := []string{"-user", "ann@example.com", "-password", "secret", "-db", dbPath}

	_, err := adduser(t, "", args...)
	require.NoError(t, err)

	_, err = adduser(t, "", args...)
	require.Error(t, err)
	assert.Equal(t, "user ann@example.com already exists", err.Error())

	out, err := adduser(t, "", "-user", "bob@example.com", "-password", "secret", "-db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "(2 accounts in sqlite database)")
}

func TestRun_InvalidEmail(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")

	for _, email := range []string{"ann", "Ann <ann@example.com>", "ann@"} {
		_, err := adduser(t, "", "-user", email, "-password", "secret", "-db", dbPath)
		require.Error(t, err, email)
		assert.ErrorIs(t, err, auth.ErrInvalidEmail, email)
	}
	assert.NoFileExists(t, dbPath, "nothing is opened before the email is accepted")
}

func TestRun_MissingUserFlag(t *testing.T) {
	out, err := adduser(t, "", "-password", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required flags: user")
	assert.Contains(t, out, "Usage:")
}

func TestRun_InteractivePassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")

	out, err := adduser(t, "interactive_secret\n", "-user", "interactive@example.com", "-db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, "User interactive@example.com created")
}

func TestRun_InteractivePassword_Empty(t *testing.T) {
	_, err := adduser(t, "\n", "-user", "empty@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password cannot be empty")
}

func TestRun_ServerEnvironment(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", dbPath)

	stdout := new(bytes.Buffer)
	err := run([]string{"-user", "env@example.com", "-password", "secret"}, new(bytes.Buffer), stdout, new(bytes.Buffer))
	require.NoError(t, err)
	assert.FileExists(t, dbPath)
}

func TestRun_UnsupportedEnvironmentDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	err := run([]string{"-user", "ann@example.com", "-password", "secret"}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading environment")
}

func TestRun_UnknownDriverFlag(t *testing.T) {
	_, err := adduser(t, "", "-user", "ann@example.com", "-password", "secret", "-driver", "mysql", "-db", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestRun_InvalidDBPath(t *testing.T) {
	_, err := adduser(t, "", "-user", "fail@example.com", "-password", "secret", "-db", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestRun_InvalidFlag(t *testing.T) {
	_, err := adduser(t, "", "-invalid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag provided but not defined")
}
