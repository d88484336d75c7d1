package envfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		secret, err := GenerateSecret()
		require.NoError(t, err)
		require.Len(t, secret, SecretLength)
		for _, r := range secret {
			assert.True(t, strings.ContainsRune(SecretAlphabet, r), "unexpected character %q", r)
		}
		seen[secret] = true
	}
	assert.Greater(t, len(seen), 190, "secrets should not repeat")
}

func TestMaterialize_FreshRun(t *testing.T) {
	dir := t.TempDir()
	m := NewMaterializer(dir, ".env.example", ".env.local")

	outcome, err := m.Materialize()
	require.NoError(t, err)
	assert.True(t, outcome.TemplateCreated)
	assert.True(t, outcome.LocalCreated)

	template, err := os.ReadFile(filepath.Join(dir, ".env.example"))
	require.NoError(t, err)
	local, err := os.ReadFile(filepath.Join(dir, ".env.local"))
	require.NoError(t, err)

	assert.Equal(t, string(template), string(local))
	assert.Contains(t, string(template), "###> symfony/framework-bundle ###\nAPP_ENV=dev\nAPP_SECRET=")

	empty, err := m.Inspect(SecretKey)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMaterialize_CopiesExistingTemplate(t *testing.T) {
	dir := t.TempDir()
	content := "APP_ENV=prod\nDATABASE_URL=postgres://db\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.example"), []byte(content), 0o644))

	m := NewMaterializer(dir, ".env.example", ".env.local")
	m.Secret = func() (string, error) {
		t.Fatal("secret should not be generated when the template exists")
		return "", nil
	}

	outcome, err := m.Materialize()
	require.NoError(t, err)
	assert.False(t, outcome.TemplateCreated)
	assert.True(t, outcome.LocalCreated)

	local, err := os.ReadFile(filepath.Join(dir, ".env.local"))
	require.NoError(t, err)
	assert.Equal(t, content, string(local))
}

func TestMaterialize_Idempotent(t *testing.T) {
	dir := t.TempDir()
	m := NewMaterializer(dir, ".env.example", ".env.local")

	_, err := m.Materialize()
	require.NoError(t, err)

	localPath := filepath.Join(dir, ".env.local")
	edited := "APP_SECRET=mine\nEXTRA=1\n"
	require.NoError(t, os.WriteFile(localPath, []byte(edited), 0o600))

	for i := 0; i < 2; i++ {
		outcome, err := m.Materialize()
		require.NoError(t, err)
		assert.False(t, outcome.TemplateCreated)
		assert.False(t, outcome.LocalCreated)
	}

	got, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Equal(t, edited, string(got))
}

func TestMaterialize_SecretFailure(t *testing.T) {
	m := NewMaterializer(t.TempDir(), ".env.example", ".env.local")
	m.Secret = func() (string, error) { return "", errors.New("no entropy") }

	_, err := m.Materialize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entropy")
}

func TestInspect_ReportsEmptyAndAbsentKeys(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("APP_ENV=dev\nAPP_SECRET=\n"), 0o644))

	m := NewMaterializer(dir, ".env.example", ".env.local")
	empty, err := m.Inspect(SecretKey, "APP_ENV", "MISSING")
	require.NoError(t, err)
	assert.Equal(t, []string{SecretKey, "MISSING"}, empty)
}

func TestNewMaterializer_AbsolutePaths(t *testing.T) {
	m := NewMaterializer("/project", "/etc/app/.env", "relative/.env.local")
	assert.Equal(t, "/etc/app/.env", m.TemplatePath)
	assert.Equal(t, filepath.Join("/project", "relative/.env.local"), m.LocalPath)
}
