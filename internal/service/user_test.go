package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdeck/paperdeck/internal/assets"
	"github.com/paperdeck/paperdeck/internal/domain"
)

func writeAllowList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "allowed_users.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAllowListParsing(t *testing.T) {
	al := NewAllowList(writeAllowList(t, "alice\n# comment\n\n  bob  \n"))

	assert.True(t, al.Contains("alice"))
	assert.True(t, al.Contains("bob"))
	assert.False(t, al.Contains("# comment"))
	assert.False(t, al.Contains("mallory"))
}

func TestAllowListMissingFileAllowsNobody(t *testing.T) {
	al := NewAllowList(filepath.Join(t.TempDir(), "missing.txt"))
	assert.False(t, al.Contains("alice"))
}

func TestUserCheckAndCreate(t *testing.T) {
	store, err := assets.NewStore(t.TempDir())
	require.NoError(t, err)
	svc := NewUserService(store, NewAllowList(writeAllowList(t, "alice\n")))

	exists, err := svc.Check("alice")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, svc.Create("alice"))

	exists, err = svc.Check("alice")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserNotOnAllowList(t *testing.T) {
	store, err := assets.NewStore(t.TempDir())
	require.NoError(t, err)
	svc := NewUserService(store, NewAllowList(writeAllowList(t, "alice\n")))

	_, err = svc.Check("mallory")
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))

	err = svc.Create("mallory")
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))

	err = svc.Create("../alice")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}
