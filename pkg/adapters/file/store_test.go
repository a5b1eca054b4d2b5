package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techiemaya-admin/lad-onboarding/pkg/adapters/file"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/ports"
)

var _ ports.SessionStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_OverwriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	s := domain.NewSession("overwrite", time.Now())
	require.NoError(t, store.Save(ctx, s.ID, s))
	s.State = domain.StatePlatformSelection
	require.NoError(t, store.Save(ctx, s.ID, s))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "overwrite.json", entries[0].Name())

	loaded, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePlatformSelection, loaded.State)
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	err := store.Save(ctx, "../escape", domain.NewSession("x", time.Now()))
	assert.Error(t, err)
	_, err = store.Load(ctx, "")
	assert.Error(t, err)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nope"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
