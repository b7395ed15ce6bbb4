package filerepo_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/assistantlabs/go-assistant-server/face"
	"github.com/assistantlabs/go-assistant-server/face/filerepo"
	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
)

func TestFileRepoPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	repo, err := filerepo.New(dir)
	require.NoError(t, err)

	record := &face.Record{
		Label:           "Alice",
		Embedding:       []float64{0.1, 0.2, 0.3},
		Notes:           "met at the conference",
		LastInteraction: time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC),
	}
	require.NoError(t, repo.Upsert(record))

	reopened, err := filerepo.New(dir)
	require.NoError(t, err)

	got, err := reopened.Get("Alice")
	require.NoError(t, err)
	require.Equal(t, record, got)
}

func TestFileRepoGetMissing(t *testing.T) {
	repo, err := filerepo.New(t.TempDir())
	require.NoError(t, err)

	_, err = repo.Get("Ghost")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFileRepoDelete(t *testing.T) {
	repo, err := filerepo.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(&face.Record{Label: "Alice", Embedding: []float64{0.1}}))
	require.NoError(t, repo.Delete("Alice"))

	_, err = repo.Get("Alice")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.ErrorIs(t, repo.Delete("Alice"), apperrors.ErrNotFound)
}

func TestFileRepoListSorted(t *testing.T) {
	repo, err := filerepo.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(&face.Record{Label: "Bob", Embedding: []float64{0.2}}))
	require.NoError(t, repo.Upsert(&face.Record{Label: "Alice", Embedding: []float64{0.1}}))

	records, err := repo.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Alice", records[0].Label)
	require.Equal(t, "Bob", records[1].Label)
}
