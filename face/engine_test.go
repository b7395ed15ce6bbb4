package face_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/assistantlabs/go-assistant-server/face"
	"github.com/assistantlabs/go-assistant-server/face/repofake"
	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
)

func newTestEngine(t *testing.T, options ...face.EngineOption) (*face.Engine, *repofake.FakeFaceRepo) {
	t.Helper()
	repo := repofake.NewFakeFaceRepo()
	return face.NewEngine(repo, options...), repo
}

func TestMatchNoEnrollment(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Match([]float64{0.1, 0.2})
	require.ErrorIs(t, err, apperrors.ErrNoEnrollment, "empty set is a distinct no-data result, not Unknown")
}

func TestMatchWithinThreshold(t *testing.T) {
	engine, _ := newTestEngine(t)
	require.NoError(t, engine.Enroll("Alice", []float64{0.1, 0.2, 0.3}, ""))

	match, err := engine.Match([]float64{0.1, 0.2, 0.3})
	require.NoError(t, err)
	require.Equal(t, "Alice", match.Label)
	require.Zero(t, match.Distance)
	require.True(t, match.Known())
}

func TestMatchBeyondThreshold(t *testing.T) {
	engine, _ := newTestEngine(t)
	require.NoError(t, engine.Enroll("Alice", []float64{0, 0, 0}, ""))

	// Distance 0.9, threshold 0.5.
	match, err := engine.Match([]float64{0.9, 0, 0})
	require.NoError(t, err)
	require.Equal(t, face.Unknown, match.Label)
	require.InDelta(t, 0.9, match.Distance, 1e-9)
	require.False(t, match.Known())
}

func TestMatchPicksNearestNeighbor(t *testing.T) {
	engine, _ := newTestEngine(t)
	require.NoError(t, engine.Enroll("Alice", []float64{0, 0}, ""))
	require.NoError(t, engine.Enroll("Bob", []float64{0.3, 0}, ""))

	match, err := engine.Match([]float64{0.25, 0})
	require.NoError(t, err)
	require.Equal(t, "Bob", match.Label)
}

func TestMatchConfigurableThreshold(t *testing.T) {
	engine, _ := newTestEngine(t, face.WithThreshold(1.0))
	require.NoError(t, engine.Enroll("Alice", []float64{0, 0, 0}, ""))

	match, err := engine.Match([]float64{0.9, 0, 0})
	require.NoError(t, err)
	require.Equal(t, "Alice", match.Label, "0.9 is within a 1.0 threshold")
}

func TestMatchSkipsMismatchedEmbeddingLengths(t *testing.T) {
	engine, _ := newTestEngine(t)
	require.NoError(t, engine.Enroll("Short", []float64{0.1}, ""))
	require.NoError(t, engine.Enroll("Alice", []float64{0.1, 0.2}, ""))

	match, err := engine.Match([]float64{0.1, 0.2})
	require.NoError(t, err)
	require.Equal(t, "Alice", match.Label)
}

func TestEnrollReplacesNotDuplicates(t *testing.T) {
	engine, repo := newTestEngine(t)
	require.NoError(t, engine.Enroll("Alice", []float64{0.1, 0.2}, "note1"))
	require.NoError(t, engine.Enroll("Alice", []float64{0.3, 0.4}, "note2"))

	records, err := repo.List()
	require.NoError(t, err)
	require.Len(t, records, 1, "re-enrollment replaces, never duplicates")
	require.Equal(t, []float64{0.3, 0.4}, records[0].Embedding)
	require.Equal(t, "note2", records[0].Notes)
}

func TestEnrollKeepsNotesWhenNoneSupplied(t *testing.T) {
	engine, repo := newTestEngine(t)
	require.NoError(t, engine.Enroll("Alice", []float64{0.1, 0.2}, "met at the conference"))
	require.NoError(t, engine.Enroll("Alice", []float64{0.3, 0.4}, ""))

	record, err := repo.Get("Alice")
	require.NoError(t, err)
	require.Equal(t, []float64{0.3, 0.4}, record.Embedding, "embedding always replaced")
	require.Equal(t, "met at the conference", record.Notes, "recapture must not wipe the interaction log")
}

func TestEnrollEmptyEmbedding(t *testing.T) {
	engine, _ := newTestEngine(t)

	err := engine.Enroll("Alice", nil, "")
	require.ErrorIs(t, err, apperrors.ErrNoFaceDetected)
}

func TestRecordInteractionAppends(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	engine, repo := newTestEngine(t, face.WithNowFunc(func() time.Time { return now }))
	require.NoError(t, engine.Enroll("Alice", []float64{0.1}, "first note"))

	ok, err := engine.RecordInteraction("Alice", "talked about the demo")
	require.NoError(t, err)
	require.True(t, ok)

	record, err := repo.Get("Alice")
	require.NoError(t, err)
	require.Equal(t, "first note\n\n2025-03-14 15:09:26: talked about the demo", record.Notes)
	require.Equal(t, now, record.LastInteraction)
}

func TestRecordInteractionUnknownLabel(t *testing.T) {
	engine, repo := newTestEngine(t)
	require.NoError(t, engine.Enroll("Alice", []float64{0.1}, "note"))

	ok, err := engine.RecordInteraction("Ghost", "text")
	require.NoError(t, err)
	require.False(t, ok, "unenrolled label is a no-op, not a fatal error")

	record, err := repo.Get("Alice")
	require.NoError(t, err)
	require.Equal(t, "note", record.Notes, "nothing mutated")
}

func TestRemove(t *testing.T) {
	engine, repo := newTestEngine(t)
	require.NoError(t, engine.Enroll("Alice", []float64{0.1, 0.2}, "note"))

	require.NoError(t, engine.Remove("Alice"))

	_, err := repo.Get("Alice")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = engine.Match([]float64{0.1, 0.2})
	require.ErrorIs(t, err, apperrors.ErrNoEnrollment, "removing the last record empties the enrollment set")
}

func TestRemoveUnknownLabel(t *testing.T) {
	engine, _ := newTestEngine(t)

	err := engine.Remove("Ghost")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestNotes(t *testing.T) {
	engine, _ := newTestEngine(t)
	require.NoError(t, engine.Enroll("Alice", []float64{0.1}, "remembers birthdays"))

	notes, err := engine.Notes("Alice")
	require.NoError(t, err)
	require.Equal(t, "remembers birthdays", notes)

	_, err = engine.Notes("Ghost")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
