package face

import (
	"math"
	"time"

	"github.com/pkg/errors"

	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
)

// DefaultThreshold is the maximum Euclidean distance still accepted as a
// match. Inherited from the embedding model's usual operating point; tune
// per deployment via WithThreshold.
const DefaultThreshold = 0.5

// Engine classifies face embeddings against a set of enrolled records.
// Matching is a linear nearest-neighbor scan: enrollment counts are tens,
// not thousands, so no index structure is kept.
type Engine struct {
	repo      Repo
	threshold float64
	nowFunc   func() time.Time
}

type EngineOption func(*Engine)

func WithThreshold(threshold float64) EngineOption {
	return func(e *Engine) {
		if threshold > 0 {
			e.threshold = threshold
		}
	}
}

func WithNowFunc(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.nowFunc = now
	}
}

func NewEngine(repo Repo, options ...EngineOption) *Engine {
	e := &Engine{
		repo:      repo,
		threshold: DefaultThreshold,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.nowFunc == nil {
		e.nowFunc = time.Now
	}
	return e
}

// Enroll inserts or replaces the record for a label. The embedding is
// always replaced; notes are replaced only when a non-empty value is
// supplied, so a recapture does not wipe the accumulated interaction log.
func (e *Engine) Enroll(label string, embedding []float64, notes string) error {
	if label == "" {
		return errors.Wrap(apperrors.ErrInvalidRequest, "Engine.Enroll empty label")
	}
	if len(embedding) == 0 {
		return apperrors.ErrNoFaceDetected
	}

	record := &Record{
		Label:           label,
		Embedding:       embedding,
		Notes:           notes,
		LastInteraction: e.nowFunc(),
	}

	if existing, err := e.repo.Get(label); err == nil && existing != nil {
		if notes == "" {
			record.Notes = existing.Notes
		}
	}

	if err := e.repo.Upsert(record); err != nil {
		return errors.Wrap(err, "Engine.Enroll Upsert")
	}
	return nil
}

// Match finds the enrolled record nearest to the probe embedding. The label
// is returned only when the minimum distance is within the threshold;
// otherwise the Unknown sentinel is returned with the distance that was
// measured. An empty enrollment set is ErrNoEnrollment so callers can
// prompt for enrollment rather than claim a vacuous no-match.
func (e *Engine) Match(embedding []float64) (Match, error) {
	records, err := e.repo.List()
	if err != nil {
		return Match{}, errors.Wrap(err, "Engine.Match List")
	}
	if len(records) == 0 {
		return Match{}, apperrors.ErrNoEnrollment
	}

	best := Match{Label: Unknown, Distance: math.Inf(1)}
	for _, record := range records {
		distance, ok := euclidean(embedding, record.Embedding)
		if !ok {
			// Embedding lengths differ, comparison is meaningless. Skip.
			continue
		}
		if distance < best.Distance {
			best = Match{Label: record.Label, Distance: distance}
		}
	}

	if math.IsInf(best.Distance, 1) {
		return Match{}, errors.Wrap(apperrors.ErrInvalidRequest, "Engine.Match no comparable embeddings")
	}
	if best.Distance > e.threshold {
		return Match{Label: Unknown, Distance: best.Distance}, nil
	}
	return best, nil
}

// RecordInteraction appends a timestamped line to the record's notes.
// Returns false without error when the label is not enrolled.
func (e *Engine) RecordInteraction(label, text string) (bool, error) {
	record, err := e.repo.Get(label)
	if err != nil || record == nil {
		if err == nil || apperrors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, errors.Wrap(err, "Engine.RecordInteraction Get")
	}

	now := e.nowFunc()
	entry := now.Format("2006-01-02 15:04:05") + ": " + text
	if record.Notes == "" {
		record.Notes = entry
	} else {
		record.Notes += "\n\n" + entry
	}
	record.LastInteraction = now

	if err := e.repo.Upsert(record); err != nil {
		return false, errors.Wrap(err, "Engine.RecordInteraction Upsert")
	}
	return true, nil
}

// Remove un-enrolls a label, discarding its embedding and interaction log.
// ErrNotFound when the label was never enrolled.
func (e *Engine) Remove(label string) error {
	if err := e.repo.Delete(label); err != nil {
		return errors.Wrap(err, "Engine.Remove Delete")
	}
	return nil
}

// Notes returns the free-text notes for a label, or ErrNotFound.
func (e *Engine) Notes(label string) (string, error) {
	record, err := e.repo.Get(label)
	if err != nil {
		return "", errors.Wrap(err, "Engine.Notes Get")
	}
	if record == nil {
		return "", apperrors.ErrNotFound
	}
	return record.Notes, nil
}

// Enrolled lists all enrolled records.
func (e *Engine) Enrolled() ([]*Record, error) {
	records, err := e.repo.List()
	if err != nil {
		return nil, errors.Wrap(err, "Engine.Enrolled List")
	}
	return records, nil
}

func euclidean(a, b []float64) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), true
}
