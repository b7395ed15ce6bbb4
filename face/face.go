package face

import "time"

// Unknown is the sentinel label returned when the best match is further
// than the threshold. It is distinct from the no-enrollment case, which is
// reported as an error so callers can prompt for enrollment instead.
const Unknown = "Unknown"

// Record is one enrolled face. Labels are unique: enrolling again under the
// same label replaces the earlier record.
type Record struct {
	Label string `json:"label"`

	// Embedding is the fixed-length descriptor produced by the client-side
	// embedding model. Its length is decided by that model, not by us.
	Embedding []float64 `json:"embedding"`

	// Notes is a free-text, append-only interaction log.
	Notes string `json:"notes,omitempty"`

	LastInteraction time.Time `json:"lastInteraction,omitempty"`
}

// Match is the outcome of classifying one embedding.
type Match struct {
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
}

// Known reports whether the match resolved to an enrolled face.
func (m Match) Known() bool {
	return m.Label != Unknown
}
