package face

// Repo stores enrolled face records keyed by label. The backing
// representation is an opaque blob; no compatibility guarantee is made for
// it.
type Repo interface {
	Get(label string) (*Record, error)
	Upsert(record *Record) error
	List() ([]*Record, error)
	Delete(label string) error
}
