package filerepo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/assistantlabs/go-assistant-server/face"
	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
)

// FileRepo persists enrolled faces as one JSON blob on disk. The blob is an
// implementation detail with no compatibility guarantee.
type FileRepo struct {
	mu      sync.RWMutex
	path    string
	records map[string]*face.Record
}

var _ face.Repo = (*FileRepo)(nil)

func New(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "filerepo.New MkdirAll")
	}
	r := &FileRepo{
		path:    filepath.Join(dataDir, "faces.json"),
		records: map[string]*face.Record{},
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRepo) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "FileRepo.load ReadFile")
	}

	var loaded []*face.Record
	if err := json.Unmarshal(b, &loaded); err != nil {
		return errors.Wrap(err, "FileRepo.load Unmarshal")
	}
	for _, record := range loaded {
		r.records[record.Label] = record
	}
	return nil
}

// save writes the whole blob. Called with the write lock held.
func (r *FileRepo) save() error {
	records := make([]*face.Record, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Label < records[j].Label })

	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "FileRepo.save Marshal")
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return errors.Wrap(err, "FileRepo.save WriteFile")
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return errors.Wrap(err, "FileRepo.save Rename")
	}
	return nil
}

func (r *FileRepo) Get(label string) (*face.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[label]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (r *FileRepo) Upsert(record *face.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *record
	r.records[record.Label] = &clone
	return r.save()
}

func (r *FileRepo) List() ([]*face.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*face.Record, 0, len(r.records))
	for _, record := range r.records {
		clone := *record
		records = append(records, &clone)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Label < records[j].Label })
	return records, nil
}

func (r *FileRepo) Delete(label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[label]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.records, label)
	return r.save()
}
