package repofake

import (
	"sort"
	"sync"

	"github.com/assistantlabs/go-assistant-server/face"
	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
)

var _ face.Repo = (*FakeFaceRepo)(nil)

type FakeFaceRepo struct {
	records map[string]*face.Record
	lock    sync.RWMutex
}

func NewFakeFaceRepo() *FakeFaceRepo {
	return &FakeFaceRepo{
		records: make(map[string]*face.Record),
	}
}

func (fr *FakeFaceRepo) Get(label string) (*face.Record, error) {
	fr.lock.RLock()
	defer fr.lock.RUnlock()

	record, ok := fr.records[label]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (fr *FakeFaceRepo) Upsert(record *face.Record) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	clone := *record
	fr.records[record.Label] = &clone
	return nil
}

func (fr *FakeFaceRepo) List() ([]*face.Record, error) {
	fr.lock.RLock()
	defer fr.lock.RUnlock()

	records := make([]*face.Record, 0, len(fr.records))
	for _, record := range fr.records {
		clone := *record
		records = append(records, &clone)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Label < records[j].Label })
	return records, nil
}

func (fr *FakeFaceRepo) Delete(label string) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	if _, ok := fr.records[label]; !ok {
		return apperrors.ErrNotFound
	}
	delete(fr.records, label)
	return nil
}
