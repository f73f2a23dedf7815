package repository

import (
	"context"
	"sync"

	"github.com/fathima-sithara/files-service/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryFileStore keeps documents in insertion order. Safe for concurrent use.
type MemoryFileStore struct {
	mu    sync.RWMutex
	files []*models.File
	byID  map[primitive.ObjectID]*models.File
}

func NewMemoryFileStore() *MemoryFileStore {
	return &MemoryFileStore{byID: make(map[primitive.ObjectID]*models.File)}
}

func (m *MemoryFileStore) Insert(_ context.Context, f *models.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	cp := *f
	m.files = append(m.files, &cp)
	m.byID[cp.ID] = &cp
	return nil
}

func (m *MemoryFileStore) FindOwned(_ context.Context, id, ownerID primitive.ObjectID) (*models.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.byID[id]
	if !ok || f.UserID != ownerID {
		return nil, ErrFileNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *MemoryFileStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.byID[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *MemoryFileStore) ListChildren(_ context.Context, ownerID primitive.ObjectID, parent models.ParentID, skip, limit int64) ([]*models.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.File{}
	var seen int64
	for _, f := range m.files {
		if f.UserID != ownerID || f.ParentID != parent {
			continue
		}
		seen++
		if seen <= skip {
			continue
		}
		if int64(len(out)) >= limit {
			break
		}
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryFileStore) SetPublic(_ context.Context, id, ownerID primitive.ObjectID, value bool) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.byID[id]
	if !ok || f.UserID != ownerID {
		return nil, ErrFileNotFound
	}
	f.IsPublic = value
	cp := *f
	return &cp, nil
}

func (m *MemoryFileStore) Count(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.files)), nil
}

var _ FileStore = (*MemoryFileStore)(nil)
