package syncdeck

import (
	"sync"

	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/storage"
)

// NewSQLiteStorage opens the gorm/sqlite project store at dbPath.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return storage.NewDBClientWithPath(dbPath)
}

// cachedRegistry memoizes registry lookups. Media metadata never changes
// after registration, and the store looks media up on every trim.
type cachedRegistry struct {
	next MediaRegistry

	mu    sync.RWMutex
	files map[string]models.MediaFile
}

func newCachedRegistry(next MediaRegistry) *cachedRegistry {
	return &cachedRegistry{next: next, files: make(map[string]models.MediaFile)}
}

func (r *cachedRegistry) GetFile(mediaID string) (models.MediaFile, error) {
	r.mu.RLock()
	f, ok := r.files[mediaID]
	r.mu.RUnlock()
	if ok {
		return f, nil
	}

	f, err := r.next.GetFile(mediaID)
	if err != nil {
		return models.MediaFile{}, err
	}
	r.mu.Lock()
	r.files[mediaID] = f
	r.mu.Unlock()
	return f, nil
}

func (r *cachedRegistry) forget(mediaID string) {
	r.mu.Lock()
	delete(r.files, mediaID)
	r.mu.Unlock()
}
