package blob

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a map-backed object store used in tests and when
// running without external storage
type MemoryStore struct {
	objects map[string]*Object
	mu      sync.RWMutex
}

// NewMemoryStore creates an in-memory object store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]*Object),
	}
}

// Put stores a copy of data under key
func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)

	s.objects[key] = &Object{
		ObjectInfo: ObjectInfo{
			Key:         key,
			SizeBytes:   int64(len(data)),
			ContentType: opts.ContentType,
			AccessTier:  opts.AccessTier,
			CreatedBy:   opts.CreatedBy,
			CreatedAt:   time.Now().UTC(),
		},
		Data: buf,
	}
	return nil
}

// Get retrieves an object by key
func (s *MemoryStore) Get(ctx context.Context, key string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}

	out := *obj
	out.Data = make([]byte, len(obj.Data))
	copy(out.Data, obj.Data)
	return &out, nil
}

// Stat retrieves object metadata by key
func (s *MemoryStore) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	info := obj.ObjectInfo
	return &info, nil
}

// Exists checks whether a key is present
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[key]
	return ok, nil
}

// List returns metadata for all objects whose key starts with prefix,
// ordered by key
func (s *MemoryStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var infos []ObjectInfo
	for key, obj := range s.objects {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, obj.ObjectInfo)
		}
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// Delete removes an object; deleting an absent key is not an error
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// Close clears the store
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects = make(map[string]*Object)
	return nil
}

// SetCreatedAt overrides an object's creation timestamp. Test helper for
// exercising age-based lifecycle rules.
func (s *MemoryStore) SetCreatedAt(key string, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if obj, ok := s.objects[key]; ok {
		obj.CreatedAt = t
	}
}
