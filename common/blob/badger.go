package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/clinovia/contentvault/common/logger"
)

// BadgerStore is an embedded object store backed by BadgerDB. It serves
// two roles: the primary store for self-contained deployments, and the
// cold-storage location the lifecycle manager archives into before
// deleting from the primary store.
type BadgerStore struct {
	db  *badger.DB
	log *logger.Logger
}

// NewBadgerStore opens (or creates) a Badger database at path
func NewBadgerStore(path string, log *logger.Logger) (*BadgerStore, error) {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create badger directory %s: %w", path, err)
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	// Blob payloads are large; keep the value log files small so
	// compaction reclaims deleted content promptly.
	opts.ValueLogFileSize = 256 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store at %s: %w", path, err)
	}

	log.Info("badger object store opened", "path", path)

	return &BadgerStore{
		db:  db,
		log: log,
	}, nil
}

// Put stores an object envelope under key
func (s *BadgerStore) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	obj := &Object{
		ObjectInfo: ObjectInfo{
			Key:         key,
			SizeBytes:   int64(len(data)),
			ContentType: opts.ContentType,
			AccessTier:  opts.AccessTier,
			CreatedBy:   opts.CreatedBy,
			CreatedAt:   time.Now().UTC(),
		},
		Data: data,
	}

	encoded, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to encode object %s: %w", key, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encoded)
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	s.log.Debug("badger put", "key", key, "size", len(data))
	return nil
}

// Get retrieves an object by key
func (s *BadgerStore) Get(ctx context.Context, key string) (*Object, error) {
	var obj Object
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &obj)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	return &obj, nil
}

// Stat retrieves object metadata by key
func (s *BadgerStore) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	obj, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	info := obj.ObjectInfo
	return &info, nil
}

// Exists checks whether a key is present
func (s *BadgerStore) Exists(ctx context.Context, key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check object %s: %w", key, err)
	}
	return true, nil
}

// List returns metadata for all objects under prefix, ordered by key
func (s *BadgerStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var infos []ObjectInfo

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var obj Object
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &obj)
			})
			if err != nil {
				return err
			}
			infos = append(infos, obj.ObjectInfo)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
	}

	return infos, nil
}

// Delete removes an object; deleting an absent key is not an error
func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	s.log.Debug("badger delete", "key", key)
	return nil
}

// Close closes the underlying database
func (s *BadgerStore) Close() error {
	s.log.Info("closing badger object store")
	return s.db.Close()
}
