package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "lines"

// Bolt implements Cache in a BoltDB file
type Bolt struct {
	db  *bbolt.DB
	ttl time.Duration
	now func() time.Time
}

type boltEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewBolt opens (or creates) the cache file at path
func NewBolt(path string, ttl time.Duration) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Bolt{db: db, ttl: ttl, now: time.Now}, nil
}

// Get retrieves a value; expired entries are reported as missing
func (b *Bolt) Get(key string) ([]byte, bool) {
	var entry boltEntry
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("cache entry not found: %s", key)
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, false
	}
	if !entry.ExpiresAt.IsZero() && b.now().After(entry.ExpiresAt) {
		_ = b.Delete(key)
		return nil, false
	}
	return entry.Data, true
}

// Set stores a value; a zero ttl uses the default, and a zero default never expires
func (b *Bolt) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = b.ttl
	}
	entry := boltEntry{Data: value}
	if ttl > 0 {
		entry.ExpiresAt = b.now().Add(ttl)
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling cache entry: %w", err)
		}
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), data)
	})
}

// Delete removes a value
func (b *Bolt) Delete(key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key))
	})
}

// Clear removes every value
func (b *Bolt) Clear() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
}

// Close closes the database file
func (b *Bolt) Close() error {
	return b.db.Close()
}
