// Package boltstore is a state.Storage kept in a local bbolt file. Writes
// carrying an ETag are rejected when the stored document has moved on.
package boltstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/SaratA8717/Botbuilder-samples/internal/state"
)

// DefaultBucket holds every document.
const DefaultBucket = "botstate"

type document struct {
	Value json.RawMessage `json:"value"`
	ETag  string          `json:"eTag"`
}

// Storage is a bbolt backed state.Storage.
type Storage struct {
	filename string
	bucket   []byte
	db       *bolt.DB
}

// Open opens or creates the database file.
func Open(filename string) (*Storage, error) {
	if filename == "" {
		return nil, errors.New("boltstore: filename is required")
	}
	db, err := bolt.Open(filename, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", filename, err)
	}

	s := &Storage{filename: filename, bucket: []byte(DefaultBucket), db: db}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("boltstore: create bucket: %w", err)
	}
	return s, nil
}

// Close releases the database file.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Read returns the stored documents for keys.
func (s *Storage) Read(ctx context.Context, keys []string) (map[string]state.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]state.Item, len(keys))
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for _, k := range keys {
			bs := b.Get([]byte(k))
			if bs == nil {
				continue
			}
			var doc document
			if err := json.Unmarshal(bs, &doc); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			out[k] = state.Item{Value: doc.Value, ETag: doc.ETag}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: read: %w", err)
	}
	return out, nil
}

// Write stores every change in one transaction. A stale ETag aborts the
// whole write with state.ErrPreconditionFailed.
func (s *Storage) Write(ctx context.Context, changes map[string]*state.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tags := make(map[string]string, len(changes))
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for k, item := range changes {
			if item == nil {
				continue
			}
			key := []byte(k)
			var current document
			bs := b.Get(key)
			if bs != nil {
				if err := json.Unmarshal(bs, &current); err != nil {
					return fmt.Errorf("decode %s: %w", k, err)
				}
			}
			if !state.CheckETag(item.ETag, current.ETag, bs != nil) {
				return fmt.Errorf("%s: %w", k, state.ErrPreconditionFailed)
			}

			doc := document{Value: item.Value, ETag: state.NewETag()}
			js, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("encode %s: %w", k, err)
			}
			if err := b.Put(key, js); err != nil {
				return err
			}
			tags[k] = doc.ETag
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("boltstore: write: %w", err)
	}
	for k, tag := range tags {
		changes[k].ETag = tag
	}
	return nil
}

// Delete removes keys.
func (s *Storage) Delete(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("boltstore: delete: %w", err)
	}
	return nil
}
