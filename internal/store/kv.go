// Package store persists serialised version histories, content chunks and
// node settings in a single bbolt file.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// Buckets
var (
	BucketAccounts = []byte("accounts") // account -> nested bucket of object name -> history
	BucketChunks   = []byte("chunks")   // blake3 -> framed content
	BucketConfig   = []byte("config")   // node settings
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrCorrupt  = errors.New("store: corrupt value")
)

// Options tune how values are written. Reads accept either encoding.
type Options struct {
	Compress bool
}

type DB struct {
	*bbolt.DB
	opts Options
}

func Open(path string, opts Options) (*DB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	// Ensure buckets exist
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{BucketAccounts, BucketChunks, BucketConfig} {
			if _, e := tx.CreateBucketIfNotExists(name); e != nil {
				return e
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{DB: db, opts: opts}, nil
}

func (db *DB) Close() error { return db.DB.Close() }

// PutVersions stores the serialised history of object under account.
func (db *DB) PutVersions(account, object string, serialised []byte) error {
	if account == "" || object == "" {
		return fmt.Errorf("store: empty account or object name")
	}
	value, err := encodeValue(serialised, db.opts.Compress)
	if err != nil {
		return err
	}
	return db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(BucketAccounts).CreateBucketIfNotExists([]byte(account))
		if err != nil {
			return err
		}
		return b.Put([]byte(object), value)
	})
}

// GetVersions returns the serialised history of object, or ErrNotFound.
func (db *DB) GetVersions(account, object string) ([]byte, error) {
	var out []byte
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(BucketAccounts).Bucket([]byte(account))
		if b == nil {
			return fmt.Errorf("%w: account %s", ErrNotFound, account)
		}
		v := b.Get([]byte(object))
		if v == nil {
			return fmt.Errorf("%w: object %s", ErrNotFound, object)
		}
		var err error
		out, err = decodeValue(v)
		return err
	})
	return out, err
}

// DeleteVersions removes the history of object. Deleting an absent object
// returns ErrNotFound.
func (db *DB) DeleteVersions(account, object string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(BucketAccounts).Bucket([]byte(account))
		if b == nil || b.Get([]byte(object)) == nil {
			return fmt.Errorf("%w: object %s", ErrNotFound, object)
		}
		return b.Delete([]byte(object))
	})
}

// ListObjects returns the names of every object stored for account, sorted.
func (db *DB) ListObjects(account string) ([]string, error) {
	var names []string
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(BucketAccounts).Bucket([]byte(account))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// PutConfig stores a configuration key-value pair.
func (db *DB) PutConfig(key, value string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketConfig).Put([]byte(key), []byte(value))
	})
}

// GetConfig retrieves a configuration value by key.
func (db *DB) GetConfig(key string) (string, error) {
	var value string
	err := db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(BucketConfig).Get([]byte(key))
		if v == nil {
			return fmt.Errorf("%w: config key %s", ErrNotFound, key)
		}
		value = string(v)
		return nil
	})
	return value, err
}

// RemoveConfig removes a configuration key-value pair.
func (db *DB) RemoveConfig(key string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketConfig).Delete([]byte(key))
	})
}

// PinConfig stores value under key on first use and afterwards insists the
// stored value matches.
func (db *DB) PinConfig(key, value string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(BucketConfig)
		stored := b.Get([]byte(key))
		if stored == nil {
			return b.Put([]byte(key), []byte(value))
		}
		if !bytes.Equal(stored, []byte(value)) {
			return fmt.Errorf("store: %s is %q, not %q", key, stored, value)
		}
		return nil
	})
}
