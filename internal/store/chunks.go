package store

import (
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/cas"
)

// ChunkStore is a cas.CAS over the chunks bucket.
type ChunkStore struct {
	db *DB
}

var _ cas.CAS = (*ChunkStore)(nil)

func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

func (c *ChunkStore) Put(hash cas.Hash, data []byte) error {
	if got := cas.SumB3(data); got != hash {
		return fmt.Errorf("hash mismatch: expected %s, got %s", hash, got)
	}
	value, err := encodeValue(data, c.db.opts.Compress)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(BucketChunks)
		if b.Get(hash[:]) != nil {
			return nil
		}
		return b.Put(hash[:], value)
	})
}

func (c *ChunkStore) Get(hash cas.Hash) ([]byte, error) {
	var out []byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(BucketChunks).Get(hash[:])
		if v == nil {
			return fmt.Errorf("%w: %s", cas.ErrNotFound, hash)
		}
		var err error
		out, err = decodeValue(v)
		return err
	})
	if err != nil {
		return nil, err
	}
	if got := cas.SumB3(out); got != hash {
		return nil, fmt.Errorf("%w: chunk %s hashes to %s", ErrCorrupt, hash, got)
	}
	return out, nil
}

func (c *ChunkStore) Has(hash cas.Hash) (bool, error) {
	var ok bool
	err := c.db.View(func(tx *bbolt.Tx) error {
		ok = tx.Bucket(BucketChunks).Get(hash[:]) != nil
		return nil
	})
	return ok, err
}

func (c *ChunkStore) Delete(hash cas.Hash) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketChunks).Delete(hash[:])
	})
}
