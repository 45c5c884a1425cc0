package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the bbolt file inside a data directory.
const FileName = "vault.db"

// manager tracks one open database per data directory.
type manager struct {
	db   *DB
	refs int
}

var (
	managers  = map[string]*manager{}
	managerMu sync.Mutex
)

// GetSharedDB returns a shared database connection for the given data directory.
// Multiple calls with the same dir return the same connection; opts only apply
// to the call that opens it. The connection is reference counted and closed
// when all references are released.
func GetSharedDB(dir string, opts Options) (*SharedDB, error) {
	managerMu.Lock()
	defer managerMu.Unlock()

	dbPath, err := filepath.Abs(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}

	m, ok := managers[dbPath]
	if !ok {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		db, err := Open(dbPath, opts)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		m = &manager{db: db}
		managers[dbPath] = m
	}
	m.refs++

	return &SharedDB{DB: m.db, path: dbPath}, nil
}

// SharedDB wraps a database connection with reference counting.
type SharedDB struct {
	*DB
	path   string
	closed bool
}

// Close drops this reference and closes the underlying database when no
// more references exist. Closing twice is a no-op.
func (sdb *SharedDB) Close() error {
	managerMu.Lock()
	defer managerMu.Unlock()

	if sdb.closed {
		return nil
	}
	sdb.closed = true

	m, ok := managers[sdb.path]
	if !ok {
		return nil
	}
	m.refs--
	if m.refs > 0 {
		return nil
	}
	delete(managers, sdb.path)
	return m.db.Close()
}
