// Package vault keeps the version histories of one account's structured data
// objects. Each object name maps to an sdv.Versions persisted in a Store;
// decoded histories are cached and every object is mutated under its own lock.
package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/cas"
	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/logging"
	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/sdv"
	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/store"
)

var (
	ErrExists   = errors.New("vault: object already exists")
	ErrNotFound = errors.New("vault: no such object")
)

// Store persists serialised histories per account and object name.
// GetVersions and DeleteVersions report absent objects with store.ErrNotFound.
type Store interface {
	PutVersions(account, object string, serialised []byte) error
	GetVersions(account, object string) ([]byte, error)
	DeleteVersions(account, object string) error
	ListObjects(account string) ([]string, error)
}

type Options struct {
	Account     string
	MaxVersions uint32 // default limits for Create
	MaxBranches uint32
	CacheSize   int
	Logger      logging.Logger
}

type Vault struct {
	db     Store
	chunks cas.CAS
	opts   Options
	log    logging.Logger
	cache  *lru.Cache[string, *sdv.Versions]
	locks  objectLocks
}

func New(db Store, chunks cas.CAS, opts Options) (*Vault, error) {
	if opts.Account == "" {
		return nil, fmt.Errorf("vault: account is required")
	}
	if opts.MaxVersions < 1 || opts.MaxBranches < 1 {
		return nil, fmt.Errorf("vault: default limits must be >= 1")
	}
	cache, err := lru.New[string, *sdv.Versions](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("vault: cache: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop{}
	}
	return &Vault{db: db, chunks: chunks, opts: opts, log: log, cache: cache}, nil
}

// Create stores an empty history for name. Zero limits take the defaults.
func (v *Vault) Create(ctx context.Context, name string, maxVersions, maxBranches uint32) (err error) {
	defer func() { observe("create", err) }()
	if err := ctx.Err(); err != nil {
		return err
	}
	if maxVersions == 0 {
		maxVersions = v.opts.MaxVersions
	}
	if maxBranches == 0 {
		maxBranches = v.opts.MaxBranches
	}
	versions, err := sdv.New(maxVersions, maxBranches)
	if err != nil {
		return err
	}

	unlock := v.locks.lock(name)
	defer unlock()
	if _, err := v.load(name); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, name)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := v.store(name, versions); err != nil {
		return err
	}
	v.log.DebugCtx(v.logCtx(ctx, name), "created", "max_versions", maxVersions, "max_branches", maxBranches)
	return nil
}

// Put inserts newVersion under oldVersion in the history of name.
func (v *Vault) Put(ctx context.Context, name string, oldVersion, newVersion sdv.VersionName) error {
	return v.update(ctx, "put", name, func(versions *sdv.Versions) error {
		return versions.Put(oldVersion, newVersion)
	})
}

// Commit stores content and records it as a new version under parent. The
// new version's index follows its parent's; a root gets index 0.
func (v *Vault) Commit(ctx context.Context, name string, parent sdv.VersionName, content []byte) (sdv.VersionName, error) {
	var index uint64
	if parent.IsInitialised() {
		index = parent.Index + 1
	}
	version := sdv.NewVersionName(index, cas.SumB3(content))

	err := v.update(ctx, "commit", name, func(versions *sdv.Versions) error {
		if err := v.chunks.Put(version.ID, content); err != nil {
			return fmt.Errorf("store content: %w", err)
		}
		return versions.Put(parent, version)
	})
	if err != nil {
		return sdv.VersionName{}, err
	}
	return version, nil
}

// Tips returns the tips of every tree in the history of name.
func (v *Vault) Tips(ctx context.Context, name string) (tips []sdv.VersionName, err error) {
	err = v.view(ctx, "tips", name, func(versions *sdv.Versions) error {
		tips = versions.Get()
		return nil
	})
	return tips, err
}

// Branch returns the versions from tip back to the start of its branch.
func (v *Vault) Branch(ctx context.Context, name string, tip sdv.VersionName) (branch []sdv.VersionName, err error) {
	err = v.view(ctx, "branch", name, func(versions *sdv.Versions) error {
		branch, err = versions.GetBranch(tip)
		return err
	})
	return branch, err
}

// History returns the stored history of name. The result must not be modified.
func (v *Vault) History(ctx context.Context, name string) (history *sdv.Versions, err error) {
	err = v.view(ctx, "history", name, func(versions *sdv.Versions) error {
		history = versions
		return nil
	})
	return history, err
}

func (v *Vault) DeleteBranchUntilFork(ctx context.Context, name string, tip sdv.VersionName) error {
	return v.update(ctx, "prune", name, func(versions *sdv.Versions) error {
		return versions.DeleteBranchUntilFork(tip)
	})
}

// Clear empties the history of name, keeping its limits.
func (v *Vault) Clear(ctx context.Context, name string) error {
	return v.update(ctx, "clear", name, func(versions *sdv.Versions) error {
		versions.Clear()
		return nil
	})
}

// Export returns the serialised history of name.
func (v *Vault) Export(ctx context.Context, name string) (data []byte, err error) {
	err = v.view(ctx, "export", name, func(versions *sdv.Versions) error {
		data = versions.Serialise()
		return nil
	})
	return data, err
}

// Apply merges a serialised history into name, or stores it as is when name
// does not exist yet.
func (v *Vault) Apply(ctx context.Context, name string, serialised []byte) (err error) {
	defer func() { observe("apply", err) }()
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := v.locks.lock(name)
	defer unlock()

	ctx = v.logCtx(ctx, name)
	current, err := v.load(name)
	if errors.Is(err, ErrNotFound) {
		parsed, err := sdv.Parse(serialised)
		if err != nil {
			return err
		}
		if err := v.store(name, parsed); err != nil {
			return err
		}
		v.log.DebugCtx(ctx, "applied new history", "versions", parsed.Len())
		return nil
	}
	if err != nil {
		return err
	}

	start := time.Now()
	merged := current.Clone()
	err = merged.ApplySerialised(serialised)
	MergeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		v.log.WarnCtx(ctx, "merge rejected", "err", err)
		return err
	}
	if err := v.store(name, merged); err != nil {
		return err
	}
	v.log.DebugCtx(ctx, "merged", "versions", merged.Len())
	return nil
}

// Content returns the content a version id names.
func (v *Vault) Content(ctx context.Context, id cas.Hash) (data []byte, err error) {
	defer func() { observe("content", err) }()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.chunks.Get(id)
}

// Objects lists the object names of the account.
func (v *Vault) Objects(ctx context.Context) (names []string, err error) {
	defer func() { observe("objects", err) }()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.db.ListObjects(v.opts.Account)
}

// Delete removes the history of name. Content stays in the chunk store.
func (v *Vault) Delete(ctx context.Context, name string) (err error) {
	defer func() { observe("delete", err) }()
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := v.locks.lock(name)
	defer unlock()

	if err := v.db.DeleteVersions(v.opts.Account, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return err
	}
	v.cache.Remove(name)
	v.log.DebugCtx(v.logCtx(ctx, name), "deleted")
	return nil
}

// update applies fn to a copy of the history of name and publishes the copy
// only once it is persisted.
func (v *Vault) update(ctx context.Context, op, name string, fn func(*sdv.Versions) error) (err error) {
	defer func() { observe(op, err) }()
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := v.locks.lock(name)
	defer unlock()

	current, err := v.load(name)
	if err != nil {
		return err
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		v.log.DebugCtx(v.logCtx(ctx, name), op+" rejected", "err", err)
		return err
	}
	if err := v.store(name, next); err != nil {
		return err
	}
	v.log.DebugCtx(v.logCtx(ctx, name), op, "versions", next.Len())
	return nil
}

func (v *Vault) view(ctx context.Context, op, name string, fn func(*sdv.Versions) error) (err error) {
	defer func() { observe(op, err) }()
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := v.locks.lock(name)
	defer unlock()

	current, err := v.load(name)
	if err != nil {
		return err
	}
	return fn(current)
}

// load returns the cached history of name, decoding it from the store on a
// miss. Callers hold the object lock and must not modify the result.
func (v *Vault) load(name string) (*sdv.Versions, error) {
	if versions, ok := v.cache.Get(name); ok {
		return versions, nil
	}
	data, err := v.db.GetVersions(v.opts.Account, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	versions, err := sdv.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("vault: stored history of %s: %w", name, err)
	}
	v.cache.Add(name, versions)
	return versions, nil
}

func (v *Vault) store(name string, versions *sdv.Versions) error {
	if err := v.db.PutVersions(v.opts.Account, name, versions.Serialise()); err != nil {
		return fmt.Errorf("vault: persist %s: %w", name, err)
	}
	v.cache.Add(name, versions)
	return nil
}

func (v *Vault) logCtx(ctx context.Context, name string) context.Context {
	return logging.WithDefaultArgs(ctx, "account", v.opts.Account, "object", name)
}
