// Package sdv implements structured data versions: a bounded forest of version
// names recording the causal history of one mutable object.
//
// Each version is stored with the name of the parent it was put under. The
// forest has at most one root, any number of orphans (versions whose parent has
// not been seen yet, or was evicted) and a set of tips (versions with no
// children):
//
//	  7-yyy      0-aaa          root:    0-aaa
//	    |          |            orphans: 7-yyy (waiting for 6-xxx)
//	  8-zzz      1-bbb          tips:    8-zzz, 2-ccc, 3-ddd
//	            /     \
//	         2-ccc   2-ddd
//	                   |
//	                 3-ddd
//
// When the version limit is reached the root is evicted and its least child
// takes over. When the branch limit is reached a new branch is only accepted if
// evicting the root (itself a tip) makes room.
//
// Versions is not safe for concurrent use. Every exported mutator either
// succeeds or returns an error with the forest unchanged.
package sdv

import (
	"fmt"
	"maps"
	"slices"
)

type details struct {
	parent   VersionName
	children []VersionName
}

// Versions is the version forest of one object.
type Versions struct {
	maxVersions uint32
	maxBranches uint32

	versions map[VersionName]*details
	root     VersionName
	hasRoot  bool
	tips     map[VersionName]struct{}
	// missing parent -> versions waiting for it
	orphans map[VersionName][]VersionName
}

// New creates an empty forest. Both limits must be at least 1.
func New(maxVersions, maxBranches uint32) (*Versions, error) {
	if maxVersions < 1 || maxBranches < 1 {
		return nil, fmt.Errorf("%w: max versions %d and max branches %d must be >= 1",
			ErrInvalidParameter, maxVersions, maxBranches)
	}
	return &Versions{
		maxVersions: maxVersions,
		maxBranches: maxBranches,
		versions:    make(map[VersionName]*details),
		tips:        make(map[VersionName]struct{}),
		orphans:     make(map[VersionName][]VersionName),
	}, nil
}

func (v *Versions) MaxVersions() uint32 { return v.maxVersions }
func (v *Versions) MaxBranches() uint32 { return v.maxBranches }

// Len returns the number of stored versions.
func (v *Versions) Len() int { return len(v.versions) }

// Root returns the current root, if there is one.
func (v *Versions) Root() (VersionName, bool) {
	return v.root, v.hasRoot
}

// Contains reports whether name is stored.
func (v *Versions) Contains(name VersionName) bool {
	_, ok := v.versions[name]
	return ok
}

// Parent returns the parent name a stored version was put under. For the root
// this is RootParent, or the name of an evicted predecessor.
func (v *Versions) Parent(name VersionName) (VersionName, bool) {
	d, ok := v.versions[name]
	if !ok {
		return VersionName{}, false
	}
	return d.parent, true
}

// Orphans returns the stored versions whose parent is missing, sorted.
func (v *Versions) Orphans() []VersionName {
	var result []VersionName
	for _, waiting := range v.orphans {
		result = append(result, waiting...)
	}
	slices.SortFunc(result, Compare)
	return result
}

// Get returns all tips of trees, sorted.
func (v *Versions) Get() []VersionName {
	result := slices.Collect(maps.Keys(v.tips))
	slices.SortFunc(result, Compare)
	return result
}

// GetBranch returns the versions from branchTip up to and including the root
// or orphan at the start of its branch, tip first.
func (v *Versions) GetBranch(branchTip VersionName) ([]VersionName, error) {
	if err := v.checkTip(branchTip); err != nil {
		return nil, err
	}
	var result []VersionName
	cur, ok := branchTip, true
	for ok {
		result = append(result, cur)
		cur, ok = v.attachedParent(cur)
	}
	return result, nil
}

// Clear removes every version. The limits are kept.
func (v *Versions) Clear() {
	clear(v.versions)
	clear(v.tips)
	clear(v.orphans)
	v.root, v.hasRoot = VersionName{}, false
}

// Clone returns a deep copy.
func (v *Versions) Clone() *Versions {
	c := &Versions{
		maxVersions: v.maxVersions,
		maxBranches: v.maxBranches,
		versions:    make(map[VersionName]*details, len(v.versions)),
		root:        v.root,
		hasRoot:     v.hasRoot,
		tips:        maps.Clone(v.tips),
		orphans:     make(map[VersionName][]VersionName, len(v.orphans)),
	}
	for name, d := range v.versions {
		c.versions[name] = &details{parent: d.parent, children: slices.Clone(d.children)}
	}
	for parent, waiting := range v.orphans {
		c.orphans[parent] = slices.Clone(waiting)
	}
	return c
}

func (v *Versions) checkTip(name VersionName) error {
	if _, ok := v.tips[name]; ok {
		return nil
	}
	if _, ok := v.versions[name]; ok {
		return fmt.Errorf("%w: %s is not a tip of tree", ErrInvalidParameter, name)
	}
	return fmt.Errorf("%w: %s", ErrNoSuchElement, name)
}

// attachedParent returns the parent of name if that parent is stored.
func (v *Versions) attachedParent(name VersionName) (VersionName, bool) {
	parent := v.versions[name].parent
	_, ok := v.versions[parent]
	return parent, ok
}

// topOf walks up from name to the first version without a stored parent.
func (v *Versions) topOf(name VersionName) VersionName {
	for {
		parent, ok := v.attachedParent(name)
		if !ok {
			return name
		}
		name = parent
	}
}

func (v *Versions) atVersionsLimit() bool {
	return uint64(len(v.versions)) >= uint64(v.maxVersions)
}

func (v *Versions) atBranchesLimit() bool {
	return uint64(len(v.tips)) >= uint64(v.maxBranches)
}

func (v *Versions) addOrphan(parent, child VersionName) {
	v.orphans[parent] = append(v.orphans[parent], child)
}

func (v *Versions) removeOrphan(parent, child VersionName) {
	waiting, ok := v.orphans[parent]
	if !ok {
		return
	}
	waiting = slices.DeleteFunc(waiting, func(n VersionName) bool { return n == child })
	if len(waiting) == 0 {
		delete(v.orphans, parent)
		return
	}
	v.orphans[parent] = waiting
}
