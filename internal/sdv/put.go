package sdv

import (
	"fmt"
	"slices"
)

// Put inserts newVersion with oldVersion as its parent.
//
// An oldVersion with an unset ID asks for newVersion to become the root; only
// one root may ever be put directly. If oldVersion is unknown, newVersion is
// kept as an orphan until oldVersion arrives. Orphans waiting for newVersion are
// attached to it, unless that would create a cycle.
//
// At the version limit the root is evicted first, and a put that would only
// produce a root doomed to immediate eviction succeeds without change. At the
// branch limit a new branch is accepted only if the root is itself a tip and
// can be evicted; otherwise ErrCannotExceedLimit is returned.
//
// Putting an existing version under the same parent is a no-op; under a
// different parent it fails with ErrInvalidParameter.
func (v *Versions) Put(oldVersion, newVersion VersionName) error {
	if !newVersion.IsInitialised() {
		return fmt.Errorf("%w: new version %s has no id", ErrInvalidParameter, newVersion)
	}
	oldVersion = oldVersion.normalised()
	if oldVersion == newVersion {
		return fmt.Errorf("%w: %s cannot be its own parent", ErrInvalidParameter, newVersion)
	}

	if existing, ok := v.versions[newVersion]; ok {
		if existing.parent == oldVersion {
			return nil
		}
		return fmt.Errorf("%w: %s already stored under %s, not %s",
			ErrInvalidParameter, newVersion, existing.parent, oldVersion)
	}

	isRoot := !oldVersion.IsInitialised()
	if isRoot && v.hasRoot && !v.versions[v.root].parent.IsInitialised() {
		return fmt.Errorf("%w: root %s already put, refusing second root %s",
			ErrInvalidParameter, v.root, newVersion)
	}

	parent, parentFound := v.versions[oldVersion]
	isOrphan := !isRoot && !parentFound

	unorphaned := v.orphans[newVersion]
	unorphansRoot := v.hasRoot && v.versions[v.root].parent == newVersion
	adopted := slices.Clone(unorphaned)
	if unorphansRoot {
		adopted = append(adopted, v.root)
	}
	if parentFound {
		if err := v.checkNotAncestor(oldVersion, adopted); err != nil {
			return err
		}
	}

	// Where the root designation lands once newVersion is in place.
	newRoot, hasNewRoot := v.root, v.hasRoot
	switch {
	case isRoot:
		newRoot, hasNewRoot = newVersion, true
	case unorphansRoot && isOrphan:
		newRoot = newVersion
	case unorphansRoot:
		newRoot = v.topOf(oldVersion)
	}

	var victim VersionName
	evict := false
	if v.atVersionsLimit() {
		if hasNewRoot && newRoot == newVersion {
			return nil
		}
		if hasNewRoot {
			victim = newRoot
		} else {
			candidate, ok := v.replacementRoot(func(n VersionName) bool {
				return slices.Contains(adopted, n)
			})
			if !ok {
				// newVersion would be the only top left, so it is the one evicted.
				return nil
			}
			victim = candidate
		}
		evict = true
	}

	if len(adopted) == 0 && v.atBranchesLimit() {
		createsBranch := isRoot || isOrphan || len(parent.children) > 0
		if createsBranch {
			if !v.hasRoot || len(v.versions[v.root].children) > 0 {
				return fmt.Errorf("%w: %d branches", ErrCannotExceedLimit, v.maxBranches)
			}
			victim, evict = v.root, true
		}
	}

	d := &details{parent: oldVersion}
	v.versions[newVersion] = d
	switch {
	case parentFound:
		parent.children = append(parent.children, newVersion)
		delete(v.tips, oldVersion)
	case isOrphan && !unorphansRoot:
		v.addOrphan(oldVersion, newVersion)
	}

	d.children = append(d.children, unorphaned...)
	delete(v.orphans, newVersion)
	if unorphansRoot {
		d.children = append(d.children, v.root)
	}
	if len(d.children) == 0 {
		v.tips[newVersion] = struct{}{}
	}

	if isRoot && v.hasRoot && !unorphansRoot {
		// The old root was promoted after an eviction; it waits for its parent again.
		v.addOrphan(v.versions[v.root].parent, v.root)
	}
	if hasNewRoot && (!v.hasRoot || newRoot != v.root) {
		v.removeOrphan(v.versions[newRoot].parent, newRoot)
		v.root, v.hasRoot = newRoot, true
	}

	if evict {
		v.evictTop(victim)
	}
	return nil
}

// checkNotAncestor fails if any version in the subtrees rooted at adopted is
// parent or one of its ancestors.
func (v *Versions) checkNotAncestor(parent VersionName, adopted []VersionName) error {
	if len(adopted) == 0 {
		return nil
	}
	ancestors := map[VersionName]struct{}{parent: {}}
	for cur, ok := v.attachedParent(parent); ok; cur, ok = v.attachedParent(cur) {
		ancestors[cur] = struct{}{}
	}

	stack := slices.Clone(adopted)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, hit := ancestors[n]; hit {
			return fmt.Errorf("%w: attaching %s under %s creates a cycle", ErrInvalidParameter, n, parent)
		}
		stack = append(stack, v.versions[n].children...)
	}
	return nil
}
