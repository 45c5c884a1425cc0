package sdv

import (
	"maps"
	"slices"
)

// DeleteBranchUntilFork erases branchTip and its ancestors up to, but not
// including, the first one that still has another child. If no such fork
// exists the whole branch is erased, including its root or orphan. Errors are
// the same as for GetBranch.
func (v *Versions) DeleteBranchUntilFork(branchTip VersionName) error {
	if err := v.checkTip(branchTip); err != nil {
		return err
	}

	cur := branchTip
	for {
		d := v.versions[cur]
		delete(v.versions, cur)
		delete(v.tips, cur)

		parent, ok := v.versions[d.parent]
		if !ok {
			v.eraseTop(cur, d)
			return nil
		}
		parent.children = slices.DeleteFunc(parent.children, func(n VersionName) bool { return n == cur })
		if len(parent.children) > 0 {
			return nil
		}
		cur = d.parent
	}
}

// eraseTop drops the root or orphan bookkeeping for an already removed top.
// A removed root is replaced from the orphans if possible.
func (v *Versions) eraseTop(name VersionName, d *details) {
	if !v.hasRoot || v.root != name {
		v.removeOrphan(d.parent, name)
		return
	}
	v.hasRoot = false
	if replacement, ok := v.replacementRoot(nil); ok {
		v.removeOrphan(v.versions[replacement].parent, replacement)
		v.root, v.hasRoot = replacement, true
	}
}

// evictTop removes a version without a stored parent to make room. If the
// forest is left without a root, the least child takes over; the other
// children become orphans waiting for the evicted name.
func (v *Versions) evictTop(name VersionName) {
	d := v.versions[name]
	delete(v.versions, name)
	delete(v.tips, name)
	if v.hasRoot && v.root == name {
		v.hasRoot = false
	} else {
		v.removeOrphan(d.parent, name)
	}

	children := slices.SortedFunc(slices.Values(d.children), Compare)
	if len(children) > 0 && !v.hasRoot {
		v.root, v.hasRoot = children[0], true
		children = children[1:]
	}
	for _, child := range children {
		v.addOrphan(name, child)
	}
}

// replacementRoot picks the orphan to promote when the forest has no root:
// the only version waiting on the least missing parent that has exactly one,
// else the first version waiting on the least missing parent. Versions for
// which skip returns true are not considered.
func (v *Versions) replacementRoot(skip func(VersionName) bool) (VersionName, bool) {
	var first VersionName
	found := false
	for _, parent := range slices.SortedFunc(maps.Keys(v.orphans), Compare) {
		var eligible []VersionName
		for _, n := range v.orphans[parent] {
			if skip == nil || !skip(n) {
				eligible = append(eligible, n)
			}
		}
		if len(eligible) == 1 {
			return eligible[0], true
		}
		if len(eligible) > 0 && !found {
			first, found = eligible[0], true
		}
	}
	return first, found
}

// trim evicts until the forest fits its limits again, for use after the
// limits were lowered.
func (v *Versions) trim() error {
	for uint64(len(v.versions)) > uint64(v.maxVersions) {
		victim, ok := v.root, v.hasRoot
		if !ok {
			victim, ok = v.replacementRoot(nil)
		}
		if !ok {
			break
		}
		v.evictTop(victim)
	}
	for uint64(len(v.tips)) > uint64(v.maxBranches) {
		if !v.hasRoot || len(v.versions[v.root].children) > 0 {
			return ErrCannotExceedLimit
		}
		v.evictTop(v.root)
	}
	return nil
}
