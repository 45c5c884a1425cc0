package sdv

import "fmt"

// ApplySerialised merges a serialised forest into v, as used to fold a
// resolved copy into the local one after an account transfer. The limits of
// the serialised forest replace the local ones, then every serialised version
// is put in parent-before-child order. If any put fails the merge fails with
// ErrMergeUnresolvable and v is unchanged.
func (v *Versions) ApplySerialised(serialised []byte) error {
	remote, err := Parse(serialised)
	if err != nil {
		return err
	}

	merged := v.Clone()
	merged.maxVersions, merged.maxBranches = remote.maxVersions, remote.maxBranches
	if err := merged.trim(); err != nil {
		return fmt.Errorf("%w: local history does not fit %d versions, %d branches: %w",
			ErrMergeUnresolvable, merged.maxVersions, merged.maxBranches, err)
	}

	for _, e := range remote.edges() {
		if err := merged.Put(e.parent, e.name); err != nil {
			return fmt.Errorf("%w: putting %s under %s: %w", ErrMergeUnresolvable, e.name, e.parent, err)
		}
	}

	*v = *merged
	return nil
}
