package sdv

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/cas"
)

// NoIndex is the index carried by the root sentinel.
const NoIndex = math.MaxUint64

// VersionName identifies one version of a structured data object.
type VersionName struct {
	Index uint64   // position within its branch; NoIndex for the sentinel
	ID    cas.Hash // name of the immutable data holding the version's content
}

// RootParent returns the sentinel used as the parent of a root version.
func RootParent() VersionName {
	return VersionName{Index: NoIndex}
}

// NewVersionName builds a VersionName from its parts.
func NewVersionName(index uint64, id cas.Hash) VersionName {
	return VersionName{Index: index, ID: id}
}

// IsInitialised reports whether v names a real version rather than the sentinel.
func (v VersionName) IsInitialised() bool {
	return v.ID.IsInitialised()
}

// normalised maps every VersionName with an unset ID onto RootParent.
func (v VersionName) normalised() VersionName {
	if !v.ID.IsInitialised() {
		return RootParent()
	}
	return v
}

// Compare orders by Index, then by ID.
func Compare(a, b VersionName) int {
	switch {
	case a.Index < b.Index:
		return -1
	case a.Index > b.Index:
		return 1
	}
	return a.ID.Compare(b.ID)
}

// Less reports whether a sorts before b.
func Less(a, b VersionName) bool {
	return Compare(a, b) < 0
}

// String renders "<index>-<short id>", or "root" for the sentinel.
func (v VersionName) String() string {
	if !v.IsInitialised() {
		return "root"
	}
	return fmt.Sprintf("%d-%s", v.Index, v.ID.Short())
}

// Full renders "<index>-<full hex id>", the form accepted by ParseVersionName.
func (v VersionName) Full() string {
	if !v.IsInitialised() {
		return "root"
	}
	return fmt.Sprintf("%d-%s", v.Index, v.ID)
}

// ParseVersionName parses the Full form. "root" and "" yield RootParent.
func ParseVersionName(s string) (VersionName, error) {
	if s == "" || s == "root" {
		return RootParent(), nil
	}
	idx, hexID, ok := strings.Cut(s, "-")
	if !ok {
		return VersionName{}, fmt.Errorf("%w: version %q is not <index>-<id>", ErrInvalidParameter, s)
	}
	index, err := strconv.ParseUint(idx, 10, 64)
	if err != nil {
		return VersionName{}, fmt.Errorf("%w: version index %q: %v", ErrInvalidParameter, idx, err)
	}
	id, err := cas.ParseHash(hexID)
	if err != nil {
		return VersionName{}, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return VersionName{Index: index, ID: id}, nil
}
