package sdv

import (
	"fmt"
	"maps"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/cas"
)

// Serialised form, in protobuf wire format:
//
//	message StructuredDataVersions {
//	  uint32      max_versions = 1;
//	  uint32      max_branches = 2;
//	  repeated Version versions = 3;  // parents before children
//	  VersionName root         = 4;   // absent when there is no root
//	}
//	message Version {
//	  VersionName name   = 1;
//	  VersionName parent = 2;         // absent for a root put with no parent
//	}
//	message VersionName {
//	  uint64 index = 1;
//	  bytes  id    = 2;               // 32 bytes
//	}
const (
	fieldMaxVersions = 1
	fieldMaxBranches = 2
	fieldVersion     = 3
	fieldRoot        = 4

	fieldName   = 1
	fieldParent = 2

	fieldIndex = 1
	fieldID    = 2
)

type edge struct {
	name   VersionName
	parent VersionName
}

// Serialise encodes the limits, every version with its parent, and the root.
func (v *Versions) Serialise() []byte {
	var root *VersionName
	if v.hasRoot {
		root = &v.root
	}
	return encode(v.maxVersions, v.maxBranches, v.edges(), root)
}

func encode(maxVersions, maxBranches uint32, edges []edge, root *VersionName) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldMaxVersions, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(maxVersions))
	b = protowire.AppendTag(b, fieldMaxBranches, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(maxBranches))

	for _, e := range edges {
		var eb []byte
		eb = protowire.AppendTag(eb, fieldName, protowire.BytesType)
		eb = protowire.AppendBytes(eb, appendVersionName(nil, e.name))
		if e.parent.IsInitialised() {
			eb = protowire.AppendTag(eb, fieldParent, protowire.BytesType)
			eb = protowire.AppendBytes(eb, appendVersionName(nil, e.parent))
		}
		b = protowire.AppendTag(b, fieldVersion, protowire.BytesType)
		b = protowire.AppendBytes(b, eb)
	}

	if root != nil {
		b = protowire.AppendTag(b, fieldRoot, protowire.BytesType)
		b = protowire.AppendBytes(b, appendVersionName(nil, *root))
	}
	return b
}

// edges lists every version breadth first from the root, then from each
// orphan in order, so a parent always precedes its children.
func (v *Versions) edges() []edge {
	tops := make([]VersionName, 0, 1+len(v.orphans))
	if v.hasRoot {
		tops = append(tops, v.root)
	}
	for _, parent := range slices.SortedFunc(maps.Keys(v.orphans), Compare) {
		tops = append(tops, v.orphans[parent]...)
	}

	result := make([]edge, 0, len(v.versions))
	queue := tops
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		d := v.versions[name]
		result = append(result, edge{name: name, parent: d.parent})
		queue = append(queue, d.children...)
	}
	return result
}

func appendVersionName(b []byte, name VersionName) []byte {
	b = protowire.AppendTag(b, fieldIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, name.Index)
	b = protowire.AppendTag(b, fieldID, protowire.BytesType)
	b = protowire.AppendBytes(b, name.ID[:])
	return b
}

// Parse decodes a serialised forest. The root, tips and orphans are derived
// from the edges; input that does not describe a valid forest fails with
// ErrParsing.
func Parse(data []byte) (*Versions, error) {
	var (
		maxVersions, maxBranches uint64
		edges                    []edge
		root                     *VersionName
	)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, parseError(protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case (num == fieldMaxVersions || num == fieldMaxBranches) && typ == protowire.VarintType:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError(protowire.ParseError(n))
			}
			if val > uint64(^uint32(0)) {
				return nil, fmt.Errorf("%w: limit %d overflows uint32", ErrParsing, val)
			}
			if num == fieldMaxVersions {
				maxVersions = val
			} else {
				maxBranches = val
			}
			data = data[n:]
		case num == fieldVersion && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, parseError(protowire.ParseError(n))
			}
			e, err := decodeEdge(raw)
			if err != nil {
				return nil, err
			}
			edges = append(edges, e)
			data = data[n:]
		case num == fieldRoot && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, parseError(protowire.ParseError(n))
			}
			name, err := decodeVersionName(raw)
			if err != nil {
				return nil, err
			}
			root = &name
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, parseError(protowire.ParseError(n))
			}
			data = data[n:]
		}
	}

	v, err := New(uint32(maxVersions), uint32(maxBranches))
	if err != nil {
		return nil, parseError(err)
	}
	if err := v.rebuild(edges, root); err != nil {
		return nil, parseError(err)
	}
	return v, nil
}

func parseError(err error) error {
	return fmt.Errorf("%w: %v", ErrParsing, err)
}

func decodeEdge(b []byte) (edge, error) {
	e := edge{parent: RootParent()}
	haveName := false
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return e, parseError(protowire.ParseError(n))
		}
		b = b[n:]
		if (num == fieldName || num == fieldParent) && typ == protowire.BytesType {
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return e, parseError(protowire.ParseError(n))
			}
			name, err := decodeVersionName(raw)
			if err != nil {
				return e, err
			}
			if num == fieldName {
				e.name, haveName = name, true
			} else {
				e.parent = name.normalised()
			}
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return e, parseError(protowire.ParseError(n))
		}
		b = b[n:]
	}
	if !haveName {
		return e, fmt.Errorf("%w: version entry without a name", ErrParsing)
	}
	return e, nil
}

func decodeVersionName(b []byte) (VersionName, error) {
	var name VersionName
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return name, parseError(protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldIndex && typ == protowire.VarintType:
			val, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return name, parseError(protowire.ParseError(n))
			}
			name.Index = val
			b = b[n:]
		case num == fieldID && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return name, parseError(protowire.ParseError(n))
			}
			id, err := cas.HashFromBytes(raw)
			if err != nil {
				return name, parseError(err)
			}
			name.ID = id
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return name, parseError(protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return name, nil
}

// rebuild populates an empty forest from decoded edges, checking every
// invariant instead of trusting the input.
func (v *Versions) rebuild(edges []edge, root *VersionName) error {
	if uint64(len(edges)) > uint64(v.maxVersions) {
		return fmt.Errorf("%d versions exceed limit %d", len(edges), v.maxVersions)
	}
	for _, e := range edges {
		if !e.name.IsInitialised() {
			return fmt.Errorf("version %s has no id", e.name)
		}
		if e.name == e.parent {
			return fmt.Errorf("version %s is its own parent", e.name)
		}
		if _, dup := v.versions[e.name]; dup {
			return fmt.Errorf("version %s listed twice", e.name)
		}
		v.versions[e.name] = &details{parent: e.parent}
	}

	var tops, deliberate []VersionName
	for _, e := range edges {
		if parent, ok := v.versions[e.parent]; ok {
			parent.children = append(parent.children, e.name)
			continue
		}
		tops = append(tops, e.name)
		if !e.parent.IsInitialised() {
			deliberate = append(deliberate, e.name)
		}
	}

	switch {
	case len(deliberate) > 1:
		return fmt.Errorf("%d versions without a parent", len(deliberate))
	case root != nil:
		d, ok := v.versions[*root]
		if !ok {
			return fmt.Errorf("root %s not among versions", *root)
		}
		if _, attached := v.versions[d.parent]; attached {
			return fmt.Errorf("root %s has a stored parent", *root)
		}
		if len(deliberate) == 1 && deliberate[0] != *root {
			return fmt.Errorf("root %s conflicts with parentless version %s", *root, deliberate[0])
		}
		v.root, v.hasRoot = *root, true
	case len(deliberate) == 1:
		v.root, v.hasRoot = deliberate[0], true
	}

	reached := 0
	stack := slices.Clone(tops)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached++
		stack = append(stack, v.versions[n].children...)
	}
	if reached != len(v.versions) {
		return fmt.Errorf("%d versions form a cycle", len(v.versions)-reached)
	}

	for _, top := range tops {
		if v.hasRoot && top == v.root {
			continue
		}
		v.addOrphan(v.versions[top].parent, top)
	}
	for name, d := range v.versions {
		if len(d.children) == 0 {
			v.tips[name] = struct{}{}
		}
	}
	if uint64(len(v.tips)) > uint64(v.maxBranches) {
		return fmt.Errorf("%d branches exceed limit %d", len(v.tips), v.maxBranches)
	}
	return nil
}
