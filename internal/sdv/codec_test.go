package sdv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestSerialiseRoundTrip(t *testing.T) {
	v := mustNew(t, 10, 4)
	mustPut(t, v, RootParent(), vn(0, "a"))
	mustPut(t, v, vn(0, "a"), vn(1, "c"))
	mustPut(t, v, vn(0, "a"), vn(1, "b"))
	mustPut(t, v, vn(1, "b"), vn(2, "d"))
	mustPut(t, v, vn(5, "x"), vn(6, "y"))
	mustPut(t, v, vn(5, "x"), vn(6, "w"))

	data := v.Serialise()
	parsed, err := Parse(data)
	require.NoError(t, err)
	checkInvariants(t, parsed)

	assert.Equal(t, data, parsed.Serialise())
	assert.Equal(t, v.Get(), parsed.Get())
	assert.Equal(t, v.Orphans(), parsed.Orphans())
	assert.Equal(t, uint32(10), parsed.MaxVersions())
	assert.Equal(t, uint32(4), parsed.MaxBranches())
	root, ok := parsed.Root()
	require.True(t, ok)
	assert.Equal(t, vn(0, "a"), root)
}

func TestSerialiseKeepsPromotedRoot(t *testing.T) {
	v := mustNew(t, 2, 2)
	mustPut(t, v, RootParent(), vn(0, "a"))
	mustPut(t, v, vn(0, "a"), vn(1, "b"))
	mustPut(t, v, vn(1, "b"), vn(2, "c"))

	parsed, err := Parse(v.Serialise())
	require.NoError(t, err)
	checkInvariants(t, parsed)
	root, ok := parsed.Root()
	require.True(t, ok)
	assert.Equal(t, vn(1, "b"), root)
	assert.Empty(t, parsed.Orphans())
}

func TestSerialiseEmpty(t *testing.T) {
	v := mustNew(t, 3, 1)
	parsed, err := Parse(v.Serialise())
	require.NoError(t, err)
	assert.Zero(t, parsed.Len())
	_, ok := parsed.Root()
	assert.False(t, ok)
}

func TestParseSkipsUnknownFields(t *testing.T) {
	v := mustNew(t, 10, 10)
	mustPut(t, v, RootParent(), vn(0, "a"))
	data := v.Serialise()
	data = protowire.AppendTag(data, 15, protowire.VarintType)
	data = protowire.AppendVarint(data, 42)
	data = protowire.AppendTag(data, 16, protowire.BytesType)
	data = protowire.AppendBytes(data, []byte("ignored"))

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, v.Serialise(), parsed.Serialise())
}

func TestParseRejectsMalformed(t *testing.T) {
	a, b, c := vn(0, "a"), vn(1, "b"), vn(1, "c")
	root := RootParent()
	z := vn(9, "z")

	overflow := protowire.AppendTag(nil, fieldMaxVersions, protowire.VarintType)
	overflow = protowire.AppendVarint(overflow, 1<<40)
	overflow = append(overflow, encode(0, 1, nil, nil)[2:]...)

	truncated := encode(10, 10, []edge{{name: a, parent: root}}, nil)
	truncated = truncated[:len(truncated)-3]

	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte{0xff}},
		{"truncated", truncated},
		{"empty", nil},
		{"zero limits", encode(0, 0, nil, nil)},
		{"limit overflow", overflow},
		{"unset name", encode(10, 10, []edge{{name: VersionName{Index: 3}, parent: root}}, nil)},
		{"self parent", encode(10, 10, []edge{{name: b, parent: b}}, nil)},
		{"duplicate", encode(10, 10, []edge{{name: a, parent: root}, {name: a, parent: root}}, nil)},
		{"two roots", encode(10, 10, []edge{{name: a, parent: root}, {name: z, parent: root}}, nil)},
		{"cycle", encode(10, 10, []edge{{name: b, parent: c}, {name: c, parent: b}}, nil)},
		{"too many versions", encode(1, 10, []edge{{name: a, parent: root}, {name: b, parent: a}}, nil)},
		{"too many tips", encode(10, 1, []edge{{name: a, parent: root}, {name: b, parent: a}, {name: c, parent: a}}, nil)},
		{"unknown root", encode(10, 10, []edge{{name: a, parent: root}}, &z)},
		{"attached root", encode(10, 10, []edge{{name: a, parent: root}, {name: b, parent: a}}, &b)},
		{"conflicting root", encode(10, 10, []edge{{name: a, parent: root}, {name: c, parent: z}}, &c)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			assert.ErrorIs(t, err, ErrParsing)
		})
	}
}
