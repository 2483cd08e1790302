package corvus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentTable_AppendAssignsContiguousIDs(t *testing.T) {
	tbl := NewDocumentTable(true)
	base1 := tbl.Append([]uint32{3, 5}, []string{"a", "b"})
	base2 := tbl.Append([]uint32{7}, []string{"c"})

	assert.Equal(t, uint32(0), base1)
	assert.Equal(t, uint32(2), base2)
	assert.Equal(t, uint64(3), tbl.Len())
}

func TestDocumentTable_AvgLength(t *testing.T) {
	tbl := NewDocumentTable(false)
	tbl.Append([]uint32{10, 20, 30}, []string{"", "", ""})
	assert.InDelta(t, 20.0, tbl.AvgLength(), 1e-9)
}

func TestDocumentTable_AvgLengthEmptyIsZero(t *testing.T) {
	tbl := NewDocumentTable(false)
	assert.Equal(t, 0.0, tbl.AvgLength())
}

func TestDocumentTable_LengthSaturatesAtU16Max(t *testing.T) {
	tbl := NewDocumentTable(false)
	tbl.Append([]uint32{1 << 20}, []string{""})
	assert.Equal(t, uint16(maxUint16), tbl.DocLength(0))
}

func TestDocumentTable_ExternalIDWhenKept(t *testing.T) {
	tbl := NewDocumentTable(true)
	tbl.Append([]uint32{1}, []string{"doc-alpha"})
	assert.Equal(t, "doc-alpha", tbl.ExternalID(0))
}

func TestDocumentTable_SyntheticIDWhenNotKept(t *testing.T) {
	tbl := NewDocumentTable(false)
	tbl.Append([]uint32{1, 1}, []string{"ignored", "ignored"})
	assert.Equal(t, "doc_0", tbl.ExternalID(0))
	assert.Equal(t, "doc_1", tbl.ExternalID(1))
}

func TestDocumentTable_Clear(t *testing.T) {
	tbl := NewDocumentTable(true)
	tbl.Append([]uint32{1, 2}, []string{"a", "b"})
	tbl.Clear()
	require.Equal(t, uint64(0), tbl.Len())
	assert.Equal(t, 0.0, tbl.AvgLength())
	// numbering restarts at 0 after clear
	base := tbl.Append([]uint32{1}, []string{"fresh"})
	assert.Equal(t, uint32(0), base)
}
