package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawBatch_AllOrderAndMaxBlock(t *testing.T) {
	b := &RawBatch{
		FromBlock:    10,
		Limit:        10,
		Transfers:    []RawEvent{{Hash: "t1", BlockNumber: 12}},
		SystemEvents: []RawEvent{{Hash: "s1", BlockNumber: 15}},
		Extra:        []RawEvent{{Hash: "e1", BlockNumber: 11}},
	}

	all := b.All()
	assert.Len(t, all, 3)
	assert.Equal(t, "t1", all[0].Hash)
	assert.Equal(t, "s1", all[1].Hash)
	assert.Equal(t, "e1", all[2].Hash)
	assert.Equal(t, int64(15), b.MaxBlock())
	assert.False(t, b.Saturated())
}

func TestRawBatch_Saturated(t *testing.T) {
	b := &RawBatch{
		FromBlock: 7,
		Limit:     2,
		Transfers: []RawEvent{{Hash: "a", BlockNumber: 7}, {Hash: "b", BlockNumber: 7}},
	}
	assert.True(t, b.Saturated())

	b.Transfers[1].BlockNumber = 8
	assert.False(t, b.Saturated())
}

func TestRawBatch_Nil(t *testing.T) {
	var b *RawBatch
	assert.Nil(t, b.All())
	assert.Equal(t, 0, b.Len())
	assert.False(t, b.Saturated())
}

func TestCappedBlock(t *testing.T) {
	full := []RawEvent{{BlockNumber: 5}, {BlockNumber: 6}, {BlockNumber: 8}}
	short := []RawEvent{{BlockNumber: 5}, {BlockNumber: 40}}
	fullLater := []RawEvent{{BlockNumber: 9}, {BlockNumber: 10}, {BlockNumber: 12}}

	cut, ok := CappedBlock(3, full, short, fullLater)
	assert.True(t, ok)
	assert.Equal(t, int64(8), cut)

	_, ok = CappedBlock(3, short)
	assert.False(t, ok)
	_, ok = CappedBlock(0, full)
	assert.False(t, ok)
}

func TestRawBatch_TrimAbove(t *testing.T) {
	b := &RawBatch{
		Transfers:    []RawEvent{{Hash: "a", BlockNumber: 5}, {Hash: "b", BlockNumber: 8}},
		SystemEvents: []RawEvent{{Hash: "c", BlockNumber: 8}, {Hash: "d", BlockNumber: 40}},
		Extra:        []RawEvent{{Hash: "e", BlockNumber: 9}},
	}

	assert.Equal(t, 2, b.TrimAbove(8))
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, int64(8), b.MaxBlock())

	var nilBatch *RawBatch
	assert.Zero(t, nilBatch.TrimAbove(1))
}
