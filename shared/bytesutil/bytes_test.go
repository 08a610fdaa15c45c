package bytesutil_test

import (
	"bytes"
	"testing"

	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
)

func TestBytes1(t *testing.T) {
	tests := []struct {
		a uint64
		b []byte
	}{
		{0, []byte{0}},
		{1, []byte{1}},
		{2, []byte{2}},
		{253, []byte{253}},
		{254, []byte{254}},
	}
	for _, tt := range tests {
		b := bytesutil.Bytes1(tt.a)
		assert.DeepEqual(t, tt.b, b)
	}
}

func TestBytes4(t *testing.T) {
	tests := []struct {
		a uint64
		b []byte
	}{
		{0, []byte{0, 0, 0, 0}},
		{2, []byte{2, 0, 0, 0}},
		{16777216, []byte{0, 0, 0, 1}},
	}
	for _, tt := range tests {
		b := bytesutil.Bytes4(tt.a)
		assert.DeepEqual(t, tt.b, b)
	}
}

func TestBytes8(t *testing.T) {
	tests := []struct {
		a uint64
		b []byte
	}{
		{0, []byte{0, 0, 0, 0, 0, 0, 0, 0}},
		{2, []byte{2, 0, 0, 0, 0, 0, 0, 0}},
		{1<<32 + 3, []byte{3, 0, 0, 0, 1, 0, 0, 0}},
	}
	for _, tt := range tests {
		b := bytesutil.Bytes8(tt.a)
		assert.DeepEqual(t, tt.b, b)
	}
}

func TestFromBytes8(t *testing.T) {
	tests := []uint64{0, 1, 2, 1<<63 - 1, 1 << 63}
	for _, tt := range tests {
		b := bytesutil.Bytes8(tt)
		c := bytesutil.FromBytes8(b)
		assert.Equal(t, tt, c)
	}
}

func TestFromBytes4_DoesNotMutateInput(t *testing.T) {
	input := []byte{2, 0, 0, 0, 9, 9, 9, 9}
	got := bytesutil.FromBytes4(input)
	assert.Equal(t, uint64(2), got)
	if !bytes.Equal(input[4:], []byte{9, 9, 9, 9}) {
		t.Errorf("input mutated: %v", input)
	}
}

func TestToBytes32(t *testing.T) {
	in := []byte{1, 2, 3}
	out := bytesutil.ToBytes32(in)
	assert.DeepEqual(t, [32]byte{1, 2, 3}, out)
}

func TestPadTo(t *testing.T) {
	tests := []struct {
		b    []byte
		size int
		want []byte
	}{
		{[]byte{1, 2}, 4, []byte{1, 2, 0, 0}},
		{[]byte{}, 3, []byte{0, 0, 0}},
		{[]byte{1, 2, 3}, 3, []byte{1, 2, 3}},
		{[]byte{1, 2, 3, 4}, 3, []byte{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		assert.DeepEqual(t, tt.want, bytesutil.PadTo(tt.b, tt.size))
	}
}

func TestTrunc(t *testing.T) {
	x := []byte{0xab, 0xcd, 0xef, 0x01, 0x23, 0x45, 0x67, 0x89}
	assert.Equal(t, "abcdef012345", bytesutil.Trunc(x))
	assert.Equal(t, "ab", bytesutil.Trunc([]byte{0xab}))
}
