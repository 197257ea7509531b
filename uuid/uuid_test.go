package uuid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	u, err := Parse("180F")
	require.NoError(t, err)
	assert.Equal(t, UUID{0x0f, 0x18}, u)
	assert.Equal(t, "180F", u.String())

	u, err = Parse("0x2a19")
	require.NoError(t, err)
	assert.True(t, u.Equal(UUID16(0x2a19)))

	_, err = Parse("18F")
	assert.Error(t, err)
	_, err = Parse("1234567890")
	assert.Error(t, err)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "0000180f-0000-1000-8000-00805f9b34fb", UUID16(0x180f).Canonical())
	assert.Equal(t, "fe95abcd-0000-1000-8000-00805f9b34fb", UUID32(0xfe95abcd).Canonical())

	long := "34DA3AD1-7110-41A1-B1EF-4430F509CDE7"
	assert.Equal(t, "34da3ad1-7110-41a1-b1ef-4430f509cde7", MustParse(long).Canonical())
}

func TestNormalize(t *testing.T) {
	for _, s := range []string{"180f", "0x180F", "0000180F-0000-1000-8000-00805F9B34FB"} {
		n, err := Normalize(s)
		require.NoError(t, err, s)
		assert.Equal(t, "0000180f-0000-1000-8000-00805f9b34fb", n, s)
	}
	_, err := Normalize("zz")
	assert.Error(t, err)
}

func TestEqualAcrossWidths(t *testing.T) {
	short := UUID16(0x180f)
	full := MustParse("0000180f-0000-1000-8000-00805f9b34fb")
	assert.True(t, short.Equal(full))
	assert.True(t, full.Equal(short))
	assert.False(t, short.Equal(UUID16(0x1234)))

	assert.True(t, Contains([]UUID{UUID16(1), full}, short))
	assert.True(t, Contains(nil, short))
	assert.False(t, Contains([]UUID{}, short))
}

func TestReverse(t *testing.T) {
	assert.Equal(t, []byte{3, 2, 1}, Reverse([]byte{1, 2, 3}))
	assert.Equal(t, []byte{4, 3, 2, 1}, Reverse([]byte{1, 2, 3, 4}))
}
