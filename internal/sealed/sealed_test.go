package sealed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestSealRoundtrip(t *testing.T) {
	s, err := New(testKey)
	require.NoError(t, err)

	box, err := s.Seal("selam, how's your day?")
	require.NoError(t, err)
	assert.NotContains(t, string(box), "selam")

	plain, err := s.Open(box)
	require.NoError(t, err)
	assert.Equal(t, "selam, how's your day?", plain)
}

func TestSealUniqueNonces(t *testing.T) {
	s, err := New(testKey)
	require.NoError(t, err)

	a, err := s.Seal("same text")
	require.NoError(t, err)
	b, err := s.Seal("same text")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenRejectsTampering(t *testing.T) {
	s, err := New(testKey)
	require.NoError(t, err)

	box, err := s.Seal("original")
	require.NoError(t, err)
	box[len(box)-1] ^= 0xff

	_, err = s.Open(box)
	assert.Error(t, err)
}

func TestNewRejectsBadKeys(t *testing.T) {
	_, err := New("not-hex")
	assert.Error(t, err)

	_, err = New(strings.Repeat("ab", 16)) // 16 bytes, too short
	assert.Error(t, err)
}
