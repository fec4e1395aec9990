package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt_HashAndVerify(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	hash, err := h.Hash("hunter2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"), "unexpected hash format %q", hash)

	assert.True(t, h.Verify("hunter2", hash))
	assert.False(t, h.Verify("hunter3", hash))
	assert.False(t, h.Verify("", hash))
}

func TestBcrypt_SaltIsRandom(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same-password", first))
	assert.True(t, h.Verify("same-password", second))
}

func TestBcrypt_DefaultCostIsEncoded(t *testing.T) {
	h := NewBcrypt(DefaultCost)
	assert.Equal(t, 12, h.Cost())

	hash, err := h.Hash("pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, cost)
}

func TestBcrypt_EmptyPassword(t *testing.T) {
	_, err := NewBcrypt(bcrypt.MinCost).Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestBcrypt_MalformedHashNeverMatches(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)
	assert.False(t, h.Verify("pw", "not-a-hash"))
	assert.False(t, h.Verify("pw", ""))
}

func TestNewBcrypt_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, NewBcrypt(1).Cost())
	assert.Equal(t, bcrypt.MaxCost, NewBcrypt(99).Cost())
}

func TestBcrypt_LongMultibytePassword(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)
	pw := strings.Repeat("\U0001F600", 19) // 76 bytes

	hash, err := h.Hash(pw)
	require.NoError(t, err)
	assert.True(t, h.Verify(pw, hash))
	assert.False(t, h.Verify(strings.Repeat("\U0001F601", 19), hash))

	// Only the first 18 emoji (72 bytes) take part in the hash.
	assert.True(t, h.Verify(strings.Repeat("\U0001F600", 18), hash))
	assert.False(t, h.Verify(strings.Repeat("\U0001F600", 17), hash))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short input untouched", "hunter2", "hunter2"},
		{"exactly the limit", strings.Repeat("a", 72), strings.Repeat("a", 72)},
		{"ascii cut at the limit", strings.Repeat("a", 80), strings.Repeat("a", 72)},
		{"4-byte characters on the boundary", strings.Repeat("\U0001F600", 20), strings.Repeat("\U0001F600", 18)},
		{"3-byte character straddling the boundary", strings.Repeat("a", 70) + "€", strings.Repeat("a", 70)},
		{"2-byte character straddling the boundary", strings.Repeat("a", 71) + "é", strings.Repeat("a", 71)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in)
			assert.Equal(t, tt.want, string(got))
			assert.LessOrEqual(t, len(got), MaxPasswordBytes)
		})
	}
}
