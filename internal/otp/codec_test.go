package otp

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)

	before := time.Now()
	token, err := c.Encode("123456", "홍길동", "01012345678")
	require.NoError(t, err)

	ch, err := c.Decode(token)
	require.NoError(t, err)

	assert.Equal(t, "123456", ch.Code)
	assert.Equal(t, "홍길동", ch.Name)
	assert.Equal(t, "01012345678", ch.Phone)

	ttl := ch.ExpiresAt().Sub(before)
	assert.InDelta(t, 180*time.Second, ttl, float64(5*time.Second))
}

func TestCodec_TokenFormat(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)

	token, err := c.Encode("654321", "김철수", "01099998888")
	require.NoError(t, err)

	parts := strings.Split(token, ":")
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 32) // 16-byte IV, hex encoded
	assert.NotEmpty(t, parts[1])
}

func TestCodec_FreshIVPerCall(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)

	t1, err := c.Encode("123456", "홍길동", "01012345678")
	require.NoError(t, err)
	t2, err := c.Encode("123456", "홍길동", "01012345678")
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)
}

func TestCodec_DecodeMalformed(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)

	cases := map[string]string{
		"empty":             "",
		"no separator":      "deadbeef",
		"bad iv hex":        "zz:deadbeef",
		"short iv":          "dead:deadbeefdeadbeefdeadbeefdeadbeef",
		"bad ct hex":        strings.Repeat("ab", 16) + ":nothex",
		"empty ct":          strings.Repeat("ab", 16) + ":",
		"ct not block size": strings.Repeat("ab", 16) + ":abcdef",
		"random bytes":      "f3a1:9b77:01",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			ch, err := c.Decode(token)
			assert.Nil(t, ch)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestCodec_DecodeWrongSecret(t *testing.T) {
	issuer := NewCodec("secret-a", 3*time.Minute)
	other := NewCodec("secret-b", 3*time.Minute)

	token, err := issuer.Encode("123456", "홍길동", "01012345678")
	require.NoError(t, err)

	_, err = other.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_DecodeTampered(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)

	token, err := c.Encode("123456", "홍길동", "01012345678")
	require.NoError(t, err)

	// Flip a nibble in the last ciphertext block.
	tampered := []byte(token)
	last := len(tampered) - 1
	if tampered[last] == 'a' {
		tampered[last] = 'b'
	} else {
		tampered[last] = 'a'
	}

	_, err = c.Decode(string(tampered))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_ExpiredTokenStillDecodes(t *testing.T) {
	// Expiry is the verifier's job; decode only answers "is this genuine".
	c := NewCodec("test-secret", -time.Minute)

	token, err := c.Encode("123456", "홍길동", "01012345678")
	require.NoError(t, err)

	ch, err := c.Decode(token)
	require.NoError(t, err)
	assert.True(t, ch.ExpiresAt().Before(time.Now()))
}
