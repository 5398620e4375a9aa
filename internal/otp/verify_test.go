package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issue(t *testing.T, c *Codec) (code, token string) {
	t.Helper()
	code = "123456"
	token, err := c.Encode(code, "홍길동", "01012345678")
	require.NoError(t, err)
	return code, token
}

func TestVerify_Success(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)
	v := NewVerifier(c, false)
	code, token := issue(t, c)

	err := v.Verify(Input{Name: "홍길동", Phone: "01012345678", Code: code, Token: token})
	assert.NoError(t, err)
}

func TestVerify_EmptyCodeSkipsWhenOptional(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)
	v := NewVerifier(c, false)

	err := v.Verify(Input{Name: "홍길동", Phone: "01012345678"})
	assert.NoError(t, err)
}

func TestVerify_EmptyCodeRejectedWhenRequired(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)
	v := NewVerifier(c, true)

	err := v.Verify(Input{Name: "홍길동", Phone: "01012345678"})
	assert.ErrorIs(t, err, ErrCodeRequired)
}

func TestVerify_CodeWithoutToken(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)
	v := NewVerifier(c, false)

	err := v.Verify(Input{Name: "홍길동", Phone: "01012345678", Code: "123456"})
	assert.ErrorIs(t, err, ErrTokenRequired)
}

func TestVerify_GarbageToken(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)
	v := NewVerifier(c, false)

	err := v.Verify(Input{Name: "홍길동", Phone: "01012345678", Code: "123456", Token: "not-a-token"})
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_Expired(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)
	v := NewVerifier(c, false)
	code, token := issue(t, c)

	// 181 seconds after issuance the window is gone.
	v.now = func() time.Time { return time.Now().Add(181 * time.Second) }

	err := v.Verify(Input{Name: "홍길동", Phone: "01012345678", Code: code, Token: token})
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestVerify_WrongCode(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)
	v := NewVerifier(c, false)
	_, token := issue(t, c)

	err := v.Verify(Input{Name: "홍길동", Phone: "01012345678", Code: "000000", Token: token})
	assert.ErrorIs(t, err, ErrCodeMismatch)
}

func TestVerify_WrongName(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)
	v := NewVerifier(c, false)
	code, token := issue(t, c)

	err := v.Verify(Input{Name: "홍길순", Phone: "01012345678", Code: code, Token: token})
	assert.ErrorIs(t, err, ErrNameMismatch)
}

func TestVerify_WrongPhone(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)
	v := NewVerifier(c, false)
	code, token := issue(t, c)

	err := v.Verify(Input{Name: "홍길동", Phone: "01087654321", Code: code, Token: token})
	assert.ErrorIs(t, err, ErrPhoneMismatch)
}

func TestVerify_NormalizedPhoneMatches(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)
	v := NewVerifier(c, false)
	code, token := issue(t, c)

	err := v.Verify(Input{
		Name:  "홍길동",
		Phone: NormalizePhone("010-1234-5678"),
		Code:  code,
		Token: token,
	})
	assert.NoError(t, err)
}

func TestVerify_CheckOrderFailsFast(t *testing.T) {
	c := NewCodec("test-secret", 3*time.Minute)
	v := NewVerifier(c, false)
	_, token := issue(t, c)

	// Wrong code AND wrong name: the code check runs first.
	err := v.Verify(Input{Name: "홍길순", Phone: "01012345678", Code: "000000", Token: token})
	assert.ErrorIs(t, err, ErrCodeMismatch)
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.GreaterOrEqual(t, code[0], byte('1'))
		assert.LessOrEqual(t, code[0], byte('9'))
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "01012345678", NormalizePhone("010-1234-5678"))
	assert.Equal(t, "01012345678", NormalizePhone("01012345678"))
	assert.Equal(t, "01012345678", NormalizePhone(" 010 1234 5678 "))
	assert.Equal(t, "", NormalizePhone("abc"))
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("01012345678"))
	assert.False(t, ValidPhone("11012345678")) // no leading zero
	assert.False(t, ValidPhone("0101234567"))  // 10 digits
	assert.False(t, ValidPhone(""))
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("홍길동"))
	assert.True(t, ValidName("김수"))
	assert.False(t, ValidName("김"))
	assert.False(t, ValidName(""))
}
