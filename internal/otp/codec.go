package otp

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrInvalidToken is returned for any token that cannot be decoded. Forged,
// truncated, corrupted and never-issued tokens are deliberately
// indistinguishable from one another.
var ErrInvalidToken = errors.New("invalid otp token")

// Challenge is the payload carried by an OTP token. It is the only place the
// challenge state lives: nothing is persisted server-side between issuing a
// code and verifying it, so the issue and verify calls may land on different
// processes.
type Challenge struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Expires int64  `json:"expires"` // unix milliseconds
}

// ExpiresAt returns the challenge expiry as a time.Time.
func (ch *Challenge) ExpiresAt() time.Time {
	return time.UnixMilli(ch.Expires)
}

// Codec encrypts and decrypts OTP challenges into opaque tokens.
// Tokens are AES-256-CBC over the JSON payload with a fresh random IV per
// call, serialized as hex(iv) + ":" + hex(ciphertext).
type Codec struct {
	key [32]byte
	ttl time.Duration
}

// NewCodec derives the encryption key from the server-held secret.
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{
		key: sha256.Sum256([]byte(secret)),
		ttl: ttl,
	}
}

// Encode mints a token for the given code and identity, valid for the
// codec's TTL from now. Two calls with identical inputs produce different
// tokens because the IV is regenerated every time.
func (c *Codec) Encode(code, name, phone string) (string, error) {
	payload, err := json.Marshal(Challenge{
		Code:    code,
		Name:    name,
		Phone:   phone,
		Expires: time.Now().Add(c.ttl).UnixMilli(),
	})
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	plaintext := pkcs7Pad(payload, aes.BlockSize)
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decode recovers a challenge from a token. It returns ErrInvalidToken for
// anything that is not a well-formed token encrypted under this codec's key;
// it never reports why decoding failed. Expiry is NOT checked here -- the
// verifier distinguishes expired-but-genuine tokens from garbage.
func (c *Codec) Decode(token string) (*Challenge, error) {
	ivHex, encHex, ok := strings.Cut(token, ":")
	if !ok {
		return nil, ErrInvalidToken
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return nil, ErrInvalidToken
	}

	ciphertext, err := hex.DecodeString(encHex)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrInvalidToken
	}

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, ErrInvalidToken
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var ch Challenge
	if err := json.Unmarshal(unpadded, &ch); err != nil {
		return nil, ErrInvalidToken
	}

	return &ch, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrInvalidToken
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, ErrInvalidToken
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, ErrInvalidToken
		}
	}
	return data[:len(data)-padding], nil
}
