package otp

import (
	"errors"
	"time"
)

// Verification failure reasons, in the order the checks run. The first
// failing check wins; later fields are never inspected.
var (
	ErrCodeRequired  = errors.New("verification code required")
	ErrTokenRequired = errors.New("otp token required")
	ErrTokenInvalid  = errors.New("otp token invalid")
	ErrCodeExpired   = errors.New("verification code expired")
	ErrCodeMismatch  = errors.New("verification code mismatch")
	ErrNameMismatch  = errors.New("name mismatch")
	ErrPhoneMismatch = errors.New("phone mismatch")
)

// Input is the identity claim and proof a caller submits for verification.
// Name and Phone are expected to be normalized already.
type Input struct {
	Name  string
	Phone string
	Code  string
	Token string
}

// Verifier applies the challenge lifecycle rules to a verification attempt.
// It holds no per-challenge state; everything it checks comes from the
// decoded token and the caller's input.
type Verifier struct {
	codec      *Codec
	requireOTP bool
	now        func() time.Time
}

// NewVerifier builds a Verifier. When requireOTP is false an empty code
// skips verification entirely, matching the lookup-without-code behavior the
// site has always had; set it to true to close that path.
func NewVerifier(codec *Codec, requireOTP bool) *Verifier {
	return &Verifier{
		codec:      codec,
		requireOTP: requireOTP,
		now:        time.Now,
	}
}

// Verify runs the checks in fixed order and returns nil when the caller is
// authorized for one downstream lookup. Every failure is terminal for the
// current request.
func (v *Verifier) Verify(in Input) error {
	if in.Code == "" {
		if v.requireOTP {
			return ErrCodeRequired
		}
		return nil
	}

	if in.Token == "" {
		return ErrTokenRequired
	}

	ch, err := v.codec.Decode(in.Token)
	if err != nil {
		return ErrTokenInvalid
	}

	if v.now().After(ch.ExpiresAt()) {
		return ErrCodeExpired
	}

	if ch.Code != in.Code {
		return ErrCodeMismatch
	}

	if ch.Name != in.Name {
		return ErrNameMismatch
	}

	if ch.Phone != in.Phone {
		return ErrPhoneMismatch
	}

	return nil
}
