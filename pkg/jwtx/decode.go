package jwtx

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed     = errors.New("jwtx: token must have three dot-separated segments")
	ErrEncoding      = errors.New("jwtx: payload segment is not valid base64url")
	ErrPayload       = errors.New("jwtx: payload segment is not a JSON claim set")
	ErrMissingExpiry = errors.New("jwtx: payload has no exp claim")
	ErrExpired       = errors.New("jwtx: token expired")
)

// DecodeError reports why a token could not be read. Reason is one of the
// ErrMalformed/ErrEncoding/ErrPayload/ErrMissingExpiry sentinels.
type DecodeError struct {
	Reason error
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return e.Reason.Error()
	}
	return e.Reason.Error() + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

// segmentParser is only used for its base64url segment decoding. Padded
// segments are tolerated since some issuers emit them.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode reads the claim set out of a bearer token without verifying its
// signature. It never panics; every failure is a *DecodeError.
func Decode(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, &DecodeError{Reason: ErrMalformed}
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return Claims{}, &DecodeError{Reason: ErrEncoding, Err: err}
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, &DecodeError{Reason: ErrPayload, Err: err}
	}

	if claims.ExpiresAt == nil {
		return Claims{}, &DecodeError{Reason: ErrMissingExpiry}
	}

	// NumericDate truncates to jwt.TimePrecision; keep fractional seconds at
	// millisecond precision, rounded up so exp*1000 <= now stays exact.
	var raw struct {
		Exp json.Number `json:"exp"`
	}
	if err := json.Unmarshal(payload, &raw); err == nil {
		if secs, err := raw.Exp.Float64(); err == nil {
			claims.ExpiresAt = &jwt.NumericDate{Time: time.UnixMilli(int64(math.Ceil(secs * 1000)))}
		}
	}

	return claims, nil
}

// IsExpired reports whether token is unusable right now. Tokens that fail to
// decode count as expired.
func IsExpired(token string) bool {
	return IsExpiredAt(token, time.Now())
}

// IsExpiredAt is IsExpired against an explicit clock.
func IsExpiredAt(token string, now time.Time) bool {
	claims, err := Decode(token)
	if err != nil {
		return true
	}
	return claims.ExpiredAt(now)
}
