// Package credential decodes credentials received over the wire and
// encodes them for storage.
package credential

import (
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidEncoding = errors.New("credential is not valid base64")

const (
	KindPlain  = "plain"
	KindBcrypt = "bcrypt"
)

// Decode reverses the transport encoding (standard base64).
func Decode(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return string(raw), nil
}

// Encode applies the transport encoding. Used by clients and tests.
func Encode(raw string) string {
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// Encoder turns a decoded credential into its stored form.
type Encoder interface {
	Encode(raw string) (string, error)
	Matches(raw, stored string) bool
}

// NewEncoder returns the encoder named by kind; an empty kind means plain.
func NewEncoder(kind string, cost int) (Encoder, error) {
	switch kind {
	case "", KindPlain:
		return PlainEncoder{}, nil
	case KindBcrypt:
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
		}
		return BcryptEncoder{Cost: cost}, nil
	default:
		return nil, fmt.Errorf("unknown credential encoder %q", kind)
	}
}

// PlainEncoder stores the decoded credential verbatim.
type PlainEncoder struct{}

func (PlainEncoder) Encode(raw string) (string, error) {
	return raw, nil
}

func (PlainEncoder) Matches(raw, stored string) bool {
	return raw == stored
}

// BcryptEncoder stores a one-way bcrypt hash.
type BcryptEncoder struct {
	Cost int
}

func (e BcryptEncoder) Encode(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), e.Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash credential: %w", err)
	}
	return string(hash), nil
}

func (e BcryptEncoder) Matches(raw, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(raw)) == nil
}
