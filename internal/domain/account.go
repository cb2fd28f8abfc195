package domain

import (
	"crypto/rand"
	"regexp"
	"time"
)

// Account represents one half of a paired relationship. Balance is a cached
// running sum; the transaction log is the source of truth.
type Account struct {
	ID                string
	DisplayName       string
	Balance           int64
	PairingCode       string
	PartnerID         *string
	LastTimeoutUsedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Paired reports whether the account has a partner.
func (a *Account) Paired() bool {
	return a.PartnerID != nil && *a.PartnerID != ""
}

const (
	PairingCodeLength  = 6
	pairingCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var pairingCodeRegex = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// NewPairingCode generates a 6-character uppercase alphanumeric code.
// Rejection sampling keeps the draw uniform over the charset.
func NewPairingCode() string {
	// Largest multiple of the charset size below 256; bytes at or above it
	// would skew the modulo toward the low characters.
	const limit = byte(256 - 256%len(pairingCodeCharset))

	code := make([]byte, 0, PairingCodeLength)
	buf := make([]byte, 16)

	for len(code) < PairingCodeLength {
		_, _ = rand.Read(buf)

		for _, b := range buf {
			if b >= limit {
				continue
			}

			code = append(code, pairingCodeCharset[int(b)%len(pairingCodeCharset)])
			if len(code) == PairingCodeLength {
				break
			}
		}
	}

	return string(code)
}

// ValidPairingCode reports whether s has the pairing code shape.
func ValidPairingCode(s string) bool {
	return pairingCodeRegex.MatchString(s)
}
