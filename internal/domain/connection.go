package domain

import "time"

// Connection is the exclusive two-party relationship through which points and
// timeouts flow. Created once by the pairing service; only the Active flag is
// ever mutated afterwards.
type Connection struct {
	ID         string
	AccountAID string
	AccountBID string
	Active     bool
	CreatedAt  time.Time
}

// HasMember reports whether accountID is one of the two parties.
func (c *Connection) HasMember(accountID string) bool {
	return c.AccountAID == accountID || c.AccountBID == accountID
}

// PartnerOf returns the other party's account id, or "" when accountID is not
// a member.
func (c *Connection) PartnerOf(accountID string) string {
	switch accountID {
	case c.AccountAID:
		return c.AccountBID
	case c.AccountBID:
		return c.AccountAID
	default:
		return ""
	}
}

// Validate checks the structural invariants of a connection.
func (c *Connection) Validate() error {
	if c.AccountAID == c.AccountBID {
		return ErrSameAccount
	}
	return nil
}
