package authtoken

import "time"

// Kind selects which signing key a token is bound to. Access and refresh
// tokens are signed with distinct keys so a leaked key of one kind cannot
// forge tokens of the other.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the payload carried by every issued token. The jti is random per
// token, so two tokens for the same subject issued within the same second are
// still distinct strings.
type Claims struct {
	ID        string `json:"jti"`
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Valid checks the expiry claim against the current time.
func (c Claims) Valid() error {
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return ErrExpiredToken
	}
	return nil
}
