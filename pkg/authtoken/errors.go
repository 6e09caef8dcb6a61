package authtoken

import "errors"

var (
	ErrInvalidToken            = errors.New("authtoken: invalid token")
	ErrExpiredToken            = errors.New("authtoken: token is expired")
	ErrInvalidSignature        = errors.New("authtoken: invalid signature")
	ErrUnexpectedSigningMethod = errors.New("authtoken: unexpected signing method")
	ErrMissingSigningKey       = errors.New("authtoken: missing signing key")
	ErrSharedSigningKey        = errors.New("authtoken: access and refresh signing keys must differ")
	ErrUnknownKind             = errors.New("authtoken: unknown token kind")
)
