package domain

import "errors"

var (
	ErrKeyLoad           = errors.New("key load failed")
	ErrKeyFormat         = errors.New("key format invalid")
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrSignatureInvalid  = errors.New("signature invalid")
	ErrSchema            = errors.New("statement schema invalid")
	ErrNotFound          = errors.New("not found")
)
