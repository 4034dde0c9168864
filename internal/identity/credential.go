package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// CredentialKind tells the provider how to verify a credential.
type CredentialKind int

const (
	// SessionCookie is a Firebase session cookie minted by ExchangeIDToken.
	SessionCookie CredentialKind = iota + 1
	// IDToken is a Firebase ID token sent as a bearer token.
	IDToken
)

func (k CredentialKind) String() string {
	switch k {
	case SessionCookie:
		return "session_cookie"
	case IDToken:
		return "id_token"
	}
	return "unknown"
}

// Credential is the raw proof of sign-in carried by a request.
type Credential struct {
	Kind  CredentialKind
	Value string
}

// key identifies the credential without keeping the secret around.
func (c Credential) key() string {
	sum := sha256.Sum256([]byte(c.Value))
	return c.Kind.String() + ":" + hex.EncodeToString(sum[:])
}

type credentialKey struct{}

// WithCredential binds the request credential to ctx.
func WithCredential(ctx context.Context, c Credential) context.Context {
	return context.WithValue(ctx, credentialKey{}, c)
}

// CredentialFromContext returns the credential bound to ctx.
func CredentialFromContext(ctx context.Context) (Credential, bool) {
	c, ok := ctx.Value(credentialKey{}).(Credential)
	return c, ok && c.Value != ""
}
