package auth

import (
	"context"
	"fmt"
)

// Verifier checks bearer tokens: a valid signature and a live session
type Verifier struct {
	sessions SessionStore
}

// NewVerifier creates a token verifier backed by sessions
func NewVerifier(sessions SessionStore) *Verifier {
	return &Verifier{sessions: sessions}
}

// Verify parses the token and confirms its session has not been revoked
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := ParseToken(token)
	if err != nil {
		return nil, err
	}
	if claims.SessionID() == "" {
		return nil, fmt.Errorf("token has no session")
	}

	s, err := v.sessions.Get(ctx, claims.SessionID())
	if err != nil {
		return nil, err
	}
	if s.UID != claims.UID {
		return nil, fmt.Errorf("session does not belong to token subject")
	}
	return claims, nil
}

// VerifyToken reports whether token may call authenticated endpoints
func (v *Verifier) VerifyToken(ctx context.Context, token string) bool {
	_, err := v.Verify(ctx, token)
	return err == nil
}
