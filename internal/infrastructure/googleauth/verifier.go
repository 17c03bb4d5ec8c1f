package googleauth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"

	"github.com/trueque-app/trueque-api/internal/application/auth"
)

// Verifier validates Google ID tokens against our OAuth client ID.
type Verifier struct {
	clientID string
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID}
}

// Verify checks the token signature and audience and extracts the
// claims we care about.
func (v *Verifier) Verify(ctx context.Context, token string) (*auth.GoogleClaims, error) {
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validate id token: %w", err)
	}

	claims := &auth.GoogleClaims{
		Subject: payload.Subject,
		Email:   stringClaim(payload, "email"),
		Name:    stringClaim(payload, "name"),
		Picture: stringClaim(payload, "picture"),
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("id token has no email claim")
	}
	return claims, nil
}

func stringClaim(payload *idtoken.Payload, key string) string {
	if v, ok := payload.Claims[key].(string); ok {
		return v
	}
	return ""
}
