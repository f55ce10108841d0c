package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
)

// verifies tokens by asking the hosted identity API who they belong to
type GoTrueVerifier struct {
	client gotrue.Client
}

// identityURL is the auth API base, e.g. https://<project>.supabase.co/auth/v1
func NewGoTrueVerifier(identityURL, anonKey string) *GoTrueVerifier {
	client := gotrue.New("", anonKey).
		WithCustomGoTrueURL(identityURL).
		WithClient(http.Client{Timeout: 10 * time.Second})

	return &GoTrueVerifier{client: client}
}

func (v *GoTrueVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	user, err := v.client.WithToken(token).GetUser()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if user == nil || user.ID == uuid.Nil {
		return nil, ErrNoSubject
	}

	return &Identity{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}
