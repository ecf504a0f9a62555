package middleware

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/cropadvisor/pkg/models"
)

type contextKey string

const principalKey contextKey = "principal"

// SetPrincipal stores the authenticated caller in ctx.
func SetPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal returns the caller set by Authenticate, or nil.
func GetPrincipal(r *http.Request) *models.Principal {
	p, _ := r.Context().Value(principalKey).(*models.Principal)
	return p
}
