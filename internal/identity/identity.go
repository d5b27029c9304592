// Package identity consumes the external session collaborator. The
// order core only needs an optional current user for attribution and
// an admin check for the staff routes; how sessions are issued is not
// its business.
package identity

import (
	"context"
	"net/http"
	"strings"
)

type Identity struct {
	UserID  string
	Email   string
	IsAdmin bool
}

type Provider interface {
	FromRequest(r *http.Request) Identity
}

// HeaderProvider derives the current identity from trusted gateway
// headers. Admin rights come from a configured email allow-list.
type HeaderProvider struct {
	admins map[string]struct{}
}

func NewHeaderProvider(adminEmails []string) *HeaderProvider {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		admins[normalize(email)] = struct{}{}
	}
	return &HeaderProvider{admins: admins}
}

func (p *HeaderProvider) FromRequest(r *http.Request) Identity {
	email := r.Header.Get("X-User-Email")
	return Identity{
		UserID:  r.Header.Get("X-User-Id"),
		Email:   email,
		IsAdmin: p.isAdmin(email),
	}
}

func (p *HeaderProvider) isAdmin(email string) bool {
	if email == "" {
		return false
	}
	_, ok := p.admins[normalize(email)]
	return ok
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(ctxKey{}).(Identity)
	return id
}
