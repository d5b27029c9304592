package identity_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/khyberwear/khyber-shawls-sub000/internal/identity"

	"github.com/stretchr/testify/assert"
)

func TestHeaderProvider_FromRequest(t *testing.T) {
	provider := identity.NewHeaderProvider([]string{"Staff@KhyberWear.example"})

	testCases := []struct {
		name   string
		userID string
		email  string
		want   identity.Identity
	}{
		{
			name: "anonymous",
			want: identity.Identity{},
		},
		{
			name:   "regular user",
			userID: "u-1",
			email:  "customer@example.com",
			want:   identity.Identity{UserID: "u-1", Email: "customer@example.com"},
		},
		{
			name:   "admin matched case-insensitively",
			userID: "u-2",
			email:  "  staff@khyberwear.example ",
			want:   identity.Identity{UserID: "u-2", Email: "  staff@khyberwear.example ", IsAdmin: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.userID != "" {
				req.Header.Set("X-User-Id", tc.userID)
			}
			if tc.email != "" {
				req.Header.Set("X-User-Email", tc.email)
			}
			assert.Equal(t, tc.want, provider.FromRequest(req))
		})
	}
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, identity.Identity{}, identity.FromContext(ctx))

	want := identity.Identity{UserID: "u-1", IsAdmin: true}
	ctx = identity.WithIdentity(ctx, want)
	assert.Equal(t, want, identity.FromContext(ctx))
}
