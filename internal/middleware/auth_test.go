// MsHoa Learning | 2026
// auth_test.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mshoa-learning/backend/internal/core"
)

type stubVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (s *stubVerifier) VerifyAccessToken(
	_ context.Context,
	_ string,
) (*AccessTokenClaims, error) {
	return s.claims, s.err
}

type stubAccounts struct {
	active bool
	err    error
}

func (s *stubAccounts) IsAccountActive(_ context.Context, _ string) (bool, error) {
	return s.active, s.err
}

type stubRevocations struct {
	revoked bool
	err     error
}

func (s *stubRevocations) IsAccessTokenBlacklisted(_ context.Context, _ string) (bool, error) {
	return s.revoked, s.err
}

func captureHandler(gotUser *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotUser = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", ""},
		{"bearer token", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"case insensitive scheme", "bearer abc", "abc"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
		{"scheme only", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, ExtractToken(r))
		})
	}
}

func TestAuthenticator(t *testing.T) {
	claims := &AccessTokenClaims{UserID: "u1", Role: "user", Tier: "free", TokenID: "jti-1"}

	t.Run("valid token passes claims through", func(t *testing.T) {
		var gotUser string
		mw := Authenticator(&stubVerifier{claims: claims}, &stubAccounts{active: true}, nil)

		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer tok")
		mw(captureHandler(&gotUser)).ServeHTTP(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", gotUser)
	})

	t.Run("missing token rejected", func(t *testing.T) {
		var gotUser string
		mw := Authenticator(&stubVerifier{claims: claims}, nil, nil)

		rec := httptest.NewRecorder()
		mw(captureHandler(&gotUser)).ServeHTTP(
			rec, httptest.NewRequest(http.MethodGet, "/", nil),
		)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, gotUser)
	})

	t.Run("expired token maps to token_expired", func(t *testing.T) {
		var gotUser string
		mw := Authenticator(&stubVerifier{err: core.ErrTokenExpired}, nil, nil)

		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer tok")
		mw(captureHandler(&gotUser)).ServeHTTP(rec, r)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "TOKEN_EXPIRED")
	})

	t.Run("deactivated account rejected despite valid token", func(t *testing.T) {
		var gotUser string
		mw := Authenticator(&stubVerifier{claims: claims}, &stubAccounts{active: false}, nil)

		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer tok")
		mw(captureHandler(&gotUser)).ServeHTTP(rec, r)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, gotUser)
	})

	t.Run("blacklisted token rejected as revoked", func(t *testing.T) {
		var gotUser string
		mw := Authenticator(
			&stubVerifier{claims: claims},
			&stubAccounts{active: true},
			&stubRevocations{revoked: true},
		)

		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer tok")
		mw(captureHandler(&gotUser)).ServeHTTP(rec, r)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "TOKEN_REVOKED")
		assert.Empty(t, gotUser)
	})

	t.Run("blacklist outage fails open", func(t *testing.T) {
		var gotUser string
		mw := Authenticator(
			&stubVerifier{claims: claims},
			&stubAccounts{active: true},
			&stubRevocations{err: errors.New("redis down")},
		)

		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer tok")
		mw(captureHandler(&gotUser)).ServeHTTP(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", gotUser)
	})
}

func TestOptionalAuthFallsThroughAsAnonymous(t *testing.T) {
	claims := &AccessTokenClaims{UserID: "u1", Role: "user", Tier: "vip", TokenID: "jti-1"}

	tests := []struct {
		name        string
		verifier    TokenVerifier
		accounts    AccountChecker
		revocations TokenRevocations
		header      string
		wantUser    string
	}{
		{
			name:     "no token stays anonymous",
			verifier: &stubVerifier{claims: claims},
			wantUser: "",
		},
		{
			name:     "valid token resolves user",
			verifier: &stubVerifier{claims: claims},
			accounts: &stubAccounts{active: true},
			header:   "Bearer tok",
			wantUser: "u1",
		},
		{
			name:     "invalid token degrades to anonymous",
			verifier: &stubVerifier{err: core.ErrTokenInvalid},
			header:   "Bearer garbage",
			wantUser: "",
		},
		{
			name:     "expired token degrades to anonymous",
			verifier: &stubVerifier{err: core.ErrTokenExpired},
			header:   "Bearer stale",
			wantUser: "",
		},
		{
			name:     "deactivated account degrades to anonymous",
			verifier: &stubVerifier{claims: claims},
			accounts: &stubAccounts{active: false},
			header:   "Bearer tok",
			wantUser: "",
		},
		{
			name:        "blacklisted token degrades to anonymous",
			verifier:    &stubVerifier{claims: claims},
			revocations: &stubRevocations{revoked: true},
			header:      "Bearer tok",
			wantUser:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			mw := OptionalAuth(tt.verifier, tt.accounts, tt.revocations)

			rec := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/courses", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			mw(captureHandler(&gotUser)).ServeHTTP(rec, r)

			// Optional auth never blocks the request.
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantUser, gotUser)
		})
	}
}

func TestRequireVIP(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	request := func(claims *AccessTokenClaims) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if claims != nil {
			r = r.WithContext(withClaims(r.Context(), claims))
		}
		return r
	}

	t.Run("anonymous rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireVIP(next).ServeHTTP(rec, request(nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("free tier rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireVIP(next).ServeHTTP(
			rec, request(&AccessTokenClaims{UserID: "u1", Tier: "free"}),
		)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("lapsed vip rejected", func(t *testing.T) {
		expired := time.Now().Add(-time.Hour)
		rec := httptest.NewRecorder()
		RequireVIP(next).ServeHTTP(rec, request(&AccessTokenClaims{
			UserID: "u1", Tier: "vip", MembershipExpiry: &expired,
		}))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("live vip passes", func(t *testing.T) {
		until := time.Now().Add(time.Hour)
		rec := httptest.NewRecorder()
		RequireVIP(next).ServeHTTP(rec, request(&AccessTokenClaims{
			UserID: "u1", Tier: "vip", MembershipExpiry: &until,
		}))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("vip without expiry passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireVIP(next).ServeHTTP(
			rec, request(&AccessTokenClaims{UserID: "u1", Tier: "vip"}),
		)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
