// MsHoa Learning | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mshoa-learning/backend/internal/core"
)

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
	UserTierKey contextKey = "user_tier"
	ClaimsKey   contextKey = "jwt_claims"
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

// AccountChecker resolves whether the account behind a verified token is
// still allowed to authenticate. Deactivated accounts are rejected even
// when their tokens have not yet expired.
type AccountChecker interface {
	IsAccountActive(ctx context.Context, userID string) (bool, error)
}

type AccessTokenClaims struct {
	UserID           string
	Role             string
	Tier             string
	MembershipExpiry *time.Time
	TokenVersion     int
	TokenID          string
	ExpiresAt        time.Time
}

// TokenRevocations reports access tokens revoked before their expiry,
// e.g. by logout. Lookup failures fail open: a revoked token dies at
// its natural expiry anyway, and a cache outage must not lock every
// caller out.
type TokenRevocations interface {
	IsAccessTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

func Authenticator(
	verifier TokenVerifier,
	accounts AccountChecker,
	revocations TokenRevocations,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			if tokenRevoked(r.Context(), revocations, claims.TokenID) {
				core.JSONError(w, core.TokenRevokedError())
				return
			}

			if accounts != nil {
				active, checkErr := accounts.IsAccountActive(
					r.Context(),
					claims.UserID,
				)
				if checkErr != nil {
					core.InternalServerError(w, checkErr)
					return
				}
				if !active {
					core.JSONError(
						w,
						core.UnauthorizedError("account is deactivated"),
					)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth performs the same resolution as Authenticator but proceeds
// with an anonymous context on any failure. Used by catalog endpoints that
// serve a different payload to authenticated callers.
func OptionalAuth(
	verifier TokenVerifier,
	accounts AccountChecker,
	revocations TokenRevocations,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token != "" {
				claims, err := verifier.VerifyAccessToken(r.Context(), token)
				if err == nil &&
					!tokenRevoked(r.Context(), revocations, claims.TokenID) &&
					accountActive(r.Context(), accounts, claims.UserID) {
					r = r.WithContext(withClaims(r.Context(), claims))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func tokenRevoked(
	ctx context.Context,
	revocations TokenRevocations,
	jti string,
) bool {
	if revocations == nil || jti == "" {
		return false
	}
	revoked, err := revocations.IsAccessTokenBlacklisted(ctx, jti)
	return err == nil && revoked
}

func accountActive(
	ctx context.Context,
	accounts AccountChecker,
	userID string,
) bool {
	if accounts == nil {
		return true
	}
	active, err := accounts.IsAccountActive(ctx, userID)
	return err == nil && active
}

func withClaims(
	ctx context.Context,
	claims *AccessTokenClaims,
) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
	ctx = context.WithValue(ctx, UserTierKey, claims.Tier)
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return ctx
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole := GetUserRole(r.Context())

			if userRole == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if _, ok := roleSet[userRole]; !ok {
				core.JSONError(
					w,
					core.ForbiddenError("insufficient permissions"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole("admin")(next)
}

// RequireVIP gates endpoints on a live VIP membership. Expiry is checked
// against the token claims; content-level checks recompute it from the
// store so a stale claim can never outlive the membership by more than
// the access-token lifetime.
func RequireVIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())

		if claims == nil {
			core.JSONError(
				w,
				core.UnauthorizedError("authentication required"),
			)
			return
		}

		if claims.Tier != "vip" || membershipLapsed(claims.MembershipExpiry) {
			core.JSONError(
				w,
				core.ForbiddenError("VIP membership required"),
			)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func membershipLapsed(expiry *time.Time) bool {
	return expiry != nil && time.Now().After(*expiry)
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

func GetUserRole(ctx context.Context) string {
	if role, ok := ctx.Value(UserRoleKey).(string); ok {
		return role
	}
	return ""
}

func GetUserTier(ctx context.Context) string {
	if tier, ok := ctx.Value(UserTierKey).(string); ok {
		return tier
	}
	return ""
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}

func IsAuthenticated(ctx context.Context) bool {
	return GetUserID(ctx) != ""
}

func IsAdmin(ctx context.Context) bool {
	return GetUserRole(ctx) == "admin"
}
